package engine

import (
	"errors"

	"github.com/Spark-Project-Pulse/backend/models"

	"gorm.io/gorm"
)

// The vote ledger is a thin transactional accessor over the votes table. One
// row per (user, answer) pair; absence means no vote. No business logic here.

// getVote returns the current vote state for the pair plus the stored row (nil
// when the state is none).
func getVote(tx *gorm.DB, userID, answerID uint) (VoteState, *models.Vote, error) {
	var vote models.Vote
	err := tx.Where("user_id = ? AND answer_id = ?", userID, answerID).First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return StateNone, nil, nil
	}
	if err != nil {
		return StateNone, nil, err
	}
	return VoteState(vote.Kind), &vote, nil
}

// setVote replaces or clears the stored vote so exactly zero or one row exists
// for the pair afterwards. The unique (user, answer) index backstops races;
// violations bubble up as gorm.ErrDuplicatedKey for the caller's retry.
func setVote(tx *gorm.DB, stored *models.Vote, userID, answerID uint, next VoteState) error {
	switch {
	case next == StateNone:
		if stored == nil {
			return nil
		}
		return tx.Delete(stored).Error
	case stored != nil:
		return tx.Model(stored).UpdateColumn("kind", string(next)).Error
	default:
		return tx.Create(&models.Vote{
			UserID:   userID,
			AnswerID: answerID,
			Kind:     string(next),
		}).Error
	}
}
