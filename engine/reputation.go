package engine

import (
	"errors"
	"fmt"

	"github.com/Spark-Project-Pulse/backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// adjustCommunityReputation adds delta to the answer author's reputation in
// the question's community. Non-members earn nothing: a missing membership row
// is a no-op, never an error. Runs inside the caller's vote transaction.
func adjustCommunityReputation(tx *gorm.DB, authorID, communityID *uint, delta int64) error {
	if authorID == nil || communityID == nil || delta == 0 {
		return nil
	}
	res := tx.Model(&models.CommunityMembership{}).
		Where("community_id = ? AND user_id = ?", *communityID, *authorID).
		UpdateColumn("community_reputation", gorm.Expr("community_reputation + ?", delta))
	return res.Error
}

// bumpTagReputation folds delta into the author's per-tag aggregates inside
// the vote transaction, keeping them in lockstep with the answer scores they
// summarize.
func bumpTagReputation(tx *gorm.DB, userID uint, tagIDs []uint, delta int64) error {
	if delta == 0 {
		return nil
	}
	for _, tagID := range tagIDs {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "tag_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"score": gorm.Expr("score + ?", delta)}),
		}).Create(&models.TagReputation{UserID: userID, TagID: tagID, Score: delta}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// RecordAnswerCreated applies the side effects of a freshly persisted answer:
// a contribution tick on the author's community membership (no reputation
// change) and a notification to the asker unless they answered themselves.
func (e *Engine) RecordAnswerCreated(answer *models.Answer) error {
	return e.db.Transaction(func(tx *gorm.DB) error {
		var question models.Question
		if err := tx.First(&question, answer.QuestionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: question %d", ErrNotFound, answer.QuestionID)
			}
			return err
		}

		if question.CommunityID != nil && answer.ExpertID != nil {
			if err := tx.Model(&models.CommunityMembership{}).
				Where("community_id = ? AND user_id = ?", *question.CommunityID, *answer.ExpertID).
				UpdateColumn("contributions", gorm.Expr("contributions + 1")).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.Question{}).Where("id = ?", question.ID).
			UpdateColumn("is_answered", true).Error; err != nil {
			return err
		}

		return handleNewAnswer(tx, answer, &question)
	})
}

// GlobalReputation reads the user's persisted reputation counter, the
// authoritative source for global badges.
func (e *Engine) GlobalReputation(userID uint) (int64, error) {
	var user models.User
	if err := e.db.Select("reputation").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return 0, err
	}
	return user.Reputation, nil
}

// TagReputation serves the incrementally maintained aggregate. Zero when the
// user has no scored answers under the tag.
func (e *Engine) TagReputation(userID, tagID uint) (int64, error) {
	var rep models.TagReputation
	err := e.db.Where("user_id = ? AND tag_id = ?", userID, tagID).First(&rep).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rep.Score, nil
}

// RecomputeTagReputation is the full-scan oracle: the live sum of the user's
// answer scores across questions carrying the tag. Tests compare it against
// the incremental aggregate, and the admin resync endpoint repairs drift with it.
func (e *Engine) RecomputeTagReputation(userID, tagID uint) (int64, error) {
	var total *int64
	err := e.db.Model(&models.Answer{}).
		Select("SUM(answers.score)").
		Joins("JOIN question_tags ON question_tags.question_id = answers.question_id").
		Where("answers.expert_id = ? AND question_tags.tag_id = ?", userID, tagID).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// ResyncTagReputation rewrites every one of the user's tag aggregates from
// the oracle. Safe to run any time; normally only needed after manual data
// surgery.
func (e *Engine) ResyncTagReputation(userID uint) error {
	var tagIDs []uint
	err := e.db.Model(&models.Answer{}).
		Distinct("question_tags.tag_id").
		Joins("JOIN question_tags ON question_tags.question_id = answers.question_id").
		Where("answers.expert_id = ?", userID).
		Pluck("question_tags.tag_id", &tagIDs).Error
	if err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		score, err := e.RecomputeTagReputation(userID, tagID)
		if err != nil {
			return err
		}
		err = e.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "tag_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"score": score}),
		}).Create(&models.TagReputation{UserID: userID, TagID: tagID, Score: score}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// AdjustGlobalReputation adds amount to the user's global counter (admin
// path) and returns the new value. Badge recompute is the caller's job.
func (e *Engine) AdjustGlobalReputation(userID uint, amount int64) (int64, error) {
	var newValue int64
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := lockForUpdate(tx).First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: user %d", ErrNotFound, userID)
			}
			return err
		}
		newValue = user.Reputation + amount
		return tx.Model(&user).UpdateColumn("reputation", newValue).Error
	})
	return newValue, err
}
