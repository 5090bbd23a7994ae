package engine

import (
	"errors"
	"fmt"
	"log"

	"github.com/Spark-Project-Pulse/backend/models"

	"gorm.io/gorm"
)

// VoteKind is what the user requests; VoteState is what is stored. The state
// machine has three states (none, upvote, downvote) and six edges: requesting
// the kind already held retracts it, requesting the opposite switches it.
type VoteKind string

const (
	KindUpvote   VoteKind = models.VoteUpvote
	KindDownvote VoteKind = models.VoteDownvote
)

type VoteState string

const (
	StateNone     VoteState = "none"
	StateUpvote   VoteState = VoteState(models.VoteUpvote)
	StateDownvote VoteState = VoteState(models.VoteDownvote)
)

type voteEdge struct {
	delta int64
	next  VoteState
}

// The single transition table. Both vote directions run through it
// symmetrically; there are no per-direction branches anywhere else.
var voteTransitions = map[VoteState]map[VoteKind]voteEdge{
	StateNone: {
		KindUpvote:   {+1, StateUpvote},
		KindDownvote: {-1, StateDownvote},
	},
	StateUpvote: {
		KindUpvote:   {-1, StateNone}, // retract
		KindDownvote: {-2, StateDownvote},
	},
	StateDownvote: {
		KindUpvote:   {+2, StateUpvote},
		KindDownvote: {+1, StateNone}, // retract
	},
}

// Transition returns the score delta and the next vote state for a requested
// vote against the current state.
func Transition(current VoteState, requested VoteKind) (int64, VoteState, error) {
	edges, ok := voteTransitions[current]
	if !ok {
		return 0, current, fmt.Errorf("%w: unknown vote state %q", ErrValidation, current)
	}
	edge, ok := edges[requested]
	if !ok {
		return 0, current, fmt.Errorf("%w: unknown vote kind %q", ErrValidation, requested)
	}
	return edge.delta, edge.next, nil
}

// CastVote applies a user's vote on an answer and returns the answer's new
// score. The score change, the vote row, the author's community reputation
// and the author's tag aggregates commit together or not at all. A
// duplicate-key race with a concurrent vote by the same user is retried once
// against the committed state, then surfaced as ErrConflict.
//
// Badge progress for the answer's author is recomputed after the vote commits
// (each badge in its own transaction, see RecomputeBadges).
func (e *Engine) CastVote(userID, answerID uint, kind VoteKind) (int64, error) {
	if kind != KindUpvote && kind != KindDownvote {
		return 0, fmt.Errorf("%w: vote kind must be %q or %q", ErrValidation, KindUpvote, KindDownvote)
	}

	var res voteResult
	err := e.castVoteTx(userID, answerID, kind, &res)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		log.Printf("[vote] duplicate vote row for user=%d answer=%d, retrying once", userID, answerID)
		err = e.castVoteTx(userID, answerID, kind, &res)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, fmt.Errorf("%w: concurrent vote on answer %d", ErrConflict, answerID)
		}
	}
	if err != nil {
		return 0, err
	}

	if res.authorID != nil {
		if err := e.RecomputeBadges(*res.authorID, res.tagIDs...); err != nil {
			// The vote itself is committed; progress rows self-heal on the
			// next reputation-affecting event.
			log.Printf("[vote] badge recompute failed for user=%d: %v", *res.authorID, err)
		}
	}
	return res.newScore, nil
}

type voteResult struct {
	newScore int64
	authorID *uint
	tagIDs   []uint
}

func (e *Engine) castVoteTx(userID, answerID uint, kind VoteKind, res *voteResult) error {
	return e.db.Transaction(func(tx *gorm.DB) error {
		var answer models.Answer
		if err := lockForUpdate(tx).First(&answer, answerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: answer %d", ErrNotFound, answerID)
			}
			return err
		}

		current, stored, err := getVote(tx, userID, answerID)
		if err != nil {
			return err
		}
		delta, next, err := Transition(current, kind)
		if err != nil {
			return err
		}

		newScore := answer.Score + delta
		if err := tx.Model(&answer).UpdateColumn("score", newScore).Error; err != nil {
			return err
		}
		if err := setVote(tx, stored, userID, answerID, next); err != nil {
			return err
		}

		var question models.Question
		if err := tx.Preload("Tags").First(&question, answer.QuestionID).Error; err != nil {
			return err
		}
		if err := adjustCommunityReputation(tx, answer.ExpertID, question.CommunityID, delta); err != nil {
			return err
		}

		tagIDs := make([]uint, 0, len(question.Tags))
		for _, t := range question.Tags {
			tagIDs = append(tagIDs, t.ID)
		}
		if answer.ExpertID != nil {
			if err := bumpTagReputation(tx, *answer.ExpertID, tagIDs, delta); err != nil {
				return err
			}
		}

		res.newScore = newScore
		res.authorID = answer.ExpertID
		res.tagIDs = tagIDs
		return nil
	})
}
