package models

import "time"

const (
	VoteUpvote   = "upvote"
	VoteDownvote = "downvote"
)

// Vote holds at most one row per (user, answer) pair. Absence means the user
// has no standing vote on the answer.
type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_votes_user_answer" json:"user_id"`
	AnswerID  uint      `gorm:"not null;uniqueIndex:idx_votes_user_answer" json:"answer_id"`
	Kind      string    `gorm:"size:8;not null" json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

func (Vote) TableName() string {
	return "votes"
}
