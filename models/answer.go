package models

import "time"

// Answer.Score is the net vote tally. It is only ever written inside the
// engine's vote transaction; reads elsewhere are display-only.
type Answer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuestionID uint      `gorm:"index;not null" json:"question_id"`
	ExpertID   *uint     `gorm:"index" json:"expert_id"`
	Response   string    `gorm:"type:text;not null" json:"response"`
	Score      int64     `gorm:"default:0" json:"score"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"-"`
}

func (Answer) TableName() string {
	return "answers"
}
