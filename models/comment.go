package models

import "time"

// Comment hangs off an answer. Comments carry no score and never feed the
// reputation engine; they only produce a notification for the answer author.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AnswerID  uint      `gorm:"index;not null" json:"answer_id"`
	ExpertID  *uint     `gorm:"index" json:"expert_id"`
	Response  string    `gorm:"type:text;not null" json:"response"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

func (Comment) TableName() string {
	return "comments"
}
