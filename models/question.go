package models

import "time"

type Question struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AskerID     *uint     `gorm:"index" json:"asker_id"`
	CommunityID *uint     `gorm:"index" json:"community_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	IsAnswered  bool      `gorm:"default:false" json:"is_answered"`
	Tags        []Tag     `gorm:"many2many:question_tags" json:"tags,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"-"`
}

func (Question) TableName() string {
	return "questions"
}
