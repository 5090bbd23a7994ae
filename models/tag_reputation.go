package models

import "time"

// TagReputation is the incrementally maintained sum of a user's answer scores
// on questions carrying the tag. It is written inside the same transaction as
// the vote it reflects; a full recompute from answers remains available as the
// correctness oracle.
type TagReputation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_tag_reputation_user_tag" json:"user_id"`
	TagID     uint      `gorm:"not null;uniqueIndex:idx_tag_reputation_user_tag" json:"tag_id"`
	Score     int64     `gorm:"default:0" json:"score"`
	UpdatedAt time.Time `json:"-"`
}

func (TagReputation) TableName() string {
	return "tag_reputation"
}
