package models

import "time"

// Community starts life as an unapproved request; an admin approves it before
// it becomes visible. Rejection deletes the row.
type Community struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OwnerID     *uint     `gorm:"index" json:"owner_id"`
	Title       string    `gorm:"size:100;uniqueIndex;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	AvatarURL   *string   `gorm:"type:varchar(255);null" json:"avatar_url,omitempty"`
	Approved    bool      `gorm:"default:false;index" json:"approved"`
	MemberCount uint      `gorm:"default:0" json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"-"`
}

func (Community) TableName() string {
	return "communities"
}
