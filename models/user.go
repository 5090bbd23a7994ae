package models

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Password     string    `gorm:"size:255;not null" json:"-"`
	ProfileImage *string   `gorm:"type:varchar(255);null" json:"profile_image,omitempty"`
	Reputation   int64     `gorm:"default:0" json:"reputation"`
	Role         string    `gorm:"size:10;default:'user'" json:"role"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

func (User) TableName() string {
	return "users"
}

// DisplayReputation clamps the stored reputation at zero for responses.
// The signed value stays in the DB so later gains have to climb back first.
func (u *User) DisplayReputation() int64 {
	if u.Reputation < 0 {
		return 0
	}
	return u.Reputation
}
