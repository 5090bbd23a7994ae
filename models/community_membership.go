package models

import "time"

// CommunityMembership is the per-community reputation ledger. The stored
// reputation is signed; responses clamp it at zero.
type CommunityMembership struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	CommunityID         uint      `gorm:"not null;uniqueIndex:idx_memberships_community_user" json:"community_id"`
	UserID              uint      `gorm:"not null;uniqueIndex:idx_memberships_community_user" json:"user_id"`
	CommunityReputation int64     `gorm:"default:0" json:"community_reputation"`
	Contributions       uint      `gorm:"default:0" json:"contributions"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"-"`
}

func (CommunityMembership) TableName() string {
	return "community_memberships"
}

func (m *CommunityMembership) DisplayReputation() int64 {
	if m.CommunityReputation < 0 {
		return 0
	}
	return m.CommunityReputation
}
