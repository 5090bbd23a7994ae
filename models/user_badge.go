package models

import "time"

// UserBadge points at the highest tier the user has earned for a badge.
// BadgeTierID is null until the first tier is reached. Tiers are permanent:
// the engine upgrades but never downgrades this row.
type UserBadge struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_user_badges_user_badge" json:"user_id"`
	BadgeID     uint      `gorm:"not null;uniqueIndex:idx_user_badges_user_badge" json:"badge_id"`
	BadgeTierID *uint     `gorm:"index" json:"badge_tier_id"`
	EarnedAt    time.Time `json:"earned_at"`
}

func (UserBadge) TableName() string {
	return "user_badges"
}

// UserBadgeProgress tracks movement toward the next tier and exists even
// before the first tier is earned. ProgressTarget never decreases across
// updates so a transient reputation dip cannot shrink the goal post.
type UserBadgeProgress struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;uniqueIndex:idx_badge_progress_user_badge" json:"user_id"`
	BadgeID        uint      `gorm:"not null;uniqueIndex:idx_badge_progress_user_badge" json:"badge_id"`
	ProgressValue  int64     `gorm:"default:0" json:"progress_value"`
	ProgressTarget int64     `gorm:"default:0" json:"progress_target"`
	LastUpdated    time.Time `gorm:"autoUpdateTime" json:"last_updated"`
}

func (UserBadgeProgress) TableName() string {
	return "user_badge_progress"
}
