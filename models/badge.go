package models

import "time"

// Badge is either global (awarded from overall reputation) or scoped to a tag
// (awarded from reputation earned on answers carrying that tag). The two are
// mutually exclusive: a global badge must not reference a tag and a non-global
// badge must reference one.
type Badge struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	Name            string      `gorm:"size:100;not null" json:"name"`
	Description     string      `gorm:"type:text" json:"description"`
	ImageURL        string      `gorm:"type:varchar(255)" json:"image_url"`
	IsGlobal        bool        `gorm:"default:false" json:"is_global"`
	AssociatedTagID *uint       `gorm:"index" json:"associated_tag_id"`
	Tiers           []BadgeTier `gorm:"foreignKey:BadgeID" json:"tiers,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

func (Badge) TableName() string {
	return "badges"
}

// BadgeTier ranks must agree in both orders: tier levels ascend and their
// thresholds strictly ascend with them. The engine refuses badges that break
// this instead of misranking.
type BadgeTier struct {
	ID                  uint   `gorm:"primaryKey" json:"id"`
	BadgeID             uint   `gorm:"not null;uniqueIndex:idx_badge_tiers_badge_level" json:"badge_id"`
	TierLevel           uint   `gorm:"not null;uniqueIndex:idx_badge_tiers_badge_level" json:"tier_level"`
	Name                string `gorm:"size:100;not null" json:"name"`
	Description         string `gorm:"type:text" json:"description"`
	ImageURL            string `gorm:"type:varchar(255)" json:"image_url"`
	ReputationThreshold int64  `gorm:"not null" json:"reputation_threshold"`
}

func (BadgeTier) TableName() string {
	return "badge_tiers"
}
