package engine

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Spark-Project-Pulse/backend/models"

	"gorm.io/gorm"
)

// RecomputeBadges refreshes every (user, badge) pair whose relevant
// reputation could have changed: all global badges plus badges scoped to the
// given tags. Runs once per badge, each in its own transaction, so one
// misconfigured badge never poisons the rest — those are logged and skipped.
func (e *Engine) RecomputeBadges(userID uint, tagIDs ...uint) error {
	var user models.User
	if err := e.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return err
	}

	query := e.db.Preload("Tiers")
	if len(tagIDs) > 0 {
		query = query.Where("is_global = ? OR associated_tag_id IN ?", true, tagIDs)
	} else {
		query = query.Where("is_global = ?", true)
	}
	var badges []models.Badge
	if err := query.Find(&badges).Error; err != nil {
		return err
	}

	for i := range badges {
		err := e.updateBadge(&user, &badges[i])
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			log.Printf("[badges] skipping badge %d (%s): %v", badges[i].ID, badges[i].Name, cfgErr)
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// updateBadge upserts the UserBadge and UserBadgeProgress rows for one badge
// under the monotonic achievement policy: an earned tier is never taken back
// and the progress target never shrinks, even when reputation has since
// dropped.
func (e *Engine) updateBadge(user *models.User, badge *models.Badge) error {
	if !badge.IsGlobal && badge.AssociatedTagID == nil {
		return &ConfigError{BadgeID: badge.ID, Reason: "tag-scoped badge has no associated tag"}
	}
	if badge.IsGlobal && badge.AssociatedTagID != nil {
		return &ConfigError{BadgeID: badge.ID, Reason: "global badge must not reference a tag"}
	}

	return e.db.Transaction(func(tx *gorm.DB) error {
		var reputation int64
		if badge.IsGlobal {
			reputation = user.Reputation
		} else {
			var rep models.TagReputation
			err := tx.Where("user_id = ? AND tag_id = ?", user.ID, *badge.AssociatedTagID).First(&rep).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			reputation = rep.Score
		}

		resolved, err := ResolveTier(reputation, badge.Tiers)
		if err != nil {
			return err
		}
		tiersByID := make(map[uint]*models.BadgeTier, len(badge.Tiers))
		var topTier *models.BadgeTier
		for i := range badge.Tiers {
			t := &badge.Tiers[i]
			tiersByID[t.ID] = t
			if topTier == nil || t.TierLevel > topTier.TierLevel {
				topTier = t
			}
		}

		held, err := upsertUserBadge(tx, user.ID, badge.ID, resolved.Highest, tiersByID)
		if err != nil {
			return err
		}

		return upsertProgress(tx, user.ID, badge.ID, reputation, resolved.Next, held, topTier)
	})
}

// upsertUserBadge creates or upgrades the earned-tier row and returns the
// tier the user holds afterwards (nil when no tier is earned yet). Downgrades
// never happen: a stored tier above the freshly qualified one stays.
func upsertUserBadge(tx *gorm.DB, userID, badgeID uint, qualified *models.BadgeTier, tiersByID map[uint]*models.BadgeTier) (*models.BadgeTier, error) {
	var existing models.UserBadge
	err := tx.Where("user_id = ? AND badge_id = ?", userID, badgeID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ub := models.UserBadge{
			UserID:   userID,
			BadgeID:  badgeID,
			EarnedAt: time.Now(),
		}
		if qualified != nil {
			ub.BadgeTierID = &qualified.ID
		}
		if err := tx.Create(&ub).Error; err != nil {
			return nil, err
		}
		return qualified, nil
	}
	if err != nil {
		return nil, err
	}

	var stored *models.BadgeTier
	if existing.BadgeTierID != nil {
		stored = tiersByID[*existing.BadgeTierID]
	}
	if qualified == nil || (stored != nil && qualified.TierLevel <= stored.TierLevel) {
		return stored, nil
	}

	err = tx.Model(&existing).Updates(map[string]interface{}{
		"badge_tier_id": qualified.ID,
		"earned_at":     time.Now(),
	}).Error
	if err != nil {
		return nil, err
	}
	return qualified, nil
}

// upsertProgress writes the progress row. The target is the next tier's
// threshold, falling back to the held tier's and finally to the badge's top
// tier, and never decreases across calls. The displayed value never regresses
// below a threshold the user has already earned.
func upsertProgress(tx *gorm.DB, userID, badgeID uint, reputation int64, next, held, top *models.BadgeTier) error {
	target := int64(0)
	switch {
	case next != nil:
		target = next.ReputationThreshold
	case held != nil:
		target = held.ReputationThreshold
	case top != nil:
		target = top.ReputationThreshold
	}

	value := reputation
	if held != nil && held.ReputationThreshold > value {
		value = held.ReputationThreshold
	}

	var existing models.UserBadgeProgress
	err := tx.Where("user_id = ? AND badge_id = ?", userID, badgeID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.Create(&models.UserBadgeProgress{
			UserID:         userID,
			BadgeID:        badgeID,
			ProgressValue:  value,
			ProgressTarget: target,
		}).Error
	}
	if err != nil {
		return err
	}

	if target < existing.ProgressTarget {
		target = existing.ProgressTarget
	}
	return tx.Model(&existing).Updates(map[string]interface{}{
		"progress_value":  value,
		"progress_target": target,
		"last_updated":    time.Now(),
	}).Error
}
