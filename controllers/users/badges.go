package users

import (
	"net/http"
	"strconv"

	"github.com/Spark-Project-Pulse/backend/engine"
	"github.com/Spark-Project-Pulse/backend/models"
	"github.com/Spark-Project-Pulse/backend/utils"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type BadgeController struct {
	DB     *gorm.DB
	Engine *engine.Engine
}

func NewBadgeController(db *gorm.DB, eng *engine.Engine) *BadgeController {
	return &BadgeController{DB: db, Engine: eng}
}

// List returns the badge catalog with tiers.
func (c *BadgeController) List(w http.ResponseWriter, r *http.Request) {
	var badges []models.Badge
	if err := c.DB.Preload("Tiers", func(db *gorm.DB) *gorm.DB {
		return db.Order("tier_level ASC")
	}).Find(&badges).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: badges})
}

// UserBadges returns a user's earned badges and progress rows, one entry per
// badge the user has touched, with percentage toward the current target.
func (c *BadgeController) UserBadges(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid user id"})
		return
	}

	var user models.User
	if err := c.DB.First(&user, uint(userID)).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "User not found"})
		return
	}

	var earned []models.UserBadge
	if err := c.DB.Where("user_id = ?", user.ID).Find(&earned).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	earnedByBadge := make(map[uint]models.UserBadge, len(earned))
	for _, ub := range earned {
		earnedByBadge[ub.BadgeID] = ub
	}

	var progress []models.UserBadgeProgress
	if err := c.DB.Where("user_id = ?", user.ID).Find(&progress).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	// tier rows for earned badges, to name the held tier in the response
	tierByID := make(map[uint]models.BadgeTier)
	var tierIDs []uint
	for _, ub := range earned {
		if ub.BadgeTierID != nil {
			tierIDs = append(tierIDs, *ub.BadgeTierID)
		}
	}
	if len(tierIDs) > 0 {
		var tiers []models.BadgeTier
		if err := c.DB.Where("id IN ?", tierIDs).Find(&tiers).Error; err != nil {
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
			return
		}
		for _, t := range tiers {
			tierByID[t.ID] = t
		}
	}

	out := make([]map[string]interface{}, 0, len(progress))
	for _, p := range progress {
		entry := map[string]interface{}{
			"badge_id":         p.BadgeID,
			"progress_value":   p.ProgressValue,
			"progress_target":  p.ProgressTarget,
			"progress_percent": utils.ProgressPercent(p.ProgressValue, p.ProgressTarget),
			"last_updated":     p.LastUpdated,
		}
		if ub, ok := earnedByBadge[p.BadgeID]; ok && ub.BadgeTierID != nil {
			tier := tierByID[*ub.BadgeTierID]
			entry["earned_tier"] = map[string]interface{}{
				"id":         tier.ID,
				"tier_level": tier.TierLevel,
				"name":       tier.Name,
				"earned_at":  ub.EarnedAt,
			}
		}
		out = append(out, entry)
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: out})
}
