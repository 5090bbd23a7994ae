package admins

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/Spark-Project-Pulse/backend/engine"
	"github.com/Spark-Project-Pulse/backend/middleware"
	"github.com/Spark-Project-Pulse/backend/utils"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// ReputationAdminController covers the direct-edit paths: global reputation
// adjustments, badge recomputes and the tag aggregate resync.
type ReputationAdminController struct {
	DB     *gorm.DB
	Engine *engine.Engine
}

func NewReputationAdminController(db *gorm.DB, eng *engine.Engine) *ReputationAdminController {
	return &ReputationAdminController{DB: db, Engine: eng}
}

type AdjustReputationRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason" validate:"required"`
}

// Adjust adds a signed amount to a user's global reputation and recomputes
// their badges against the new value.
func (c *ReputationAdminController) Adjust(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid user id"})
		return
	}

	var req AdjustReputationRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	if req.Amount == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "amount must be non-zero"})
		return
	}

	newValue, err := c.Engine.AdjustGlobalReputation(uint(userID), req.Amount)
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "User not found"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	log.Printf("[admin] reputation adjust user=%d amount=%d reason=%q", userID, req.Amount, req.Reason)

	if err := c.Engine.RecomputeBadges(uint(userID)); err != nil {
		log.Printf("[admin] badge recompute failed for user=%d: %v", userID, err)
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Reputation adjusted",
		Data:    map[string]interface{}{"user_id": uint(userID), "reputation": newValue},
	})
}

// Recompute re-runs badge progression for a user across all badges.
func (c *ReputationAdminController) Recompute(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid user id"})
		return
	}

	var tagIDs []uint
	if err := c.DB.Table("tag_reputation").Where("user_id = ?", uint(userID)).Pluck("tag_id", &tagIDs).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	if err := c.Engine.RecomputeBadges(uint(userID), tagIDs...); err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "User not found"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Badges recomputed"})
}

// ResyncTags rewrites a user's tag aggregates from the answer scores. The
// aggregates are maintained incrementally during votes; this repairs drift
// after manual data surgery.
func (c *ReputationAdminController) ResyncTags(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid user id"})
		return
	}

	if err := c.Engine.ResyncTagReputation(uint(userID)); err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Tag reputation resynced"})
}
