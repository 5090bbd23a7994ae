package admins

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Spark-Project-Pulse/backend/middleware"
	"github.com/Spark-Project-Pulse/backend/models"
	"github.com/Spark-Project-Pulse/backend/utils"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// BadgeAdminController manages the badge catalog. The invariants the engine
// checks at award time are also enforced here at write time: a global badge
// never carries a tag, a non-global badge always does, and tier thresholds
// strictly increase with tier level.
type BadgeAdminController struct {
	DB *gorm.DB
}

func NewBadgeAdminController(db *gorm.DB) *BadgeAdminController {
	return &BadgeAdminController{DB: db}
}

type CreateBadgeRequest struct {
	Name            string `json:"name" validate:"required,titleok"`
	Description     string `json:"description"`
	ImageURL        string `json:"image_url"`
	IsGlobal        bool   `json:"is_global"`
	AssociatedTagID *uint  `json:"associated_tag_id,omitempty"`
}

func (c *BadgeAdminController) CreateBadge(w http.ResponseWriter, r *http.Request) {
	var req CreateBadgeRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	if req.IsGlobal && req.AssociatedTagID != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "A global badge must not reference a tag"})
		return
	}
	if !req.IsGlobal && req.AssociatedTagID == nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "A tag-scoped badge must reference a tag"})
		return
	}
	if req.AssociatedTagID != nil {
		var tag models.Tag
		if err := c.DB.First(&tag, *req.AssociatedTagID).Error; err != nil {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Tag not found"})
			return
		}
	}

	badge := models.Badge{
		Name:            req.Name,
		Description:     req.Description,
		ImageURL:        req.ImageURL,
		IsGlobal:        req.IsGlobal,
		AssociatedTagID: req.AssociatedTagID,
	}
	if err := c.DB.Create(&badge).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to create badge"})
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: "Badge created", Data: badge})
}

type CreateTierRequest struct {
	TierLevel           uint   `json:"tier_level"`
	Name                string `json:"name" validate:"required,titleok"`
	Description         string `json:"description"`
	ImageURL            string `json:"image_url"`
	ReputationThreshold int64  `json:"reputation_threshold"`
}

func (c *BadgeAdminController) CreateTier(w http.ResponseWriter, r *http.Request) {
	badgeID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid badge id"})
		return
	}

	var req CreateTierRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	if req.TierLevel == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "tier_level must be positive"})
		return
	}
	if req.ReputationThreshold < 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "reputation_threshold must be non-negative"})
		return
	}

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		var badge models.Badge
		if err := tx.First(&badge, uint(badgeID)).Error; err != nil {
			return err
		}

		// both orders must agree with the existing tiers
		var siblings []models.BadgeTier
		if err := tx.Where("badge_id = ?", badge.ID).Order("tier_level ASC").Find(&siblings).Error; err != nil {
			return err
		}
		for _, s := range siblings {
			if s.TierLevel == req.TierLevel {
				return errDuplicateLevel
			}
			if s.TierLevel < req.TierLevel && s.ReputationThreshold >= req.ReputationThreshold {
				return errThresholdOrder
			}
			if s.TierLevel > req.TierLevel && s.ReputationThreshold <= req.ReputationThreshold {
				return errThresholdOrder
			}
		}

		tier := models.BadgeTier{
			BadgeID:             badge.ID,
			TierLevel:           req.TierLevel,
			Name:                req.Name,
			Description:         req.Description,
			ImageURL:            req.ImageURL,
			ReputationThreshold: req.ReputationThreshold,
		}
		return tx.Create(&tier).Error
	})
	if err != nil {
		switch err {
		case gorm.ErrRecordNotFound:
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Badge not found"})
		case errDuplicateLevel:
			utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "A tier with that level already exists"})
		case errThresholdOrder:
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Thresholds must strictly increase with tier level"})
		default:
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		}
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: "Tier created"})
}

func (c *BadgeAdminController) DeleteBadge(w http.ResponseWriter, r *http.Request) {
	badgeID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid badge id"})
		return
	}

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("badge_id = ?", uint(badgeID)).Delete(&models.BadgeTier{}).Error; err != nil {
			return err
		}
		if err := tx.Where("badge_id = ?", uint(badgeID)).Delete(&models.UserBadge{}).Error; err != nil {
			return err
		}
		if err := tx.Where("badge_id = ?", uint(badgeID)).Delete(&models.UserBadgeProgress{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Badge{}, uint(badgeID))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Badge not found"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Badge deleted"})
}

var (
	errDuplicateLevel = errors.New("duplicate tier level")
	errThresholdOrder = errors.New("threshold order violation")
)
