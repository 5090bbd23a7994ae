package admins

import (
	"log"
	"net/http"
	"strconv"

	"github.com/Spark-Project-Pulse/backend/engine"
	"github.com/Spark-Project-Pulse/backend/models"
	"github.com/Spark-Project-Pulse/backend/utils"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// CommunityAdminController runs the approval workflow. Approval flips the flag
// and seats the owner as the first member; rejection notifies the owner by
// title (the row is deleted, so nothing can reference it) and removes the row.
type CommunityAdminController struct {
	DB     *gorm.DB
	Engine *engine.Engine
}

func NewCommunityAdminController(db *gorm.DB, eng *engine.Engine) *CommunityAdminController {
	return &CommunityAdminController{DB: db, Engine: eng}
}

func (c *CommunityAdminController) ListPending(w http.ResponseWriter, r *http.Request) {
	var pending []models.Community
	if err := c.DB.Where("approved = ?", false).Order("created_at ASC").Find(&pending).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: pending})
}

func (c *CommunityAdminController) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid community id"})
		return
	}

	var community models.Community
	err = c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND approved = ?", uint(id), false).First(&community).Error; err != nil {
			return err
		}
		if err := tx.Model(&community).Update("approved", true).Error; err != nil {
			return err
		}
		if community.OwnerID != nil {
			membership := models.CommunityMembership{CommunityID: community.ID, UserID: *community.OwnerID}
			if err := tx.Create(&membership).Error; err != nil {
				return err
			}
			if err := tx.Model(&community).UpdateColumn("member_count", gorm.Expr("member_count + 1")).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Pending community not found"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	if err := c.Engine.NotifyCommunityAccepted(&community); err != nil {
		// the approval itself stands
		log.Printf("[admin] accept notification failed for community=%d: %v", community.ID, err)
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Community approved", Data: community})
}

func (c *CommunityAdminController) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid community id"})
		return
	}

	var community models.Community
	if err := c.DB.Where("id = ? AND approved = ?", uint(id), false).First(&community).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Pending community not found"})
		return
	}

	// notify before deleting; the notification carries the title, not the id
	if community.OwnerID != nil {
		if err := c.Engine.NotifyCommunityRejected(*community.OwnerID, community.Title); err != nil {
			log.Printf("[admin] reject notification failed for community=%d: %v", community.ID, err)
		}
	}

	if err := c.DB.Delete(&community).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Community rejected"})
}
