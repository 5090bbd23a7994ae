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

// NotificationController exposes the recipient-scoped notification operations.
// A missing notification and someone else's notification produce the same 404
// so callers cannot probe for existence.
type NotificationController struct {
	DB     *gorm.DB
	Engine *engine.Engine
}

func NewNotificationController(db *gorm.DB, eng *engine.Engine) *NotificationController {
	return &NotificationController{DB: db, Engine: eng}
}

func (c *NotificationController) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	q := c.DB.Where("recipient_id = ?", uid).Order("`read` ASC, created_at DESC")
	if r.URL.Query().Get("unread") == "true" {
		q = q.Where("`read` = ?", false)
	}

	var notifications []models.Notification
	if err := q.Limit(100).Find(&notifications).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: notifications})
}

func (c *NotificationController) MarkRead(w http.ResponseWriter, r *http.Request) {
	c.mark(w, r, true)
}

func (c *NotificationController) MarkUnread(w http.ResponseWriter, r *http.Request) {
	c.mark(w, r, false)
}

func (c *NotificationController) mark(w http.ResponseWriter, r *http.Request, read bool) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid notification id"})
		return
	}

	var done bool
	if read {
		done, err = c.Engine.MarkNotificationRead(uid, uint(id))
	} else {
		done, err = c.Engine.MarkNotificationUnread(uid, uint(id))
	}
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	if !done {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Notification not found"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully"})
}

func (c *NotificationController) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid notification id"})
		return
	}

	done, err := c.Engine.DeleteNotification(uid, uint(id))
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	if !done {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Notification not found"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Notification deleted"})
}
