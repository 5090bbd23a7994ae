package users

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Spark-Project-Pulse/backend/engine"
	"github.com/Spark-Project-Pulse/backend/models"
	"github.com/Spark-Project-Pulse/backend/utils"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type ProfileController struct {
	DB         *gorm.DB
	Engine     *engine.Engine
	Moderation *utils.ModerationClient
}

func NewProfileController(db *gorm.DB, eng *engine.Engine, mod *utils.ModerationClient) *ProfileController {
	return &ProfileController{DB: db, Engine: eng, Moderation: mod}
}

// Get returns a user's public profile with clamped reputation and their
// per-tag reputation breakdown.
func (c *ProfileController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid user id"})
		return
	}

	var user models.User
	if err := c.DB.First(&user, uint(id)).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "User not found"})
		return
	}

	var tagReps []models.TagReputation
	if err := c.DB.Where("user_id = ?", user.ID).Order("score DESC").Limit(20).Find(&tagReps).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"id":             user.ID,
			"username":       user.Username,
			"reputation":     user.DisplayReputation(),
			"profile_image":  user.ProfileImage,
			"tag_reputation": tagReps,
		},
	})
}

// Me returns the authenticated user's own profile.
func (c *ProfileController) Me(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	var user models.User
	if err := c.DB.First(&user, uid).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "User not found"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"id":            user.ID,
			"username":      user.Username,
			"reputation":    user.DisplayReputation(),
			"profile_image": user.ProfileImage,
		},
	})
}

// UploadImage stores a profile image in R2 and saves its presigned URL.
func (c *ProfileController) UploadImage(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid multipart form"})
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "image file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Failed to read file"})
		return
	}
	if okImg, _ := c.Moderation.CheckImage(data); !okImg {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Image was flagged by moderation"})
		return
	}
	if _, err := file.Seek(0, 0); err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	objectName := fmt.Sprintf("profiles/%d/image_%d_%s", uid, time.Now().Unix(), header.Filename)
	url, err := utils.UploadToS3AndPresign(objectName, file, header.Size, 7*24*3600)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Upload failed"})
		return
	}

	if err := c.DB.Model(&models.User{}).Where("id = ?", uid).Update("profile_image", url).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Profile image updated", Data: map[string]interface{}{"profile_image": url}})
}
