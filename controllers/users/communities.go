package users

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Spark-Project-Pulse/backend/middleware"
	"github.com/Spark-Project-Pulse/backend/models"
	"github.com/Spark-Project-Pulse/backend/utils"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// CommunityController handles the user-facing side of communities: requesting
// one (it is created unapproved and waits for an admin), joining, leaving and
// avatar uploads.
type CommunityController struct {
	DB         *gorm.DB
	Moderation *utils.ModerationClient
}

func NewCommunityController(db *gorm.DB, mod *utils.ModerationClient) *CommunityController {
	return &CommunityController{DB: db, Moderation: mod}
}

type CreateCommunityRequest struct {
	Title       string `json:"title" validate:"required,titleok"`
	Description string `json:"description" validate:"required"`
}

func (c *CommunityController) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	var req CreateCommunityRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	if okText, _ := c.Moderation.CheckText(req.Title + "\n" + req.Description); !okText {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Content was flagged by moderation"})
		return
	}

	community := models.Community{
		OwnerID:     &uid,
		Title:       req.Title,
		Description: req.Description,
		Approved:    false,
	}
	if err := c.DB.Create(&community).Error; err != nil {
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "A community with that title already exists"})
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Community request submitted and pending approval",
		Data:    community,
	})
}

// List returns approved communities only. Pending requests are visible to
// admins, not here. An optional ?title= filter does a LIKE match.
func (c *CommunityController) List(w http.ResponseWriter, r *http.Request) {
	q := c.DB.Where("approved = ?", true)
	if title := r.URL.Query().Get("title"); title != "" {
		q = q.Where("title LIKE ?", "%"+title+"%")
	}
	var communities []models.Community
	if err := q.Order("title ASC").Find(&communities).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: communities})
}

func (c *CommunityController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid community id"})
		return
	}
	var community models.Community
	if err := c.DB.Where("id = ? AND approved = ?", uint(id), true).First(&community).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Community not found"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: community})
}

// Join creates a membership row and bumps member_count in one transaction.
func (c *CommunityController) Join(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid community id"})
		return
	}

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		var community models.Community
		if err := tx.Where("id = ? AND approved = ?", uint(id), true).First(&community).Error; err != nil {
			return err
		}
		membership := models.CommunityMembership{CommunityID: community.ID, UserID: uid}
		if err := tx.Create(&membership).Error; err != nil {
			return err
		}
		return tx.Model(&community).UpdateColumn("member_count", gorm.Expr("member_count + 1")).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Community not found"})
			return
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "Already a member"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Joined community"})
}

// Leave removes the membership row and its reputation ledger with it.
func (c *CommunityController) Leave(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid community id"})
		return
	}

	var left bool
	err = c.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("community_id = ? AND user_id = ?", uint(id), uid).Delete(&models.CommunityMembership{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		left = true
		return tx.Model(&models.Community{}).Where("id = ? AND member_count > 0", uint(id)).
			UpdateColumn("member_count", gorm.Expr("member_count - 1")).Error
	})
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	if !left {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Not a member"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Left community"})
}

// IsMember reports whether the caller has a membership row in the community.
func (c *CommunityController) IsMember(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid community id"})
		return
	}

	var count int64
	if err := c.DB.Model(&models.CommunityMembership{}).
		Where("community_id = ? AND user_id = ?", uint(id), uid).Count(&count).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: map[string]interface{}{"is_member": count > 0}})
}

// Members lists memberships with display-clamped community reputation.
func (c *CommunityController) Members(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid community id"})
		return
	}

	var community models.Community
	if err := c.DB.Where("id = ? AND approved = ?", uint(id), true).First(&community).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Community not found"})
		return
	}

	var memberships []models.CommunityMembership
	if err := c.DB.Where("community_id = ?", community.ID).Order("community_reputation DESC").Find(&memberships).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	out := make([]map[string]interface{}, 0, len(memberships))
	for i := range memberships {
		m := &memberships[i]
		out = append(out, map[string]interface{}{
			"user_id":              m.UserID,
			"community_reputation": m.DisplayReputation(),
			"contributions":        m.Contributions,
			"joined_at":            m.CreatedAt,
		})
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: out})
}

// UploadAvatar accepts a multipart image for a community the caller owns,
// stores it in R2 and saves the presigned URL.
func (c *CommunityController) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid community id"})
		return
	}

	var community models.Community
	if err := c.DB.First(&community, uint(id)).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Community not found"})
		return
	}
	if community.OwnerID == nil || *community.OwnerID != uid {
		utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "Only the owner can change the avatar"})
		return
	}

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid multipart form"})
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "avatar file is required"})
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
	objectName := fmt.Sprintf("communities/%d/avatar_%d_%s", community.ID, time.Now().Unix(), header.Filename)
	url, err := utils.UploadToS3AndPresign(objectName, file, header.Size, 7*24*3600)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Upload failed"})
		return
	}

	if err := c.DB.Model(&community).Update("avatar_url", url).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Avatar updated", Data: map[string]interface{}{"avatar_url": url}})
}
