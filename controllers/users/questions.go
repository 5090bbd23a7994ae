package users

import (
	"net/http"
	"strconv"

	"github.com/Spark-Project-Pulse/backend/middleware"
	"github.com/Spark-Project-Pulse/backend/models"
	"github.com/Spark-Project-Pulse/backend/utils"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// QuestionController handles question CRUD. The moderation client is injected
// so tests can point it at a fake server (or pass nil to disable checks).
type QuestionController struct {
	DB         *gorm.DB
	Moderation *utils.ModerationClient
}

func NewQuestionController(db *gorm.DB, mod *utils.ModerationClient) *QuestionController {
	return &QuestionController{DB: db, Moderation: mod}
}

type CreateQuestionRequest struct {
	Title       string   `json:"title" validate:"required,titleok"`
	Description string   `json:"description" validate:"required"`
	CommunityID *uint    `json:"community_id,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

func (c *QuestionController) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	var req CreateQuestionRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	// content check before any mutation
	if okText, _ := c.Moderation.CheckText(req.Title + "\n" + req.Description); !okText {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Content was flagged by moderation"})
		return
	}

	// community must exist and be approved
	if req.CommunityID != nil {
		var community models.Community
		if err := c.DB.Where("id = ? AND approved = ?", *req.CommunityID, true).First(&community).Error; err != nil {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Community not found"})
			return
		}
	}

	question := models.Question{
		AskerID:     &uid,
		CommunityID: req.CommunityID,
		Title:       req.Title,
		Description: req.Description,
	}

	err := c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&question).Error; err != nil {
			return err
		}
		for _, name := range req.Tags {
			if name == "" {
				continue
			}
			var tag models.Tag
			if err := tx.Where("name = ?", name).FirstOrCreate(&tag, models.Tag{Name: name}).Error; err != nil {
				return err
			}
			if err := tx.Model(&question).Association("Tags").Append(&tag); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to create question"})
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: "Question created", Data: question})
}

func (c *QuestionController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid question id"})
		return
	}

	var question models.Question
	if err := c.DB.Preload("Tags").First(&question, uint(id)).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Question not found"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: question})
}

// List returns questions, newest first, optionally filtered by tag name,
// community, asker, or a title search term.
func (c *QuestionController) List(w http.ResponseWriter, r *http.Request) {
	q := c.DB.Model(&models.Question{}).Preload("Tags").Order("created_at DESC")

	if tag := r.URL.Query().Get("tag"); tag != "" {
		q = q.Joins("JOIN question_tags ON question_tags.question_id = questions.id").
			Joins("JOIN tags ON tags.id = question_tags.tag_id").
			Where("tags.name = ?", tag)
	}
	if cidStr := r.URL.Query().Get("community_id"); cidStr != "" {
		cid, err := strconv.ParseUint(cidStr, 10, 64)
		if err != nil {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid community id"})
			return
		}
		q = q.Where("questions.community_id = ?", uint(cid))
	}
	if aidStr := r.URL.Query().Get("asker_id"); aidStr != "" {
		aid, err := strconv.ParseUint(aidStr, 10, 64)
		if err != nil {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid asker id"})
			return
		}
		q = q.Where("questions.asker_id = ?", uint(aid))
	}
	if term := r.URL.Query().Get("q"); term != "" {
		q = q.Where("questions.title LIKE ?", "%"+term+"%")
	}

	limit := 50
	if lStr := r.URL.Query().Get("limit"); lStr != "" {
		if v, err := strconv.Atoi(lStr); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	offset := 0
	if oStr := r.URL.Query().Get("offset"); oStr != "" {
		if v, err := strconv.Atoi(oStr); err == nil && v >= 0 {
			offset = v
		}
	}

	var questions []models.Question
	if err := q.Limit(limit).Offset(offset).Find(&questions).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: questions})
}
