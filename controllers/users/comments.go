package users

import (
	"net/http"
	"strconv"

	"github.com/Spark-Project-Pulse/backend/engine"
	"github.com/Spark-Project-Pulse/backend/middleware"
	"github.com/Spark-Project-Pulse/backend/models"
	"github.com/Spark-Project-Pulse/backend/utils"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// CommentController handles comments under answers. Comments never touch
// scores or reputation; the engine is only needed for the answer-author
// notification.
type CommentController struct {
	DB         *gorm.DB
	Engine     *engine.Engine
	Moderation *utils.ModerationClient
}

func NewCommentController(db *gorm.DB, eng *engine.Engine, mod *utils.ModerationClient) *CommentController {
	return &CommentController{DB: db, Engine: eng, Moderation: mod}
}

type CreateCommentRequest struct {
	Response string `json:"response" validate:"required"`
}

func (c *CommentController) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	answerID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid answer id"})
		return
	}

	var req CreateCommentRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	if okText, _ := c.Moderation.CheckText(req.Response); !okText {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Content was flagged by moderation"})
		return
	}

	var answer models.Answer
	if err := c.DB.First(&answer, uint(answerID)).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Answer not found"})
		return
	}

	comment := models.Comment{
		AnswerID: answer.ID,
		ExpertID: &uid,
		Response: req.Response,
	}
	if err := c.DB.Create(&comment).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to create comment"})
		return
	}

	if err := c.Engine.RecordCommentCreated(&comment); err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to record comment"})
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: "Comment created", Data: comment})
}

func (c *CommentController) ListByAnswer(w http.ResponseWriter, r *http.Request) {
	answerID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid answer id"})
		return
	}

	var comments []models.Comment
	if err := c.DB.Where("answer_id = ?", uint(answerID)).Order("created_at ASC").Find(&comments).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: comments})
}
