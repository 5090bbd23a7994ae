package users

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Spark-Project-Pulse/backend/engine"
	"github.com/Spark-Project-Pulse/backend/middleware"
	"github.com/Spark-Project-Pulse/backend/models"
	"github.com/Spark-Project-Pulse/backend/utils"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// AnswerController handles answer submission and voting. Vote semantics
// (retraction, switching, reputation side effects) live in the engine.
type AnswerController struct {
	DB         *gorm.DB
	Engine     *engine.Engine
	Moderation *utils.ModerationClient
}

func NewAnswerController(db *gorm.DB, eng *engine.Engine, mod *utils.ModerationClient) *AnswerController {
	return &AnswerController{DB: db, Engine: eng, Moderation: mod}
}

type CreateAnswerRequest struct {
	Response string `json:"response" validate:"required"`
}

func (c *AnswerController) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	questionID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid question id"})
		return
	}

	var req CreateAnswerRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	if okText, _ := c.Moderation.CheckText(req.Response); !okText {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Content was flagged by moderation"})
		return
	}

	var question models.Question
	if err := c.DB.First(&question, uint(questionID)).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Question not found"})
		return
	}

	answer := models.Answer{
		QuestionID: question.ID,
		ExpertID:   &uid,
		Response:   req.Response,
	}
	if err := c.DB.Create(&answer).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to create answer"})
		return
	}

	// contribution tick + asker notification + is_answered flag
	if err := c.Engine.RecordAnswerCreated(&answer); err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to record answer"})
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: "Answer created", Data: answer})
}

func (c *AnswerController) ListByQuestion(w http.ResponseWriter, r *http.Request) {
	questionID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid question id"})
		return
	}

	var answers []models.Answer
	if err := c.DB.Where("question_id = ?", uint(questionID)).Order("score DESC, created_at ASC").Find(&answers).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: answers})
}

// Upvote handles POST /answers/{id}/upvote. Voting the same direction twice
// retracts the vote; the response always carries the answer's new score.
func (c *AnswerController) Upvote(w http.ResponseWriter, r *http.Request) {
	c.vote(w, r, engine.KindUpvote)
}

// Downvote handles POST /answers/{id}/downvote.
func (c *AnswerController) Downvote(w http.ResponseWriter, r *http.Request) {
	c.vote(w, r, engine.KindDownvote)
}

func (c *AnswerController) vote(w http.ResponseWriter, r *http.Request, kind engine.VoteKind) {
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

	newScore, err := c.Engine.CastVote(uid, uint(answerID), kind)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrNotFound):
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Answer not found"})
		case errors.Is(err, engine.ErrConflict):
			utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "Vote conflict, please retry"})
		case errors.Is(err, engine.ErrValidation):
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid vote"})
		default:
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		}
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Vote recorded",
		Data:    map[string]interface{}{"answer_id": uint(answerID), "score": newScore},
	})
}
