package users

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Spark-Project-Pulse/backend/engine"
	"github.com/Spark-Project-Pulse/backend/models"
	"github.com/Spark-Project-Pulse/backend/utils"

	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.Question{},
		&models.Answer{},
		&models.Comment{},
		&models.Vote{},
		&models.Community{},
		&models.CommunityMembership{},
		&models.Badge{},
		&models.BadgeTier{},
		&models.UserBadge{},
		&models.UserBadgeProgress{},
		&models.TagReputation{},
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// authedRequest builds a request carrying an authenticated user id, the way
// AuthMiddleware would after validating a token.
func authedRequest(method, target string, body []byte, uid uint, vars map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if uid != 0 {
		ctx := context.WithValue(req.Context(), utils.UserIDKey, uid)
		req = req.WithContext(ctx)
	}
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) utils.APIResponse {
	t.Helper()
	var resp utils.APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func seedAnswer(t *testing.T, db *gorm.DB) (author models.User, answer models.Answer) {
	t.Helper()
	author = models.User{Username: "author", Password: "x"}
	if err := db.Create(&author).Error; err != nil {
		t.Fatalf("create author: %v", err)
	}
	question := models.Question{Title: "How do goroutines leak?", Description: "details"}
	if err := db.Create(&question).Error; err != nil {
		t.Fatalf("create question: %v", err)
	}
	answer = models.Answer{QuestionID: question.ID, ExpertID: &author.ID, Response: "They block on channels"}
	if err := db.Create(&answer).Error; err != nil {
		t.Fatalf("create answer: %v", err)
	}
	return author, answer
}

func TestUpvoteEndpoint(t *testing.T) {
	db := testDB(t)
	ctl := NewAnswerController(db, engine.New(db), nil)

	voter := models.User{Username: "voter", Password: "x"}
	if err := db.Create(&voter).Error; err != nil {
		t.Fatalf("create voter: %v", err)
	}
	_, answer := seedAnswer(t, db)

	rec := httptest.NewRecorder()
	req := authedRequest(http.MethodPost, "/v1/answers/1/upvote", nil, voter.ID, map[string]string{"id": "1"})
	ctl.Upvote(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatalf("expected success response")
	}

	var stored models.Answer
	if err := db.First(&stored, answer.ID).Error; err != nil {
		t.Fatalf("reload answer: %v", err)
	}
	if stored.Score != 1 {
		t.Fatalf("expected score 1 after upvote, got %d", stored.Score)
	}
}

func TestUpvoteTwiceRetractsViaEndpoint(t *testing.T) {
	db := testDB(t)
	ctl := NewAnswerController(db, engine.New(db), nil)

	voter := models.User{Username: "voter", Password: "x"}
	if err := db.Create(&voter).Error; err != nil {
		t.Fatalf("create voter: %v", err)
	}
	_, answer := seedAnswer(t, db)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := authedRequest(http.MethodPost, "/v1/answers/1/upvote", nil, voter.ID, map[string]string{"id": "1"})
		ctl.Upvote(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("vote %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	var stored models.Answer
	if err := db.First(&stored, answer.ID).Error; err != nil {
		t.Fatalf("reload answer: %v", err)
	}
	if stored.Score != 0 {
		t.Fatalf("expected score back to 0 after retraction, got %d", stored.Score)
	}
}

func TestVoteRequiresAuth(t *testing.T) {
	db := testDB(t)
	ctl := NewAnswerController(db, engine.New(db), nil)
	seedAnswer(t, db)

	rec := httptest.NewRecorder()
	req := authedRequest(http.MethodPost, "/v1/answers/1/upvote", nil, 0, map[string]string{"id": "1"})
	ctl.Upvote(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user context, got %d", rec.Code)
	}
}

func TestVoteUnknownAnswerIs404(t *testing.T) {
	db := testDB(t)
	ctl := NewAnswerController(db, engine.New(db), nil)

	voter := models.User{Username: "voter", Password: "x"}
	if err := db.Create(&voter).Error; err != nil {
		t.Fatalf("create voter: %v", err)
	}

	rec := httptest.NewRecorder()
	req := authedRequest(http.MethodPost, "/v1/answers/99/downvote", nil, voter.ID, map[string]string{"id": "99"})
	ctl.Downvote(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown answer, got %d", rec.Code)
	}
}

func TestNotificationMarkReadAuthorization(t *testing.T) {
	db := testDB(t)
	ctl := NewNotificationController(db, engine.New(db))

	recipient := models.User{Username: "recipient", Password: "x"}
	other := models.User{Username: "other", Password: "x"}
	if err := db.Create(&recipient).Error; err != nil {
		t.Fatalf("create recipient: %v", err)
	}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("create other: %v", err)
	}
	notif := models.Notification{
		RecipientID: recipient.ID,
		Type:        models.NotificationQuestionAnswered,
		Message:     models.NotificationMessages[models.NotificationQuestionAnswered],
	}
	if err := db.Create(&notif).Error; err != nil {
		t.Fatalf("create notification: %v", err)
	}

	// someone else's notification reads as missing
	rec := httptest.NewRecorder()
	req := authedRequest(http.MethodPost, "/v1/notifications/1/read", nil, other.ID, map[string]string{"id": "1"})
	ctl.MarkRead(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign notification, got %d", rec.Code)
	}

	// the recipient can mark it
	rec = httptest.NewRecorder()
	req = authedRequest(http.MethodPost, "/v1/notifications/1/read", nil, recipient.ID, map[string]string{"id": "1"})
	ctl.MarkRead(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for recipient, got %d: %s", rec.Code, rec.Body.String())
	}

	var stored models.Notification
	if err := db.First(&stored, notif.ID).Error; err != nil {
		t.Fatalf("reload notification: %v", err)
	}
	if !stored.Read {
		t.Fatalf("expected notification marked read")
	}
}

func TestCreateQuestionModerationRejected(t *testing.T) {
	db := testDB(t)

	// fake moderation API that flags everything
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"flagged": true})
	}))
	defer srv.Close()
	mod := &utils.ModerationClient{BaseURL: srv.URL, HTTP: srv.Client()}

	ctl := NewQuestionController(db, mod)

	asker := models.User{Username: "asker", Password: "x"}
	if err := db.Create(&asker).Error; err != nil {
		t.Fatalf("create asker: %v", err)
	}

	body, _ := json.Marshal(CreateQuestionRequest{Title: "spam title", Description: "spam body"})
	rec := httptest.NewRecorder()
	req := authedRequest(http.MethodPost, "/v1/questions", body, asker.ID, nil)
	ctl.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for flagged content, got %d", rec.Code)
	}
	var count int64
	db.Model(&models.Question{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no question rows after rejection, got %d", count)
	}
}

func TestCreateQuestionModerationFailOpen(t *testing.T) {
	db := testDB(t)

	// moderation API that errors; posting must still succeed
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	mod := &utils.ModerationClient{BaseURL: srv.URL, HTTP: srv.Client()}

	ctl := NewQuestionController(db, mod)

	asker := models.User{Username: "asker", Password: "x"}
	if err := db.Create(&asker).Error; err != nil {
		t.Fatalf("create asker: %v", err)
	}

	body, _ := json.Marshal(CreateQuestionRequest{Title: "real question", Description: "real body", Tags: []string{"go"}})
	rec := httptest.NewRecorder()
	req := authedRequest(http.MethodPost, "/v1/questions", body, asker.ID, nil)
	ctl.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 when moderation is down, got %d: %s", rec.Code, rec.Body.String())
	}
	var question models.Question
	if err := db.Preload("Tags").First(&question).Error; err != nil {
		t.Fatalf("load question: %v", err)
	}
	if len(question.Tags) != 1 || question.Tags[0].Name != "go" {
		t.Fatalf("expected question tagged with go, got %+v", question.Tags)
	}
}

func TestCreateCommentNotifiesAnswerAuthor(t *testing.T) {
	db := testDB(t)
	ctl := NewCommentController(db, engine.New(db), nil)

	author, answer := seedAnswer(t, db)
	commenter := models.User{Username: "commenter", Password: "x"}
	if err := db.Create(&commenter).Error; err != nil {
		t.Fatalf("create commenter: %v", err)
	}

	body, _ := json.Marshal(CreateCommentRequest{Response: "Could you expand on the channel part?"})
	rec := httptest.NewRecorder()
	req := authedRequest(http.MethodPost, "/v1/answers/1/comments", body, commenter.ID,
		map[string]string{"id": "1"})
	ctl.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var comment models.Comment
	if err := db.First(&comment).Error; err != nil {
		t.Fatalf("load comment: %v", err)
	}
	if comment.AnswerID != answer.ID {
		t.Fatalf("comment answer = %d, want %d", comment.AnswerID, answer.ID)
	}
	var n models.Notification
	if err := db.Where("recipient_id = ?", author.ID).First(&n).Error; err != nil {
		t.Fatalf("author notification missing: %v", err)
	}
	if n.Type != models.NotificationAnswerCommented {
		t.Fatalf("type = %s, want %s", n.Type, models.NotificationAnswerCommented)
	}
}

func TestCreateCommentUnknownAnswerIs404(t *testing.T) {
	db := testDB(t)
	ctl := NewCommentController(db, engine.New(db), nil)

	commenter := models.User{Username: "commenter", Password: "x"}
	if err := db.Create(&commenter).Error; err != nil {
		t.Fatalf("create commenter: %v", err)
	}

	body, _ := json.Marshal(CreateCommentRequest{Response: "hello"})
	rec := httptest.NewRecorder()
	req := authedRequest(http.MethodPost, "/v1/answers/404/comments", body, commenter.ID,
		map[string]string{"id": "404"})
	ctl.Create(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var count int64
	if err := db.Model(&models.Comment{}).Count(&count).Error; err != nil {
		t.Fatalf("count comments: %v", err)
	}
	if count != 0 {
		t.Fatalf("no comment row may exist, got %d", count)
	}
}

func TestListCommentsByAnswer(t *testing.T) {
	db := testDB(t)
	ctl := NewCommentController(db, engine.New(db), nil)

	_, answer := seedAnswer(t, db)
	commenter := models.User{Username: "commenter", Password: "x"}
	if err := db.Create(&commenter).Error; err != nil {
		t.Fatalf("create commenter: %v", err)
	}
	for _, text := range []string{"first", "second"} {
		c := models.Comment{AnswerID: answer.ID, ExpertID: &commenter.ID, Response: text}
		if err := db.Create(&c).Error; err != nil {
			t.Fatalf("create comment %s: %v", text, err)
		}
	}

	rec := httptest.NewRecorder()
	req := authedRequest(http.MethodGet, "/v1/answers/1/comments", nil, 0,
		map[string]string{"id": "1"})
	ctl.ListByAnswer(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	items, ok := resp.Data.([]interface{})
	if !ok || len(items) != 2 {
		t.Fatalf("expected 2 comments, got %#v", resp.Data)
	}
}

func TestCreateCommentModerationRejected(t *testing.T) {
	db := testDB(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"flagged": true})
	}))
	defer srv.Close()
	mod := &utils.ModerationClient{BaseURL: srv.URL, HTTP: srv.Client()}

	ctl := NewCommentController(db, engine.New(db), mod)

	seedAnswer(t, db)
	commenter := models.User{Username: "commenter", Password: "x"}
	if err := db.Create(&commenter).Error; err != nil {
		t.Fatalf("create commenter: %v", err)
	}

	body, _ := json.Marshal(CreateCommentRequest{Response: "spam comment"})
	rec := httptest.NewRecorder()
	req := authedRequest(http.MethodPost, "/v1/answers/1/comments", body, commenter.ID,
		map[string]string{"id": "1"})
	ctl.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for flagged comment, got %d", rec.Code)
	}
	var count int64
	db.Model(&models.Comment{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no comment rows after rejection, got %d", count)
	}
}

func TestListTags(t *testing.T) {
	db := testDB(t)
	ctl := NewTagController(db)

	for _, name := range []string{"go", "channels", "gorm"} {
		if err := db.Create(&models.Tag{Name: name}).Error; err != nil {
			t.Fatalf("create tag %s: %v", name, err)
		}
	}

	rec := httptest.NewRecorder()
	req := authedRequest(http.MethodGet, "/v1/tags", nil, 0, nil)
	ctl.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	items, ok := resp.Data.([]interface{})
	if !ok || len(items) != 3 {
		t.Fatalf("expected 3 tags, got %#v", resp.Data)
	}
	first, _ := items[0].(map[string]interface{})
	if first["name"] != "channels" {
		t.Fatalf("expected alphabetical order, first tag = %v", first["name"])
	}
}
