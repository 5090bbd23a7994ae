package routes

import (
	"net/http"
	"time"

	"github.com/Spark-Project-Pulse/backend/controllers/auth"
	"github.com/Spark-Project-Pulse/backend/controllers/users"
	"github.com/Spark-Project-Pulse/backend/engine"
	"github.com/Spark-Project-Pulse/backend/middleware"
	"github.com/Spark-Project-Pulse/backend/utils"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// UsersRoutes registers all user-facing routes on the given subrouter.
func UsersRoutes(api *mux.Router, db *gorm.DB, eng *engine.Engine, mod *utils.ModerationClient) {
	// Rate limiter for login/register: 60 per IP per 5 minutes
	loginLimiter := middleware.NewIPRateLimiter(60, 5*time.Minute)
	// Rate limiter per session: 120 reads, 60 writes per user per minute
	userLimiter := middleware.NewUserRateLimiter(120, 60, 60)
	// Voting is bursty when users scan a thread; give it its own looser IP window
	voteLimiter := middleware.NewIPRateLimiter(300, 5*time.Minute)

	questionCtl := users.NewQuestionController(db, mod)
	answerCtl := users.NewAnswerController(db, eng, mod)
	commentCtl := users.NewCommentController(db, eng, mod)
	tagCtl := users.NewTagController(db)
	badgeCtl := users.NewBadgeController(db, eng)
	notificationCtl := users.NewNotificationController(db, eng)
	communityCtl := users.NewCommunityController(db, mod)
	profileCtl := users.NewProfileController(db, eng, mod)

	// Register & Login
	api.Handle("/register", loginLimiter.Middleware(http.HandlerFunc(auth.RegisterHandler))).Methods(http.MethodPost)
	api.Handle("/login", loginLimiter.Middleware(http.HandlerFunc(auth.LoginHandler))).Methods(http.MethodPost)
	api.Handle("/refresh", loginLimiter.Middleware(http.HandlerFunc(auth.RefreshHandler))).Methods(http.MethodPost)
	api.Handle("/logout", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(auth.LogoutHandler)))).Methods(http.MethodPost)
	api.Handle("/logout-all", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(auth.LogoutAllHandler)))).Methods(http.MethodPost)

	// Profiles
	api.Handle("/users/me", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(profileCtl.Me)))).Methods(http.MethodGet)
	api.Handle("/users/me/image", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(profileCtl.UploadImage)))).Methods(http.MethodPost)
	api.Handle("/users/{id:[0-9]+}", userLimiter.Middleware(http.HandlerFunc(profileCtl.Get))).Methods(http.MethodGet)
	api.Handle("/users/{id:[0-9]+}/badges", userLimiter.Middleware(http.HandlerFunc(badgeCtl.UserBadges))).Methods(http.MethodGet)

	// Badge catalog
	api.Handle("/badges", userLimiter.Middleware(http.HandlerFunc(badgeCtl.List))).Methods(http.MethodGet)

	// Questions
	api.Handle("/questions", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(questionCtl.Create)))).Methods(http.MethodPost)
	api.Handle("/questions", userLimiter.Middleware(http.HandlerFunc(questionCtl.List))).Methods(http.MethodGet)
	api.Handle("/questions/{id:[0-9]+}", userLimiter.Middleware(http.HandlerFunc(questionCtl.Get))).Methods(http.MethodGet)

	// Answers
	api.Handle("/questions/{id:[0-9]+}/answers", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(answerCtl.Create)))).Methods(http.MethodPost)
	api.Handle("/questions/{id:[0-9]+}/answers", userLimiter.Middleware(http.HandlerFunc(answerCtl.ListByQuestion))).Methods(http.MethodGet)

	// Comments
	api.Handle("/answers/{id:[0-9]+}/comments", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(commentCtl.Create)))).Methods(http.MethodPost)
	api.Handle("/answers/{id:[0-9]+}/comments", userLimiter.Middleware(http.HandlerFunc(commentCtl.ListByAnswer))).Methods(http.MethodGet)

	// Tag catalog
	api.Handle("/tags", userLimiter.Middleware(http.HandlerFunc(tagCtl.List))).Methods(http.MethodGet)

	// Voting: same endpoint twice means retraction, opposite means switch
	api.Handle("/answers/{id:[0-9]+}/upvote", voteLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(answerCtl.Upvote)))).Methods(http.MethodPost)
	api.Handle("/answers/{id:[0-9]+}/downvote", voteLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(answerCtl.Downvote)))).Methods(http.MethodPost)

	// Notifications
	api.Handle("/notifications", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(notificationCtl.List)))).Methods(http.MethodGet)
	api.Handle("/notifications/{id:[0-9]+}/read", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(notificationCtl.MarkRead)))).Methods(http.MethodPost)
	api.Handle("/notifications/{id:[0-9]+}/unread", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(notificationCtl.MarkUnread)))).Methods(http.MethodPost)
	api.Handle("/notifications/{id:[0-9]+}", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(notificationCtl.Delete)))).Methods(http.MethodDelete)

	// Communities
	api.Handle("/communities", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(communityCtl.Create)))).Methods(http.MethodPost)
	api.Handle("/communities", userLimiter.Middleware(http.HandlerFunc(communityCtl.List))).Methods(http.MethodGet)
	api.Handle("/communities/{id:[0-9]+}", userLimiter.Middleware(http.HandlerFunc(communityCtl.Get))).Methods(http.MethodGet)
	api.Handle("/communities/{id:[0-9]+}/join", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(communityCtl.Join)))).Methods(http.MethodPost)
	api.Handle("/communities/{id:[0-9]+}/leave", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(communityCtl.Leave)))).Methods(http.MethodPost)
	api.Handle("/communities/{id:[0-9]+}/members", userLimiter.Middleware(http.HandlerFunc(communityCtl.Members))).Methods(http.MethodGet)
	api.Handle("/communities/{id:[0-9]+}/membership", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(communityCtl.IsMember)))).Methods(http.MethodGet)
	api.Handle("/communities/{id:[0-9]+}/avatar", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(communityCtl.UploadAvatar)))).Methods(http.MethodPost)
}
