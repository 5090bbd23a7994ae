package routes

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Spark-Project-Pulse/backend/controllers/admins"
	"github.com/Spark-Project-Pulse/backend/engine"
	"github.com/Spark-Project-Pulse/backend/middleware"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

func SetAdminRoutes(api *mux.Router, db *gorm.DB, eng *engine.Engine) {
	// Rate limiter for admin login: 5 attempts per IP per minute
	adminLoginLimiter := middleware.NewIPRateLimiter(5, time.Minute)
	// Expensive maintenance endpoints get a whitelist limiter
	var maintenanceWhitelist []string
	if wl := os.Getenv("MAINTENANCE_IP_WHITELIST"); wl != "" {
		maintenanceWhitelist = strings.Split(wl, ",")
	}
	maintenanceLimiter := middleware.NewWhitelistLimiter(30, time.Hour, maintenanceWhitelist)

	// Public admin routes
	api.Handle("/admin/login", adminLoginLimiter.Middleware(http.HandlerFunc(admins.Login))).Methods(http.MethodPost)

	// Protected admin routes
	adminRouter := api.PathPrefix("/admin").Subrouter()
	adminRouter.Use(middleware.AdminAuthMiddleware)

	communityCtl := admins.NewCommunityAdminController(db, eng)
	badgeCtl := admins.NewBadgeAdminController(db)
	reputationCtl := admins.NewReputationAdminController(db, eng)

	// Community approval workflow
	adminRouter.Handle("/communities/pending", http.HandlerFunc(communityCtl.ListPending)).Methods(http.MethodGet)
	adminRouter.Handle("/communities/{id:[0-9]+}/approve", http.HandlerFunc(communityCtl.Approve)).Methods(http.MethodPost)
	adminRouter.Handle("/communities/{id:[0-9]+}/reject", http.HandlerFunc(communityCtl.Reject)).Methods(http.MethodPost)

	// Badge catalog management
	adminRouter.Handle("/badges", http.HandlerFunc(badgeCtl.CreateBadge)).Methods(http.MethodPost)
	adminRouter.Handle("/badges/{id:[0-9]+}/tiers", http.HandlerFunc(badgeCtl.CreateTier)).Methods(http.MethodPost)
	adminRouter.Handle("/badges/{id:[0-9]+}", http.HandlerFunc(badgeCtl.DeleteBadge)).Methods(http.MethodDelete)

	// Reputation maintenance
	adminRouter.Handle("/users/{id:[0-9]+}/reputation", http.HandlerFunc(reputationCtl.Adjust)).Methods(http.MethodPut)
	adminRouter.Handle("/users/{id:[0-9]+}/recompute-badges", maintenanceLimiter.Middleware(http.HandlerFunc(reputationCtl.Recompute))).Methods(http.MethodPost)
	adminRouter.Handle("/users/{id:[0-9]+}/resync-tags", maintenanceLimiter.Middleware(http.HandlerFunc(reputationCtl.ResyncTags))).Methods(http.MethodPost)
}
