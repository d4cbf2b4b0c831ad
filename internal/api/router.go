package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	iauth "github.com/medlabs/critalert/internal/auth"
	"github.com/medlabs/critalert/internal/devices"
	"github.com/medlabs/critalert/internal/directory"
	"github.com/medlabs/critalert/internal/handlers"
	"github.com/medlabs/critalert/internal/middleware"
	"github.com/medlabs/critalert/internal/models"
	"github.com/medlabs/critalert/internal/notify"
	"github.com/medlabs/critalert/internal/services"
)

// Dependencies bundles everything the router needs.
type Dependencies struct {
	DB        *gorm.DB
	JWT       *iauth.JWTService
	Directory directory.UserDirectory
	Registry  devices.Registry
	Fanout    *notify.Fanout
	Alerts    *services.AlertService
	Seclog    *services.SecurityLogService
}

// NewRouter builds the Gin engine, wires middleware, and registers all routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if deps.JWT == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if deps.Directory == nil {
		return nil, fmt.Errorf("user directory must be provided")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("device registry must be provided")
	}
	if deps.Alerts == nil {
		return nil, fmt.Errorf("alert service must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())

	// Public endpoints
	r.GET("/health", handlers.Health(deps.DB))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authenticator, err := iauth.NewAuthenticator(deps.Directory, deps.Seclog)
	if err != nil {
		return nil, err
	}
	authHandler := handlers.NewAuthHandler(authenticator, deps.JWT, deps.Directory)

	auth := r.Group("/api/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	// Protected routes
	requireAuth := middleware.Auth(deps.JWT)

	api := r.Group("/api")
	api.Use(requireAuth)

	api.GET("/auth/user", authHandler.CurrentUser)

	alertHandler := handlers.NewAlertHandler(deps.Alerts, deps.Fanout)
	alerts := api.Group("/alerts")
	{
		alerts.GET("", alertHandler.List)
		alerts.POST("", middleware.RequireRole(models.RoleSender), alertHandler.Create)
		alerts.GET("/pending", middleware.RequireRole(models.RoleReceiver), alertHandler.Pending)
		// Any authenticated user may close an alert; this mirrors the
		// deployed behaviour and is deliberately not role-gated.
		alerts.PUT("/:id/close", alertHandler.Close)
		alerts.GET("/stats", middleware.RequireRole(models.RoleAdmin), alertHandler.Stats)
	}

	notificationHandler := handlers.NewNotificationHandler(deps.Registry, deps.Fanout)
	notifications := api.Group("/notifications")
	{
		notifications.POST("/register", notificationHandler.Register)
		notifications.DELETE("/unregister", notificationHandler.Unregister)
		notifications.POST("/test", notificationHandler.Test)
	}

	return r, nil
}
