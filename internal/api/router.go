package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/alumnethq/alumnet/internal/app"
	iauth "github.com/alumnethq/alumnet/internal/auth"
	"github.com/alumnethq/alumnet/internal/handlers"
	"github.com/alumnethq/alumnet/internal/middleware"
	"github.com/alumnethq/alumnet/internal/realtime"
	"github.com/alumnethq/alumnet/internal/services"
)

// Deps bundles the constructed services the router wires to routes.
type Deps struct {
	DB            *gorm.DB
	Config        *app.Config
	JWT           *iauth.JWTService
	Users         *services.UserService
	Groups        *services.GroupService
	Posts         *services.PostService
	Notifications *services.NotificationService
	Chat          *services.ChatService
	Dispatcher    *services.Dispatcher
	Hub           *realtime.Hub
}

// NewRouter builds the Gin engine, wires middleware, and registers all routes.
func NewRouter(deps Deps) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if deps.Config == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if deps.JWT == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if deps.Users == nil || deps.Groups == nil || deps.Posts == nil ||
		deps.Notifications == nil || deps.Chat == nil {
		return nil, fmt.Errorf("all services must be provided")
	}

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	// Basic rate limiting: 100 requests/minute per IP+path
	r.Use(middleware.RateLimit(100, time.Minute))
	r.NoRoute(middleware.NotFoundHandler)

	healthHandler := handlers.NewHealthHandler(deps.DB)
	r.GET("/health", healthHandler.Check)

	if deps.Config.Features.Metrics.Enabled {
		endpoint := deps.Config.Features.Metrics.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	authHandler := handlers.NewAuthHandler(deps.Users, deps.JWT)

	// Public auth routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// The chat socket authenticates in-band via its handshake event.
	realtimeHandler := handlers.NewRealtimeHandler(deps.Hub)
	r.GET("/ws/chat", realtimeHandler.Stream)

	requireAuth := middleware.Auth(deps.JWT)
	requireApproved := middleware.RequireApproved(deps.Users)

	api := r.Group("/api")
	api.Use(requireAuth)

	api.GET("/auth/me", authHandler.Me)

	registerUserRoutes(api, handlers.NewUserHandler(deps.Users), requireApproved)
	registerAdminRoutes(api, handlers.NewAdminHandler(deps.Users, deps.Dispatcher))
	registerPostRoutes(api, handlers.NewPostHandler(deps.Posts), requireApproved)
	registerGroupRoutes(api, handlers.NewGroupHandler(deps.Groups, deps.Chat), requireApproved)
	registerNotificationRoutes(api, handlers.NewNotificationHandler(deps.Notifications))

	return r, nil
}
