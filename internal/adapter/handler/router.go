package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/meetingminutes/backend/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg               *config.Config
	authHandler       *Auth
	meetingHandler    *Meeting
	processingHandler *Processing
	wsHandler         *ProgressWS
	aiHandler         *AI
	authMiddleware    echo.MiddlewareFunc
}

// NewRouter creates a new router with all handlers
func NewRouter(
	cfg *config.Config,
	authHandler *Auth,
	meetingHandler *Meeting,
	processingHandler *Processing,
	wsHandler *ProgressWS,
	aiHandler *AI,
	authMiddleware echo.MiddlewareFunc,
) *Router {
	return &Router{
		cfg:               cfg,
		authHandler:       authHandler,
		meetingHandler:    meetingHandler,
		processingHandler: processingHandler,
		wsHandler:         wsHandler,
		aiHandler:         aiHandler,
		authMiddleware:    authMiddleware,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	v1 := e.Group("/v1")

	auth := v1.Group("/auth")
	auth.POST("/login", rt.authHandler.Login)
	auth.GET("/me", rt.authHandler.Me, rt.authMiddleware)

	ai := v1.Group("/ai")
	ai.GET("/health", rt.aiHandler.Health)

	meetings := v1.Group("/meetings", rt.authMiddleware)
	meetings.POST("", rt.meetingHandler.Create)
	meetings.GET("/:id", rt.meetingHandler.Get)
	meetings.POST("/:id/audio", rt.meetingHandler.UploadAudio)
	meetings.GET("/:id/documents", rt.meetingHandler.Documents)
	meetings.GET("/:id/documents/latest", rt.meetingHandler.LatestDocument)

	meetings.POST("/:id/process", rt.processingHandler.Start)
	meetings.POST("/:id/process/cancel", rt.processingHandler.Cancel)
	meetings.POST("/:id/process/retry", rt.processingHandler.Retry)
	meetings.GET("/:id/processing-status", rt.processingHandler.Status)
	meetings.GET("/:id/processing/ws", rt.wsHandler.Subscribe)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": rt.cfg.Server.Environment,
	})
}
