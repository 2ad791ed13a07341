package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"motomarket-chat/internal/middleware"
	"motomarket-chat/internal/observability"
	"motomarket-chat/internal/telemetry"
)

// Service is everything the HTTP surface needs from the chat core.
type Service interface {
	ChatService
	AdminService
}

// RouterDeps are the collaborators wired into the HTTP router.
type RouterDeps struct {
	Service       Service
	Connections   ConnectionCounter
	Tokens        middleware.TokenValidator
	Audit         *telemetry.AuditEmitter
	WebSocket     gin.HandlerFunc
	Logger        *slog.Logger
	ServiceName   string
	HTTPRateLimit int
	Debug         bool
}

// NewRouter builds the gin engine with every route of the service.
func NewRouter(d RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(d.ServiceName))
	router.Use(middleware.RequestLogger(d.Logger))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(observability.MetricsHandler()))

	if d.WebSocket != nil {
		router.GET("/ws", d.WebSocket)
	}

	authed := router.Group("/")
	authed.Use(middleware.AuthMiddleware(d.Tokens), middleware.RateLimitMiddleware(d.HTTPRateLimit))

	rooms := NewChatRoomHandler(d.Service)
	authed.GET("/chat-rooms", rooms.ListChatRooms)
	authed.POST("/chat-rooms", rooms.CreateChatRoom)
	authed.GET("/chat-rooms/:id", rooms.GetChatRoom)
	authed.POST("/chat-rooms/:id/messages", rooms.PostMessage)

	admin := NewAdminHandler(d.Service, d.Connections, d.Audit)
	adminGroup := authed.Group("/admin", middleware.RequireAdmin())
	adminGroup.GET("/chat-stats", admin.ChatStats)
	adminGroup.DELETE("/chat-rooms", admin.ClearChatRooms)

	RegisterDebugRoutes(adminGroup, d.Audit, d.Connections, d.Debug)
	return router
}
