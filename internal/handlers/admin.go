package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"motomarket-chat/internal/middleware"
	"motomarket-chat/internal/models"
	"motomarket-chat/internal/telemetry"
)

// AdminService exposes store-wide maintenance.
type AdminService interface {
	Stats(ctx context.Context) (models.ChatStats, error)
	ClearAll(ctx context.Context) (models.ClearResult, error)
}

// ConnectionCounter reports live realtime connections.
type ConnectionCounter interface {
	Count() int
}

// AdminHandler serves /admin endpoints. Routes must be behind RequireAdmin.
type AdminHandler struct {
	service     AdminService
	connections ConnectionCounter
	audit       *telemetry.AuditEmitter
}

func NewAdminHandler(service AdminService, connections ConnectionCounter, audit *telemetry.AuditEmitter) *AdminHandler {
	return &AdminHandler{service: service, connections: connections, audit: audit}
}

func (h *AdminHandler) ChatStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if h.connections != nil {
		stats.LiveConnections = h.connections.Count()
	}
	c.JSON(http.StatusOK, stats)
}

// ClearChatRooms deletes every room and message.
func (h *AdminHandler) ClearChatRooms(c *gin.Context) {
	result, err := h.service.ClearAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit.Emit(c.Request.Context(), telemetry.AuditEntry{
		Level:     "warn",
		Action:    "chat_rooms.clear",
		Text:      fmt.Sprintf("cleared %d chat rooms and %d messages", result.Rooms, result.Messages),
		RequestID: middleware.RequestID(c),
		UserID:    middleware.UserID(c),
		Fields:    map[string]any{"rooms": result.Rooms, "messages": result.Messages},
	})
	c.JSON(http.StatusOK, result)
}
