package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"motomarket-chat/internal/apperrors"
	"motomarket-chat/internal/chat"
	"motomarket-chat/internal/middleware"
	"motomarket-chat/internal/models"
)

// ChatService is the chat core as seen by the REST surface.
type ChatService interface {
	GetOrCreateRoom(ctx context.Context, vehicleID, buyerID string) (models.ChatRoom, bool, error)
	LoadRoomForUser(ctx context.Context, roomID, userID string) (models.ChatRoomDetails, error)
	ListRoomsForUser(ctx context.Context, userID string) ([]models.ChatRoomDetails, error)
	SendMessage(ctx context.Context, in chat.SendInput) (models.MessageView, error)
}

// ChatRoomHandler serves the /chat-rooms endpoints.
type ChatRoomHandler struct {
	service ChatService
}

// NewChatRoomHandler builds a ChatRoomHandler.
func NewChatRoomHandler(service ChatService) *ChatRoomHandler {
	return &ChatRoomHandler{service: service}
}

// ListChatRooms returns the caller's rooms with history, most recent activity first.
func (h *ChatRoomHandler) ListChatRooms(c *gin.Context) {
	rooms, err := h.service.ListRoomsForUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chatRooms": rooms})
}

// GetChatRoom returns one room with history. Only participants may read it.
func (h *ChatRoomHandler) GetChatRoom(c *gin.Context) {
	details, err := h.service.LoadRoomForUser(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

type createChatRoomRequest struct {
	VehicleID string `json:"vehicleId" binding:"required"`
}

// CreateChatRoom gets or creates the caller's room for a vehicle.
func (h *ChatRoomHandler) CreateChatRoom(c *gin.Context) {
	var req createChatRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.InvalidInput("vehicleId is required"))
		return
	}

	room, created, err := h.service.GetOrCreateRoom(c.Request.Context(), req.VehicleID, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, room)
}

type postMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// PostMessage sends a message through the shared send path.
func (h *ChatRoomHandler) PostMessage(c *gin.Context) {
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.InvalidInput("content is required"))
		return
	}

	view, err := h.service.SendMessage(c.Request.Context(), chat.SendInput{
		ChatRoomID: c.Param("id"),
		SenderID:   middleware.UserID(c),
		Content:    req.Content,
		Source:     chat.SourceREST,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}
