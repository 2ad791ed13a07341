package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"motomarket-chat/internal/middleware"
	"motomarket-chat/internal/observability"
)

const (
	maxFrameBytes = 16 << 10
	wsRoutingKey  = "ws_events.chats"
)

// EventPublisher publishes connection lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// HandlerConfig tunes accepted connections.
type HandlerConfig struct {
	FrameRate      float64
	FrameBurst     int
	SendBuffer     int
	AllowedOrigins []string
	ServiceName    string
}

// Handler upgrades authenticated HTTP requests and runs a Session per connection.
type Handler struct {
	registry *Registry
	sender   MessageSender
	tokens   middleware.TokenValidator
	events   EventPublisher
	cfg      HandlerConfig
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewHandler(registry *Registry, sender MessageSender, tokens middleware.TokenValidator, events EventPublisher, cfg HandlerConfig, logger *slog.Logger) *Handler {
	return &Handler{
		registry: registry,
		sender:   sender,
		tokens:   tokens,
		events:   events,
		cfg:      cfg,
		logger:   logger.With("component", "ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
	}
}

// Handle serves GET /ws.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := observability.Tracer().Start(c.Request.Context(), "ws.handshake")
	defer span.End()

	token := tokenFromRequest(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token", "code": "UNAUTHENTICATED"})
		return
	}
	identity, err := h.tokens.Validate(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "code": "UNAUTHENTICATED"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(maxFrameBytes)

	info := ConnInfo{
		ConnID:      uuid.NewString(),
		UserID:      identity.UserID,
		DeviceID:    c.GetHeader("X-Device-Id"),
		IP:          c.ClientIP(),
		RequestID:   middleware.RequestID(c),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	client := NewClient(conn, info, h.cfg.SendBuffer, h.logger)

	var limiter *rate.Limiter
	if h.cfg.FrameRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(h.cfg.FrameRate), max(h.cfg.FrameBurst, 1))
	}
	session := NewSession(client, h.registry, h.sender, limiter, h.logger)

	observability.IncWSActive()
	h.logger.Info("websocket connected", info.logArgs()...)
	h.publish(ctx, "ws_connect", info, "")

	// the request context ends when Handle returns
	sessionCtx := context.WithoutCancel(ctx)
	go func() {
		err := session.Run(sessionCtx)
		observability.DecWSActive()
		reason := ""
		if err != nil {
			reason = err.Error()
		}
		h.logger.Info("websocket disconnected", append(info.logArgs(), "duration", time.Since(info.ConnectedAt), "reason", reason)...)
		h.publish(sessionCtx, "ws_disconnect", info, reason)
	}()
}

func (h *Handler) publish(ctx context.Context, event string, info ConnInfo, reason string) {
	if h.events == nil {
		return
	}
	payload := map[string]any{
		"ws": map[string]any{
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]any{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
	envelope := observability.NewEvent(ctx, h.cfg.ServiceName, "ws_events", payload)
	if err := h.events.Publish(ctx, wsRoutingKey, envelope); err != nil {
		h.logger.Debug("ws event publish failed", "event", event, "error", err)
	}
}
