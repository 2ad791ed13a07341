package ws

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/time/rate"

	"motomarket-chat/internal/apperrors"
	"motomarket-chat/internal/chat"
	"motomarket-chat/internal/models"
	"motomarket-chat/internal/observability"
)

// MessageSender is the shared send path.
type MessageSender interface {
	SendMessage(ctx context.Context, in chat.SendInput) (models.MessageView, error)
}

// State is the protocol state of a session.
type State int32

const (
	StateConnected State = iota
	StateAuthenticated
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session runs the chat protocol for one connection. The session user is fixed
// when the connection is accepted; authenticate frames can only confirm it.
type Session struct {
	client   *Client
	registry *Registry
	sender   MessageSender
	limiter  *rate.Limiter
	logger   *slog.Logger
	userID   string
	state    atomic.Int32
}

// NewSession creates a session for client. A nil limiter disables frame rate limiting.
func NewSession(client *Client, registry *Registry, sender MessageSender, limiter *rate.Limiter, logger *slog.Logger) *Session {
	return &Session{
		client:   client,
		registry: registry,
		sender:   sender,
		limiter:  limiter,
		logger:   logger.With(client.info.logArgs()...),
		userID:   client.info.UserID,
	}
}

func (s *Session) State() State {
	return State(s.state.Load())
}

// Run reads frames until the connection fails or closes, then unregisters the client.
// It returns the error that ended the read loop.
// Message persistence is detached from ctx so an append in flight completes after a disconnect.
func (s *Session) Run(ctx context.Context) error {
	go s.client.WritePump()
	defer s.close()

	for {
		_, data, err := s.client.conn.ReadMessage()
		if err != nil {
			s.logger.Debug("websocket read ended", "error", err)
			return err
		}
		s.handle(ctx, data)
	}
}

func (s *Session) handle(ctx context.Context, data []byte) {
	if s.limiter != nil && !s.limiter.Allow() {
		observability.IncWSFrame("any", "rate_limited")
		s.sendError(apperrors.InvalidInput("rate limit exceeded"))
		return
	}

	frame, err := ParseFrame(data)
	if err != nil {
		observability.IncWSFrame("invalid", "rejected")
		s.sendError(err)
		return
	}

	switch f := frame.(type) {
	case AuthenticateFrame:
		s.authenticate(f)
	case ChatMessageFrame:
		s.chatMessage(ctx, f)
	}
}

func (s *Session) authenticate(f AuthenticateFrame) {
	if f.UserID != "" && f.UserID != s.userID {
		observability.IncWSFrame(TypeAuthenticate, "rejected")
		s.logger.Warn("authenticate rejected: user mismatch", "claimed_user_id", f.UserID)
		s.sendError(apperrors.Forbidden("userId does not match session"))
		return
	}

	s.registry.Register(s.userID, s.client)
	s.state.Store(int32(StateAuthenticated))
	observability.IncWSFrame(TypeAuthenticate, "ok")
	if err := s.client.Send(AuthenticatedFrame{Type: TypeAuthenticated, UserID: s.userID}); err != nil {
		s.logger.Debug("authenticated frame not sent", "error", err)
	}
}

func (s *Session) chatMessage(ctx context.Context, f ChatMessageFrame) {
	if s.State() != StateAuthenticated {
		observability.IncWSFrame(TypeChatMessage, "ignored")
		s.logger.Debug("chat_message before authenticate ignored")
		return
	}
	if f.SenderID != s.userID {
		observability.IncWSFrame(TypeChatMessage, "rejected")
		s.sendError(apperrors.Forbidden("senderId does not match session"))
		return
	}

	_, err := s.sender.SendMessage(context.WithoutCancel(ctx), chat.SendInput{
		ChatRoomID: f.ChatRoomID,
		SenderID:   s.userID,
		Content:    f.Content,
		Source:     chat.SourceRealtime,
	})
	if err != nil {
		observability.IncWSFrame(TypeChatMessage, "failed")
		if apperrors.Is(err, apperrors.KindInternal) {
			s.logger.Error("chat_message failed", "room_id", f.ChatRoomID, "error", err)
		}
		s.sendError(err)
		return
	}
	observability.IncWSFrame(TypeChatMessage, "ok")
}

func (s *Session) sendError(err error) {
	if sendErr := s.client.Send(newErrorFrame(err)); sendErr != nil {
		s.logger.Debug("error frame not sent", "error", sendErr)
	}
}

func (s *Session) close() {
	s.state.Store(int32(StateClosed))
	s.registry.Unregister(s.client)
	s.client.Close()
}
