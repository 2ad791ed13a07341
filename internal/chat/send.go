package chat

import (
	"context"
	"errors"
	"hash/maphash"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"motomarket-chat/internal/apperrors"
	"motomarket-chat/internal/models"
	"motomarket-chat/internal/observability"
	"motomarket-chat/internal/repositories"
)

// Message sources, used for metrics and logs.
const (
	SourceREST     = "rest"
	SourceRealtime = "realtime"
)

// SendInput is a message submitted by a participant.
type SendInput struct {
	ChatRoomID string
	SenderID   string
	Content    string
	Source     string
}

// SendMessage checks the sender is a participant, appends the message (bumping the
// room's updatedAt in the same store operation), enriches it with the sender's
// display attributes and pushes it to the connected participants.
// Messages of one room are persisted and broadcast in a single order.
func (s *Service) SendMessage(ctx context.Context, in SendInput) (models.MessageView, error) {
	if in.ChatRoomID == "" {
		return models.MessageView{}, apperrors.InvalidInput("chatRoomId is required")
	}
	if in.SenderID == "" {
		return models.MessageView{}, apperrors.InvalidInput("senderId is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return models.MessageView{}, apperrors.InvalidInput("content is required")
	}

	ctx, span := s.tracer.Start(ctx, "chat.SendMessage", trace.WithAttributes(
		attribute.String("room.id", in.ChatRoomID),
		attribute.String("sender.id", in.SenderID),
		attribute.String("source", in.Source),
	))
	defer span.End()

	room, err := s.getRoom(ctx, in.ChatRoomID)
	if err != nil {
		return models.MessageView{}, err
	}
	if !room.HasParticipant(in.SenderID) {
		return models.MessageView{}, apperrors.Forbidden("not a participant of this chat room")
	}

	unlock := s.locks.lock(room.ID)
	defer unlock()

	stored, err := s.messages.AppendMessage(ctx, models.Message{
		ID:          s.newID(),
		ChatRoomID:  room.ID,
		SenderID:    in.SenderID,
		Content:     in.Content,
		MessageType: models.MessageTypeText,
		CreatedAt:   s.now(),
	})
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, repositories.ErrChatRoomNotFound) {
			return models.MessageView{}, apperrors.NotFound("Chat room", err)
		}
		return models.MessageView{}, apperrors.Internal("failed to store message", err)
	}

	view := models.MessageView{Message: stored, Sender: s.senderSummary(ctx, in.SenderID)}
	if stored.CreatedAt.After(room.UpdatedAt) {
		room.UpdatedAt = stored.CreatedAt
	}
	if s.notifier != nil {
		s.notifier.DeliverNewMessage(view, room)
	}

	observability.IncMessage(in.Source)
	s.logger.Debug("message stored", "room_id", room.ID, "message_id", stored.ID, "sender_id", in.SenderID, "source", in.Source)
	s.publish(ctx, observability.EventMessageCreated, stored)
	return view, nil
}

const roomLockStripes = 64

// roomLocks is a fixed set of mutexes striped by room id.
type roomLocks struct {
	seed    maphash.Seed
	stripes [roomLockStripes]sync.Mutex
}

func newRoomLocks() *roomLocks {
	return &roomLocks{seed: maphash.MakeSeed()}
}

func (l *roomLocks) lock(roomID string) func() {
	mu := &l.stripes[maphash.String(l.seed, roomID)%roomLockStripes]
	mu.Lock()
	return mu.Unlock
}
