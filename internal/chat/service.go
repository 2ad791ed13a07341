// Package chat implements the chat room manager and the send path shared by the
// REST and realtime entry points.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"motomarket-chat/internal/apperrors"
	"motomarket-chat/internal/models"
	"motomarket-chat/internal/observability"
	"motomarket-chat/internal/repositories"
)

// Notifier pushes a persisted message to the connected participants of its room.
type Notifier interface {
	DeliverNewMessage(message models.MessageView, room models.ChatRoom)
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// Deps are the collaborators of a Service.
type Deps struct {
	Rooms       repositories.ChatRoomRepository
	Messages    repositories.MessageRepository
	Users       repositories.UserRepository
	Vehicles    repositories.VehicleRepository
	Notifier    Notifier
	Events      EventPublisher
	Logger      *slog.Logger
	ServiceName string
}

// Service owns chat room lifecycle and message sending.
type Service struct {
	rooms    repositories.ChatRoomRepository
	messages repositories.MessageRepository
	users    repositories.UserRepository
	vehicles repositories.VehicleRepository
	notifier Notifier
	events   EventPublisher
	logger   *slog.Logger
	name     string
	tracer   trace.Tracer

	flights singleflight.Group
	locks   *roomLocks

	now   func() time.Time
	newID func() string
}

func NewService(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		rooms:    d.Rooms,
		messages: d.Messages,
		users:    d.Users,
		vehicles: d.Vehicles,
		notifier: d.Notifier,
		events:   d.Events,
		logger:   logger.With("component", "chat"),
		name:     d.ServiceName,
		tracer:   observability.Tracer(),
		locks:    newRoomLocks(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.NewString() },
	}
}

type flightResult struct {
	room    models.ChatRoom
	created bool
}

// GetOrCreateRoom returns the active room for (vehicleID, buyerID), creating it when
// none exists. The seller is resolved from the vehicle once, at creation. The boolean
// reports whether a room was created by this call or a concurrent identical call.
func (s *Service) GetOrCreateRoom(ctx context.Context, vehicleID, buyerID string) (models.ChatRoom, bool, error) {
	if vehicleID == "" {
		return models.ChatRoom{}, false, apperrors.InvalidInput("vehicleId is required")
	}
	if buyerID == "" {
		return models.ChatRoom{}, false, apperrors.Unauthenticated("missing user", nil)
	}

	ctx, span := s.tracer.Start(ctx, "chat.GetOrCreateRoom", trace.WithAttributes(
		attribute.String("vehicle.id", vehicleID),
		attribute.String("buyer.id", buyerID),
	))
	defer span.End()

	v, err, _ := s.flights.Do(vehicleID+"\x00"+buyerID, func() (any, error) {
		// the flight outlives the leader's request
		return s.getOrCreateRoom(context.WithoutCancel(ctx), vehicleID, buyerID)
	})
	if err != nil {
		span.RecordError(err)
		return models.ChatRoom{}, false, err
	}
	res := v.(flightResult)
	return res.room, res.created, nil
}

func (s *Service) getOrCreateRoom(ctx context.Context, vehicleID, buyerID string) (flightResult, error) {
	room, err := s.rooms.FindActiveRoom(ctx, vehicleID, buyerID)
	if err == nil {
		return flightResult{room: room}, nil
	}
	if !errors.Is(err, repositories.ErrChatRoomNotFound) {
		return flightResult{}, apperrors.Internal("failed to load chat room", err)
	}

	vehicle, err := s.vehicles.GetVehicle(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, repositories.ErrVehicleNotFound) {
			return flightResult{}, apperrors.NotFound("Vehicle", err)
		}
		return flightResult{}, apperrors.Internal("failed to load vehicle", err)
	}
	if vehicle.SellerID == buyerID {
		return flightResult{}, apperrors.InvalidInput("cannot start a chat on your own listing")
	}

	now := s.now()
	room, created, err := s.rooms.CreateOrGetRoom(ctx, models.ChatRoom{
		ID:        s.newID(),
		VehicleID: vehicleID,
		BuyerID:   buyerID,
		SellerID:  vehicle.SellerID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return flightResult{}, apperrors.Internal("failed to create chat room", err)
	}

	if created {
		observability.IncRoomCreated()
		s.logger.Info("chat room created", "room_id", room.ID, "vehicle_id", vehicleID, "buyer_id", buyerID, "seller_id", room.SellerID)
		s.publish(ctx, observability.EventRoomCreated, room)
	}
	return flightResult{room: room, created: created}, nil
}

// LoadRoomWithHistory returns the room with its vehicle, participants and ordered history.
func (s *Service) LoadRoomWithHistory(ctx context.Context, roomID string) (models.ChatRoomDetails, error) {
	ctx, span := s.tracer.Start(ctx, "chat.LoadRoomWithHistory", trace.WithAttributes(attribute.String("room.id", roomID)))
	defer span.End()

	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		return models.ChatRoomDetails{}, err
	}
	return s.roomDetails(ctx, room)
}

// LoadRoomForUser is LoadRoomWithHistory restricted to the room's participants.
func (s *Service) LoadRoomForUser(ctx context.Context, roomID, userID string) (models.ChatRoomDetails, error) {
	ctx, span := s.tracer.Start(ctx, "chat.LoadRoomForUser", trace.WithAttributes(
		attribute.String("room.id", roomID),
		attribute.String("user.id", userID),
	))
	defer span.End()

	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		return models.ChatRoomDetails{}, err
	}
	if !room.HasParticipant(userID) {
		return models.ChatRoomDetails{}, apperrors.Forbidden("not a participant of this chat room")
	}
	return s.roomDetails(ctx, room)
}

// ListRoomsForUser returns the user's active rooms with history, most recently updated first.
func (s *Service) ListRoomsForUser(ctx context.Context, userID string) ([]models.ChatRoomDetails, error) {
	ctx, span := s.tracer.Start(ctx, "chat.ListRoomsForUser", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	rooms, err := s.rooms.ListRoomsForUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list chat rooms", err)
	}
	if len(rooms) == 0 {
		return []models.ChatRoomDetails{}, nil
	}

	ids := make([]string, len(rooms))
	for i, r := range rooms {
		ids[i] = r.ID
	}
	msgs, err := s.messages.ListMessagesForRooms(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal("failed to load messages", err)
	}
	return s.buildDetails(ctx, rooms, msgs), nil
}

// Stats returns store counts. LiveConnections is left to the caller.
func (s *Service) Stats(ctx context.Context) (models.ChatStats, error) {
	stats, err := s.rooms.Stats(ctx)
	if err != nil {
		return models.ChatStats{}, apperrors.Internal("failed to load chat stats", err)
	}
	return stats, nil
}

// ClearAll removes every room and message.
func (s *Service) ClearAll(ctx context.Context) (models.ClearResult, error) {
	result, err := s.rooms.ClearAll(ctx)
	if err != nil {
		return models.ClearResult{}, apperrors.Internal("failed to clear chat rooms", err)
	}
	s.logger.Warn("chat rooms cleared", "rooms", result.Rooms, "messages", result.Messages)
	s.publish(ctx, observability.EventChatsCleared, result)
	return result, nil
}

func (s *Service) getRoom(ctx context.Context, roomID string) (models.ChatRoom, error) {
	if roomID == "" {
		return models.ChatRoom{}, apperrors.InvalidInput("chatRoomId is required")
	}
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, repositories.ErrChatRoomNotFound) {
			return models.ChatRoom{}, apperrors.NotFound("Chat room", err)
		}
		return models.ChatRoom{}, apperrors.Internal("failed to load chat room", err)
	}
	return room, nil
}

func (s *Service) publish(ctx context.Context, eventType string, payload any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, eventType, observability.NewEvent(ctx, s.name, eventType, payload)); err != nil {
		s.logger.Warn("event publish failed", "event_type", eventType, "error", err)
	}
}
