package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"motomarket-chat/internal/chat"
	"motomarket-chat/internal/models"
	"motomarket-chat/internal/repositories"
)

// EventPublisherMock records domain, audit and lifecycle events.
type EventPublisherMock struct {
	mock.Mock
}

func (m *EventPublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	return m.Called(ctx, routingKey, event).Error(0)
}

type ChatRoomRepositoryMock struct {
	mock.Mock
}

func (m *ChatRoomRepositoryMock) FindActiveRoom(ctx context.Context, vehicleID, buyerID string) (models.ChatRoom, error) {
	args := m.Called(ctx, vehicleID, buyerID)
	var room models.ChatRoom
	if val := args.Get(0); val != nil {
		room = val.(models.ChatRoom)
	}
	return room, args.Error(1)
}

func (m *ChatRoomRepositoryMock) CreateOrGetRoom(ctx context.Context, room models.ChatRoom) (models.ChatRoom, bool, error) {
	args := m.Called(ctx, room)
	var out models.ChatRoom
	if val := args.Get(0); val != nil {
		out = val.(models.ChatRoom)
	}
	return out, args.Bool(1), args.Error(2)
}

func (m *ChatRoomRepositoryMock) GetRoom(ctx context.Context, roomID string) (models.ChatRoom, error) {
	args := m.Called(ctx, roomID)
	var room models.ChatRoom
	if val := args.Get(0); val != nil {
		room = val.(models.ChatRoom)
	}
	return room, args.Error(1)
}

func (m *ChatRoomRepositoryMock) ListRoomsForUser(ctx context.Context, userID string) ([]models.ChatRoom, error) {
	args := m.Called(ctx, userID)
	var rooms []models.ChatRoom
	if val := args.Get(0); val != nil {
		rooms = val.([]models.ChatRoom)
	}
	return rooms, args.Error(1)
}

func (m *ChatRoomRepositoryMock) Stats(ctx context.Context) (models.ChatStats, error) {
	args := m.Called(ctx)
	var stats models.ChatStats
	if val := args.Get(0); val != nil {
		stats = val.(models.ChatStats)
	}
	return stats, args.Error(1)
}

func (m *ChatRoomRepositoryMock) ClearAll(ctx context.Context) (models.ClearResult, error) {
	args := m.Called(ctx)
	var result models.ClearResult
	if val := args.Get(0); val != nil {
		result = val.(models.ClearResult)
	}
	return result, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) AppendMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, roomID string) ([]models.Message, error) {
	args := m.Called(ctx, roomID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessagesForRooms(ctx context.Context, roomIDs []string) (map[string][]models.Message, error) {
	args := m.Called(ctx, roomIDs)
	var msgs map[string][]models.Message
	if val := args.Get(0); val != nil {
		msgs = val.(map[string][]models.Message)
	}
	return msgs, args.Error(1)
}

type ChatServiceMock struct {
	mock.Mock
}

func (m *ChatServiceMock) GetOrCreateRoom(ctx context.Context, vehicleID, buyerID string) (models.ChatRoom, bool, error) {
	args := m.Called(ctx, vehicleID, buyerID)
	var room models.ChatRoom
	if val := args.Get(0); val != nil {
		room = val.(models.ChatRoom)
	}
	return room, args.Bool(1), args.Error(2)
}

func (m *ChatServiceMock) LoadRoomForUser(ctx context.Context, roomID, userID string) (models.ChatRoomDetails, error) {
	args := m.Called(ctx, roomID, userID)
	var details models.ChatRoomDetails
	if val := args.Get(0); val != nil {
		details = val.(models.ChatRoomDetails)
	}
	return details, args.Error(1)
}

func (m *ChatServiceMock) ListRoomsForUser(ctx context.Context, userID string) ([]models.ChatRoomDetails, error) {
	args := m.Called(ctx, userID)
	var list []models.ChatRoomDetails
	if val := args.Get(0); val != nil {
		list = val.([]models.ChatRoomDetails)
	}
	return list, args.Error(1)
}

func (m *ChatServiceMock) SendMessage(ctx context.Context, in chat.SendInput) (models.MessageView, error) {
	args := m.Called(ctx, in)
	var view models.MessageView
	if val := args.Get(0); val != nil {
		view = val.(models.MessageView)
	}
	return view, args.Error(1)
}

func (m *ChatServiceMock) Stats(ctx context.Context) (models.ChatStats, error) {
	args := m.Called(ctx)
	var stats models.ChatStats
	if val := args.Get(0); val != nil {
		stats = val.(models.ChatStats)
	}
	return stats, args.Error(1)
}

func (m *ChatServiceMock) ClearAll(ctx context.Context) (models.ClearResult, error) {
	args := m.Called(ctx)
	var result models.ClearResult
	if val := args.Get(0); val != nil {
		result = val.(models.ClearResult)
	}
	return result, args.Error(1)
}

var _ repositories.ChatRoomRepository = (*ChatRoomRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
