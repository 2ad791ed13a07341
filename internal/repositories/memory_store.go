package repositories

import (
	"context"
	"sort"
	"sync"

	"motomarket-chat/internal/models"
)

type roomKey struct {
	vehicleID string
	buyerID   string
}

// MemoryStore keeps rooms, messages and the marketplace directory in process memory.
// It implements every repository interface and is used for development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	rooms    map[string]models.ChatRoom
	active   map[roomKey]string
	messages map[string][]models.Message
	users    map[string]models.User
	vehicles map[string]models.Vehicle
	seq      int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:    make(map[string]models.ChatRoom),
		active:   make(map[roomKey]string),
		messages: make(map[string][]models.Message),
		users:    make(map[string]models.User),
		vehicles: make(map[string]models.Vehicle),
	}
}

// PutUser adds or replaces a user.
func (s *MemoryStore) PutUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// PutVehicle adds or replaces a listing.
func (s *MemoryStore) PutVehicle(v models.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles[v.ID] = v
}

func (s *MemoryStore) FindActiveRoom(_ context.Context, vehicleID, buyerID string) (models.ChatRoom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.active[roomKey{vehicleID, buyerID}]
	if !ok {
		return models.ChatRoom{}, ErrChatRoomNotFound
	}
	return s.rooms[id], nil
}

func (s *MemoryStore) CreateOrGetRoom(_ context.Context, room models.ChatRoom) (models.ChatRoom, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := roomKey{room.VehicleID, room.BuyerID}
	if id, ok := s.active[key]; ok {
		return s.rooms[id], false, nil
	}
	room.IsActive = true
	room.UpdatedAt = room.CreatedAt
	s.rooms[room.ID] = room
	s.active[key] = room.ID
	return room, true, nil
}

func (s *MemoryStore) GetRoom(_ context.Context, roomID string) (models.ChatRoom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return models.ChatRoom{}, ErrChatRoomNotFound
	}
	return room, nil
}

func (s *MemoryStore) ListRoomsForUser(_ context.Context, userID string) ([]models.ChatRoom, error) {
	s.mu.RLock()
	rooms := []models.ChatRoom{}
	for _, room := range s.rooms {
		if room.IsActive && room.HasParticipant(userID) {
			rooms = append(rooms, room)
		}
	}
	s.mu.RUnlock()

	sort.Slice(rooms, func(i, j int) bool {
		if !rooms[i].UpdatedAt.Equal(rooms[j].UpdatedAt) {
			return rooms[i].UpdatedAt.After(rooms[j].UpdatedAt)
		}
		return rooms[i].ID < rooms[j].ID
	})
	return rooms, nil
}

func (s *MemoryStore) Stats(_ context.Context) (models.ChatStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := models.ChatStats{Rooms: int64(len(s.rooms)), ActiveRooms: int64(len(s.active))}
	for _, msgs := range s.messages {
		stats.Messages += int64(len(msgs))
	}
	return stats, nil
}

func (s *MemoryStore) ClearAll(_ context.Context) (models.ClearResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := models.ClearResult{Rooms: int64(len(s.rooms))}
	for _, msgs := range s.messages {
		result.Messages += int64(len(msgs))
	}
	s.rooms = make(map[string]models.ChatRoom)
	s.active = make(map[roomKey]string)
	s.messages = make(map[string][]models.Message)
	return result, nil
}

func (s *MemoryStore) AppendMessage(_ context.Context, msg models.Message) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[msg.ChatRoomID]
	if !ok {
		return models.Message{}, ErrChatRoomNotFound
	}
	s.seq++
	msg.Seq = s.seq
	s.messages[room.ID] = append(s.messages[room.ID], msg)
	if msg.CreatedAt.After(room.UpdatedAt) {
		room.UpdatedAt = msg.CreatedAt
		s.rooms[room.ID] = room
	}
	return msg, nil
}

func (s *MemoryStore) ListMessages(_ context.Context, roomID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Message{}, s.messages[roomID]...), nil
}

func (s *MemoryStore) ListMessagesForRooms(_ context.Context, roomIDs []string) (map[string][]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string][]models.Message, len(roomIDs))
	for _, id := range roomIDs {
		if msgs := s.messages[id]; len(msgs) > 0 {
			result[id] = append([]models.Message{}, msgs...)
		}
	}
	return result, nil
}

func (s *MemoryStore) GetUser(_ context.Context, userID string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return u, nil
}

func (s *MemoryStore) GetUsers(_ context.Context, userIDs []string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]models.User, 0, len(userIDs))
	for _, id := range userIDs {
		if u, ok := s.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (s *MemoryStore) GetVehicle(_ context.Context, vehicleID string) (models.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vehicles[vehicleID]
	if !ok {
		return models.Vehicle{}, ErrVehicleNotFound
	}
	return v, nil
}

var (
	_ ChatRoomRepository = (*MemoryStore)(nil)
	_ MessageRepository  = (*MemoryStore)(nil)
	_ UserRepository     = (*MemoryStore)(nil)
	_ VehicleRepository  = (*MemoryStore)(nil)
)
