package repositories

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motomarket-chat/internal/models"
)

func newRoom(id, vehicle, buyer, seller string, at time.Time) models.ChatRoom {
	return models.ChatRoom{ID: id, VehicleID: vehicle, BuyerID: buyer, SellerID: seller, CreatedAt: at}
}

func TestMemoryStoreCreateOrGetRoomIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	first, created, err := store.CreateOrGetRoom(ctx, newRoom("r1", "v1", "u1", "u2", now))
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, first.IsActive)
	assert.Equal(t, now, first.UpdatedAt)

	second, created, err := store.CreateOrGetRoom(ctx, newRoom("r2", "v1", "u1", "u9", now.Add(time.Second)))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "r1", second.ID)
	assert.Equal(t, "u2", second.SellerID)

	found, err := store.FindActiveRoom(ctx, "v1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "r1", found.ID)

	_, err = store.FindActiveRoom(ctx, "v1", "u3")
	assert.ErrorIs(t, err, ErrChatRoomNotFound)
}

func TestMemoryStoreConcurrentCreateYieldsOneRoom(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]string, 20)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			room, _, err := store.CreateOrGetRoom(ctx, newRoom(fmt.Sprintf("r%d", i), "v1", "u1", "u2", time.Now()))
			assert.NoError(t, err)
			ids[i] = room.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Rooms)
}

func TestMemoryStoreAppendMessageOrdersAndTouchesRoom(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	_, _, err := store.CreateOrGetRoom(ctx, newRoom("r1", "v1", "u1", "u2", base))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := store.AppendMessage(ctx, models.Message{
			ID: fmt.Sprintf("m%d", i), ChatRoomID: "r1", SenderID: "u1",
			Content: "hi", MessageType: models.MessageTypeText, CreatedAt: base.Add(time.Duration(i+1) * time.Minute),
		})
		require.NoError(t, err)
	}

	msgs, err := store.ListMessages(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	for i, m := range msgs {
		assert.Equal(t, fmt.Sprintf("m%d", i), m.ID)
		if i > 0 {
			assert.Greater(t, m.Seq, msgs[i-1].Seq)
		}
	}

	room, err := store.GetRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, base.Add(3*time.Minute), room.UpdatedAt)

	// an older timestamp never moves updatedAt backwards
	_, err = store.AppendMessage(ctx, models.Message{ID: "late", ChatRoomID: "r1", SenderID: "u2", Content: "x", CreatedAt: base})
	require.NoError(t, err)
	room, err = store.GetRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, base.Add(3*time.Minute), room.UpdatedAt)

	_, err = store.AppendMessage(ctx, models.Message{ID: "m", ChatRoomID: "missing", Content: "x"})
	assert.ErrorIs(t, err, ErrChatRoomNotFound)
}

func TestMemoryStoreListRoomsForUserOrdersByUpdatedAt(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	_, _, _ = store.CreateOrGetRoom(ctx, newRoom("older", "v1", "u1", "u2", base))
	_, _, _ = store.CreateOrGetRoom(ctx, newRoom("newer", "v2", "u3", "u1", base.Add(time.Minute)))
	_, _, _ = store.CreateOrGetRoom(ctx, newRoom("other", "v3", "u3", "u2", base.Add(2*time.Minute)))

	rooms, err := store.ListRoomsForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "newer", rooms[0].ID)
	assert.Equal(t, "older", rooms[1].ID)

	_, err = store.AppendMessage(ctx, models.Message{ID: "m1", ChatRoomID: "older", SenderID: "u1", Content: "bump", CreatedAt: base.Add(5 * time.Minute)})
	require.NoError(t, err)

	rooms, err = store.ListRoomsForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "older", rooms[0].ID)

	rooms, err = store.ListRoomsForUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestMemoryStoreClearAll(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	_, _, _ = store.CreateOrGetRoom(ctx, newRoom("r1", "v1", "u1", "u2", now))
	_, _ = store.AppendMessage(ctx, models.Message{ID: "m1", ChatRoomID: "r1", SenderID: "u1", Content: "a", CreatedAt: now})
	_, _ = store.AppendMessage(ctx, models.Message{ID: "m2", ChatRoomID: "r1", SenderID: "u2", Content: "b", CreatedAt: now})

	result, err := store.ClearAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ClearResult{Rooms: 1, Messages: 2}, result)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Rooms)
	assert.Zero(t, stats.Messages)

	_, created, err := store.CreateOrGetRoom(ctx, newRoom("r2", "v1", "u1", "u2", now))
	require.NoError(t, err)
	assert.True(t, created)
}

func TestMemoryStoreDirectory(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.PutUser(models.User{ID: "u1", FirstName: "Ana"})
	store.PutVehicle(models.Vehicle{ID: "v1", SellerID: "u2", Brand: "Honda"})

	users, err := store.GetUsers(ctx, []string{"u1", "ghost"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Ana", users[0].FirstName)

	_, err = store.GetUser(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)

	v, err := store.GetVehicle(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, "u2", v.SellerID)

	_, err = store.GetVehicle(ctx, "v2")
	assert.ErrorIs(t, err, ErrVehicleNotFound)
}
