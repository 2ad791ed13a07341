package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"motomarket-chat/internal/models"
)

var ErrChatRoomNotFound = errors.New("chat room not found")

// ChatRoomRepository abstracts chat room persistence.
type ChatRoomRepository interface {
	FindActiveRoom(ctx context.Context, vehicleID, buyerID string) (models.ChatRoom, error)
	CreateOrGetRoom(ctx context.Context, room models.ChatRoom) (models.ChatRoom, bool, error)
	GetRoom(ctx context.Context, roomID string) (models.ChatRoom, error)
	ListRoomsForUser(ctx context.Context, userID string) ([]models.ChatRoom, error)
	Stats(ctx context.Context) (models.ChatStats, error)
	ClearAll(ctx context.Context) (models.ClearResult, error)
}

// ChatRoomRepo is a sqlx implementation of ChatRoomRepository.
type ChatRoomRepo struct {
	db *sqlx.DB
}

// NewChatRoomRepo constructs a ChatRoomRepo.
func NewChatRoomRepo(db *sqlx.DB) *ChatRoomRepo {
	return &ChatRoomRepo{db: db}
}

const chatRoomColumns = `id, vehicle_id, buyer_id, seller_id, is_active, created_at, updated_at`

// FindActiveRoom returns the active room for the (vehicle, buyer) pair.
func (r *ChatRoomRepo) FindActiveRoom(ctx context.Context, vehicleID, buyerID string) (models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.GetContext(ctx, &room, `SELECT `+chatRoomColumns+` FROM chat_rooms
        WHERE vehicle_id=$1 AND buyer_id=$2 AND is_active`, vehicleID, buyerID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatRoom{}, ErrChatRoomNotFound
	}
	return room, err
}

// CreateOrGetRoom inserts the room unless an active room already exists for its
// (vehicle, buyer) pair, in which case the existing room is returned.
// The boolean reports whether this call created the room.
func (r *ChatRoomRepo) CreateOrGetRoom(ctx context.Context, room models.ChatRoom) (models.ChatRoom, bool, error) {
	var created models.ChatRoom
	err := r.db.GetContext(ctx, &created, `INSERT INTO chat_rooms (id, vehicle_id, buyer_id, seller_id, is_active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, TRUE, $5, $5)
        ON CONFLICT (vehicle_id, buyer_id) WHERE is_active DO NOTHING
        RETURNING `+chatRoomColumns, room.ID, room.VehicleID, room.BuyerID, room.SellerID, room.CreatedAt)
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.ChatRoom{}, false, fmt.Errorf("insert chat room: %w", err)
	}

	// lost the race: the unique index kept the other writer's row
	existing, err := r.FindActiveRoom(ctx, room.VehicleID, room.BuyerID)
	if err != nil {
		return models.ChatRoom{}, false, fmt.Errorf("refetch chat room: %w", err)
	}
	return existing, false, nil
}

// GetRoom fetches a room by id.
func (r *ChatRoomRepo) GetRoom(ctx context.Context, roomID string) (models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.GetContext(ctx, &room, `SELECT `+chatRoomColumns+` FROM chat_rooms WHERE id=$1`, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatRoom{}, ErrChatRoomNotFound
	}
	return room, err
}

// ListRoomsForUser returns the active rooms where the user is buyer or seller, most recently updated first.
func (r *ChatRoomRepo) ListRoomsForUser(ctx context.Context, userID string) ([]models.ChatRoom, error) {
	rooms := []models.ChatRoom{}
	err := r.db.SelectContext(ctx, &rooms, `SELECT `+chatRoomColumns+` FROM chat_rooms
        WHERE is_active AND (buyer_id=$1 OR seller_id=$1)
        ORDER BY updated_at DESC, id`, userID)
	return rooms, err
}

// Stats counts rooms and messages.
func (r *ChatRoomRepo) Stats(ctx context.Context) (models.ChatStats, error) {
	var stats models.ChatStats
	err := r.db.GetContext(ctx, &stats, `SELECT
        (SELECT COUNT(*) FROM chat_rooms) AS rooms,
        (SELECT COUNT(*) FROM chat_rooms WHERE is_active) AS active_rooms,
        (SELECT COUNT(*) FROM messages) AS messages`)
	return stats, err
}

// ClearAll deletes every room and message in one transaction.
func (r *ChatRoomRepo) ClearAll(ctx context.Context) (result models.ClearResult, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.ClearResult{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM messages`)
	if err != nil {
		return models.ClearResult{}, err
	}
	if result.Messages, err = res.RowsAffected(); err != nil {
		return models.ClearResult{}, err
	}

	res, err = tx.ExecContext(ctx, `DELETE FROM chat_rooms`)
	if err != nil {
		return models.ClearResult{}, err
	}
	if result.Rooms, err = res.RowsAffected(); err != nil {
		return models.ClearResult{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.ClearResult{}, err
	}
	return result, nil
}
