package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"motomarket-chat/internal/models"
)

// MessageRepository defines interactions for chat messages.
type MessageRepository interface {
	AppendMessage(ctx context.Context, msg models.Message) (models.Message, error)
	ListMessages(ctx context.Context, roomID string) ([]models.Message, error)
	ListMessagesForRooms(ctx context.Context, roomIDs []string) (map[string][]models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, seq, chat_room_id, sender_id, content, message_type, created_at`

// AppendMessage stores a message and bumps the owning room's updated_at in the same transaction.
// updated_at never moves backwards.
func (r *MessageRepo) AppendMessage(ctx context.Context, msg models.Message) (stored models.Message, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `UPDATE chat_rooms SET updated_at = GREATEST(updated_at, $2) WHERE id=$1`, msg.ChatRoomID, msg.CreatedAt)
	if err != nil {
		return models.Message{}, fmt.Errorf("touch chat room: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return models.Message{}, err
	}
	if count == 0 {
		err = ErrChatRoomNotFound
		return models.Message{}, err
	}

	err = tx.QueryRowxContext(ctx, `INSERT INTO messages (id, chat_room_id, sender_id, content, message_type, created_at)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+messageColumns,
		msg.ID, msg.ChatRoomID, msg.SenderID, msg.Content, msg.MessageType, msg.CreatedAt).StructScan(&stored)
	if err != nil {
		return models.Message{}, fmt.Errorf("insert message: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return models.Message{}, err
	}
	return stored, nil
}

// ListMessages returns a room's messages in insertion order.
func (r *MessageRepo) ListMessages(ctx context.Context, roomID string) ([]models.Message, error) {
	msgs := []models.Message{}
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages
        WHERE chat_room_id=$1
        ORDER BY seq ASC`, roomID)
	return msgs, err
}

// ListMessagesForRooms returns the ordered history of several rooms keyed by room id.
func (r *MessageRepo) ListMessagesForRooms(ctx context.Context, roomIDs []string) (map[string][]models.Message, error) {
	result := make(map[string][]models.Message, len(roomIDs))
	if len(roomIDs) == 0 {
		return result, nil
	}

	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages
        WHERE chat_room_id = ANY($1)
        ORDER BY chat_room_id, seq ASC`, pq.Array(roomIDs))
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		result[m.ChatRoomID] = append(result[m.ChatRoomID], m)
	}
	return result, nil
}
