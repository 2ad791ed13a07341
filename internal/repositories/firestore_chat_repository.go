package repositories

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"motomarket-chat/internal/models"
)

const (
	chatRoomsCollection   = "chat_rooms"
	chatRoomKeyCollection = "chat_room_keys"
	messagesCollection    = "messages"
)

// firestoreRoom is the stored room document; lastSeq orders the room's messages.
type firestoreRoom struct {
	models.ChatRoom
	LastSeq int64 `firestore:"lastSeq"`
}

type roomKeyDoc struct {
	ChatRoomID string `firestore:"chatRoomId"`
}

// FirestoreChatRepo stores rooms and messages in Firestore. Messages live in a
// subcollection of their room. Active-pair uniqueness is held by a key document
// per (vehicle, buyer) created in the same transaction as the room.
type FirestoreChatRepo struct {
	client *firestore.Client
}

func NewFirestoreChatRepo(client *firestore.Client) *FirestoreChatRepo {
	return &FirestoreChatRepo{client: client}
}

func roomKeyID(vehicleID, buyerID string) string {
	return url.PathEscape(vehicleID) + "_" + url.PathEscape(buyerID)
}

func (r *FirestoreChatRepo) rooms() *firestore.CollectionRef {
	return r.client.Collection(chatRoomsCollection)
}

func (r *FirestoreChatRepo) keys() *firestore.CollectionRef {
	return r.client.Collection(chatRoomKeyCollection)
}

func (r *FirestoreChatRepo) messages(roomID string) *firestore.CollectionRef {
	return r.rooms().Doc(roomID).Collection(messagesCollection)
}

func (r *FirestoreChatRepo) FindActiveRoom(ctx context.Context, vehicleID, buyerID string) (models.ChatRoom, error) {
	snap, err := r.keys().Doc(roomKeyID(vehicleID, buyerID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return models.ChatRoom{}, ErrChatRoomNotFound
		}
		return models.ChatRoom{}, fmt.Errorf("get room key: %w", err)
	}
	var key roomKeyDoc
	if err := snap.DataTo(&key); err != nil {
		return models.ChatRoom{}, fmt.Errorf("parse room key: %w", err)
	}
	room, err := r.GetRoom(ctx, key.ChatRoomID)
	if err != nil {
		return models.ChatRoom{}, err
	}
	if !room.IsActive {
		return models.ChatRoom{}, ErrChatRoomNotFound
	}
	return room, nil
}

func (r *FirestoreChatRepo) CreateOrGetRoom(ctx context.Context, room models.ChatRoom) (models.ChatRoom, bool, error) {
	keyRef := r.keys().Doc(roomKeyID(room.VehicleID, room.BuyerID))
	var (
		result  models.ChatRoom
		created bool
	)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		created = false
		keySnap, err := tx.Get(keyRef)
		switch {
		case err == nil:
			var key roomKeyDoc
			if err := keySnap.DataTo(&key); err != nil {
				return err
			}
			roomSnap, err := tx.Get(r.rooms().Doc(key.ChatRoomID))
			if err != nil {
				return err
			}
			var stored firestoreRoom
			if err := roomSnap.DataTo(&stored); err != nil {
				return err
			}
			result = stored.ChatRoom
			return nil
		case status.Code(err) != codes.NotFound:
			return err
		}

		room.IsActive = true
		room.UpdatedAt = room.CreatedAt
		if err := tx.Create(keyRef, roomKeyDoc{ChatRoomID: room.ID}); err != nil {
			return err
		}
		if err := tx.Create(r.rooms().Doc(room.ID), firestoreRoom{ChatRoom: room}); err != nil {
			return err
		}
		result = room
		created = true
		return nil
	})
	if err != nil {
		return models.ChatRoom{}, false, fmt.Errorf("create chat room: %w", err)
	}
	return result, created, nil
}

func (r *FirestoreChatRepo) GetRoom(ctx context.Context, roomID string) (models.ChatRoom, error) {
	snap, err := r.rooms().Doc(roomID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return models.ChatRoom{}, ErrChatRoomNotFound
		}
		return models.ChatRoom{}, fmt.Errorf("get chat room: %w", err)
	}
	var stored firestoreRoom
	if err := snap.DataTo(&stored); err != nil {
		return models.ChatRoom{}, fmt.Errorf("parse chat room: %w", err)
	}
	return stored.ChatRoom, nil
}

// ListRoomsForUser runs one query per role and merges the results in memory,
// which avoids a composite index on (isActive, buyerId|sellerId, updatedAt).
func (r *FirestoreChatRepo) ListRoomsForUser(ctx context.Context, userID string) ([]models.ChatRoom, error) {
	seen := make(map[string]struct{})
	rooms := []models.ChatRoom{}
	for _, field := range []string{"buyerId", "sellerId"} {
		iter := r.rooms().Where(field, "==", userID).Documents(ctx)
		for {
			doc, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				break
			}
			if err != nil {
				iter.Stop()
				return nil, fmt.Errorf("list chat rooms: %w", err)
			}
			var stored firestoreRoom
			if err := doc.DataTo(&stored); err != nil {
				iter.Stop()
				return nil, fmt.Errorf("parse chat room: %w", err)
			}
			if _, dup := seen[stored.ID]; dup || !stored.IsActive {
				continue
			}
			seen[stored.ID] = struct{}{}
			rooms = append(rooms, stored.ChatRoom)
		}
		iter.Stop()
	}

	sort.Slice(rooms, func(i, j int) bool {
		if !rooms[i].UpdatedAt.Equal(rooms[j].UpdatedAt) {
			return rooms[i].UpdatedAt.After(rooms[j].UpdatedAt)
		}
		return rooms[i].ID < rooms[j].ID
	})
	return rooms, nil
}

func (r *FirestoreChatRepo) Stats(ctx context.Context) (models.ChatStats, error) {
	var stats models.ChatStats
	docs, err := r.rooms().Documents(ctx).GetAll()
	if err != nil {
		return stats, fmt.Errorf("count chat rooms: %w", err)
	}
	for _, doc := range docs {
		stats.Rooms++
		if active, err := doc.DataAt("isActive"); err == nil && active == true {
			stats.ActiveRooms++
		}
	}
	msgs, err := r.client.CollectionGroup(messagesCollection).Select().Documents(ctx).GetAll()
	if err != nil {
		return stats, fmt.Errorf("count messages: %w", err)
	}
	stats.Messages = int64(len(msgs))
	return stats, nil
}

func (r *FirestoreChatRepo) ClearAll(ctx context.Context) (models.ClearResult, error) {
	bw := r.client.BulkWriter(ctx)
	var jobs []deleteJob
	enqueue := func(ref *firestore.DocumentRef, kind deleteKind) error {
		job, err := bw.Delete(ref)
		if err != nil {
			return err
		}
		jobs = append(jobs, deleteJob{kind: kind, result: job})
		return nil
	}

	err := func() error {
		rooms, err := r.rooms().Select().Documents(ctx).GetAll()
		if err != nil {
			return fmt.Errorf("list chat rooms: %w", err)
		}
		for _, room := range rooms {
			msgs, err := room.Ref.Collection(messagesCollection).Select().Documents(ctx).GetAll()
			if err != nil {
				return fmt.Errorf("list messages: %w", err)
			}
			for _, m := range msgs {
				if err := enqueue(m.Ref, deleteMessage); err != nil {
					return err
				}
			}
			if err := enqueue(room.Ref, deleteRoom); err != nil {
				return err
			}
		}

		keys, err := r.keys().Select().Documents(ctx).GetAll()
		if err != nil {
			return fmt.Errorf("list room keys: %w", err)
		}
		for _, k := range keys {
			if err := enqueue(k.Ref, deleteKey); err != nil {
				return err
			}
		}
		return nil
	}()
	// End flushes every enqueued write, so job results are final afterwards.
	bw.End()

	result, jobErr := settleDeletes(jobs)
	if err != nil {
		return result, err
	}
	return result, jobErr
}

type deleteKind int

const (
	deleteMessage deleteKind = iota
	deleteRoom
	deleteKey
)

// writeResulter is the part of *firestore.BulkWriterJob read after a flush.
type writeResulter interface {
	Results() (*firestore.WriteResult, error)
}

type deleteJob struct {
	kind   deleteKind
	result writeResulter
}

// settleDeletes counts the deletes that succeeded and returns the first failure.
func settleDeletes(jobs []deleteJob) (models.ClearResult, error) {
	var result models.ClearResult
	var firstErr error
	for _, job := range jobs {
		if _, err := job.result.Results(); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("bulk delete: %w", err)
			}
			continue
		}
		switch job.kind {
		case deleteMessage:
			result.Messages++
		case deleteRoom:
			result.Rooms++
		}
	}
	return result, firstErr
}

// AppendMessage writes the message and advances the room's lastSeq and updatedAt atomically.
func (r *FirestoreChatRepo) AppendMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	roomRef := r.rooms().Doc(msg.ChatRoomID)
	var stored models.Message
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(roomRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrChatRoomNotFound
			}
			return err
		}
		var room firestoreRoom
		if err := snap.DataTo(&room); err != nil {
			return err
		}

		stored = msg
		stored.Seq = room.LastSeq + 1
		if err := tx.Create(roomRef.Collection(messagesCollection).Doc(msg.ID), stored); err != nil {
			return err
		}
		updates := []firestore.Update{{Path: "lastSeq", Value: stored.Seq}}
		if msg.CreatedAt.After(room.UpdatedAt) {
			updates = append(updates, firestore.Update{Path: "updatedAt", Value: msg.CreatedAt})
		}
		return tx.Update(roomRef, updates)
	})
	if err != nil {
		if errors.Is(err, ErrChatRoomNotFound) {
			return models.Message{}, ErrChatRoomNotFound
		}
		return models.Message{}, fmt.Errorf("append message: %w", err)
	}
	return stored, nil
}

func (r *FirestoreChatRepo) ListMessages(ctx context.Context, roomID string) ([]models.Message, error) {
	iter := r.messages(roomID).OrderBy("seq", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	msgs := []models.Message{}
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
		var m models.Message
		if err := doc.DataTo(&m); err != nil {
			return nil, fmt.Errorf("parse message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (r *FirestoreChatRepo) ListMessagesForRooms(ctx context.Context, roomIDs []string) (map[string][]models.Message, error) {
	result := make(map[string][]models.Message, len(roomIDs))
	for _, id := range roomIDs {
		msgs, err := r.ListMessages(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(msgs) > 0 {
			result[id] = msgs
		}
	}
	return result, nil
}

var (
	_ ChatRoomRepository = (*FirestoreChatRepo)(nil)
	_ MessageRepository  = (*FirestoreChatRepo)(nil)
)
