package ws

import (
	"encoding/json"
	"log/slog"

	"motomarket-chat/internal/models"
	"motomarket-chat/internal/observability"
)

// Broadcaster pushes new messages to whichever room participants are connected.
// Offline participants are skipped; they catch up from history.
type Broadcaster struct {
	registry *Registry
	logger   *slog.Logger
}

func NewBroadcaster(registry *Registry, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{registry: registry, logger: logger.With("component", "ws_broadcaster")}
}

// DeliverNewMessage enqueues one new_message frame per connected participant.
func (b *Broadcaster) DeliverNewMessage(message models.MessageView, room models.ChatRoom) {
	data, err := json.Marshal(NewMessageFrame{Type: TypeNewMessage, Message: message, ChatRoomID: room.ID})
	if err != nil {
		b.logger.Error("encode new_message frame", "room_id", room.ID, "error", err)
		return
	}

	for _, userID := range room.ParticipantIDs() {
		client, ok := b.registry.ConnectionFor(userID)
		if !ok {
			observability.IncBroadcast(observability.BroadcastOffline)
			continue
		}
		if err := client.SendRaw(data); err != nil {
			observability.IncBroadcast(observability.BroadcastDropped)
			b.logger.Warn("new_message not delivered", "room_id", room.ID, "user_id", userID, "error", err)
			continue
		}
		observability.IncBroadcast(observability.BroadcastDelivered)
	}
}
