package cli

import (
	"context"
	"fmt"
	"log/slog"

	"motomarket-chat/internal/config"
	"motomarket-chat/internal/db"
	"motomarket-chat/internal/repositories"
)

// stores bundles the repositories behind the chat core.
type stores struct {
	rooms    repositories.ChatRoomRepository
	messages repositories.MessageRepository
	users    repositories.UserRepository
	vehicles repositories.VehicleRepository
	close    func() error
}

// openStores connects the configured store driver. Postgres is migrated on open.
func openStores(ctx context.Context, c config.Config, log *slog.Logger) (*stores, error) {
	switch c.StoreDriver {
	case config.StorePostgres:
		database, err := db.Connect(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := db.Migrate(ctx, database, log); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return &stores{
			rooms:    repositories.NewChatRoomRepo(database),
			messages: repositories.NewMessageRepo(database),
			users:    repositories.NewUserRepo(database),
			vehicles: repositories.NewVehicleRepo(database),
			close:    database.Close,
		}, nil

	case config.StoreFirestore:
		client, err := db.NewFirestore(ctx, c.FirestoreProjectID)
		if err != nil {
			return nil, fmt.Errorf("connect firestore: %w", err)
		}
		chats := repositories.NewFirestoreChatRepo(client)
		directory := repositories.NewFirestoreDirectoryRepo(client)
		return &stores{
			rooms:    chats,
			messages: chats,
			users:    directory,
			vehicles: directory,
			close:    client.Close,
		}, nil

	case config.StoreMemory:
		log.Warn("using in-memory store, data is lost on restart")
		mem := repositories.NewMemoryStore()
		return &stores{rooms: mem, messages: mem, users: mem, vehicles: mem, close: func() error { return nil }}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
}
