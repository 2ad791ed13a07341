package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect opens the Postgres pool. Migrations are applied separately via Migrate.
func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// users and vehicles belong to the marketplace; they are created here only so a
// standalone deployment has something to read from.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            first_name TEXT NOT NULL DEFAULT '',
            last_name TEXT NOT NULL DEFAULT '',
            avatar_url TEXT NOT NULL DEFAULT '',
            role TEXT NOT NULL DEFAULT 'user'
        );`,
	`CREATE TABLE IF NOT EXISTS vehicles (
            id TEXT PRIMARY KEY,
            seller_id TEXT NOT NULL,
            brand TEXT NOT NULL DEFAULT '',
            model TEXT NOT NULL DEFAULT '',
            year INT NOT NULL DEFAULT 0,
            price BIGINT NOT NULL DEFAULT 0,
            image_url TEXT NOT NULL DEFAULT ''
        );`,
	`CREATE TABLE IF NOT EXISTS chat_rooms (
            id TEXT PRIMARY KEY,
            vehicle_id TEXT NOT NULL,
            buyer_id TEXT NOT NULL,
            seller_id TEXT NOT NULL,
            is_active BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	`CREATE UNIQUE INDEX IF NOT EXISTS chat_rooms_active_pair_idx
            ON chat_rooms (vehicle_id, buyer_id) WHERE is_active;`,
	`CREATE INDEX IF NOT EXISTS chat_rooms_buyer_idx ON chat_rooms (buyer_id, updated_at DESC);`,
	`CREATE INDEX IF NOT EXISTS chat_rooms_seller_idx ON chat_rooms (seller_id, updated_at DESC);`,
	`CREATE TABLE IF NOT EXISTS messages (
            id TEXT PRIMARY KEY,
            seq BIGSERIAL,
            chat_room_id TEXT NOT NULL REFERENCES chat_rooms(id) ON DELETE CASCADE,
            sender_id TEXT NOT NULL,
            content TEXT NOT NULL CHECK (content <> ''),
            message_type TEXT NOT NULL DEFAULT 'text',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	`CREATE INDEX IF NOT EXISTS messages_room_order_idx ON messages (chat_room_id, seq);`,
}

// Migrate applies the chat schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sqlx.DB, logger *slog.Logger) error {
	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}
	logger.Info("database migrations applied", "statements", len(migrations))
	return nil
}
