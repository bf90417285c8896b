package postgres

import (
	"context"
	"database/sql"

	"ghostsignal/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func New(ctx context.Context, cfg config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, err
	}
	// Pool tuning
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	// Health check
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the schema for the remote backend.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			nickname TEXT NOT NULL UNIQUE,
			secret_hash TEXT NOT NULL,
			is_anonymous BOOLEAN NOT NULL DEFAULT TRUE,
			role TEXT NOT NULL DEFAULT 'user',
			joined_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			seq BIGSERIAL PRIMARY KEY,
			id TEXT NOT NULL,
			sender_id TEXT NOT NULL,
			type TEXT NOT NULL,
			content TEXT NOT NULL,
			ts BIGINT NOT NULL,
			ephemeral BOOLEAN NOT NULL DEFAULT FALSE,
			viewed BOOLEAN NOT NULL DEFAULT FALSE,
			media_url TEXT,
			blur_level INT,
			duration_ms BIGINT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_ts ON messages (ts, seq)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_id ON messages (id)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
