package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewDB creates a new PostgreSQL connection pool.
func NewDB(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// RunMigrations executes the initial schema migration.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	query := `
		CREATE TABLE IF NOT EXISTS users (
			id              TEXT PRIMARY KEY,
			email           TEXT NOT NULL UNIQUE,
			password        TEXT NOT NULL,
			name            TEXT NOT NULL DEFAULT '',
			role            TEXT NOT NULL DEFAULT 'user',
			subscription_id TEXT,
			fcm_tokens      TEXT[] NOT NULL DEFAULT '{}',
			pref_email      BOOLEAN NOT NULL DEFAULT TRUE,
			pref_push       BOOLEAN NOT NULL DEFAULT TRUE,
			pref_daily      BOOLEAN NOT NULL DEFAULT FALSE,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

		CREATE TABLE IF NOT EXISTS businesses (
			id                TEXT PRIMARY KEY,
			owner_id          TEXT NOT NULL,
			name              TEXT NOT NULL,
			google_review_url TEXT,
			google_place_id   TEXT,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_businesses_owner ON businesses(owner_id);

		CREATE TABLE IF NOT EXISTS cards (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL,
			business_id  TEXT NOT NULL,
			name         TEXT NOT NULL,
			active       BOOLEAN NOT NULL DEFAULT TRUE,
			review_count INTEGER NOT NULL DEFAULT 0,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_cards_user_id ON cards(user_id);

		CREATE TABLE IF NOT EXISTS nfc_events (
			id            TEXT PRIMARY KEY,
			card_id       TEXT NOT NULL,
			user_id       TEXT NOT NULL,
			business_id   TEXT NOT NULL,
			event_type    TEXT NOT NULL,
			timestamp     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			latitude      DOUBLE PRECISION,
			longitude     DOUBLE PRECISION,
			device_type   TEXT,
			browser       TEXT,
			os            TEXT,
			ip_address    TEXT,
			review_id     TEXT,
			review_rating INTEGER
		);
		CREATE INDEX IF NOT EXISTS idx_nfc_events_card ON nfc_events(card_id, timestamp);
		CREATE INDEX IF NOT EXISTS idx_nfc_events_user ON nfc_events(user_id);

		CREATE TABLE IF NOT EXISTS notifications (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL,
			card_id     TEXT NOT NULL,
			business_id TEXT NOT NULL,
			event_type  TEXT NOT NULL,
			title       TEXT NOT NULL,
			message     TEXT NOT NULL,
			read        BOOLEAN NOT NULL DEFAULT FALSE,
			data        JSONB NOT NULL DEFAULT '{}',
			timestamp   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, timestamp DESC);

		CREATE TABLE IF NOT EXISTS subscriptions (
			id             TEXT PRIMARY KEY,
			user_id        TEXT NOT NULL,
			plan           TEXT NOT NULL,
			status         TEXT NOT NULL,
			start_date     TIMESTAMPTZ NOT NULL,
			end_date       TIMESTAMPTZ,
			auto_renew     BOOLEAN NOT NULL DEFAULT FALSE,
			payment_method TEXT NOT NULL DEFAULT '',
			payment_id     TEXT NOT NULL DEFAULT '',
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_subscriptions_user ON subscriptions(user_id, status);
	`
	_, err := pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
