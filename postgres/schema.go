package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is the full DDL. Statements are idempotent so Migrate can run on
// every startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id           TEXT PRIMARY KEY,
		user_id      TEXT NOT NULL,
		name         TEXT NOT NULL,
		type         TEXT NOT NULL,
		currency     TEXT NOT NULL,
		balance      NUMERIC(15,6) NOT NULL DEFAULT 0,
		is_liability BOOLEAN NOT NULL DEFAULT FALSE,
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS accounts_user_idx ON accounts (user_id)`,

	`CREATE TABLE IF NOT EXISTS transactions (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		account_id  TEXT NOT NULL REFERENCES accounts (id) ON DELETE CASCADE,
		payee       TEXT NOT NULL,
		amount      NUMERIC(15,6) NOT NULL,
		currency    TEXT NOT NULL,
		type        TEXT NOT NULL,
		category    TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		tx_date     DATE NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS transactions_user_date_idx ON transactions (user_id, tx_date DESC)`,

	`CREATE TABLE IF NOT EXISTS exchange_rates (
		id        TEXT PRIMARY KEY,
		usd_rate  NUMERIC(15,6) NOT NULL,
		gold_rate NUMERIC(15,6) NOT NULL,
		fetched_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS exchange_rates_fetched_idx ON exchange_rates (fetched_at DESC)`,

	`CREATE TABLE IF NOT EXISTS snapshots (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		snap_date  DATE NOT NULL,
		rate_id    TEXT NOT NULL REFERENCES exchange_rates (id),
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS snapshots_user_date_idx ON snapshots (user_id, snap_date DESC)`,

	`CREATE TABLE IF NOT EXISTS snapshot_entries (
		snapshot_id  TEXT NOT NULL REFERENCES snapshots (id) ON DELETE CASCADE,
		account_id   TEXT NOT NULL,
		name         TEXT NOT NULL,
		type         TEXT NOT NULL,
		currency     TEXT NOT NULL,
		balance      NUMERIC(15,6) NOT NULL,
		is_liability BOOLEAN NOT NULL,
		PRIMARY KEY (snapshot_id, account_id)
	)`,
}

// Migrate creates the tables when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
