package checkinmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating checkin_tokens and checkin_records tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS checkin_tokens (
					value TEXT PRIMARY KEY,
					player_id TEXT NOT NULL,
					tournament_id TEXT NOT NULL,
					division TEXT,
					issued_at TIMESTAMPTZ NOT NULL,
					expires_at TIMESTAMPTZ NOT NULL,
					status VARCHAR(16) NOT NULL DEFAULT 'pending',
					refresh_count INTEGER NOT NULL DEFAULT 0,
					checked_in_at TIMESTAMPTZ,
					scanned_by TEXT
				);
				CREATE UNIQUE INDEX IF NOT EXISTS idx_checkin_tokens_pair ON checkin_tokens(player_id, tournament_id);
				CREATE INDEX IF NOT EXISTS idx_checkin_tokens_pending_expiry ON checkin_tokens(expires_at) WHERE status = 'pending';
			`); err != nil {
				return fmt.Errorf("failed to create checkin_tokens table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS checkin_records (
					id BIGSERIAL PRIMARY KEY,
					player_id TEXT NOT NULL,
					player_name TEXT,
					tournament_id TEXT NOT NULL,
					tournament_name TEXT,
					division TEXT,
					check_in_time TIMESTAMPTZ NOT NULL,
					token_value TEXT NOT NULL,
					scanned_by TEXT
				);
				CREATE INDEX IF NOT EXISTS idx_checkin_records_tournament ON checkin_records(tournament_id, id);
			`); err != nil {
				return fmt.Errorf("failed to create checkin_records table: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping checkin tables...")

		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS checkin_records; DROP TABLE IF EXISTS checkin_tokens;`); err != nil {
			return fmt.Errorf("failed to drop checkin tables: %w", err)
		}
		return nil
	})
}
