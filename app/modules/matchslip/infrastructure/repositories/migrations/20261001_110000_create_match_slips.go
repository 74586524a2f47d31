package matchslipmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating match_slips table...")

		if _, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS match_slips (
				id TEXT PRIMARY KEY,
				tournament_id TEXT NOT NULL,
				round INTEGER NOT NULL,
				table_number INTEGER NOT NULL,
				status VARCHAR(16) NOT NULL DEFAULT 'pending',
				body JSONB NOT NULL,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_match_slips_tournament ON match_slips(tournament_id, round, table_number);
		`); err != nil {
			return fmt.Errorf("failed to create match_slips table: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping match_slips table...")

		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS match_slips;`); err != nil {
			return fmt.Errorf("failed to drop match_slips table: %w", err)
		}
		return nil
	})
}
