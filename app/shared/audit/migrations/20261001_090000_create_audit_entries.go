package auditmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating audit_entries table...")

		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS audit_entries (
				seq BIGSERIAL PRIMARY KEY,
				id UUID NOT NULL UNIQUE,
				entity_id TEXT NOT NULL,
				entity_kind VARCHAR(16) NOT NULL,
				action VARCHAR(64) NOT NULL,
				actor_id TEXT,
				timestamp TIMESTAMPTZ NOT NULL,
				details JSONB
			);
			CREATE INDEX IF NOT EXISTS idx_audit_entries_entity ON audit_entries(entity_id, seq);
		`)
		if err != nil {
			return fmt.Errorf("failed to create audit_entries table: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping audit_entries table...")

		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS audit_entries;`); err != nil {
			return fmt.Errorf("failed to drop audit_entries table: %w", err)
		}
		return nil
	})
}
