//go:build integration

package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/testcontainers/testcontainers-go/modules/nats"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/migrate"

	checkinmigrations "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/infrastructure/repositories/migrations"
	matchslipmigrations "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/infrastructure/repositories/migrations"
	auditmigrations "github.com/Black-And-White-Club/tourney-desk/app/shared/audit/migrations"
	"github.com/Black-And-White-Club/tourney-desk/integration_tests/containers"
)

// TestEnvironment holds the containers and connections shared by a test package.
type TestEnvironment struct {
	Ctx           context.Context
	CancelContext context.CancelFunc
	PgContainer   *postgres.PostgresContainer
	NatsContainer *nats.NATSContainer
	DB            *bun.DB
	DSN           string
	NatsURL       string
}

// Options selects which containers a package needs.
type Options struct {
	Postgres bool
	NATS     bool
}

// NewTestEnvironment starts the requested containers and migrates Postgres.
func NewTestEnvironment(opts Options) (*TestEnvironment, error) {
	ctx, cancel := context.WithCancel(context.Background())
	env := &TestEnvironment{Ctx: ctx, CancelContext: cancel}

	if opts.Postgres {
		pgContainer, dsn, err := containers.SetupPostgresContainer(ctx)
		if err != nil {
			env.Cleanup()
			return nil, fmt.Errorf("failed to setup postgres container: %w", err)
		}
		env.PgContainer = pgContainer
		env.DSN = dsn

		sqlDB, err := sql.Open("pgx", dsn)
		if err != nil {
			env.Cleanup()
			return nil, fmt.Errorf("failed to open sql DB connection: %w", err)
		}
		env.DB = bun.NewDB(sqlDB, pgdialect.New())

		if err := runMigrations(ctx, env.DB); err != nil {
			env.Cleanup()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	if opts.NATS {
		natsContainer, natsURL, err := containers.SetupNatsContainer(ctx)
		if err != nil {
			env.Cleanup()
			return nil, fmt.Errorf("failed to setup nats container: %w", err)
		}
		env.NatsContainer = natsContainer
		env.NatsURL = natsURL
	}

	return env, nil
}

func runMigrations(ctx context.Context, db *bun.DB) error {
	sets := []struct {
		name       string
		migrations *migrate.Migrations
	}{
		{"audit", auditmigrations.Migrations},
		{"checkin", checkinmigrations.Migrations},
		{"matchslip", matchslipmigrations.Migrations},
	}

	for _, set := range sets {
		migrator := migrate.NewMigrator(db, set.migrations,
			migrate.WithTableName("bun_migrations_"+set.name),
			migrate.WithLocksTableName("bun_migration_locks_"+set.name),
		)
		if err := migrator.Init(ctx); err != nil {
			return fmt.Errorf("init %s migrations: %w", set.name, err)
		}
		if _, err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate %s: %w", set.name, err)
		}
	}
	return nil
}

// ResetTables truncates every table the desk writes to.
func (env *TestEnvironment) ResetTables(ctx context.Context) error {
	if env.DB == nil {
		return nil
	}
	_, err := env.DB.ExecContext(ctx, "TRUNCATE checkin_tokens, checkin_records, match_slips, audit_entries")
	return err
}

// Cleanup closes connections and terminates containers.
func (env *TestEnvironment) Cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if env.DB != nil {
		if err := env.DB.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}
	if env.NatsContainer != nil {
		if err := env.NatsContainer.Terminate(ctx); err != nil {
			log.Printf("Error terminating NATS container: %v", err)
		}
	}
	if env.PgContainer != nil {
		if err := env.PgContainer.Terminate(ctx); err != nil {
			log.Printf("Error terminating Postgres container: %v", err)
		}
	}
	if env.CancelContext != nil {
		env.CancelContext()
	}
}
