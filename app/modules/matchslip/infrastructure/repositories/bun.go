package matchslipdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	matchslipdomain "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/domain"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// BunRegistry implements Registry on Postgres. Update locks the slip row with
// SELECT ... FOR UPDATE inside a transaction.
type BunRegistry struct {
	db  bun.IDB
	now func() time.Time
}

// NewBunRegistry creates a new Postgres-backed registry.
func NewBunRegistry(db bun.IDB) *BunRegistry {
	return &BunRegistry{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *BunRegistry) Create(ctx context.Context, slip *matchslipdomain.Slip) error {
	_, err := r.db.NewInsert().Model(toSlipModel(slip.Clone(), r.now())).Exec(ctx)
	if err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.Field('C') == "23505" {
			return ErrDuplicateID
		}
		return fmt.Errorf("failed to insert match slip: %w", err)
	}
	return nil
}

func (r *BunRegistry) Get(ctx context.Context, id string) (*matchslipdomain.Slip, error) {
	row := new(SlipModel)
	err := r.db.NewSelect().Model(row).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get match slip: %w", err)
	}
	return row.Body, nil
}

func (r *BunRegistry) Update(ctx context.Context, id string, fn func(*matchslipdomain.Slip) error) (*matchslipdomain.Slip, error) {
	var updated *matchslipdomain.Slip

	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		row := new(SlipModel)
		err := tx.NewSelect().Model(row).Where("id = ?", id).For("UPDATE").Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to lock match slip: %w", err)
		}

		working := row.Body
		if err := fn(working); err != nil {
			return err
		}

		model := toSlipModel(working, r.now())
		if _, err := tx.NewUpdate().
			Model(model).
			Column("status", "body", "updated_at").
			WherePK().
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to update match slip: %w", err)
		}
		updated = working
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated.Clone(), nil
}

func (r *BunRegistry) ListByTournament(ctx context.Context, tournamentID string) ([]*matchslipdomain.Slip, error) {
	var rows []SlipModel
	err := r.db.NewSelect().
		Model(&rows).
		Where("tournament_id = ?", tournamentID).
		Order("round ASC", "table_number ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list match slips: %w", err)
	}

	out := make([]*matchslipdomain.Slip, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Body)
	}
	return out, nil
}

var _ Registry = (*BunRegistry)(nil)
