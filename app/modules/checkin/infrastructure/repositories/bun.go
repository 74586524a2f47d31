package checkindb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	checkindomain "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/domain"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/audit"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// BunStore implements Store on Postgres. Check-and-mutate operations lock
// the token row with SELECT ... FOR UPDATE inside a transaction.
type BunStore struct {
	db bun.IDB
}

// NewBunStore creates a new Postgres-backed store.
func NewBunStore(db bun.IDB) *BunStore {
	return &BunStore{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == "23505"
}

func (r *BunStore) selectForUpdate(ctx context.Context, tx bun.IDB, query string, args ...any) (*TokenModel, error) {
	row := new(TokenModel)
	err := tx.NewSelect().
		Model(row).
		Where(query, args...).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock token: %w", err)
	}
	return row, nil
}

func (r *BunStore) Replace(ctx context.Context, token *checkindomain.Token) (*checkindomain.Token, error) {
	var superseded *checkindomain.Token

	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		old, err := r.selectForUpdate(ctx, tx, "player_id = ? AND tournament_id = ?", token.PlayerID, token.TournamentID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if old != nil {
			superseded = old.toDomain()
			if _, err := tx.NewDelete().Model((*TokenModel)(nil)).Where("value = ?", old.Value).Exec(ctx); err != nil {
				return fmt.Errorf("failed to remove superseded token: %w", err)
			}
		}

		exists, err := tx.NewSelect().Model((*TokenModel)(nil)).Where("value = ?", token.Value).Exists(ctx)
		if err != nil {
			return fmt.Errorf("failed to check token value: %w", err)
		}
		if exists {
			return ErrDuplicateValue
		}

		if _, err := tx.NewInsert().Model(toTokenModel(token)).Exec(ctx); err != nil {
			// A concurrent issue for the same pair won the insert.
			if isUniqueViolation(err) {
				return ErrDuplicateValue
			}
			return fmt.Errorf("failed to insert token: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return superseded, nil
}

func (r *BunStore) Get(ctx context.Context, value string) (*checkindomain.Token, error) {
	row := new(TokenModel)
	err := r.db.NewSelect().
		Model(row).
		Where("value = ?", value).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return row.toDomain(), nil
}

func (r *BunStore) Update(ctx context.Context, value string, fn func(*checkindomain.Token) error) (*checkindomain.Token, error) {
	var updated *checkindomain.Token

	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		row, err := r.selectForUpdate(ctx, tx, "value = ?", value)
		if err != nil {
			return err
		}

		token := row.toDomain()
		if err := fn(token); err != nil {
			return err
		}

		_, err = tx.NewUpdate().
			Model(toTokenModel(token)).
			Column("status", "checked_in_at", "scanned_by").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update token: %w", err)
		}
		updated = token
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *BunStore) Redeem(ctx context.Context, value string, fn RedeemFunc, journal Journal) (*checkindomain.Token, error) {
	var redeemed *checkindomain.Token

	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		row, err := r.selectForUpdate(ctx, tx, "value = ?", value)
		if err != nil {
			return err
		}

		token := row.toDomain()
		record, err := fn(token)
		if err != nil {
			return err
		}

		_, err = tx.NewUpdate().
			Model(toTokenModel(token)).
			Column("status", "checked_in_at", "scanned_by").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update token: %w", err)
		}
		if _, err := tx.NewInsert().Model(toRecordModel(record)).Exec(ctx); err != nil {
			return fmt.Errorf("failed to append check-in record: %w", err)
		}
		if journal != nil {
			if err := journal(audit.WithTx(ctx, tx), token.Clone()); err != nil {
				return err
			}
		}
		redeemed = token
		return nil
	})
	if err != nil {
		return nil, err
	}
	return redeemed, nil
}

func (r *BunStore) Rotate(ctx context.Context, oldValue string, build func(old checkindomain.Token) (*checkindomain.Token, error)) (*checkindomain.Token, error) {
	var next *checkindomain.Token

	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		row, err := r.selectForUpdate(ctx, tx, "value = ?", oldValue)
		if err != nil {
			return err
		}

		next, err = build(*row.toDomain())
		if err != nil {
			return err
		}

		if _, err := tx.NewDelete().Model((*TokenModel)(nil)).Where("value = ?", oldValue).Exec(ctx); err != nil {
			return fmt.Errorf("failed to remove rotated token: %w", err)
		}
		if _, err := tx.NewInsert().Model(toTokenModel(next)).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateValue
			}
			return fmt.Errorf("failed to insert rotated token: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (r *BunStore) ListPendingExpiredBefore(ctx context.Context, now time.Time) ([]string, error) {
	var values []string
	err := r.db.NewSelect().
		Model((*TokenModel)(nil)).
		Column("value").
		Where("status = ?", string(checkindomain.StatusPending)).
		Where("expires_at < ?", now).
		Order("expires_at ASC").
		Scan(ctx, &values)
	if err != nil {
		return nil, fmt.Errorf("failed to list lapsed tokens: %w", err)
	}
	return values, nil
}

func (r *BunStore) Purge(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := r.db.NewDelete().
		Model((*TokenModel)(nil)).
		Where("status <> ?", string(checkindomain.StatusPending)).
		Where("expires_at < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to purge tokens: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rows), nil
}

func (r *BunStore) ListRecords(ctx context.Context, tournamentID string) ([]checkindomain.CheckInRecord, error) {
	var rows []RecordModel
	err := r.db.NewSelect().
		Model(&rows).
		Where("tournament_id = ?", tournamentID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list check-in records: %w", err)
	}

	out := make([]checkindomain.CheckInRecord, len(rows))
	for i, row := range rows {
		out[i] = checkindomain.CheckInRecord{
			PlayerID:       row.PlayerID,
			PlayerName:     row.PlayerName,
			TournamentID:   row.TournamentID,
			TournamentName: row.TournamentName,
			Division:       row.Division,
			CheckInTime:    row.CheckInTime,
			TokenValue:     row.TokenValue,
			ScannedBy:      row.ScannedBy,
		}
	}
	return out, nil
}

var _ Store = (*BunStore)(nil)
