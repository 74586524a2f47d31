package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/Black-And-White-Club/tourney-desk/app/shared/clock"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// entryModel is the audit_entries row.
type entryModel struct {
	bun.BaseModel `bun:"table:audit_entries,alias:ae"`

	Seq        int64             `bun:"seq,pk,autoincrement"`
	ID         uuid.UUID         `bun:"id,type:uuid,notnull,unique"`
	EntityID   string            `bun:"entity_id,notnull"`
	EntityKind string            `bun:"entity_kind,notnull"`
	Action     string            `bun:"action,notnull"`
	ActorID    string            `bun:"actor_id"`
	Timestamp  time.Time         `bun:"timestamp,notnull"`
	Details    map[string]string `bun:"details,type:jsonb"`
}

// BunLog persists entries in Postgres.
type BunLog struct {
	db    bun.IDB
	clock clock.Clock
}

func NewBunLog(db bun.IDB, c clock.Clock) *BunLog {
	if c == nil {
		c = clock.Real{}
	}
	return &BunLog{db: db, clock: c}
}

type txKey struct{}

// WithTx makes BunLog appends made with the returned context run on tx, so
// the entry commits or rolls back with it. tx must belong to the log's
// database.
func WithTx(ctx context.Context, tx bun.IDB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func (l *BunLog) conn(ctx context.Context) bun.IDB {
	if tx, ok := ctx.Value(txKey{}).(bun.IDB); ok && tx != nil {
		return tx
	}
	return l.db
}

func (l *BunLog) Append(ctx context.Context, e Entry) (Entry, error) {
	if e.EntityID == "" {
		return Entry{}, ErrMissingEntity
	}
	id := uuid.New()
	if e.ID != "" {
		parsed, err := uuid.Parse(e.ID)
		if err != nil {
			return Entry{}, fmt.Errorf("invalid audit entry id: %w", err)
		}
		id = parsed
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = l.clock.Now()
	}

	row := &entryModel{
		ID:         id,
		EntityID:   e.EntityID,
		EntityKind: string(e.EntityKind),
		Action:     e.Action,
		ActorID:    e.ActorID,
		Timestamp:  e.Timestamp.UTC(),
		Details:    e.Details,
	}
	if _, err := l.conn(ctx).NewInsert().Model(row).Exec(ctx); err != nil {
		return Entry{}, fmt.Errorf("failed to append audit entry: %w", err)
	}

	e.ID = id.String()
	e.Details = cloneDetails(e.Details)
	return e, nil
}

func (l *BunLog) Entries(ctx context.Context, entityID string) ([]Entry, error) {
	var rows []entryModel
	err := l.db.NewSelect().
		Model(&rows).
		Where("entity_id = ?", entityID).
		Order("seq ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}

	out := make([]Entry, len(rows))
	for i, r := range rows {
		out[i] = Entry{
			ID:         r.ID.String(),
			EntityID:   r.EntityID,
			EntityKind: EntityKind(r.EntityKind),
			Action:     r.Action,
			ActorID:    r.ActorID,
			Timestamp:  r.Timestamp,
			Details:    r.Details,
		}
	}
	return out, nil
}

var _ Log = (*BunLog)(nil)
