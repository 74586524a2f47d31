// Package audit is the append-only, per-entity record of mutating actions
// taken on check-in tokens and match slips.
package audit

import (
	"context"
	"errors"
	"time"
)

// EntityKind tags what an audit entry refers to.
type EntityKind string

const (
	KindToken EntityKind = "token"
	KindSlip  EntityKind = "slip"
)

// ErrMissingEntity is returned when an entry has no entity id.
var ErrMissingEntity = errors.New("audit entry requires an entity id")

// Entry is one immutable audit fact.
type Entry struct {
	ID         string            `json:"id"`
	EntityID   string            `json:"entity_id"`
	EntityKind EntityKind        `json:"entity_kind"`
	Action     string            `json:"action"`
	ActorID    string            `json:"actor_id,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
	Details    map[string]string `json:"details,omitempty"`
}

// Log is an append-only store of entries. Entries are never edited or removed.
type Log interface {
	// Append stores e, filling in ID and Timestamp when empty, and returns the stored entry.
	Append(ctx context.Context, e Entry) (Entry, error)
	// Entries returns the entries for entityID in append order.
	Entries(ctx context.Context, entityID string) ([]Entry, error)
}

// Clone returns a copy that shares no maps with e.
func (e Entry) Clone() Entry {
	e.Details = cloneDetails(e.Details)
	return e
}

func cloneDetails(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
