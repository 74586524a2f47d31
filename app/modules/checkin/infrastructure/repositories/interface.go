package checkindb

import (
	"context"
	"time"

	checkindomain "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/domain"
)

// TokenStore holds check-in tokens keyed by value. Every mutation is an
// atomic check-and-mutate on one token.
type TokenStore interface {
	// Replace stores token and removes any token already held for the same
	// player/tournament pair, returning the removed token (or nil).
	Replace(ctx context.Context, token *checkindomain.Token) (*checkindomain.Token, error)

	// Get returns a copy of the token, or ErrNotFound.
	Get(ctx context.Context, value string) (*checkindomain.Token, error)

	// Update runs fn on the token under its lock and persists the result
	// only when fn returns nil.
	Update(ctx context.Context, value string, fn func(*checkindomain.Token) error) (*checkindomain.Token, error)

	// Redeem runs fn on the token under its lock and persists the token and
	// the record fn returns as one change. journal is called with the updated
	// token before Redeem returns; an error from fn or journal leaves neither
	// the token change nor the record in place.
	Redeem(ctx context.Context, value string, fn RedeemFunc, journal Journal) (*checkindomain.Token, error)

	// Rotate removes the token at oldValue and stores build(old) in its place.
	Rotate(ctx context.Context, oldValue string, build func(old checkindomain.Token) (*checkindomain.Token, error)) (*checkindomain.Token, error)

	// ListPendingExpiredBefore returns values of Pending tokens with expiresAt < now.
	ListPendingExpiredBefore(ctx context.Context, now time.Time) ([]string, error)

	// Purge drops non-pending tokens whose window ended before cutoff.
	Purge(ctx context.Context, cutoff time.Time) (int, error)
}

// RedeemFunc applies a redemption to the token and returns the history
// record it produces.
type RedeemFunc func(*checkindomain.Token) (*checkindomain.CheckInRecord, error)

// Journal writes the audit entry for a redemption. On Postgres ctx carries
// the redemption's transaction.
type Journal func(ctx context.Context, token *checkindomain.Token) error

// RecordStore holds the append-only check-in history. Records are written
// only by TokenStore.Redeem.
type RecordStore interface {
	// ListRecords returns a tournament's records in redemption order.
	ListRecords(ctx context.Context, tournamentID string) ([]checkindomain.CheckInRecord, error)
}

// Store is what the check-in service persists through.
type Store interface {
	TokenStore
	RecordStore
}
