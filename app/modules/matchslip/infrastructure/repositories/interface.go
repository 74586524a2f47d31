package matchslipdb

import (
	"context"

	matchslipdomain "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/domain"
)

// Registry holds match slips keyed by id. Update runs fn against one slip
// under that slip's lock; other slips are never blocked by it.
type Registry interface {
	Create(ctx context.Context, slip *matchslipdomain.Slip) error
	Get(ctx context.Context, id string) (*matchslipdomain.Slip, error)
	Update(ctx context.Context, id string, fn func(*matchslipdomain.Slip) error) (*matchslipdomain.Slip, error)
	// ListByTournament returns slips ordered by round, then table.
	ListByTournament(ctx context.Context, tournamentID string) ([]*matchslipdomain.Slip, error)
}
