package matchslipdb

import (
	"time"

	matchslipdomain "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/domain"
	"github.com/uptrace/bun"
)

// SlipModel is the match_slips row. The full slip lives in Body; the other
// columns are copies kept for filtering and ordering.
type SlipModel struct {
	bun.BaseModel `bun:"table:match_slips,alias:ms"`

	ID           string                `bun:"id,pk"`
	TournamentID string                `bun:"tournament_id,notnull"`
	Round        int                   `bun:"round,notnull"`
	TableNumber  int                   `bun:"table_number,notnull"`
	Status       string                `bun:"status,notnull"`
	Body         *matchslipdomain.Slip `bun:"body,type:jsonb,notnull"`
	CreatedAt    time.Time             `bun:"created_at,notnull"`
	UpdatedAt    time.Time             `bun:"updated_at,notnull"`
}

func toSlipModel(s *matchslipdomain.Slip, now time.Time) *SlipModel {
	return &SlipModel{
		ID:           s.ID,
		TournamentID: s.TournamentID,
		Round:        s.Round,
		TableNumber:  s.Table,
		Status:       string(s.Status),
		Body:         s,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    now,
	}
}
