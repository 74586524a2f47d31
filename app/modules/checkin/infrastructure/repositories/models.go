package checkindb

import (
	"time"

	checkindomain "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/domain"
	"github.com/uptrace/bun"
)

// TokenModel is the checkin_tokens row.
type TokenModel struct {
	bun.BaseModel `bun:"table:checkin_tokens,alias:ct"`

	Value        string     `bun:"value,pk"`
	PlayerID     string     `bun:"player_id,notnull"`
	TournamentID string     `bun:"tournament_id,notnull"`
	Division     string     `bun:"division"`
	IssuedAt     time.Time  `bun:"issued_at,notnull"`
	ExpiresAt    time.Time  `bun:"expires_at,notnull"`
	Status       string     `bun:"status,notnull"`
	RefreshCount int        `bun:"refresh_count,notnull,default:0"`
	CheckedInAt  *time.Time `bun:"checked_in_at,nullzero"`
	ScannedBy    string     `bun:"scanned_by"`
}

// RecordModel is the checkin_records row.
type RecordModel struct {
	bun.BaseModel `bun:"table:checkin_records,alias:cr"`

	ID             int64     `bun:"id,pk,autoincrement"`
	PlayerID       string    `bun:"player_id,notnull"`
	PlayerName     string    `bun:"player_name"`
	TournamentID   string    `bun:"tournament_id,notnull"`
	TournamentName string    `bun:"tournament_name"`
	Division       string    `bun:"division"`
	CheckInTime    time.Time `bun:"check_in_time,notnull"`
	TokenValue     string    `bun:"token_value,notnull"`
	ScannedBy      string    `bun:"scanned_by"`
}

func toRecordModel(r *checkindomain.CheckInRecord) *RecordModel {
	return &RecordModel{
		PlayerID:       r.PlayerID,
		PlayerName:     r.PlayerName,
		TournamentID:   r.TournamentID,
		TournamentName: r.TournamentName,
		Division:       r.Division,
		CheckInTime:    r.CheckInTime,
		TokenValue:     r.TokenValue,
		ScannedBy:      r.ScannedBy,
	}
}

func toTokenModel(t *checkindomain.Token) *TokenModel {
	return &TokenModel{
		Value:        t.Value,
		PlayerID:     t.PlayerID,
		TournamentID: t.TournamentID,
		Division:     t.Division,
		IssuedAt:     t.IssuedAt,
		ExpiresAt:    t.ExpiresAt,
		Status:       string(t.Status),
		RefreshCount: t.RefreshCount,
		CheckedInAt:  t.CheckedInAt,
		ScannedBy:    t.ScannedBy,
	}
}

func (m *TokenModel) toDomain() *checkindomain.Token {
	return &checkindomain.Token{
		Value:        m.Value,
		PlayerID:     m.PlayerID,
		TournamentID: m.TournamentID,
		Division:     m.Division,
		IssuedAt:     m.IssuedAt,
		ExpiresAt:    m.ExpiresAt,
		Status:       checkindomain.TokenStatus(m.Status),
		RefreshCount: m.RefreshCount,
		CheckedInAt:  m.CheckedInAt,
		ScannedBy:    m.ScannedBy,
	}
}
