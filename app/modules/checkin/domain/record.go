package checkindomain

import "time"

// CheckInRecord is the immutable fact of a successful redemption.
type CheckInRecord struct {
	PlayerID       string    `json:"player_id"`
	PlayerName     string    `json:"player_name"`
	TournamentID   string    `json:"tournament_id"`
	TournamentName string    `json:"tournament_name"`
	Division       string    `json:"division"`
	CheckInTime    time.Time `json:"check_in_time"`
	TokenValue     string    `json:"token_value"`
	ScannedBy      string    `json:"scanned_by,omitempty"`
}

// Validation is the read-only verdict on a token value.
type Validation struct {
	Valid   bool   `json:"valid"`
	Expired bool   `json:"expired"`
	Reason  string `json:"reason,omitempty"`
	Token   *Token `json:"token,omitempty"`
}

// Validate inspects t at now without changing it. A nil token is not found.
func Validate(t *Token, now time.Time) Validation {
	switch {
	case t == nil:
		return Validation{Reason: ReasonNotFound}
	case t.Status == StatusCheckedIn:
		return Validation{Reason: ReasonAlreadyCheckedIn, Token: t}
	case t.Status == StatusExpired || t.LapsedAt(now):
		return Validation{Expired: true, Reason: ReasonExpired, Token: t}
	}
	return Validation{Valid: true, Token: t}
}
