package checkindomain

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

// TokenStatus is the lifecycle state of a check-in token.
type TokenStatus string

const (
	StatusPending   TokenStatus = "pending"
	StatusCheckedIn TokenStatus = "checked_in"
	StatusExpired   TokenStatus = "expired"
)

func (s TokenStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusCheckedIn, StatusExpired:
		return true
	}
	return false
}

// DefaultTTL is the validity window of a freshly issued token.
const DefaultTTL = 60 * time.Second

// tokenBytes of entropy back every token value.
const tokenBytes = 32

// Token admits one player to one tournament when redeemed.
type Token struct {
	Value        string      `json:"value"`
	PlayerID     string      `json:"player_id"`
	TournamentID string      `json:"tournament_id"`
	Division     string      `json:"division"`
	IssuedAt     time.Time   `json:"issued_at"`
	ExpiresAt    time.Time   `json:"expires_at"`
	Status       TokenStatus `json:"status"`
	RefreshCount int         `json:"refresh_count"`
	CheckedInAt  *time.Time  `json:"checked_in_at,omitempty"`
	ScannedBy    string      `json:"scanned_by,omitempty"`
}

// NewToken builds a Pending token valid from now for ttl.
func NewToken(value, playerID, tournamentID, division string, now time.Time, ttl time.Duration) *Token {
	return &Token{
		Value:        value,
		PlayerID:     playerID,
		TournamentID: tournamentID,
		Division:     division,
		IssuedAt:     now,
		ExpiresAt:    now.Add(ttl),
		Status:       StatusPending,
	}
}

// NewTokenValue returns an unguessable URL-safe token value.
func NewTokenValue() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// LapsedAt reports whether the validity window has passed at now.
func (t *Token) LapsedAt(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Redeem moves a Pending, unlapsed token to CheckedIn.
func (t *Token) Redeem(now time.Time, scannedBy string) error {
	switch t.Status {
	case StatusCheckedIn:
		return ErrAlreadyCheckedIn
	case StatusExpired:
		return ErrTokenExpired
	}
	if t.LapsedAt(now) {
		return ErrTokenExpired
	}

	t.Status = StatusCheckedIn
	t.CheckedInAt = &now
	t.ScannedBy = scannedBy
	return nil
}

// Expire moves a Pending token to Expired. Expired tokens never come back.
func (t *Token) Expire() error {
	switch t.Status {
	case StatusCheckedIn:
		return ErrAlreadyCheckedIn
	case StatusExpired:
		return ErrTokenExpired
	}
	t.Status = StatusExpired
	return nil
}

// Successor builds the rotated replacement of t. Checked-in tokens cannot rotate.
func (t *Token) Successor(value string, now time.Time, ttl time.Duration) (*Token, error) {
	if t.Status == StatusCheckedIn {
		return nil, ErrAlreadyCheckedIn
	}
	next := NewToken(value, t.PlayerID, t.TournamentID, t.Division, now, ttl)
	next.RefreshCount = t.RefreshCount + 1
	return next, nil
}

// Clone returns a deep copy.
func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}
	c := *t
	if t.CheckedInAt != nil {
		at := *t.CheckedInAt
		c.CheckedInAt = &at
	}
	return &c
}
