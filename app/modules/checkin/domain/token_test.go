package checkindomain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 4, 11, 8, 0, 0, 0, time.UTC)

func TestTokenRedeem(t *testing.T) {
	tests := []struct {
		name    string
		status  TokenStatus
		at      time.Time
		wantErr error
	}{
		{name: "pending inside window", status: StatusPending, at: t0.Add(30 * time.Second)},
		{name: "exactly at expiry is still valid", status: StatusPending, at: t0.Add(DefaultTTL)},
		{name: "just before expiry", status: StatusPending, at: t0.Add(DefaultTTL - time.Nanosecond)},
		{name: "just after expiry", status: StatusPending, at: t0.Add(DefaultTTL + time.Nanosecond), wantErr: ErrTokenExpired},
		{name: "already checked in", status: StatusCheckedIn, at: t0.Add(time.Second), wantErr: ErrAlreadyCheckedIn},
		{name: "expired before lapse", status: StatusExpired, at: t0.Add(time.Second), wantErr: ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := NewToken("v", "p1", "t1", "masters", t0, DefaultTTL)
			tok.Status = tt.status

			err := tok.Redeem(tt.at, "staff-1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.status, tok.Status)
				assert.Nil(t, tok.CheckedInAt)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StatusCheckedIn, tok.Status)
			assert.Equal(t, tt.at, *tok.CheckedInAt)
			assert.Equal(t, "staff-1", tok.ScannedBy)
		})
	}
}

func TestTokenExpire(t *testing.T) {
	tok := NewToken("v", "p1", "t1", "", t0, DefaultTTL)
	require.NoError(t, tok.Expire())
	assert.Equal(t, StatusExpired, tok.Status)
	assert.ErrorIs(t, tok.Expire(), ErrTokenExpired)

	// An expired token stays expired on both sides of the boundary.
	assert.ErrorIs(t, tok.Redeem(t0.Add(DefaultTTL-time.Nanosecond), ""), ErrTokenExpired)
	assert.ErrorIs(t, tok.Redeem(t0.Add(DefaultTTL+time.Nanosecond), ""), ErrTokenExpired)

	checked := NewToken("w", "p1", "t1", "", t0, DefaultTTL)
	require.NoError(t, checked.Redeem(t0, ""))
	assert.ErrorIs(t, checked.Expire(), ErrAlreadyCheckedIn)
}

func TestTokenSuccessor(t *testing.T) {
	tok := NewToken("old", "p1", "t1", "open", t0, DefaultTTL)
	tok.RefreshCount = 2

	next, err := tok.Successor("new", t0.Add(time.Minute), DefaultTTL)
	require.NoError(t, err)
	assert.Equal(t, 3, next.RefreshCount)
	assert.Equal(t, "p1", next.PlayerID)
	assert.Equal(t, "open", next.Division)
	assert.Equal(t, t0.Add(2*time.Minute), next.ExpiresAt)

	require.NoError(t, tok.Redeem(t0, ""))
	_, err = tok.Successor("newer", t0, DefaultTTL)
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)
}

func TestNewTokenValue(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		v, err := NewTokenValue()
		require.NoError(t, err)
		assert.Len(t, v, 43)
		assert.False(t, seen[v])
		seen[v] = true
	}
}

func TestValidate(t *testing.T) {
	tok := NewToken("v", "p1", "t1", "", t0, DefaultTTL)

	assert.Equal(t, Validation{Reason: ReasonNotFound}, Validate(nil, t0))
	assert.True(t, Validate(tok, t0.Add(DefaultTTL)).Valid)

	lapsed := Validate(tok, t0.Add(DefaultTTL+time.Second))
	assert.False(t, lapsed.Valid)
	assert.True(t, lapsed.Expired)
	assert.Equal(t, StatusPending, tok.Status)

	require.NoError(t, tok.Redeem(t0, ""))
	assert.Equal(t, ReasonAlreadyCheckedIn, Validate(tok, t0).Reason)
}

func TestReasonFor(t *testing.T) {
	assert.Equal(t, ReasonNotFound, ReasonFor(ErrTokenNotFound))
	assert.Equal(t, ReasonExpired, ReasonFor(ErrTokenExpired))
	assert.Equal(t, ReasonAlreadyCheckedIn, ReasonFor(ErrAlreadyCheckedIn))
	assert.Equal(t, "", ReasonFor(assert.AnError))
}
