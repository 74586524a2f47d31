package authdomain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoleSatisfies(t *testing.T) {
	tests := []struct {
		role     Role
		required Role
		want     bool
	}{
		{RoleJudge, RoleJudge, true},
		{RoleAdmin, RoleJudge, true},
		{RoleJudge, RoleStaff, true},
		{RoleStaff, RoleJudge, false},
		{RolePlayer, RoleStaff, false},
		{Role("ghost"), RolePlayer, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"->"+string(tt.required), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.Satisfies(tt.required))
		})
	}
}

func TestClaimsIsExpiredAt(t *testing.T) {
	now := time.Date(2026, 4, 11, 8, 0, 0, 0, time.UTC)
	c := &Claims{ExpiresAt: now}
	assert.False(t, c.IsExpiredAt(now))
	assert.True(t, c.IsExpiredAt(now.Add(time.Second)))
}
