package authdomain

import "time"

// Claims represents the domain model for authentication claims.
type Claims struct {
	ActorID   string
	Role      Role
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// IsExpiredAt checks if the claims have expired at now.
func (c *Claims) IsExpiredAt(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
