package authservice

import (
	"context"
	"time"

	authdomain "github.com/Black-And-White-Club/tourney-desk/app/modules/auth/domain"
)

// Service mints and verifies desk bearer tokens.
type Service interface {
	// MintToken issues a bearer token for a staff, judge or admin actor.
	MintToken(ctx context.Context, actorID string, role authdomain.Role, ttl time.Duration) (string, error)
	// Authenticate returns the claims carried by a bearer token.
	Authenticate(ctx context.Context, token string) (*authdomain.Claims, error)
}
