package checkindomain

import "errors"

var (
	ErrTokenNotFound    = errors.New("check-in token not found")
	ErrTokenExpired     = errors.New("check-in token expired")
	ErrAlreadyCheckedIn = errors.New("player already checked in")
	ErrInvalidInput     = errors.New("invalid check-in request")
)

// Reason codes reported to callers.
const (
	ReasonNotFound         = "not_found"
	ReasonExpired          = "expired"
	ReasonAlreadyCheckedIn = "already_checked_in"
	ReasonInvalidInput     = "invalid_input"
)

// ReasonFor maps a domain error to its stable reason code, or "" for anything else.
func ReasonFor(err error) string {
	switch {
	case errors.Is(err, ErrTokenNotFound):
		return ReasonNotFound
	case errors.Is(err, ErrTokenExpired):
		return ReasonExpired
	case errors.Is(err, ErrAlreadyCheckedIn):
		return ReasonAlreadyCheckedIn
	case errors.Is(err, ErrInvalidInput):
		return ReasonInvalidInput
	}
	return ""
}
