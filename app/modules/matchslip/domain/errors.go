package matchslipdomain

import "errors"

var (
	ErrSlipNotFound      = errors.New("match slip not found")
	ErrAlreadyCompleted  = errors.New("match slip is already final")
	ErrNotParticipant    = errors.New("actor is not a participant of this match")
	ErrJudgeRequired     = errors.New("a judge identity is required")
	ErrPolicyViolation   = errors.New("not permitted under the venue device policy")
	ErrInvalidFallback   = errors.New("paper slips are only accepted when phones are banned")
	ErrDuplicateGame     = errors.New("game number already recorded")
	ErrNoDispute         = errors.New("match slip has no dispute")
	ErrDisputeClosed     = errors.New("dispute is already resolved")
	ErrInvalidTransition = errors.New("transition not allowed from current status")
	ErrInvalidInput      = errors.New("invalid match slip request")
)

// Reason codes reported to callers.
const (
	ReasonNotFound          = "not_found"
	ReasonAlreadyCompleted  = "already_completed"
	ReasonNotAuthorized     = "not_authorized"
	ReasonPolicyViolation   = "policy_violation"
	ReasonInvalidFallback   = "invalid_fallback"
	ReasonDuplicateGame     = "duplicate_game"
	ReasonNoDispute         = "no_dispute"
	ReasonDisputeClosed     = "dispute_closed"
	ReasonInvalidTransition = "invalid_transition"
	ReasonInvalidInput      = "invalid_input"
)

// ReasonFor maps a domain error to its stable reason code, or "" for anything else.
func ReasonFor(err error) string {
	switch {
	case errors.Is(err, ErrSlipNotFound):
		return ReasonNotFound
	case errors.Is(err, ErrAlreadyCompleted):
		return ReasonAlreadyCompleted
	case errors.Is(err, ErrNotParticipant), errors.Is(err, ErrJudgeRequired):
		return ReasonNotAuthorized
	case errors.Is(err, ErrPolicyViolation):
		return ReasonPolicyViolation
	case errors.Is(err, ErrInvalidFallback):
		return ReasonInvalidFallback
	case errors.Is(err, ErrDuplicateGame):
		return ReasonDuplicateGame
	case errors.Is(err, ErrNoDispute):
		return ReasonNoDispute
	case errors.Is(err, ErrDisputeClosed):
		return ReasonDisputeClosed
	case errors.Is(err, ErrInvalidTransition):
		return ReasonInvalidTransition
	case errors.Is(err, ErrInvalidInput):
		return ReasonInvalidInput
	}
	return ""
}
