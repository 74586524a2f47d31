package matchslippolicy

import "context"

// Operations a presentation layer may ask alternatives for.
const (
	OperationSignature   = "signature"
	OperationCheckIn     = "check_in"
	OperationResultEntry = "result_entry"
)

// DevicePolicy answers whether phones are banned at a tournament's venue.
type DevicePolicy interface {
	IsPhoneBanned(ctx context.Context, tournamentID string) (bool, error)
}

// AlternativeMethod describes a fallback flow offered under a phone ban.
type AlternativeMethod struct {
	Method        string `json:"method"`
	Description   string `json:"description"`
	Instructions  string `json:"instructions"`
	RequiresJudge bool   `json:"requires_judge"`
}

// Advisor lists fallback flows. Core decisions never depend on it.
type Advisor interface {
	GetAlternativeMethods(ctx context.Context, tournamentID, operation string) ([]AlternativeMethod, error)
}
