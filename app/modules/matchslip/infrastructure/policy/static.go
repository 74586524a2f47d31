package matchslippolicy

import (
	"context"
	"sync"
)

// StaticPolicy bans phones for a configured set of tournaments.
type StaticPolicy struct {
	mu     sync.RWMutex
	banned map[string]struct{}
}

func NewStaticPolicy(bannedTournaments []string) *StaticPolicy {
	p := &StaticPolicy{banned: make(map[string]struct{}, len(bannedTournaments))}
	for _, id := range bannedTournaments {
		p.banned[id] = struct{}{}
	}
	return p
}

// SetPhoneBanned changes the ban for one tournament. Existing slips keep the
// flag they were created with.
func (p *StaticPolicy) SetPhoneBanned(tournamentID string, banned bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if banned {
		p.banned[tournamentID] = struct{}{}
	} else {
		delete(p.banned, tournamentID)
	}
}

func (p *StaticPolicy) IsPhoneBanned(_ context.Context, tournamentID string) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.banned[tournamentID]
	return ok, nil
}

var alternatives = map[string][]AlternativeMethod{
	OperationSignature: {
		{
			Method:       "pin",
			Description:  "PIN at the scorekeeper terminal",
			Instructions: "Enter your player PIN at the table terminal to sign the slip.",
		},
		{
			Method:        "paper_slip",
			Description:   "Paper result slip",
			Instructions:  "Fill in and sign the paper slip, then hand it to a judge for countersignature.",
			RequiresJudge: true,
		},
	},
	OperationCheckIn: {
		{
			Method:       "staff_scan",
			Description:  "Printed check-in code",
			Instructions: "Show your printed check-in code to staff at the registration desk.",
		},
	},
	OperationResultEntry: {
		{
			Method:       "terminal",
			Description:  "Scorekeeper terminal",
			Instructions: "Report each game at the table terminal after it ends.",
		},
		{
			Method:        "paper_slip",
			Description:   "Paper result slip",
			Instructions:  "Record game results on the paper slip; a judge transcribes them.",
			RequiresJudge: true,
		},
	},
}

// AlternativesFor returns the fallback flows for operation under a phone
// ban, and none when phones are allowed.
func AlternativesFor(phoneBanned bool, operation string) []AlternativeMethod {
	if !phoneBanned {
		return []AlternativeMethod{}
	}
	methods := alternatives[operation]
	out := make([]AlternativeMethod, len(methods))
	copy(out, methods)
	return out
}

func (p *StaticPolicy) GetAlternativeMethods(ctx context.Context, tournamentID, operation string) ([]AlternativeMethod, error) {
	banned, err := p.IsPhoneBanned(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	return AlternativesFor(banned, operation), nil
}

var (
	_ DevicePolicy = (*StaticPolicy)(nil)
	_ Advisor      = (*StaticPolicy)(nil)
)
