package matchslipdomain

import "fmt"

// SlipStatus is the lifecycle state of a match slip.
type SlipStatus string

const (
	StatusPending    SlipStatus = "pending"
	StatusInProgress SlipStatus = "in_progress"
	StatusCompleted  SlipStatus = "completed"
	StatusDisputed   SlipStatus = "disputed"
	StatusResolved   SlipStatus = "resolved"
)

func (s SlipStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusDisputed, StatusResolved:
		return true
	}
	return false
}

// IsFinal reports whether results and signatures are locked.
func (s SlipStatus) IsFinal() bool {
	return s == StatusCompleted || s == StatusResolved
}

// Trigger is something that happened to a slip.
type Trigger int

const (
	TriggerGameRecorded Trigger = iota
	TriggerSigned
	TriggerFullySigned
	TriggerJudgeAttested
	TriggerDisputeRaised
	TriggerDisputeResolved
)

func (t Trigger) String() string {
	switch t {
	case TriggerGameRecorded:
		return "game_recorded"
	case TriggerSigned:
		return "signed"
	case TriggerFullySigned:
		return "fully_signed"
	case TriggerJudgeAttested:
		return "judge_attested"
	case TriggerDisputeRaised:
		return "dispute_raised"
	case TriggerDisputeResolved:
		return "dispute_resolved"
	}
	return fmt.Sprintf("trigger(%d)", int(t))
}

// Transition returns the status a slip in from moves to on t.
//
//	pending     --game--------> in_progress
//	pending|in_progress --fully signed|judge--> completed
//	pending|in_progress|completed --dispute--> disputed --resolved--> resolved
//
// Games may still be recorded while disputed. Signatures may not.
func Transition(from SlipStatus, t Trigger) (SlipStatus, error) {
	switch t {
	case TriggerGameRecorded:
		switch from {
		case StatusPending, StatusInProgress:
			return StatusInProgress, nil
		case StatusDisputed:
			return StatusDisputed, nil
		case StatusCompleted, StatusResolved:
			return from, ErrAlreadyCompleted
		}

	case TriggerSigned, TriggerFullySigned, TriggerJudgeAttested:
		switch from {
		case StatusPending, StatusInProgress:
			if t == TriggerSigned {
				return from, nil
			}
			return StatusCompleted, nil
		case StatusCompleted, StatusResolved:
			return from, ErrAlreadyCompleted
		}

	case TriggerDisputeRaised:
		switch from {
		case StatusPending, StatusInProgress, StatusCompleted:
			return StatusDisputed, nil
		}

	case TriggerDisputeResolved:
		switch from {
		case StatusDisputed:
			return StatusResolved, nil
		case StatusResolved:
			return from, ErrDisputeClosed
		default:
			return from, ErrNoDispute
		}
	}

	return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, t, from)
}
