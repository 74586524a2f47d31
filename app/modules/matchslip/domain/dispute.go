package matchslipdomain

import "time"

type DisputeStatus string

const (
	DisputeOpen     DisputeStatus = "open"
	DisputeResolved DisputeStatus = "resolved"
)

// Dispute is a flagged disagreement awaiting a judge.
type Dispute struct {
	ID            string        `json:"id"`
	RaisedBy      string        `json:"raised_by"`
	Reason        string        `json:"reason"`
	Description   string        `json:"description,omitempty"`
	Evidence      []string      `json:"evidence,omitempty"`
	Status        DisputeStatus `json:"status"`
	AssignedJudge string        `json:"assigned_judge,omitempty"`
	Resolution    string        `json:"resolution,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	ResolvedAt    *time.Time    `json:"resolved_at,omitempty"`
}
