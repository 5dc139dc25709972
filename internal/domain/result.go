package domain

import "time"

// ResolutionState is the outcome class of a resolution.
type ResolutionState string

const (
	// StatePending is owned by the display layer while a resolution runs.
	// The resolver itself never produces it.
	StatePending ResolutionState = "pending"
	// StateResolved means one candidate answered with a status in [200, 400).
	StateResolved ResolutionState = "resolved"
	// StateUnreachable means at least one candidate was configured and none answered.
	StateUnreachable ResolutionState = "unreachable"
	// StateNotConfigured means both candidates were absent; no probe was sent.
	StateNotConfigured ResolutionState = "not_configured"
)

// ProbeAttempt records a single reachability probe.
// It is diagnostic only and never changes the outcome taxonomy.
type ProbeAttempt struct {
	Slot       Slot   `json:"slot"`
	URL        string `json:"url"`
	StatusCode int    `json:"status_code,omitempty"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
	LatencyMs  int64  `json:"latency_ms"`
}

// ResolutionResult is produced fresh on every resolution request.
type ResolutionResult struct {
	// ID identifies the request (uuid), useful to correlate logs.
	ID string `json:"id"`

	Service ServiceIdentity `json:"service"`
	State   ResolutionState `json:"state"`

	// URL is set only for StateResolved and is always one of the inputs.
	URL string `json:"url,omitempty"`

	// Slot tells which candidate won (StateResolved only).
	Slot Slot `json:"slot,omitempty"`

	Attempts   []ProbeAttempt `json:"attempts"`
	ResolvedAt time.Time      `json:"resolved_at"`
}

// IsResolved reports whether the result carries a usable URL.
func (r ResolutionResult) IsResolved() bool {
	return r.State == StateResolved && r.URL != ""
}
