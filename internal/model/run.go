package model

import "time"

// RunStatus is the lifecycle state of a healing run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is the persisted record of one healing run.
type Run struct {
	ID           string         `json:"id"`
	Input        string         `json:"input"`
	Status       RunStatus      `json:"status"`
	Mode         Mode           `json:"mode,omitempty"`
	RowsIn       int            `json:"rows_in"`
	Clean        int            `json:"clean"`
	Quarantined  int            `json:"quarantined"`
	Removed      int            `json:"removed"`
	// Modified counts clean rows that received at least one repair;
	// NeedsReview counts clean rows marked for manual review.
	Modified     int            `json:"modified"`
	NeedsReview  int            `json:"needs_review"`
	Degraded     bool           `json:"degraded"`
	Error        string         `json:"error,omitempty"`
	ReasonCounts map[string]int `json:"reason_counts,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   *time.Time     `json:"finished_at,omitempty"`
}
