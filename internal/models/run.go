package models

import (
	"fmt"
	"time"
)

// RunStatus is the terminal state of a sync run.
type RunStatus string

const (
	// RunStatusSucceeded indicates fetch and collection resolution both completed.
	// Per-item reconcile errors do not downgrade a run to failed.
	RunStatusSucceeded RunStatus = "succeeded"
	// RunStatusFailed indicates a stage-fatal error aborted the pipeline
	RunStatusFailed RunStatus = "failed"
)

// RunStats aggregates per-run counters. Created at run start, reported once
// at the end, never persisted beyond the run report.
type RunStats struct {
	Fetched          int `json:"fetched"`
	SkippedUnchanged int `json:"skipped_unchanged"`
	NewUploaded      int `json:"new_uploaded"`
	UpdatedUploaded  int `json:"updated_uploaded"`
	Errors           int `json:"errors"`
}

// Summary returns a single-line human-readable rendering of the counters.
func (s RunStats) Summary() string {
	return fmt.Sprintf("fetched=%d new=%d updated=%d skipped=%d errors=%d",
		s.Fetched, s.NewUploaded, s.UpdatedUploaded, s.SkippedUnchanged, s.Errors)
}

// RunReport is the final outcome of one sync run, emitted to every configured
// reporter regardless of status.
type RunReport struct {
	RunID       string        `json:"run_id"`
	Status      RunStatus     `json:"status"`
	Stats       RunStats      `json:"stats"`
	Error       string        `json:"error,omitempty"` // Stage-fatal error message, empty on success
	FirstRun    bool          `json:"first_run"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
	Duration    time.Duration `json:"duration"`
}

// Succeeded reports whether the run completed without a stage-fatal error.
func (r *RunReport) Succeeded() bool {
	return r != nil && r.Status == RunStatusSucceeded
}
