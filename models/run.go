package models

import "strings"

type RunStatus string

const (
	RunStatusPending   RunStatus = "PENDING"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusSucceeded RunStatus = "SUCCEEDED"
	RunStatusFailed    RunStatus = "FAILED"
	RunStatusAborted   RunStatus = "ABORTED"
	RunStatusTimedOut  RunStatus = "TIMED_OUT"
	RunStatusUnknown   RunStatus = "UNKNOWN"
)

// ParseRunStatus maps a backend status string onto RunStatus.
// Unrecognised values become RunStatusUnknown.
func ParseRunStatus(s string) RunStatus {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "READY", "PENDING":
		return RunStatusPending
	case "RUNNING", "TIMING-OUT", "TIMING_OUT", "ABORTING":
		return RunStatusRunning
	case "SUCCEEDED":
		return RunStatusSucceeded
	case "FAILED":
		return RunStatusFailed
	case "ABORTED":
		return RunStatusAborted
	case "TIMED-OUT", "TIMED_OUT":
		return RunStatusTimedOut
	}
	return RunStatusUnknown
}

// Terminal reports whether the status ends a run. UNKNOWN is never terminal.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusFailed, RunStatusAborted, RunStatusTimedOut:
		return true
	}
	return false
}

// ScrapeJob tracks one backend run through its lifecycle.
type ScrapeJob struct {
	ID        string    `json:"id"`
	Status    RunStatus `json:"status"`
	DatasetID string    `json:"dataset_id,omitempty"`
	Attempts  int       `json:"attempts"`
}
