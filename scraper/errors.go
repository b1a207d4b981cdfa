package scraper

import (
	"fmt"
	"strings"

	"buscapisos/models"
)

// Stages of a backend run, reported by TransportError.
const (
	StageSubmit = "submit"
	StagePoll   = "poll"
	StageFetch  = "fetch"
	StageProbe  = "probe"
)

const maxRawInError = 2048

// ConfigurationError means credentials are missing; no request was sent.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("scraping backend not configured: missing %s", strings.Join(e.Missing, ", "))
}

// TransportError is a network failure or non-2xx answer from the backend.
type TransportError struct {
	Stage      string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("apify %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("apify %s failed %d: %s", e.Stage, e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// JobFailedError is a run that ended without SUCCEEDED, or that never
// reached a terminal status within the attempt cap (Status UNKNOWN).
// RawStatus is the status string exactly as the backend sent it.
type JobFailedError struct {
	RunID     string
	Status    models.RunStatus
	RawStatus string
	Attempts  int
}

// BackendStatus is the backend's own terminal status, or Status when the
// run never reported one.
func (e *JobFailedError) BackendStatus() string {
	if e.RawStatus != "" {
		return e.RawStatus
	}
	return string(e.Status)
}

func (e *JobFailedError) Error() string {
	if e.Status == models.RunStatusUnknown {
		return fmt.Sprintf("run %s: no terminal status after %d polls", e.RunID, e.Attempts)
	}
	return fmt.Sprintf("run %s: %s", e.RunID, e.BackendStatus())
}

// ProtocolError is a backend response missing an expected field.
type ProtocolError struct {
	Stage string
	Field string
	Raw   string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("apify %s: unexpected response, missing %s", e.Stage, e.Field)
}

func truncateRaw(b []byte) string {
	if len(b) > maxRawInError {
		return string(b[:maxRawInError]) + "..."
	}
	return string(b)
}
