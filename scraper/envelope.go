package scraper

import (
	"encoding/json"
)

// runData is the canonical view of a run record.
type runData struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	DefaultDatasetID string `json:"defaultDatasetId"`
	DatasetID        string `json:"datasetId"`
}

func (r runData) datasetID() string {
	if r.DefaultDatasetID != "" {
		return r.DefaultDatasetID
	}
	return r.DatasetID
}

// runEnvelope accepts both the flat record and the record nested under
// "data"; the backend sends either.
type runEnvelope struct {
	runData
	Data *runData `json:"data"`
}

func (e runEnvelope) normalize() runData {
	out := e.runData
	if e.Data == nil {
		return out
	}
	if e.Data.ID != "" {
		out.ID = e.Data.ID
	}
	if e.Data.Status != "" {
		out.Status = e.Data.Status
	}
	if e.Data.DefaultDatasetID != "" {
		out.DefaultDatasetID = e.Data.DefaultDatasetID
	}
	if e.Data.DatasetID != "" {
		out.DatasetID = e.Data.DatasetID
	}
	return out
}

func decodeRun(stage string, raw []byte) (runData, error) {
	var env runEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return runData{}, &ProtocolError{Stage: stage, Field: "run object", Raw: truncateRaw(raw)}
	}
	return env.normalize(), nil
}
