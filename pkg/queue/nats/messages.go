package nats

import (
	"encoding/json"
	"fmt"

	"github.com/tunogya/hcpart/pkg/cluster"
	"github.com/tunogya/hcpart/pkg/model"
)

// Subject constants
const (
	SubjectJobs          = "hcpart.jobs"
	SubjectResultsPrefix = "hcpart.results."
	SubjectResultsAll    = SubjectResultsPrefix + "*"
)

// ResultSubject returns the subject carrying the results of one run
func ResultSubject(runID string) string {
	return SubjectResultsPrefix + runID
}

// JobMsg asks a worker to cluster one profile
type JobMsg struct {
	RunID   string         `json:"run_id"`
	JobID   int            `json:"job_id"` // index of the profile in the run
	Total   int            `json:"total"`  // number of jobs in the run
	Profile model.Profile  `json:"profile"`
	Config  cluster.Config `json:"config"`
}

// ResultMsg carries the outcome of one job back to the coordinator
type ResultMsg struct {
	RunID  string                  `json:"run_id"`
	JobID  int                     `json:"job_id"`
	Worker string                  `json:"worker,omitempty"`
	Result *model.ClusteringResult `json:"result,omitempty"`
	Error  string                  `json:"error,omitempty"`
}

// Err returns the job error reported by the worker, if any
func (m *ResultMsg) Err() error {
	if m.Error == "" {
		return nil
	}
	return fmt.Errorf("job %d failed on %s: %s", m.JobID, m.Worker, m.Error)
}

// Encode serializes a message to JSON bytes
func Encode(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeJob deserializes a JobMsg from JSON bytes
func DecodeJob(data []byte) (*JobMsg, error) {
	var msg JobMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DecodeResult deserializes a ResultMsg from JSON bytes
func DecodeResult(data []byte) (*ResultMsg, error) {
	var msg ResultMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
