// Package store persists run results.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pthm-cable/swd/telemetry"
)

// ErrNotInitialized is returned by stores used before Init.
var ErrNotInitialized = errors.New("store is not initialized")

// RunRecord is the persisted result of one run.
type RunRecord struct {
	ID         string    `json:"id"`
	BatchID    string    `json:"batch_id"`
	Scenario   string    `json:"scenario"`
	Label      string    `json:"label"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Error      string    `json:"error,omitempty"`

	// Overrides are the parameter values the run changed from the base set.
	Overrides     map[string]float64   `json:"overrides,omitempty"`
	Summary       telemetry.RunSummary `json:"summary"`
	ThresholdDays []float64            `json:"threshold_days"`
}

// Failed reports whether the run ended with an error.
func (r RunRecord) Failed() bool { return r.Error != "" }

// Duration is the wall time of the run.
func (r RunRecord) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Store saves and queries run records. Implementations are safe for
// concurrent use.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run RunRecord) error
	GetRun(ctx context.Context, id string) (RunRecord, bool, error)
	// ListRuns returns the runs of a batch, or every run when batchID is
	// empty, ordered by start time.
	ListRuns(ctx context.Context, batchID string) ([]RunRecord, error)
	Close() error
}

// NewID returns a fresh run or batch identifier.
func NewID() string { return uuid.NewString() }

func encodeRun(r RunRecord) ([]byte, error) {
	return json.Marshal(r)
}

func decodeRun(data []byte) (RunRecord, error) {
	var r RunRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return RunRecord{}, err
	}
	return r, nil
}
