// Package store persists simulation runs so that past results can be listed,
// inspected, exported and backed up.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/nvandessel/schedsim/internal/metrics"
	"github.com/nvandessel/schedsim/internal/models"
)

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = errors.New("run not found")

// Run is one persisted simulation. Result holds the full JSON output of the
// algorithm (timeline, completions and, for AADRR, both logs).
type Run struct {
	ID             string          `json:"id"`
	Algorithm      string          `json:"algorithm"`
	CreatedAt      time.Time       `json:"created_at"`
	Source         string          `json:"source,omitempty"`
	InputHash      string          `json:"input_hash"`
	BurstWeight    int             `json:"burst_weight"`
	PriorityWeight int             `json:"priority_weight"`
	RRQuantum      int             `json:"rr_quantum,omitempty"`
	ProcessCount   int             `json:"process_count"`
	AvgTurnaround  float64         `json:"avg_turnaround"`
	AvgWaiting     float64         `json:"avg_waiting"`
	AvgResponse    float64         `json:"avg_response"`
	Makespan       int             `json:"makespan"`
	Result         json.RawMessage `json:"result"`
}

// RunFilter narrows ListRuns. Zero values match everything; Limit 0 means no limit.
type RunFilter struct {
	Algorithm string
	InputHash string
	Limit     int
}

func (f RunFilter) matches(r Run) bool {
	if f.Algorithm != "" && r.Algorithm != f.Algorithm {
		return false
	}
	if f.InputHash != "" && r.InputHash != f.InputHash {
		return false
	}
	return true
}

// RunStore defines the interface for persisting simulation runs.
type RunStore interface {
	// SaveRun stores run, assigning an ID and CreatedAt when they are empty,
	// and returns the ID.
	SaveRun(ctx context.Context, run Run) (string, error)
	GetRun(ctx context.Context, id string) (*Run, error)
	// ListRuns returns matching runs, newest first.
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)
	DeleteRun(ctx context.Context, id string) error
	// ImportRuns inserts runs whose IDs are not already present and reports
	// how many were added.
	ImportRuns(ctx context.Context, runs []Run) (int, error)
	Close() error
}

// NewRun builds a run record from a finished simulation.
func NewRun(procs []models.Process, summary metrics.Summary, result any) (Run, error) {
	hash, err := InputHash(procs)
	if err != nil {
		return Run{}, err
	}
	data, err := json.Marshal(result)
	if err != nil {
		return Run{}, fmt.Errorf("encoding result: %w", err)
	}
	return Run{
		Algorithm:     summary.Algorithm,
		InputHash:     hash,
		ProcessCount:  len(procs),
		AvgTurnaround: summary.AvgTurnaround,
		AvgWaiting:    summary.AvgWaiting,
		AvgResponse:   summary.AvgResponse,
		Makespan:      summary.Makespan,
		Result:        data,
	}, nil
}

// InputHash identifies a workload: the hex sha256 of its JSON encoding.
func InputHash(procs []models.Process) (string, error) {
	data, err := json.Marshal(procs)
	if err != nil {
		return "", fmt.Errorf("encoding workload: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// WriteJSONL writes every run in rs to w, one JSON object per line, oldest
// first, and returns the number written.
func WriteJSONL(ctx context.Context, rs RunStore, w io.Writer) (int, error) {
	runs, err := rs.ListRuns(ctx, RunFilter{})
	if err != nil {
		return 0, err
	}
	enc := json.NewEncoder(w)
	for i := len(runs) - 1; i >= 0; i-- {
		if err := enc.Encode(runs[i]); err != nil {
			return len(runs) - 1 - i, fmt.Errorf("failed to encode run: %w", err)
		}
	}
	return len(runs), nil
}
