// Package runlog persists one record per optimization run and answers
// simple history queries.
package runlog

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/mgdispatch/core/model"
)

// RunRecord captures the outcome of one optimization run.
type RunRecord struct {
	RunID     string                `json:"run_id"`
	Timestamp time.Time             `json:"timestamp"`
	Status    model.Status          `json:"status"`
	Objective float64               `json:"objective"`
	ElapsedMS int64                 `json:"elapsed_ms"`
	Horizon   int                   `json:"horizon"`
	Error     string                `json:"error,omitempty"`
	Result    *model.DispatchResult `json:"result,omitempty"`
}

// NewRecord builds the record of a run from its result and error. The
// hourly result is only kept for optimal runs.
func NewRecord(res model.DispatchResult, horizon int, runErr error) RunRecord {
	rec := RunRecord{
		RunID:     res.RunID,
		Timestamp: res.SolvedAt,
		Status:    res.Status,
		Objective: res.Objective,
		ElapsedMS: res.Elapsed.Milliseconds(),
		Horizon:   horizon,
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	if res.Status == model.StatusOptimal && runErr == nil {
		r := res
		rec.Result = &r
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	return rec
}

// RunQuery defines filters for retrieving records. Zero values match
// everything.
type RunQuery struct {
	Start  time.Time
	End    time.Time
	Status *model.Status
}

// Match reports whether rec passes the filters of q.
func (q RunQuery) Match(rec RunRecord) bool {
	if !q.Start.IsZero() && rec.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && rec.Timestamp.After(q.End) {
		return false
	}
	if q.Status != nil && rec.Status != *q.Status {
		return false
	}
	return true
}

// Store persists RunRecords and supports querying.
type Store interface {
	Append(ctx context.Context, rec RunRecord) error
	Query(ctx context.Context, q RunQuery) ([]RunRecord, error)
	Close() error
}

// ErrUnknownBackend is returned by NewStore for an unsupported backend.
var ErrUnknownBackend = errors.New("unknown run log backend")
