package metrics

import (
	"time"

	"github.com/kilianp07/mgdispatch/core/model"
)

// RunEvent summarises one optimization run.
type RunEvent struct {
	RunID     string
	Status    model.Status
	Objective float64
	Elapsed   time.Duration
	Horizon   int
	Message   string
	Time      time.Time
}

// HourEvent carries the solved dispatch of one hour.
type HourEvent struct {
	RunID  string
	Time   time.Time
	Result model.HourResult
}

// MetricsSink records run summaries.
type MetricsSink interface {
	RecordRun(ev RunEvent) error
}

// HourRecorder is implemented by sinks able to record per-hour dispatch.
type HourRecorder interface {
	RecordHours(evs []HourEvent) error
}

// Flusher is implemented by sinks that buffer data until the end of the
// process, such as a Pushgateway client.
type Flusher interface {
	Flush() error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(RunEvent) error      { return nil }
func (NopSink) RecordHours([]HourEvent) error { return nil }
func (NopSink) Flush() error                  { return nil }

// HourEvents expands a result into hour events. Hour t is stamped start+t
// hours.
func HourEvents(res model.DispatchResult, start time.Time) []HourEvent {
	evs := make([]HourEvent, len(res.Hours))
	for i, h := range res.Hours {
		evs[i] = HourEvent{
			RunID:  res.RunID,
			Time:   start.Add(time.Duration(h.Hour-1) * time.Hour),
			Result: h,
		}
	}
	return evs
}
