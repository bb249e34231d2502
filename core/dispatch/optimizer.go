package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/mgdispatch/core/logger"
	coremetrics "github.com/kilianp07/mgdispatch/core/metrics"
	"github.com/kilianp07/mgdispatch/core/model"
	"github.com/kilianp07/mgdispatch/core/monitoring"
)

// Optimizer runs one horizon end to end: build the model, solve it and
// extract the result. Each Run owns its model; nothing is shared between
// runs.
type Optimizer struct {
	solver  Solver
	log     logger.Logger
	sink    coremetrics.MetricsSink
	monitor monitoring.Monitor
	now     func() time.Time
	newID   func() string
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Optimizer) {
		if l != nil {
			o.log = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(s coremetrics.MetricsSink) Option {
	return func(o *Optimizer) {
		if s != nil {
			o.sink = s
		}
	}
}

// WithMonitor sets the error monitor. The process-wide monitor is used
// otherwise.
func WithMonitor(m monitoring.Monitor) Option {
	return func(o *Optimizer) {
		if m != nil {
			o.monitor = m
		}
	}
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Optimizer) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator overrides the run identifier generator.
func WithIDGenerator(f func() string) Option {
	return func(o *Optimizer) {
		if f != nil {
			o.newID = f
		}
	}
}

// NewOptimizer returns an optimizer using solver. A nil solver selects the
// default solver of NewSolver.
func NewOptimizer(solver Solver, opts ...Option) *Optimizer {
	if solver == nil {
		solver = NewSolver(Config{})
	}
	o := &Optimizer{
		solver:  solver,
		log:     logger.NopLogger{},
		sink:    coremetrics.NopSink{},
		monitor: monitoring.Current(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run solves the dispatch problem for p. The returned error wraps
// ErrInvalidParameters, ErrInfeasible or ErrNoSolution, or is a
// *SolverError. Non-optimal outcomes are terminal: there is no retry.
func (o *Optimizer) Run(ctx context.Context, p model.HorizonParameters) (model.DispatchResult, error) {
	runID := o.newID()
	started := o.now()

	m, err := Build(p)
	if err != nil {
		o.log.Warnf("run %s rejected: %v", runID, err)
		o.record(coremetrics.RunEvent{RunID: runID, Status: model.StatusInvalid, Horizon: p.T(), Message: err.Error(), Time: started})
		return model.DispatchResult{RunID: runID, Status: model.StatusInvalid, SolvedAt: started}, err
	}
	o.log.Debugw("model built", map[string]any{
		"run_id":       runID,
		"horizon":      m.T,
		"variables":    m.NumVars(),
		"inequalities": len(m.Inequalities),
		"equalities":   len(m.Equalities),
	})

	t0 := o.now()
	out := o.solver.Solve(ctx, m)
	elapsed := o.now().Sub(t0)

	ev := coremetrics.RunEvent{
		RunID:   runID,
		Status:  out.Status,
		Elapsed: elapsed,
		Horizon: m.T,
		Message: out.Message,
		Time:    started,
	}

	switch out.Status {
	case model.StatusOptimal:
	case model.StatusInfeasible:
		o.log.Warnf("run %s infeasible after %s: %s", runID, elapsed, out.Message)
		o.record(ev)
		return model.DispatchResult{RunID: runID, Status: out.Status, Elapsed: elapsed, SolvedAt: started},
			fmt.Errorf("%w: %s", ErrInfeasible, out.Message)
	default:
		serr := &SolverError{Message: out.Message}
		o.log.Errorf("run %s failed after %s: %v", runID, elapsed, serr)
		o.monitor.CaptureException(serr, map[string]string{"run_id": runID, "component": "optimizer"})
		o.record(ev)
		return model.DispatchResult{RunID: runID, Status: model.StatusSolverError, Elapsed: elapsed, SolvedAt: started}, serr
	}

	res, err := Extract(p, m, out, elapsed)
	if err != nil {
		o.log.Errorf("run %s extraction failed: %v", runID, err)
		return res, err
	}
	res.RunID = runID
	res.SolvedAt = started

	ev.Objective = res.Objective
	o.log.Infow("dispatch solved", map[string]any{
		"run_id":     runID,
		"objective":  res.Objective,
		"elapsed_ms": elapsed.Milliseconds(),
		"final_soc":  res.FinalSoC(),
	})
	o.record(ev)
	if hr, ok := o.sink.(coremetrics.HourRecorder); ok {
		if err := hr.RecordHours(coremetrics.HourEvents(res, started.Truncate(time.Hour))); err != nil {
			o.log.Warnf("record hours: %v", err)
		}
	}
	return res, nil
}

func (o *Optimizer) record(ev coremetrics.RunEvent) {
	if err := o.sink.RecordRun(ev); err != nil {
		o.log.Warnf("record run %s: %v", ev.RunID, err)
	}
}

// IsTerminal reports whether err is one of the run failures of this
// package, as opposed to a caller or IO problem.
func IsTerminal(err error) bool {
	var serr *SolverError
	return errors.Is(err, ErrInvalidParameters) || errors.Is(err, ErrInfeasible) ||
		errors.Is(err, ErrNoSolution) || errors.As(err, &serr)
}
