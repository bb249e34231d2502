package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/mgdispatch/config"
	"github.com/kilianp07/mgdispatch/core/dispatch"
	coremetrics "github.com/kilianp07/mgdispatch/core/metrics"
	"github.com/kilianp07/mgdispatch/core/model"
	coremon "github.com/kilianp07/mgdispatch/core/monitoring"
	"github.com/kilianp07/mgdispatch/core/runlog"
	"github.com/kilianp07/mgdispatch/infra/logger"
	_ "github.com/kilianp07/mgdispatch/infra/metrics"
	"github.com/kilianp07/mgdispatch/infra/monitoring"
	"github.com/kilianp07/mgdispatch/infra/mqtt"
)

// ResultPublisher forwards solved dispatches to external consumers.
type ResultPublisher interface {
	PublishResult(ctx context.Context, res model.DispatchResult) error
	Close()
}

var newPublisher = func(cfg mqtt.Config) (ResultPublisher, error) {
	return mqtt.NewPublisher(cfg)
}

// Service wires the optimizer to its sinks: metrics, run log, MQTT and
// error monitoring.
type Service struct {
	Optimizer *dispatch.Optimizer
	store     runlog.Store
	publisher ResultPublisher
	sink      coremetrics.MetricsSink
	monitor   coremon.Monitor
	log       logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	store, err := runlog.NewStore(cfg.RunLog)
	if err != nil {
		closeSink(sink)
		return nil, fmt.Errorf("run log: %w", err)
	}

	svc := &Service{store: store, sink: sink, monitor: mon, log: logg}
	if cfg.MQTT.Enabled() {
		pub, err := newPublisher(cfg.MQTT)
		if err != nil {
			closeSink(sink)
			_ = store.Close()
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.publisher = pub
	}

	// The monitor becomes process-wide only once nothing can fail.
	coremon.Init(mon)
	svc.Optimizer = dispatch.NewOptimizer(
		dispatch.NewSolver(cfg.Solver),
		dispatch.WithLogger(logger.New("optimizer")),
		dispatch.WithMetrics(sink),
		dispatch.WithMonitor(mon),
	)
	return svc, nil
}

// Solve runs one optimization and records it in the run log. Optimal
// results are also published. The returned error is the run error; run log,
// publish and push failures are logged and reported to the monitor only.
func (s *Service) Solve(ctx context.Context, p model.HorizonParameters) (model.DispatchResult, error) {
	res, runErr := s.Optimizer.Run(ctx, p)

	if err := s.store.Append(ctx, runlog.NewRecord(res, p.T(), runErr)); err != nil {
		s.log.Errorf("append run %s: %v", res.RunID, err)
		s.monitor.CaptureException(err, map[string]string{"run_id": res.RunID, "component": "runlog"})
	}
	if runErr == nil && s.publisher != nil {
		if err := s.publisher.PublishResult(ctx, res); err != nil {
			s.log.Errorf("publish run %s: %v", res.RunID, err)
		}
	}
	if f, ok := s.sink.(coremetrics.Flusher); ok {
		if err := f.Flush(); err != nil {
			s.log.Warnf("flush metrics: %v", err)
		}
	}
	return res, runErr
}

// History returns the recorded runs matching q.
func (s *Service) History(ctx context.Context, q runlog.RunQuery) ([]runlog.RunRecord, error) {
	return s.store.Query(ctx, q)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.publisher != nil {
		s.publisher.Close()
	}
	s.monitor.Flush(2 * time.Second)
	var errs []error
	closeSink(s.sink)
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close run log: %w", err))
	}
	return errors.Join(errs...)
}

func closeSink(sink coremetrics.MetricsSink) {
	if c, ok := sink.(interface{ Close() }); ok {
		c.Close()
	}
}
