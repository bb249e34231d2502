package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	coremetrics "github.com/kilianp07/mgdispatch/core/metrics"
	"github.com/kilianp07/mgdispatch/core/model"
)

// PromConfig configures the Prometheus sink. When PushURL is set the
// collectors live on a private registry that Flush pushes to a Pushgateway.
type PromConfig struct {
	PushURL string `json:"push_url"`
	Job     string `json:"job"`
}

// PromSink records optimization runs in Prometheus metrics.
type PromSink struct {
	runs      *prometheus.CounterVec
	duration  prometheus.Histogram
	objective prometheus.Gauge
	power     *prometheus.GaugeVec
	soc       *prometheus.GaugeVec
	pusher    *push.Pusher
}

// NewPromSink registers the run metrics on the default Prometheus registerer,
// or on a private registry bound to a Pushgateway when cfg.PushURL is set.
func NewPromSink(cfg PromConfig) (*PromSink, error) {
	if cfg.PushURL == "" {
		return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	}
	if cfg.Job == "" {
		cfg.Job = "mgdispatch"
	}
	reg := prometheus.NewRegistry()
	s, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		return nil, err
	}
	s.pusher = push.New(cfg.PushURL, cfg.Job).Gatherer(reg)
	return s, nil
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mgdispatch_runs_total",
		Help: "Total number of optimization runs by outcome",
	}, []string{"status"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mgdispatch_solve_duration_seconds",
		Help:    "Wall time spent in the LP solver",
		Buckets: prometheus.DefBuckets,
	})
	objective := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mgdispatch_objective",
		Help: "Operating cost of the last optimal dispatch",
	})
	power := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mgdispatch_hour_power_kw",
		Help: "Dispatched power per source and hour of the last optimal run",
	}, []string{"source", "hour"})
	soc := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mgdispatch_hour_soc_ratio",
		Help: "Storage state of charge at the end of each hour of the last optimal run",
	}, []string{"hour"})

	var err error
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if objective, err = register(reg, objective); err != nil {
		return nil, err
	}
	if power, err = register(reg, power); err != nil {
		return nil, err
	}
	if soc, err = register(reg, soc); err != nil {
		return nil, err
	}
	return &PromSink{runs: runs, duration: duration, objective: objective, power: power, soc: soc}, nil
}

// register adds c to reg, reusing an identical collector registered earlier.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRun counts the run and, when optimal, records its cost and duration.
func (s *PromSink) RecordRun(ev coremetrics.RunEvent) error {
	s.runs.WithLabelValues(ev.Status.String()).Inc()
	if ev.Elapsed > 0 {
		s.duration.Observe(ev.Elapsed.Seconds())
	}
	if ev.Status == model.StatusOptimal {
		s.objective.Set(ev.Objective)
	}
	return nil
}

// RecordHours sets the per-hour dispatch gauges.
func (s *PromSink) RecordHours(evs []coremetrics.HourEvent) error {
	for _, ev := range evs {
		h := ev.Result
		hour := strconv.Itoa(h.Hour)
		s.power.WithLabelValues("grid_buy", hour).Set(h.GridBuy)
		s.power.WithLabelValues("grid_sell", hour).Set(h.GridSell)
		s.power.WithLabelValues("ess_charge", hour).Set(h.ESSCharge)
		s.power.WithLabelValues("ess_discharge", hour).Set(h.ESSDischarge)
		s.power.WithLabelValues("dg1", hour).Set(h.DG1)
		s.power.WithLabelValues("dg2", hour).Set(h.DG2)
		s.power.WithLabelValues("renewable1", hour).Set(h.Renewable1)
		s.power.WithLabelValues("renewable2", hour).Set(h.Renewable2)
		s.soc.WithLabelValues(hour).Set(h.SoC)
	}
	return nil
}

// Flush pushes the collected metrics to the Pushgateway, if any.
func (s *PromSink) Flush() error {
	if s.pusher == nil {
		return nil
	}
	return s.pusher.Push()
}
