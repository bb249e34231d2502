package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/mgdispatch/core/metrics"
	"github.com/kilianp07/mgdispatch/infra/logger"
)

// InfluxConfig holds the connection settings of an InfluxDB v2 bucket.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes run summaries and hourly dispatch to an InfluxDB
// instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordRun writes one dispatch_run point.
func (s *InfluxSink) RecordRun(ev coremetrics.RunEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, runPoint(ev))
}

// RecordHours writes one dispatch_hour point per hour in a single batch.
func (s *InfluxSink) RecordHours(evs []coremetrics.HourEvent) error {
	if len(evs) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	points := make([]*write.Point, len(evs))
	for i, ev := range evs {
		points[i] = hourPoint(ev)
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// Close releases the HTTP client.
func (s *InfluxSink) Close() { s.client.Close() }

func runPoint(ev coremetrics.RunEvent) *write.Point {
	p := write.NewPointWithMeasurement("dispatch_run").
		AddTag("run_id", ev.RunID).
		AddTag("status", ev.Status.String()).
		AddField("objective", round3(ev.Objective)).
		AddField("elapsed_ms", round3(float64(ev.Elapsed.Microseconds())/1000)).
		AddField("horizon", ev.Horizon)
	if ev.Message != "" {
		p = p.AddField("message", ev.Message)
	}
	return p.SetTime(ev.Time)
}

func hourPoint(ev coremetrics.HourEvent) *write.Point {
	h := ev.Result
	return write.NewPointWithMeasurement("dispatch_hour").
		AddTag("run_id", ev.RunID).
		AddField("load_kw", round3(h.Load)).
		AddField("grid_buy_kw", round3(h.GridBuy)).
		AddField("grid_sell_kw", round3(h.GridSell)).
		AddField("ess_charge_kw", round3(h.ESSCharge)).
		AddField("ess_discharge_kw", round3(h.ESSDischarge)).
		AddField("dg1_kw", round3(h.DG1)).
		AddField("dg2_kw", round3(h.DG2)).
		AddField("soc", round3(h.SoC)).
		AddField("buy_price", round3(h.BuyPrice)).
		AddField("sell_price", round3(h.SellPrice)).
		SetTime(ev.Time)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
