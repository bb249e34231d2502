package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	coremetrics "github.com/kilianp07/mgdispatch/core/metrics"
	"github.com/kilianp07/mgdispatch/core/model"
)

func newWriteServer(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var (
		mu     sync.Mutex
		bodies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, strings.TrimSpace(string(data)))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), bodies...)
	}
}

func TestInfluxSink_RecordRun(t *testing.T) {
	srv, bodies := newWriteServer(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()

	now := time.Unix(1700000000, 0)
	ev := coremetrics.RunEvent{RunID: "r1", Status: model.StatusOptimal, Objective: 25940, Elapsed: 1500 * time.Microsecond, Horizon: 24, Time: now}
	if err := sink.RecordRun(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	got := bodies()
	if len(got) != 1 {
		t.Fatalf("expected one write, got %d", len(got))
	}
	line := got[0]
	for _, want := range []string{"dispatch_run,", "run_id=r1", "status=optimal", "objective=25940", "elapsed_ms=1.5", "horizon=24i", "1700000000000000000"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}

func TestInfluxSink_RecordHours(t *testing.T) {
	srv, bodies := newWriteServer(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()

	start := time.Unix(1700000000, 0)
	evs := []coremetrics.HourEvent{
		{RunID: "r1", Time: start, Result: model.HourResult{Hour: 1, Load: 169, DG1: 80.12345}},
		{RunID: "r1", Time: start.Add(time.Hour), Result: model.HourResult{Hour: 2, Load: 175, SoC: 0.5}},
	}
	if err := sink.RecordHours(evs); err != nil {
		t.Fatalf("record error: %v", err)
	}
	got := bodies()
	if len(got) != 1 {
		t.Fatalf("expected a single batch, got %d writes", len(got))
	}
	lines := strings.Split(got[0], "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 points, got %q", got[0])
	}
	if !strings.Contains(lines[0], "dg1_kw=80.123") || !strings.HasPrefix(lines[0], "dispatch_hour,run_id=r1") {
		t.Errorf("unexpected first point %q", lines[0])
	}
	if !strings.Contains(lines[1], "soc=0.5") {
		t.Errorf("unexpected second point %q", lines[1])
	}

	if err := sink.RecordHours(nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if len(bodies()) != 1 {
		t.Fatalf("empty batch must not write")
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
