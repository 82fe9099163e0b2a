package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/optimanage/core/metrics"
)

func captureServer(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var mu sync.Mutex
	var bodies []string
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

func TestInfluxSink_RecordRanking(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	ev := coremetrics.RankingEvent{
		RankingID:  "r1",
		Objectives: 2,
		Entries:    10,
		Errors:     1,
		TopScore:   3.14159,
		Duration:   250 * time.Millisecond,
		Time:       now,
	}
	if err := sink.RecordRanking(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("ranking").
		AddTag("ranking_id", "r1").
		AddTag("partial", "true").
		AddTag("component", "dispatcher").
		AddField("objectives", 2).
		AddField("entries", 10).
		AddField("errors", 1).
		AddField("top_score", 3.142).
		AddField("duration_ms", 250.0).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	got := bodies()
	if len(got) != 1 || got[0] != expected {
		t.Errorf("unexpected body: %v", got)
	}
}

func TestInfluxSink_RecordObjectiveRunAndPartition(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	if err := sink.RecordObjectiveRun(coremetrics.ObjectiveRunEvent{
		ObjectiveID: "high_ductility",
		Training:    20,
		Candidates:  5,
		Scored:      5,
		Success:     true,
		Duration:    time.Millisecond,
		Time:        now,
	}); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if err := sink.RecordPartition(coremetrics.PartitionEvent{ObjectiveID: "high_ductility", Training: 20, Candidates: 5, Time: now}); err != nil {
		t.Fatalf("record partition: %v", err)
	}
	got := bodies()
	if len(got) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(got))
	}
	if !strings.HasPrefix(got[0], "objective_run,objective=high_ductility,success=true") {
		t.Errorf("unexpected run point: %s", got[0])
	}
	if !strings.HasPrefix(got[1], "partition,objective=high_ductility") {
		t.Errorf("unexpected partition point: %s", got[1])
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

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
