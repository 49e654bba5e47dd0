package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRun(t *testing.T) {
	m := New()
	m.ObserveRun(OutcomeCompleted)
	m.ObserveRun(OutcomeCompleted)
	m.ObserveRun(OutcomeFailed)

	if got := testutil.ToFloat64(m.runs.WithLabelValues(OutcomeCompleted)); got != 2 {
		t.Errorf("expected 2 completed runs, got %v", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues(OutcomeFailed)); got != 1 {
		t.Errorf("expected 1 failed run, got %v", got)
	}
}

func TestObserveChunkAndAudio(t *testing.T) {
	m := New()
	m.ObserveChunk(500 * time.Millisecond)
	m.ObserveChunk(time.Second)
	m.ObserveAudio(90 * time.Second)

	if got := testutil.ToFloat64(m.chunks); got != 2 {
		t.Errorf("expected 2 chunks, got %v", got)
	}
	if got := testutil.ToFloat64(m.audioSeconds); got != 90 {
		t.Errorf("expected 90 audio seconds, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRun(OutcomeFailed)
	m.ObserveChunk(time.Second)
	m.ObserveAudio(time.Second)
}

func TestHandlerAndMiddleware(t *testing.T) {
	m := New()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			m.Handler().ServeHTTP(w, r)
			return
		}
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `docvoice_api_call_seconds_count{method="GET",status="418"} 1`) {
		t.Errorf("expected api call sample in scrape, got:\n%s", body)
	}
	if strings.Contains(string(body), `path="/metrics"`) {
		t.Error("scrapes should not be timed")
	}
}
