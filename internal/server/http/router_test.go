package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/studyflow/internal/metrics"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthz(t *testing.T) {
	reg := prometheus.NewRegistry()
	ok := NewRouter(pingFunc(func(context.Context) error { return nil }), reg, zaptest.NewLogger(t))

	w := httptest.NewRecorder()
	ok.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("healthy: code=%d body=%s", w.Code, w.Body.String())
	}

	down := NewRouter(pingFunc(func(context.Context) error { return errors.New("down") }), reg, zaptest.NewLogger(t))
	w = httptest.NewRecorder()
	down.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("unhealthy: code=%d", w.Code)
	}
}

func TestMetricsRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)
	c.RecordPlanSignal()
	r := NewRouter(pingFunc(func(context.Context) error { return nil }), reg, zaptest.NewLogger(t))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "studyflow_plan_change_signals_total") {
		t.Fatalf("metrics: code=%d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/metrics", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /metrics: code=%d", w.Code)
	}
}
