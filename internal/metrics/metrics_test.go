package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func find(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("metric %s not found", name)
	return nil
}

func TestRecordRPC(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRPC("/studyflow.v1.StudyFlow/ListPlans", "OK", 10*time.Millisecond)
	c.RecordRPC("/studyflow.v1.StudyFlow/ListPlans", "OK", 20*time.Millisecond)

	mf := find(t, reg, "studyflow_grpc_requests_total")
	if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 2 {
		t.Errorf("requests_total = %v, want 2", got)
	}
	h := find(t, reg, "studyflow_grpc_request_duration_seconds")
	if got := h.GetMetric()[0].GetHistogram().GetSampleCount(); got != 2 {
		t.Errorf("sample count = %v, want 2", got)
	}
}

func TestStreamsGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.StreamOpened("w")
	c.StreamOpened("w")
	c.StreamClosed("w")

	mf := find(t, reg, "studyflow_grpc_streams_active")
	if got := mf.GetMetric()[0].GetGauge().GetValue(); got != 1 {
		t.Errorf("streams_active = %v, want 1", got)
	}
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordPlanSignal()

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "studyflow_plan_change_signals_total 1") {
		t.Errorf("body misses plan signal counter:\n%s", body)
	}
}
