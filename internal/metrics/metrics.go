// Package metrics collects and exposes Prometheus metrics of the server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RPCRecorder is what the gRPC interceptors need.
type RPCRecorder interface {
	RecordRPC(method, code string, dur time.Duration)
	StreamOpened(method string)
	StreamClosed(method string)
}

// Collector registers the server metrics on a registry.
type Collector struct {
	rpcTotal    *prometheus.CounterVec
	rpcLatency  *prometheus.HistogramVec
	streams     *prometheus.GaugeVec
	planSignals prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		rpcTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studyflow_grpc_requests_total",
			Help: "Handled gRPC calls by method and status code.",
		}, []string{"method", "code"}),
		rpcLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "studyflow_grpc_request_duration_seconds",
			Help:    "gRPC call latency by method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		streams: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "studyflow_grpc_streams_active",
			Help: "Open server streams by method.",
		}, []string{"method"}),
		planSignals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "studyflow_plan_change_signals_total",
			Help: "Plan change notifications relayed to watchers.",
		}),
	}
	reg.MustRegister(c.rpcTotal, c.rpcLatency, c.streams, c.planSignals)
	return c
}

// RecordRPC counts a finished call.
func (c *Collector) RecordRPC(method, code string, dur time.Duration) {
	c.rpcTotal.WithLabelValues(method, code).Inc()
	c.rpcLatency.WithLabelValues(method).Observe(dur.Seconds())
}

// StreamOpened increments the open stream gauge.
func (c *Collector) StreamOpened(method string) { c.streams.WithLabelValues(method).Inc() }

// StreamClosed decrements the open stream gauge.
func (c *Collector) StreamClosed(method string) { c.streams.WithLabelValues(method).Dec() }

// RecordPlanSignal counts one relayed change notification.
func (c *Collector) RecordPlanSignal() { c.planSignals.Inc() }

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
