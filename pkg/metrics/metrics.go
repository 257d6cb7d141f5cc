// Package metrics exposes engine operation metrics in Prometheus format.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Recorder receives service operation outcomes.
type Recorder interface {
	// Observe records one operation. operation is a stable dotted name such as
	// "grant.deduct".
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)

	// Deducted records money successfully spent against grants.
	Deducted(amount decimal.Decimal)
}

// Nop discards everything. Used when metrics are disabled and in unit tests.
type Nop struct{}

func (Nop) Observe(context.Context, string, bool, time.Duration) {}
func (Nop) Deducted(decimal.Decimal)                            {}

// PrometheusRecorder implements Recorder on a private registry.
type PrometheusRecorder struct {
	registry  *prometheus.Registry
	results   *prometheus.CounterVec
	durations *prometheus.HistogramVec
	deducted  prometheus.Counter
}

var _ Recorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder creates a recorder with its own registry, including Go
// runtime and process collectors.
func NewPrometheusRecorder(namespace string) *PrometheusRecorder {
	r := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Engine operations by name and outcome.",
		}, []string{"operation", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Engine operation latency, including store round trips.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		deducted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grant_amount_deducted_total",
			Help:      "Sum of all committed grant deductions.",
		}),
	}

	r.registry.MustRegister(
		r.results,
		r.durations,
		r.deducted,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Observe implements Recorder.
func (r *PrometheusRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.results.WithLabelValues(operation, status).Inc()
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

// Deducted implements Recorder. Float conversion is only used for the metric.
func (r *PrometheusRecorder) Deducted(amount decimal.Decimal) {
	if amount.IsPositive() {
		r.deducted.Add(amount.InexactFloat64())
	}
}

// Registry returns the underlying registry.
func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry at /metrics.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
