package report

import (
	"context"
	"expvar"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsRecorder receives one observation per service operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

// PrometheusMetricsRecorder publishes per-operation duration histograms and
// result counters on a prometheus registry.
type PrometheusMetricsRecorder struct {
	durations *prometheus.HistogramVec
	results   *prometheus.CounterVec
}

// NewPrometheusMetricsRecorder registers the recorder's collectors with reg.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	r := &PrometheusMetricsRecorder{
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "qcreport",
			Name:      "operation_duration_seconds",
			Help:      "Duration of report service operations.",
		}, []string{"operation"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qcreport",
			Name:      "operation_results_total",
			Help:      "Report service operation outcomes by status.",
		}, []string{"operation", "status"}),
	}
	for _, c := range []prometheus.Collector{r.durations, r.results} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return r, nil
}

// Observe records one operation outcome.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
	r.results.WithLabelValues(operation, status).Inc()
}

var expvarSeq atomic.Uint64

// ExpvarMetricsRecorder aggregates one running total per operation and
// publishes the table via expvar for deployments without a metrics scraper.
type ExpvarMetricsRecorder struct {
	name string
	mu   sync.Mutex
	ops  map[string]*operationTotals
}

type operationTotals struct {
	durationMS float64
	success    int64
	failure    int64
}

// OperationTotals is the exported per-operation aggregate.
type OperationTotals struct {
	DurationMSTotal float64 `json:"duration_ms_total"`
	Success         int64   `json:"success_total"`
	Failure         int64   `json:"failure_total"`
}

// NewExpvarMetricsRecorder constructs a recorder and publishes it under the
// supplied name. When name is empty, a unique identifier is generated.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		name = fmt.Sprintf("report_service_metrics_%d", expvarSeq.Add(1))
	}
	rec := &ExpvarMetricsRecorder{name: name, ops: make(map[string]*operationTotals)}
	expvar.Publish(name, expvar.Func(func() any {
		return rec.Snapshot()
	}))
	return rec
}

// Name returns the expvar export name associated with the recorder.
func (r *ExpvarMetricsRecorder) Name() string { return r.name }

// Snapshot returns a copy of the aggregates keyed by operation.
func (r *ExpvarMetricsRecorder) Snapshot() map[string]OperationTotals {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]OperationTotals, len(r.ops))
	for op, totals := range r.ops {
		out[op] = OperationTotals{
			DurationMSTotal: totals.durationMS,
			Success:         totals.success,
			Failure:         totals.failure,
		}
	}
	return out
}

// Observe records one operation outcome.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	totals, ok := r.ops[operation]
	if !ok {
		totals = &operationTotals{}
		r.ops[operation] = totals
	}
	totals.durationMS += float64(duration) / float64(time.Millisecond)
	if success {
		totals.success++
	} else {
		totals.failure++
	}
}
