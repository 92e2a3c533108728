// Package telemetry provides Prometheus metrics, OpenTelemetry tracing setup,
// and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	RunsStarted   prometheus.Counter
	RunsDelivered prometheus.Counter
	RunsFailed    *prometheus.CounterVec // labeled by failed stage
	Transcodes    prometheus.Counter
	Repackages    prometheus.Counter

	// Histograms (seconds)
	FetchDuration     prometheus.Observer
	TranscodeDuration prometheus.Observer
	RunDuration       prometheus.Observer

	// Gauges
	ActiveRunsGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		RunsStarted = promauto.NewCounter(prometheus.CounterOpts{Name: "clip_runs_started_total", Help: "Number of mirror pipeline runs started"})
		RunsDelivered = promauto.NewCounter(prometheus.CounterOpts{Name: "clip_runs_delivered_total", Help: "Number of runs that delivered an artifact"})
		RunsFailed = promauto.NewCounterVec(prometheus.CounterOpts{Name: "clip_runs_failed_total", Help: "Number of failed runs by pipeline stage"}, []string{"stage"})
		Transcodes = promauto.NewCounter(prometheus.CounterOpts{Name: "clip_transcodes_total", Help: "Number of oversized artifacts re-encoded"})
		Repackages = promauto.NewCounter(prometheus.CounterOpts{Name: "clip_repackages_total", Help: "Number of artifacts remuxed without re-encoding"})
		FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "clip_fetch_duration_seconds", Help: "Media download duration seconds", Buckets: prometheus.DefBuckets})
		TranscodeDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "clip_transcode_duration_seconds", Help: "Transcode duration seconds", Buckets: prometheus.DefBuckets})
		RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "clip_run_duration_seconds", Help: "Total pipeline run duration seconds", Buckets: prometheus.DefBuckets})
		ActiveRunsGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "clip_active_runs", Help: "Pipeline runs currently in flight"})
	})
}

// RecordFailure increments the failed-run counter for a stage.
func RecordFailure(stage string) {
	if RunsFailed != nil {
		RunsFailed.WithLabelValues(stage).Inc()
	}
}

// TimeFunc measures the duration of fn and records it in obs if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------

type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns the correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with a corr attribute if one is present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
