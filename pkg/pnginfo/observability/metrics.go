package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records metadata pass metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordPass records a finished pass with its duration and whether the
	// record was discarded.
	RecordPass(ctx context.Context, mode string, skipped bool, duration time.Duration)

	// RecordCandidates records how many candidates a collector produced.
	RecordCandidates(ctx context.Context, mode string, count int)

	// RecordConflicts records single-value fields that saw disagreeing values.
	RecordConflicts(ctx context.Context, mode string, count int)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	passRuns    metric.Int64Counter
	passLatency metric.Float64Histogram
	candidates  metric.Int64Counter
	conflicts   metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics(otel.Meter("pnginfo"))
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics(meter metric.Meter) (*otelMetrics, error) {
	passRuns, err := meter.Int64Counter("pnginfo.pass.runs",
		metric.WithDescription("Number of metadata passes"),
	)
	if err != nil {
		return nil, err
	}

	passLatency, err := meter.Float64Histogram("pnginfo.pass.latency_ms",
		metric.WithDescription("Metadata pass latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	candidates, err := meter.Int64Counter("pnginfo.candidates",
		metric.WithDescription("Number of collected candidates"),
	)
	if err != nil {
		return nil, err
	}

	conflicts, err := meter.Int64Counter("pnginfo.conflicts",
		metric.WithDescription("Number of conflicting candidate values"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		passRuns:    passRuns,
		passLatency: passLatency,
		candidates:  candidates,
		conflicts:   conflicts,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// NewMetricsRecorderWithMeter returns a recorder bound to meter instead of
// the global provider.
func NewMetricsRecorderWithMeter(meter metric.Meter) (MetricsRecorder, error) {
	return newOtelMetrics(meter)
}

// RecordPass records a pass.
func (m *otelMetrics) RecordPass(ctx context.Context, mode string, skipped bool, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.Bool("skipped", skipped),
	)
	m.passRuns.Add(ctx, 1, attrs)
	m.passLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

// RecordCandidates records collected candidates.
func (m *otelMetrics) RecordCandidates(ctx context.Context, mode string, count int) {
	if count <= 0 {
		return
	}
	m.candidates.Add(ctx, int64(count), metric.WithAttributes(attribute.String("mode", mode)))
}

// RecordConflicts records conflicting values.
func (m *otelMetrics) RecordConflicts(ctx context.Context, mode string, count int) {
	if count <= 0 {
		return
	}
	m.conflicts.Add(ctx, int64(count), metric.WithAttributes(attribute.String("mode", mode)))
}
