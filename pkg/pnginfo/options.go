package pnginfo

import (
	"log/slog"

	"github.com/randalmurphal/pnginfo/pkg/pnginfo/capture"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/observability"
)

// genConfig holds generator configuration.
type genConfig struct {
	logger         *slog.Logger
	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	tracingEnabled bool
	civitaiSampler bool
	hasher         capture.Hasher
	passID         string
}

func defaultGenConfig() genConfig {
	return genConfig{
		metrics:        observability.NoopMetrics{},
		spans:          observability.NoopSpanManager{},
		civitaiSampler: true,
	}
}

// Option configures a Generator.
type Option func(*genConfig)

// WithLogger sets the logger for pass-level events.
// Default: no logging.
//
// Example:
//
//	gen := pnginfo.New(pnginfo.WithLogger(slog.Default()))
func WithLogger(l *slog.Logger) Option {
	return func(c *genConfig) {
		c.logger = l
	}
}

// WithMetrics enables OpenTelemetry metrics.
// Default: disabled.
//
// Recorded metrics:
//   - pnginfo.pass.runs: passes, by mode and skipped
//   - pnginfo.pass.latency_ms: pass latency histogram
//   - pnginfo.candidates: collected candidates
//   - pnginfo.conflicts: disagreeing single-value candidates
func WithMetrics(enabled bool) Option {
	return func(c *genConfig) {
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithMetricsRecorder sets a specific recorder, for tests or custom meters.
func WithMetricsRecorder(m observability.MetricsRecorder) Option {
	return func(c *genConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracing enables OpenTelemetry spans: pnginfo.pass with
// pnginfo.collect and pnginfo.assemble children.
// Default: disabled.
func WithTracing(enabled bool) Option {
	return func(c *genConfig) {
		c.tracingEnabled = enabled
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithSpanManager sets a specific span manager and enables tracing.
func WithSpanManager(sm observability.SpanManager) Option {
	return func(c *genConfig) {
		if sm != nil {
			c.spans = sm
			c.tracingEnabled = true
		}
	}
}

// WithCivitaiSampler selects display sampler names ("DPM++ 2M Karras") over
// raw ones ("dpmpp_2m_karras").
// Default: true.
func WithCivitaiSampler(enabled bool) Option {
	return func(c *genConfig) {
		c.civitaiSampler = enabled
	}
}

// WithHasher sets the hasher for LoRA tags found in prompt text. Collectors
// take their own hasher for loader nodes.
// Default: the collector's hasher when it implements collect.Hashed.
func WithHasher(h capture.Hasher) Option {
	return func(c *genConfig) {
		c.hasher = h
	}
}

// WithPassID sets the pass ID used in logs and spans.
// Default: a random UUID per pass.
func WithPassID(id string) Option {
	return func(c *genConfig) {
		c.passID = id
	}
}
