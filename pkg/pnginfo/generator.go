package pnginfo

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/randalmurphal/pnginfo/pkg/pnginfo/collect"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/observability"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/record"
)

// Generator runs metadata passes. It is safe for concurrent use; each pass
// works on its own collector output.
type Generator struct {
	cfg genConfig
}

// Result is the outcome of one pass.
type Result struct {
	// PassID identifies the pass in logs and spans.
	PassID string
	// Mode is the collector mode, "live" or "trace".
	Mode string
	// Record is the assembled record; empty when Skipped.
	Record *record.Record
	// Parameters is the rendered record; "" when Skipped.
	Parameters string
	// Skipped is true when no step count was found and no metadata should
	// be attached.
	Skipped bool
}

// New creates a Generator.
func New(opts ...Option) *Generator {
	cfg := defaultGenConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Generator{cfg: cfg}
}

// Generate runs one pass: collect, reconcile, assemble and render.
//
// Example:
//
//	res, err := gen.Generate(ctx, collect.NewTrace(prompt))
//	if err != nil {
//	    return err
//	}
//	if !res.Skipped {
//	    png.AddText("parameters", res.Parameters)
//	}
func (g *Generator) Generate(ctx context.Context, c collect.Collector) (res *Result, err error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if c == nil {
		return nil, ErrNilCollector
	}
	cfg := g.cfg

	passID := cfg.passID
	if passID == "" {
		passID = uuid.NewString()
	}
	mode := c.Mode()
	logger := observability.EnrichLogger(cfg.logger, passID, mode)
	elapsed := observability.TimedOperation()

	observability.LogPassStart(logger, passID)

	passCtx := ctx
	if cfg.tracingEnabled {
		var passSpan trace.Span
		passCtx, passSpan = cfg.spans.StartPassSpan(ctx, passID, mode)
		defer func() {
			cfg.spans.EndSpanWithError(passSpan, err)
		}()
	}

	collectCtx, collectSpan := cfg.spans.StartPhaseSpan(passCtx, observability.SpanCollect)
	collected := c.Collect(collectCtx)
	cfg.spans.EndSpanWithError(collectSpan, nil)
	cfg.metrics.RecordCandidates(ctx, mode, collected.Candidates())
	cfg.metrics.RecordConflicts(ctx, mode, collected.Conflicts)

	hasher := cfg.hasher
	if hc, ok := c.(collect.Hashed); ok && hasher == nil {
		hasher = hc.Hasher()
	}

	_, assembleSpan := cfg.spans.StartPhaseSpan(passCtx, observability.SpanAssemble)
	rec := record.Assemble(collected.Sampler, collected.All,
		record.WithCivitaiSampler(cfg.civitaiSampler),
		record.WithHasher(hasher),
		record.WithLogger(logger),
	)
	cfg.spans.EndSpanWithError(assembleSpan, nil)

	res = &Result{
		PassID:     passID,
		Mode:       mode,
		Record:     rec,
		Parameters: record.Render(rec),
		Skipped:    rec.Len() == 0,
	}

	duration := elapsed()
	cfg.metrics.RecordPass(ctx, mode, res.Skipped, duration)
	if res.Skipped {
		observability.LogPassSkipped(logger, passID, "steps not found")
	} else {
		observability.LogPassComplete(logger, passID, float64(duration.Microseconds())/1000, rec.Len())
	}
	return res, nil
}
