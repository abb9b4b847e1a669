package middleware

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yme-dev/pagegen/internal/errors"
	"github.com/yme-dev/pagegen/pkg/pages"
)

// Default tracer name for pagegen.
const defaultTracerName = "pagegen"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "pagegen").
	TracerName string

	// IncludeCwd includes the source root in traces.
	// Enabled by default.
	IncludeCwd bool

	// Filter determines which stages to trace.
	// Return true to trace the stage, false to skip.
	// If nil, all stages are traced.
	Filter func(stage *pages.Stage) bool

	// AttributeExtractor extracts custom attributes from the stage.
	// Called for each traced stage.
	AttributeExtractor func(stage *pages.Stage) []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithIncludeCwd enables/disables including the source root in traces.
func WithIncludeCwd(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeCwd = include
	}
}

// WithStageFilter sets a filter function for stages.
func WithStageFilter(filter func(stage *pages.Stage) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(stage *pages.Stage) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// defaultOTelConfig returns the default OpenTelemetry configuration.
func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
		IncludeCwd: true,
		Filter:     nil,
	}
}

// OpenTelemetry creates middleware that traces every pipeline stage.
//
// The middleware:
//   - Creates a span named "pagegen <stage>" for each stage
//   - Replaces the stage context so the stage and inner middleware see the span
//   - Records errors, their code and the span status
//   - Records the page count once the scan has run
//
// The tracer uses the global OpenTelemetry tracer provider. Configure it
// in main() before running the pipeline:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) pages.Middleware {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}

	// Resolve tracer from global provider
	config.tracer = otel.Tracer(config.TracerName)

	return pages.MiddlewareFunc(func(stage *pages.Stage, next func() error) error {
		if config.Filter != nil && !config.Filter(stage) {
			return next()
		}

		attrs := []attribute.KeyValue{
			attribute.String("pagegen.stage", string(stage.Name)),
		}
		if stage.Options != nil {
			attrs = append(attrs, attribute.String("pagegen.dir", stage.Options.Dir))
			if config.IncludeCwd {
				attrs = append(attrs, attribute.String("pagegen.cwd", stage.Options.Cwd))
			}
		}
		if config.AttributeExtractor != nil {
			attrs = append(attrs, config.AttributeExtractor(stage)...)
		}

		parent := stage.Context()
		spanCtx, span := config.tracer.Start(
			parent,
			formatSpanName(stage),
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		stage.SetContext(context.WithValue(spanCtx, tracedKey{}, true))
		defer stage.SetContext(parent)

		err := next()

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if code := errors.CodeOf(err); code != "" {
				span.SetAttributes(attribute.String("pagegen.error_code", code))
			}
		} else {
			span.SetStatus(codes.Ok, "")
		}

		if stage.Result != nil {
			span.SetAttributes(attribute.Int("pagegen.page_count", len(stage.Result.Pages)))
		}

		return err
	})
}

// formatSpanName creates a span name from the stage.
func formatSpanName(stage *pages.Stage) string {
	return fmt.Sprintf("pagegen %s", stage.Name)
}

// SpanFromStage returns the span of the stage being traced.
// Returns nil if the stage is not traced.
func SpanFromStage(stage *pages.Stage) trace.Span {
	if traced, _ := stage.Context().Value(tracedKey{}).(bool); !traced {
		return nil
	}
	return trace.SpanFromContext(stage.Context())
}

// tracedKey marks a stage context as traced. The global no-op provider hands
// out invalid span contexts, so span validity alone cannot tell.
type tracedKey struct{}

// TraceContext returns the stage context for propagation to calls made
// inside a stage.
func TraceContext(stage *pages.Stage) context.Context {
	return stage.Context()
}
