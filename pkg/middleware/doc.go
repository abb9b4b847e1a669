// Package middleware provides observability middleware for the pagegen pipeline.
//
// This package includes:
//   - OpenTelemetry tracing middleware
//   - Prometheus metrics middleware
//
// Both are pages.Middleware values and wrap every pipeline stage.
//
// # OpenTelemetry Middleware
//
// The OpenTelemetry middleware opens one span per stage, named "pagegen <stage>",
// carrying the stage name, pages directory and source root.
//
//	res, err := pages.Generate(ctx, pages.Options{
//	    Middleware: []pages.Middleware{
//	        middleware.OpenTelemetry(),
//	    },
//	})
//
// Configure with options:
//
//	middleware.OpenTelemetry(
//	    middleware.WithTracerName("my-tool"),
//	    middleware.WithIncludeCwd(false),
//	    middleware.WithStageFilter(func(s *pages.Stage) bool {
//	        return s.Name != pages.StageClassify
//	    }),
//	)
//
// # Prometheus Metrics
//
// The Prometheus middleware collects metrics about pipeline runs:
//   - pagegen_stage_runs_total: Stage runs by stage and status
//   - pagegen_stage_duration_seconds: Stage duration histogram
//   - pagegen_stage_errors_total: Failed stages by error code
//   - pagegen_pages_discovered: Pages found by the last scan
//   - pagegen_sub_bundles: Sub-bundles produced by the last run
//
// In watch mode the metrics are served by the dev server on /metrics.
//
// # Context Propagation
//
// The tracing middleware replaces the stage context for the duration of the
// stage, so inner middleware and the stage itself inherit the span:
//
//	mw := pages.MiddlewareFunc(func(stage *pages.Stage, next func() error) error {
//	    if span := middleware.SpanFromStage(stage); span != nil {
//	        span.AddEvent("checked")
//	    }
//	    return next()
//	})
package middleware
