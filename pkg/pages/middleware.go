package pages

import "context"

// StageName identifies one step of the pipeline.
type StageName string

const (
	StageScan        StageName = "scan"
	StageClassify    StageName = "classify"
	StageGroup       StageName = "group"
	StageNames       StageName = "names"
	StageReadConfig  StageName = "read-config"
	StagePatch       StageName = "patch"
	StageRender      StageName = "render"
	StageWriteConfig StageName = "write-config"
	StageWriteModule StageName = "write-module"
)

// Stage is what a Middleware sees of the step it wraps.
type Stage struct {
	// Name is the stage being run.
	Name StageName

	// Options are the resolved options of this invocation.
	Options *Options

	// Result is the invocation result so far. Stages fill it in as they run.
	Result *Result

	ctx context.Context
}

// Context returns the context the stage runs with.
func (s *Stage) Context() context.Context {
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// SetContext replaces the context passed to the stage, e.g. to carry a span.
func (s *Stage) SetContext(ctx context.Context) {
	s.ctx = ctx
}

// Middleware wraps every pipeline stage.
type Middleware interface {
	// Handle runs around a stage and must call next exactly once to run it.
	// The error returned by next is the stage error.
	Handle(stage *Stage, next func() error) error
}

// MiddlewareFunc is a function adapter for Middleware.
type MiddlewareFunc func(stage *Stage, next func() error) error

// Handle implements Middleware.
func (f MiddlewareFunc) Handle(stage *Stage, next func() error) error {
	return f(stage, next)
}

// chain runs fn through mws, outermost first.
func chain(stage *Stage, mws []Middleware, fn func(ctx context.Context) error) error {
	var call func(i int) error
	call = func(i int) error {
		if i == len(mws) {
			return fn(stage.Context())
		}
		return mws[i].Handle(stage, func() error { return call(i + 1) })
	}
	return call(0)
}
