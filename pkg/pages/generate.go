package pages

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yme-dev/pagegen/internal/errors"
)

// Defaults for Options.
const (
	DefaultDir           = "pages"
	DefaultAppConfigName = "app.config.ts"
	DefaultPagesName     = "utils/pages.ts"
	DefaultPageName      = "page.tsx"
)

// Options configures one pipeline invocation. They are expected to be fully
// resolved (see internal/config); only empty fields fall back to the defaults.
type Options struct {
	// Cwd is the source root every other path is relative to.
	Cwd string

	// Dir is the pages sub-directory (default: "pages").
	Dir string

	// AppConfigName is the app config document (default: "app.config.ts").
	AppConfigName string

	// PagesName is the generated module path (default: "utils/pages.ts").
	PagesName string

	// PageName is the page file name (default: "page.tsx").
	PageName string

	// Exclude selects the underscore exclusion policy (default: none).
	Exclude ExcludePolicy

	// Ignore lists extra directory names skipped during the scan.
	Ignore []string

	// DisableSubPackages classifies every page as main and leaves the
	// subPackages region alone.
	DisableSubPackages bool

	// DryRun renders both outputs without writing them.
	DryRun bool

	// Logger receives stage and diagnostic records.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// Middleware wraps every stage, outermost first.
	Middleware []Middleware
}

func (o Options) withDefaults() Options {
	if o.Cwd == "" {
		o.Cwd = "."
	}
	o.Dir = strings.Trim(filepath.ToSlash(o.Dir), "/")
	if o.Dir == "" {
		o.Dir = DefaultDir
	}
	if o.AppConfigName == "" {
		o.AppConfigName = DefaultAppConfigName
	}
	if o.PagesName == "" {
		o.PagesName = DefaultPagesName
	}
	if o.PageName == "" {
		o.PageName = DefaultPageName
	}
	if o.Exclude == "" {
		o.Exclude = ExcludeNone
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// AppConfigPath returns the app config document path.
func (o Options) AppConfigPath() string {
	return resolvePath(o.Cwd, o.AppConfigName)
}

// PagesModulePath returns the generated module path.
func (o Options) PagesModulePath() string {
	return resolvePath(o.Cwd, o.PagesName)
}

// PagesPath returns the pages directory path.
func (o Options) PagesPath() string {
	return resolvePath(o.Cwd, o.Dir)
}

func resolvePath(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, filepath.FromSlash(path))
}

type step struct {
	name StageName
	fn   func(context.Context) error
}

// pipeline carries the state of one Generate call.
type pipeline struct {
	opts   Options
	log    *slog.Logger
	res    *Result
	config string
}

// Generate runs scan, classify, group, names, read-config, patch, render,
// write-config and write-module in that order. Every call rescans and rewrites
// everything; nothing is cached between calls.
//
// The app config document is read before anything is written. The document is
// written before the module, and a failing write stops the run without undoing
// earlier writes.
func Generate(ctx context.Context, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	p := &pipeline{
		opts: opts,
		log:  opts.Logger,
		res: &Result{
			AppConfigPath:   opts.AppConfigPath(),
			PagesModulePath: opts.PagesModulePath(),
		},
	}

	steps := []step{
		{StageScan, p.scan},
		{StageClassify, p.classify},
		{StageGroup, p.group},
		{StageNames, p.names},
		{StageReadConfig, p.readConfig},
		{StagePatch, p.patch},
		{StageRender, p.render},
	}
	if !opts.DryRun {
		steps = append(steps,
			step{StageWriteConfig, p.writeConfig},
			step{StageWriteModule, p.writeModule},
		)
	}

	for _, st := range steps {
		if err := ctx.Err(); err != nil {
			return nil, errors.New(errors.CodeCanceled).WithStage(string(st.name)).Wrap(err)
		}

		stage := &Stage{Name: st.name, Options: &p.opts, Result: p.res, ctx: ctx}
		start := time.Now()
		if err := chain(stage, opts.Middleware, st.fn); err != nil {
			p.log.Debug("stage failed", "stage", st.name, "error", err)
			return nil, err
		}
		p.log.Debug("stage done", "stage", st.name, "duration", time.Since(start))
	}

	p.res.Written = !opts.DryRun
	return p.res, nil
}

func (p *pipeline) scan(context.Context) error {
	scanner := NewScanner(p.opts.Cwd, p.opts.Dir, p.opts.PageName)
	found, err := scanner.ScanWithOptions(ScanOptions{
		Exclude: p.opts.Exclude,
		Ignore:  p.opts.Ignore,
	})
	if err != nil {
		return err
	}
	p.res.Pages = found
	return nil
}

func (p *pipeline) classify(context.Context) error {
	if p.opts.DisableSubPackages {
		p.res.MainPages = append([]string{}, p.res.Pages...)
		return nil
	}
	p.res.MainPages, p.res.SubPages = Classify(p.res.Pages, p.opts.Dir)
	return nil
}

func (p *pipeline) group(context.Context) error {
	p.res.SubBundles = Group(p.res.SubPages, p.opts.Dir)
	return nil
}

func (p *pipeline) names(context.Context) error {
	p.res.Names, p.res.Collisions = BuildNames(p.res.Pages, p.opts.Dir)
	for _, c := range p.res.Collisions {
		p.log.Warn("page name overwritten", "key", c.Key, "previous", c.Previous, "route", c.Route)
	}
	return nil
}

func (p *pipeline) readConfig(context.Context) error {
	path := p.res.AppConfigPath
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.New(errors.CodeConfigRead).
			WithStage(string(StageReadConfig)).
			WithPath(path).
			Wrap(err)
	}
	p.config = string(data)
	return nil
}

func (p *pipeline) patch(context.Context) error {
	p.res.AppConfig, p.res.Regions = PatchAppConfig(p.config, p.res.MainPages, p.res.SubBundles, !p.opts.DisableSubPackages)

	if p.res.Regions.Pages == 0 {
		p.log.Warn("marker region not found", "region", PagesRegion.Name, "file", p.res.AppConfigPath)
	}
	if !p.opts.DisableSubPackages && p.res.Regions.SubPackages == 0 {
		p.log.Warn("marker region not found", "region", SubPackagesRegion.Name, "file", p.res.AppConfigPath)
	}
	return nil
}

func (p *pipeline) render(context.Context) error {
	code, err := NewGenerator(p.res.Names).Generate()
	if err != nil {
		return errors.New(errors.CodeOutputWrite).WithStage(string(StageRender)).Wrap(err)
	}
	p.res.PagesModule = code
	return nil
}

func (p *pipeline) writeConfig(context.Context) error {
	path := p.res.AppConfigPath
	if err := WriteFile(path, []byte(p.res.AppConfig)); err != nil {
		return errors.New(errors.CodeConfigWrite).
			WithStage(string(StageWriteConfig)).
			WithPath(path).
			Wrap(err)
	}
	p.log.Info("updated", "file", path)
	return nil
}

func (p *pipeline) writeModule(context.Context) error {
	path := p.res.PagesModulePath
	if err := WriteFile(path, p.res.PagesModule); err != nil {
		return errors.New(errors.CodeOutputWrite).
			WithStage(string(StageWriteModule)).
			WithPath(path).
			Wrap(err)
	}
	p.log.Info("updated", "file", path)
	return nil
}
