package main

import (
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yme-dev/pagegen/internal/config"
	"github.com/yme-dev/pagegen/pkg/middleware"
	"github.com/yme-dev/pagegen/pkg/pages"
)

func genCmd(flags *globalFlags) *cobra.Command {
	var (
		cwd    string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate the page list and the route module",
		Long: `Scan the pages directory and rewrite the marked regions of the app
config document, then write the route module.

The output is deterministic. Running it again without page changes
produces identical files.

Examples:
  pagegen gen
  pagegen gen --cwd ./packages/app
  pagegen gen --framework vue --exclude-underscore
  pagegen gen --dry-run            # print the module, write nothing`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(cmd, flags, cwd, dryRun)
		},
	}

	cmd.Flags().StringVar(&cwd, "cwd", ".", "Project root")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run every stage but write nothing")
	config.AddFlags(cmd.Flags())

	return cmd
}

func runGen(cmd *cobra.Command, flags *globalFlags, cwd string, dryRun bool) error {
	p := newPrinter(cmd, flags)

	cfg, err := config.Load(cwd, cmd.Flags())
	if err != nil {
		return err
	}

	opts := cfg.Options()
	opts.DryRun = dryRun
	// Warnings are printed from the result; the log only serves --verbose.
	logOut := io.Discard
	if flags.verbose {
		logOut = cmd.ErrOrStderr()
	}
	opts.Logger = newLogger(logOut, flags, slog.LevelWarn)
	opts.Middleware = []pages.Middleware{middleware.OpenTelemetry()}

	if path := cfg.Path(); path != "" {
		p.info("Using %s", relTo(cfg.Cwd(), path))
	}
	p.info("Scanning %s...", relTo(cfg.Cwd(), cfg.PagesPath()))

	res, err := pages.Generate(cmd.Context(), opts)
	if err != nil {
		return err
	}

	p.info("Found %d pages in %d sub-packages", len(res.Pages), len(res.SubBundles))
	reportWarnings(p, cfg, res)

	if dryRun {
		p.success("Dry run, nothing written")
		cmd.OutOrStdout().Write(res.PagesModule)
		return nil
	}

	p.success("Updated %s", relTo(cfg.Cwd(), res.AppConfigPath))
	p.success("Generated %s", relTo(cfg.Cwd(), res.PagesModulePath))
	return nil
}

// reportWarnings prints the problems a run survived: marker regions that
// were not found and route names that overwrote each other.
func reportWarnings(p *printer, cfg *config.Config, res *pages.Result) {
	file := relTo(cfg.Cwd(), res.AppConfigPath)
	if res.Regions.Pages == 0 {
		p.warn("No %s markers in %s, page list not written", pages.PagesRegion.Name, file)
	}
	if cfg.SubPackages && res.Regions.SubPackages == 0 {
		p.warn("No %s markers in %s, sub-packages not written", pages.SubPackagesRegion.Name, file)
	}
	for _, c := range res.Collisions {
		switch {
		case c.Route == "":
			p.warn("Name %s now holds nested pages, %s is unreachable", c.Key, c.Previous)
		case c.Previous == "":
			p.warn("Name %s now points to %s, its nested pages are unreachable", c.Key, c.Route)
		default:
			p.warn("Name %s now points to %s, %s is unreachable", c.Key, c.Route, c.Previous)
		}
	}
}

// relTo returns path relative to root, or path itself if it is not below root.
func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
