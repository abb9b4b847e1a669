package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yme-dev/pagegen/internal/config"
	"github.com/yme-dev/pagegen/internal/dev"
	"github.com/yme-dev/pagegen/internal/errors"
	"github.com/yme-dev/pagegen/pkg/middleware"
	"github.com/yme-dev/pagegen/pkg/pages"
)

func watchCmd(flags *globalFlags) *cobra.Command {
	var cwd string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate whenever pages change",
		Long: `Run the generator once, then watch the pages directory and run it
again on every added, changed or removed page until interrupted.

A failed run is reported and watching continues.

With --addr, an HTTP server exposes:
  /metrics              Prometheus metrics
  /healthz              liveness
  /_pagegen/events      WebSocket stream of run events
  /_pagegen/status      last run as JSON
  /_pagegen/regenerate  POST to force a run

Examples:
  pagegen watch
  pagegen watch --debounce 250ms
  pagegen watch --addr :9464`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, flags, cwd)
		},
	}

	cmd.Flags().StringVar(&cwd, "cwd", ".", "Project root")
	config.AddFlags(cmd.Flags())
	config.AddWatchFlags(cmd.Flags())

	return cmd
}

func runWatch(cmd *cobra.Command, flags *globalFlags, cwd string) error {
	p := newPrinter(cmd, flags)

	cfg, err := config.Load(cwd, cmd.Flags())
	if err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := dev.NewServer(dev.ServerOptions{
		Config: cfg,
		Logger: newLogger(cmd.ErrOrStderr(), flags, slog.LevelWarn),
		Middleware: []pages.Middleware{
			middleware.Prometheus(),
			middleware.OpenTelemetry(),
		},
		OnRegenerate: func(res *pages.Result, err error) {
			if err != nil {
				p.errorMsg("Generation failed, still watching")
				errors.Fprint(p.errOut, err)
				return
			}
			p.success("Generated %d pages in %d sub-packages", len(res.Pages), len(res.SubBundles))
		},
	})

	p.info("Watching %s", relTo(cfg.Cwd(), cfg.PagesPath()))
	if cfg.Watch.Addr != "" {
		p.info("Serving on %s", cfg.Watch.Addr)
	}

	if err := server.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintln(p.out)
	p.info("Stopped")
	return nil
}
