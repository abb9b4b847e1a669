// Package dev provides watch mode: it re-runs the generation pipeline
// whenever the pages directory changes.
//
// This package implements:
//   - Recursive file watching with debounced change batches
//   - Serialized, coalesced pipeline runs
//   - An optional HTTP endpoint with metrics and a WebSocket event stream
//
// # Architecture
//
// The watch server consists of several components:
//
//   - Watcher: Monitors the pages directory through fsnotify
//   - Server: Filters changes and runs pages.Generate, one run at a time
//   - EventHub: Publishes the outcome of every run to WebSocket subscribers
//
// Only the pages directory is watched. The app config document and the
// generated module are outputs; watching them would retrigger every run.
//
// # Usage
//
//	cfg, err := config.Load(".", nil)
//	if err != nil {
//	    return err
//	}
//
//	srv := dev.NewServer(dev.ServerOptions{
//	    Config:     cfg,
//	    Middleware: []pages.Middleware{middleware.Prometheus()},
//	})
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//
// A failed run does not stop watch mode. It is logged, published, and the
// next change triggers a fresh run.
//
// # Event Protocol
//
// Subscribers connect to /_pagegen/events via WebSocket and receive the
// last event on connect. Messages are JSON-encoded:
//
//	{"type": "regenerated", "pages": 4, "subPackages": 2, "files": [...]}
//	{"type": "error", "code": "E202", "stage": "read-config", "error": "..."}
package dev
