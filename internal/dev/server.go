package dev

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yme-dev/pagegen/internal/config"
	"github.com/yme-dev/pagegen/internal/errors"
	"github.com/yme-dev/pagegen/pkg/middleware"
	"github.com/yme-dev/pagegen/pkg/pages"
)

// ServerOptions configures the watch server.
type ServerOptions struct {
	// Config is the resolved configuration.
	Config *config.Config

	// Logger receives run and watch records.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// Middleware wraps every pipeline stage.
	Middleware []pages.Middleware

	// Gatherer is served on /metrics.
	// Default: prometheus.DefaultGatherer
	Gatherer prometheus.Gatherer

	// OnRegenerate is called after every run, from the run goroutine.
	OnRegenerate func(res *pages.Result, err error)
}

// Server re-runs the pipeline whenever pages change, and optionally serves
// metrics and run events over HTTP.
type Server struct {
	config     *config.Config
	options    ServerOptions
	log        *slog.Logger
	watcher    *Watcher
	events     *EventHub
	changeCh   chan []Change
	httpServer *http.Server
	listener   net.Listener
	mu         sync.Mutex
	running    bool
}

// NewServer creates a new watch server.
func NewServer(options ServerOptions) *Server {
	cfg := options.Config
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Gatherer == nil {
		options.Gatherer = prometheus.DefaultGatherer
	}

	watcher := NewWatcher(WatcherConfig{
		Paths:    CollectWatchPaths(cfg),
		Ignore:   CollectIgnore(cfg),
		Debounce: cfg.Watch.Debounce,
		Logger:   options.Logger,
	})

	return &Server{
		config:   cfg,
		options:  options,
		log:      options.Logger,
		watcher:  watcher,
		events:   NewEventHub(),
		changeCh: make(chan []Change, 16),
	}
}

// Start runs the pipeline once, then watches until ctx is done. A failed run
// is logged and published; only a watch or listen failure ends Start early.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	// Initial run
	s.Regenerate(ctx, nil)

	s.watcher.OnChange(func(batch []Change) {
		select {
		case s.changeCh <- batch:
		default:
			// A run is already queued and will rescan everything.
		}
	})

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- s.watcher.Start(ctx)
	}()
	go s.processChanges(ctx)

	httpErr := make(chan error, 1)
	if addr := s.config.Watch.Addr; addr != "" {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			s.Stop()
			return errors.New("E141").WithPath(addr).Wrap(err)
		}
		s.mu.Lock()
		s.listener = ln
		s.httpServer = &http.Server{
			Handler:           s.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		srv := s.httpServer
		s.mu.Unlock()

		s.log.Info("serving", "addr", ln.Addr().String())
		go func() {
			if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
				httpErr <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		s.Stop()
		return nil
	case err := <-watchErr:
		s.Stop()
		if err != nil && ctx.Err() == nil {
			return errors.New(errors.CodeDiscovery).
				WithStage("watch").
				WithPath(s.config.PagesPath()).
				Wrap(err)
		}
		return nil
	case err := <-httpErr:
		s.Stop()
		return errors.New("E141").Wrap(err)
	}
}

// Stop stops the watch server.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.running = false
	s.watcher.Stop()
	s.events.Close()

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(ctx)
	}
}

// Addr returns the address the HTTP server listens on, or "" if none.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Ready is closed once the pages directory is being watched, or once the
// watch failed to start; Start then returns the error.
func (s *Server) Ready() <-chan struct{} {
	return s.watcher.Ready()
}

// Events returns the event hub runs are published to.
func (s *Server) Events() *EventHub {
	return s.events
}

// Handler returns the HTTP handler:
//
//	GET  /healthz               liveness
//	GET  /metrics               Prometheus metrics
//	GET  /_pagegen/events       WebSocket stream of run events
//	GET  /_pagegen/status       last run event as JSON
//	POST /_pagegen/regenerate   queue a run
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.options.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/_pagegen", func(r chi.Router) {
		r.Get("/events", s.events.HandleWebSocket)
		r.Get("/status", s.handleStatus)
		r.Post("/regenerate", s.handleRegenerate)
	})

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ev, ok := s.events.Last()
	if !ok {
		http.Error(w, "no run yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ev)
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	select {
	case s.changeCh <- nil:
	default:
	}
	w.WriteHeader(http.StatusAccepted)
}

// processChanges serializes runs and coalesces bursts: batches that queued up
// while a run was in progress are merged into a single run.
func (s *Server) processChanges(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch := <-s.changeCh:
			changes := batch
			forced := batch == nil
			draining := true
			for draining {
				select {
				case next := <-s.changeCh:
					changes = append(changes, next...)
					forced = forced || next == nil
				default:
					draining = false
				}
			}
			s.handleChanges(ctx, changes, forced)
		}
	}
}

// handleChanges runs the pipeline if any change can affect the outputs.
func (s *Server) handleChanges(ctx context.Context, changes []Change, forced bool) {
	var changed []string
	for _, change := range changes {
		if s.isRelevant(change) {
			s.log.Debug("changed", "event", change.Type.String(), "path", change.Path)
			changed = append(changed, change.Path)
		}
	}

	if len(changed) == 0 && !forced {
		return
	}
	s.Regenerate(ctx, changed)
}

// isRelevant reports whether a change can add, remove or touch a page: a page
// file itself, a new directory (it may hold pages) or any removal (a removed
// directory may have held pages).
func (s *Server) isRelevant(change Change) bool {
	if change.IsDir || change.Type == ChangeRemove {
		return true
	}
	return filepath.Base(change.Path) == s.config.ResolvedPageName()
}

// Regenerate runs the pipeline once and publishes the outcome.
func (s *Server) Regenerate(ctx context.Context, changed []string) (*pages.Result, error) {
	opts := s.config.Options()
	opts.Logger = s.log
	opts.Middleware = s.options.Middleware

	start := time.Now()
	res, err := pages.Generate(ctx, opts)
	middleware.RecordRegeneration(err)

	if err != nil {
		s.log.Error("generation failed",
			"code", errors.CodeOf(err),
			"stage", errors.StageOf(err),
			"error", err,
		)
	} else {
		s.log.Info("regenerated",
			"pages", len(res.Pages),
			"subPackages", len(res.SubBundles),
			"duration", time.Since(start).Round(time.Millisecond),
		)
	}

	s.events.Publish(NewEvent(res, err, changed))
	if s.options.OnRegenerate != nil {
		s.options.OnRegenerate(res, err)
	}
	return res, err
}
