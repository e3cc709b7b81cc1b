// Package serve runs the live viewer: an HTTP API, a canvas page and a
// websocket hub that streams engine frames and accepts viewer commands.
package serve

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/msalah0e/kgviz/internal/engine"
	"github.com/msalah0e/kgviz/internal/graph"
	"github.com/msalah0e/kgviz/internal/logging"
	"github.com/msalah0e/kgviz/internal/metrics"
	"github.com/msalah0e/kgviz/internal/render"
	"github.com/msalah0e/kgviz/internal/source"
)

//go:embed viewer.html
var viewerPage []byte

// ErrStopped is returned for requests made after the engine loop ended.
var ErrStopped = errors.New("engine stopped")

// Options configures the viewer server.
type Options struct {
	Addr           string
	AllowedOrigins []string
	Engine         engine.Options
	// Source is fetched on start and on reload; nil starts empty.
	Source source.Source
	// WatchPath, when set, reloads the source whenever the file changes.
	WatchPath string
}

// Server owns one engine and serves it to any number of viewers.
type Server struct {
	opts    Options
	eng     *engine.Engine
	hub     *Hub
	metrics *metrics.Collector
	logger  *zap.Logger

	cmds     chan engine.Command
	stopped  <-chan struct{}
	router   chi.Router
	upgrader websocket.Upgrader
}

// New builds the server. The engine does not run until Start or Run.
func New(opts Options, logger *zap.Logger, m *metrics.Collector) *Server {
	logger = logging.OrNop(logger)
	if m == nil {
		m = metrics.New()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	s := &Server{
		opts:    opts,
		eng:     engine.New(opts.Engine, logger.Named("engine"), m),
		hub:     NewHub(m, logger.Named("hub")),
		metrics: m,
		logger:  logger,
		cmds:    make(chan engine.Command, 64),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", s.metrics.Handler())
	r.Get("/", s.handleViewer)
	r.Get("/ws", s.handleWebSocket)

	r.Route("/api/graph", func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))
		r.Get("/stats", s.handleStats)
		r.Get("/legend", s.handleLegend)
		r.Get("/frame", s.handleFrame)
		r.Get("/nodes/{id}", s.handleNode)
		r.Get("/export.svg", s.handleExport)
		r.Post("/reload", s.handleReload)
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Clients returns the number of connected viewers.
func (s *Server) Clients() int { return s.hub.Count() }

// ─── Lifecycle ───

// Start runs the hub and the engine loop until ctx is cancelled. The
// returned channel closes once both have stopped.
func (s *Server) Start(ctx context.Context) <-chan struct{} {
	s.stopped = ctx.Done()
	done := make(chan struct{})
	go func() {
		defer close(done)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			s.hub.Run(gctx)
			return nil
		})
		g.Go(func() error {
			return s.eng.Loop(gctx, s.cmds, s.publish)
		})
		if err := g.Wait(); err != nil {
			s.logger.Error("engine loop failed", zap.Error(err))
		}
	}()
	return done
}

// Run starts everything, loads the source and serves HTTP until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopped := s.Start(ctx)

	if s.opts.Source != nil {
		if err := s.Reload(ctx); err != nil {
			s.logger.Warn("initial load failed", zap.Error(err))
		}
	}

	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("viewer listening", zap.String("addr", s.opts.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		return srv.Shutdown(shutdownCtx)
	})
	if s.opts.WatchPath != "" && s.opts.Source != nil {
		g.Go(func() error {
			return source.Watch(gctx, s.opts.WatchPath, s.logger.Named("watch"), func() {
				if err := s.Reload(gctx); err != nil {
					s.logger.Warn("reload failed", zap.Error(err))
				}
			})
		})
	}

	err := g.Wait()
	cancel()
	<-stopped
	return err
}

// Submit queues a command for the engine loop. It returns false once the
// loop has stopped.
func (s *Server) Submit(cmd engine.Command) bool {
	select {
	case s.cmds <- cmd:
		return true
	case <-s.stopped:
		return false
	}
}

// Do runs fn on the engine loop and waits for it.
func (s *Server) Do(ctx context.Context, fn func(*engine.Engine)) error {
	done := make(chan struct{})
	if !s.Submit(func(e *engine.Engine) {
		defer close(done)
		fn(e)
	}) {
		return ErrStopped
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return ErrStopped
	}
}

// Reload fetches the source and hands the result to the engine. Fetch
// errors are recorded by the engine, which keeps its previous graph.
func (s *Server) Reload(ctx context.Context) error {
	if s.opts.Source == nil {
		return errors.New("no snapshot source configured")
	}
	m, fetchErr := s.opts.Source.Fetch(ctx)
	err := s.Do(ctx, func(e *engine.Engine) {
		if fetchErr != nil {
			e.Fail(fetchErr)
			return
		}
		e.Load(m)
	})
	if err != nil {
		return err
	}
	return fetchErr
}

func (s *Server) publish(f engine.Frame) {
	data, err := json.Marshal(Envelope{Type: "frame", Frame: &f})
	if err != nil {
		s.logger.Error("encode frame", zap.Error(err))
		return
	}
	s.hub.Broadcast(data)
}

// ─── Handlers ───

func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(viewerPage)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err), zap.String("remote", r.RemoteAddr))
		return
	}
	newClient(s.hub, conn, s.Submit, s.logger.Named("client")).start()
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var st graph.Stats
	if !s.query(w, r, func(e *engine.Engine) { st = e.Model().Stats() }) {
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleLegend(w http.ResponseWriter, r *http.Request) {
	var legend []render.LegendEntry
	if !s.query(w, r, func(e *engine.Engine) { legend = render.Legend(e.Model().NodeTypes()) }) {
		return
	}
	writeJSON(w, http.StatusOK, legend)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	var f engine.Frame
	if !s.query(w, r, func(e *engine.Engine) { f = e.Frame() }) {
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var (
		d  render.Detail
		ok bool
	)
	if !s.query(w, r, func(e *engine.Engine) { d, ok = render.DetailFor(e.Model(), id) }) {
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "node not found"})
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var (
		buf bytes.Buffer
		err error
	)
	if !s.query(w, r, func(e *engine.Engine) { err = e.ExportImage(&buf) }) {
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(buf.Bytes())
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Reload(r.Context()); err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

// query runs fn on the engine loop and writes an error response if it
// could not.
func (s *Server) query(w http.ResponseWriter, r *http.Request, fn func(*engine.Engine)) bool {
	if err := s.Do(r.Context(), fn); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
