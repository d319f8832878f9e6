package server

import (
	"context"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/espfs/webnav/internal/errors"
	"github.com/espfs/webnav/pkg/assets"
	"github.com/espfs/webnav/pkg/middleware"
	"github.com/espfs/webnav/pkg/routepath"
	"github.com/espfs/webnav/pkg/router"
)

// Server serves the application, its assets, and the history bridge.
type Server struct {
	config   *Config
	base     string
	routes   *router.Registry
	matcher  *router.Matcher
	literal  map[string]bool
	assets   fs.FS
	manifest *assets.Manifest

	registry   *prometheus.Registry
	metrics    *middleware.Metrics
	middleware []router.Middleware

	upgrader websocket.Upgrader
	handler  http.Handler
	logger   *slog.Logger

	// ctx is canceled on shutdown to close bridge connections, which
	// http.Server.Shutdown does not track once hijacked.
	ctx     context.Context
	cancel  context.CancelFunc
	bridges sync.WaitGroup

	mu         sync.Mutex
	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithManifest sets the fingerprint manifest used for cache headers.
func WithManifest(m *assets.Manifest) Option {
	return func(s *Server) {
		s.manifest = m
	}
}

// WithRouterMiddleware adds transition middleware to every bridge router.
func WithRouterMiddleware(mw ...router.Middleware) Option {
	return func(s *Server) {
		s.middleware = append(s.middleware, mw...)
	}
}

// WithMetricsRegistry sets the registry metrics are registered with and
// served from. By default each Server has its own registry.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// New creates a Server for routes, serving files from fsys.
//
// The route table and base path are validated here; errors are
// configuration errors.
func New(config *Config, routes *router.Registry, fsys fs.FS, opts ...Option) (*Server, error) {
	config = config.withDefaults()

	base, err := routepath.NormalizeBase(config.Base)
	if err != nil {
		return nil, errors.New(errors.CodeInvalidBase).WithDetailf("%q", config.Base).Wrap(err)
	}
	if routes == nil {
		return nil, errors.New(errors.CodeEmptyRouteTable)
	}
	matcher, err := router.NewMatcher(routes)
	if err != nil {
		return nil, err
	}
	if fsys == nil {
		return nil, errors.New(errors.CodeInvalidAssets).WithDetail("no asset source")
	}

	literal := make(map[string]bool)
	for _, def := range routes.All() {
		if p, err := routepath.ParsePattern(def.Path); err == nil && p.IsLiteral() {
			literal[def.Path] = true
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:  config,
		base:    base,
		routes:  routes,
		matcher: matcher,
		literal: literal,
		assets:  fsys,
		logger:  slog.Default().With("component", "server"),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.manifest == nil {
		s.manifest = assets.NewManifest()
	}

	if config.MetricsPath != "" {
		if s.registry == nil {
			s.registry = prometheus.NewRegistry()
			s.registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
		}
		s.metrics = middleware.NewMetrics(middleware.WithRegistry(s.registry))
		s.middleware = append([]router.Middleware{s.metrics.Middleware()}, s.middleware...)
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  config.ReadBufferSize,
		WriteBufferSize: config.WriteBufferSize,
		CheckOrigin:     config.CheckOrigin,
	}
	s.handler = s.routesHandler()
	return s, nil
}

func (s *Server) routesHandler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimw.Recoverer)

	if s.config.MetricsPath != "" {
		r.Handle(s.config.MetricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	r.Get(s.BridgePath(), s.HandleBridge)
	r.Handle(s.BridgeScriptPath(), http.HandlerFunc(s.serveBridgeClient))
	r.NotFound(s.serveApp)
	r.MethodNotAllowed(s.serveApp)
	return r
}

// requestLogger logs one line per request with the chi request id.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chimw.GetReqID(r.Context()),
				"remote", r.RemoteAddr)
		})
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Base returns the normalized base path.
func (s *Server) Base() string {
	return s.base
}

// BridgePath returns the browser-visible bridge endpoint.
func (s *Server) BridgePath() string {
	return routepath.JoinBase(s.base, s.config.BridgePath)
}

// BridgeScriptPath returns the browser-visible path of the bridge client script.
func (s *Server) BridgeScriptPath() string {
	return s.BridgePath() + ".js"
}

// Metrics returns the server's collectors, or nil when metrics are disabled.
func (s *Server) Metrics() *middleware.Metrics {
	return s.metrics
}

// Run listens on the configured address and serves until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		ReadTimeout:       s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String(), "base", s.base)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return err
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes bridge connections and gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.cancel()

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	done := make(chan struct{})
	go func() {
		s.bridges.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("bridge connections still open after shutdown timeout")
		return ctx.Err()
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}
