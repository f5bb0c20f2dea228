// Package webserver provides the server-rendered recipe catalog frontend
package webserver

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/econutri/tracker/internal/infrastructure/config"
	"github.com/econutri/tracker/internal/infrastructure/http/middleware"
	"github.com/econutri/tracker/internal/infrastructure/monitoring"
	"github.com/econutri/tracker/internal/infrastructure/session"
	"github.com/econutri/tracker/internal/ports/inbound"
	"github.com/econutri/tracker/pkg/healthcheck"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

//go:embed static
var staticFS embed.FS

const assetPrefix = "/assets/"

// compressedTypes are the content types run through the compressor
var compressedTypes = []string{
	"text/html",
	"text/css",
	"text/javascript",
	"application/javascript",
	"application/json",
}

// Options holds the optional collaborators of the web server. Nil members
// disable the matching feature.
type Options struct {
	Health  *healthcheck.HealthCheck
	Metrics *monitoring.MetricsCollector
	Tracing *monitoring.TracingProvider
	Limiter *middleware.RateLimiter
}

// WebServer serves the recipe catalog
type WebServer struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	handler  http.Handler
	opts     Options
	listener net.Listener
}

// NewWebServer creates a new web frontend server instance
func NewWebServer(
	cfg *config.Config,
	log *zap.Logger,
	service inbound.RecipeService,
	sessions *session.Manager,
	renderer *Renderer,
	opts Options,
) (*WebServer, error) {
	log = log.Named("webserver")

	recipes := newRecipeController(service, opts.Metrics)
	api := &apiController{service: service}
	routes := RouteTable{
		"receta": recipes.actions(),
		"api":    api.actions(),
	}
	dispatcher := NewDispatcher(routes, sessions, renderer, opts.Metrics, log)

	s := &WebServer{
		config: cfg,
		logger: log,
		opts:   opts,
	}

	router, err := s.setupRoutes(dispatcher)
	if err != nil {
		return nil, err
	}

	s.handler = router
	if opts.Tracing != nil {
		s.handler = opts.Tracing.Middleware("econutri-web")(router)
	}

	s.server = &http.Server{
		Addr:           cfg.Address(),
		Handler:        s.handler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return s, nil
}

// setupRoutes configures middleware and routes
func (s *WebServer) setupRoutes(dispatcher *Dispatcher) (*chi.Mux, error) {
	cfg := s.config
	r := chi.NewRouter()

	if cfg.Server.BehindProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger,
		cfg.Monitoring.HealthCheckPath,
		cfg.Monitoring.ReadinessPath,
		cfg.Monitoring.LivenessPath,
		cfg.Monitoring.MetricsPath,
	))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Security(assetPrefix))

	if s.opts.Metrics != nil {
		r.Use(s.opts.Metrics.HTTPMiddleware)
	}

	if s.opts.Limiter != nil {
		if s.opts.Metrics != nil {
			s.opts.Limiter.OnLimited = s.opts.Metrics.RateLimited
		}
		r.Use(s.opts.Limiter.Middleware)
	}

	if cfg.Server.EnableCompression {
		comp := chimw.NewCompressor(5, compressedTypes...)
		comp.SetEncoder("br", func(w io.Writer, level int) io.Writer {
			return brotli.NewWriterLevel(w, level)
		})
		r.Use(comp.Handler)
	}

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("open embedded assets: %w", err)
	}
	r.Handle(assetPrefix+"*", http.StripPrefix(assetPrefix, http.FileServer(http.FS(static))))
	r.Get("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	if s.opts.Health != nil {
		r.Get(cfg.Monitoring.HealthCheckPath, s.opts.Health.Handler())
		r.Get(cfg.Monitoring.ReadinessPath, s.opts.Health.ReadinessHandler())
		r.Get(cfg.Monitoring.LivenessPath, s.opts.Health.LivenessHandler())
	}

	if s.opts.Metrics != nil && cfg.Monitoring.EnableMetrics {
		r.Handle(cfg.Monitoring.MetricsPath, s.opts.Metrics.Handler())
	}

	r.Handle("/", dispatcher)
	r.Handle("/*", dispatcher)

	return r, nil
}

// Handler returns the fully wrapped HTTP handler
func (s *WebServer) Handler() http.Handler {
	return s.handler
}

// Addr returns the bound address once Start has succeeded
func (s *WebServer) Addr() string {
	if s.listener == nil {
		return s.server.Addr
	}
	return s.listener.Addr().String()
}

// Start binds the listen address and serves in the background
func (s *WebServer) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}
	s.listener = ln

	s.logger.Info("Starting web server",
		zap.String("address", ln.Addr().String()),
		zap.String("environment", s.config.App.Environment),
	)

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Web server stopped unexpectedly", zap.Error(err))
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the web server
func (s *WebServer) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down web server...")
	start := time.Now()

	err := s.server.Shutdown(ctx)

	s.logger.Info("Web server stopped", zap.Duration("duration", time.Since(start)))
	return err
}
