package server

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/filedeck/internal/api/http"
	"github.com/GriffinCanCode/filedeck/internal/api/middleware"
	"github.com/GriffinCanCode/filedeck/internal/api/ws"
	"github.com/GriffinCanCode/filedeck/internal/domain/command"
	"github.com/GriffinCanCode/filedeck/internal/domain/persistence"
	"github.com/GriffinCanCode/filedeck/internal/infrastructure/config"
	"github.com/GriffinCanCode/filedeck/internal/infrastructure/logging"
	"github.com/GriffinCanCode/filedeck/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/filedeck/internal/infrastructure/storage"
	"github.com/GriffinCanCode/filedeck/internal/providers/fetch"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router    *gin.Engine
	srv       *nethttp.Server
	workspace *command.Workspace
	backend   storage.Backend
	logger    *logging.Logger
	config    *config.Config
	metrics   *monitoring.Metrics
	registry  *prometheus.Registry
}

// NewServer builds the workspace from cfg and mounts the API on a router.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		l, err := logging.New(logging.Config{Level: cfg.Logging.Level, OutputPaths: []string{"stdout"}})
		if err != nil {
			return nil, fmt.Errorf("failed to build logger: %w", err)
		}
		logger = l
	}

	logger.Info("Initializing FileDeck",
		zap.String("addr", cfg.Addr()),
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.String("storage_path", cfg.Storage.Path),
		zap.String("public_url", cfg.Server.PublicURL),
	)

	// Metrics first; the adapter and workspace report into them.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(registry)

	backend, err := storage.Open(storage.Options{
		Driver: storage.Driver(cfg.Storage.Driver),
		Path:   cfg.Storage.Path,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	fetchOpts := fetch.DefaultOptions()
	fetchOpts.Timeout = cfg.Fetch.Timeout.Std()
	fetchOpts.Retries = cfg.Fetch.Retries
	fetchOpts.MaxBytes = cfg.Fetch.MaxBytes

	adapter, err := persistence.NewAdapter(backend, persistence.Options{
		Key:       cfg.Storage.Key,
		PublicURL: cfg.Server.PublicURL,
		Fetcher:   fetch.NewClient(fetchOpts),
		Logger:    logger.Component("persistence"),
		Recorder:  metrics,
	})
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to create persistence adapter: %w", err)
	}

	workspace, source, err := command.Open(ctx, adapter, "", command.Options{
		Logger:   logger.Component("workspace"),
		Recorder: metrics,
	})
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to open workspace: %w", err)
	}
	logger.Info("Tree loaded", zap.String("source", string(source)))

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Component("http")))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	http.NewHandlers(workspace, metrics, logger.Component("api")).Register(router)
	router.GET("/ws", ws.NewHandler(workspace, metrics, logger.Component("ws")).HandleConnection)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	logger.Info("Server initialized successfully")

	srv := &nethttp.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{
		router:    router,
		srv:       srv,
		workspace: workspace,
		backend:   backend,
		logger:    logger,
		config:    cfg,
		metrics:   metrics,
		registry:  registry,
	}, nil
}

// Handler exposes the router, for tests.
func (s *Server) Handler() nethttp.Handler {
	return s.router
}

// Workspace returns the workspace the server drives.
func (s *Server) Workspace() *command.Workspace {
	return s.workspace
}

// Run serves until Shutdown is called or the listener fails.
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then closes the store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	var errs []error
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP shutdown failed", zap.Error(err))
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	if err := s.backend.Close(); err != nil {
		s.logger.Error("Failed to close storage", zap.Error(err))
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	} else {
		s.logger.Info("Closed storage")
	}

	_ = s.logger.Sync()
	return errors.Join(errs...)
}
