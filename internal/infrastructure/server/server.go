package server

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/codearena/backend/internal/api/http"
	"github.com/codearena/backend/internal/api/middleware"
	"github.com/codearena/backend/internal/api/ws"
	"github.com/codearena/backend/internal/infrastructure/config"
	"github.com/codearena/backend/internal/infrastructure/logging"
	"github.com/codearena/backend/internal/infrastructure/monitoring"
	"github.com/codearena/backend/internal/infrastructure/tracing"
	"github.com/codearena/backend/internal/sandbox"
	"github.com/codearena/backend/internal/secure/crypto"
	"github.com/codearena/backend/internal/secure/runner"
	"github.com/codearena/backend/internal/secure/sanitize"
	"github.com/codearena/backend/internal/secure/store"
	"github.com/codearena/backend/internal/validate"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	store    *store.Store
	executor *sandbox.Executor
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics

	rotateCancel context.CancelFunc
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	// Initialize logger
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing challenge execution server",
		zap.String("port", cfg.Server.Port),
		zap.String("strategy", cfg.Sandbox.DefaultStrategy),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.NewMetrics()
	logger.Info("Performance monitoring initialized")

	// Initialize request tracing
	tracer := tracing.New("backend", logger.Logger)
	logger.Info("Request tracing initialized")

	// Initialize the encrypted test-case store
	testStore, err := store.New(store.Config{
		KeyRotationInterval: cfg.Security.RotationInterval(),
		AuditLogCap:         cfg.Security.AuditLogCap,
	}, crypto.NewProvider(), logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize test-case store: %w", err)
	}

	// Start background key rotation
	rotateCtx, rotateCancel := context.WithCancel(context.Background())
	testStore.StartRotation(rotateCtx)
	logger.Info("Key rotation scheduled",
		zap.Duration("interval", cfg.Security.RotationInterval()),
	)

	// Initialize the sandbox executor
	executor := sandbox.New(sandbox.Config{
		PoolSize:        cfg.Sandbox.PoolSize,
		DefaultLimits:   cfg.Sandbox.Limits(),
		DefaultStrategy: cfg.Sandbox.Strategy(),
	}, logger, metrics)
	logger.Info("Sandbox executor initialized",
		zap.Int("pool_size", cfg.Sandbox.PoolSize),
	)

	// Assemble the secure runner
	testRunner := runner.New(testStore, sanitize.New(), validate.New(), logger)
	env := runner.NewSandboxEnvironment(executor, cfg.Sandbox.Limits(), cfg.Sandbox.Strategy())

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	// Create handlers
	aggregator := apihttp.NewPerfAggregator()
	handlers := apihttp.NewHandlers(testRunner, env, metrics, aggregator, logger)
	wsHandler := ws.NewHandler(testRunner, env, metrics, logger)

	// Register routes
	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Test-case management and execution
	router.POST("/challenges/:id/tests", handlers.InitializeTests)
	router.GET("/challenges/:id/tests", handlers.ListTests)
	router.POST("/challenges/:id/run", handlers.RunTests)

	// Security introspection
	router.GET("/challenges/:id/audit", handlers.AuditLog)
	router.GET("/security/metrics", handlers.SecurityMetrics)
	router.GET("/security/integrity", handlers.Integrity)

	// WebSocket
	router.GET("/stream", wsHandler.HandleConnection)

	// Metrics endpoints
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/metrics/performance", handlers.Performance)

	logger.Info("Server initialized successfully")

	return &Server{
		router:       router,
		store:        testStore,
		executor:     executor,
		logger:       logger,
		config:       cfg,
		metrics:      metrics,
		rotateCancel: rotateCancel,
	}, nil
}

// Run starts the HTTP server
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Router exposes the underlying engine, primarily for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	s.rotateCancel()
	s.executor.Close()
	s.store.Close()

	// Sync logger before exit
	s.logger.Sync()

	return nil
}
