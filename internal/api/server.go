package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pneumonia-cds-server/internal/domain"
	"github.com/pneumonia-cds-server/internal/feedback"
	"github.com/pneumonia-cds-server/internal/middleware"
	"github.com/pneumonia-cds-server/internal/service"
)

// HealthProbe reports the state of one dependency. A nil error means the
// dependency is reachable.
type HealthProbe func(ctx context.Context) error

// Server represents the HTTP server
type Server struct {
	config   *domain.Config
	analysis *service.AnalysisService
	feedback feedback.Store
	probes   map[string]HealthProbe
	log      *logrus.Logger
	router   *gin.Engine
	server   *http.Server
}

// NewServer creates a new HTTP server instance. The feedback store may be
// nil; the feedback endpoints then return 503.
func NewServer(cfg *domain.Config, analysis *service.AnalysisService, store feedback.Store, log *logrus.Logger) *Server {
	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.AuditLogger())
	router.Use(middleware.RateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst))
	router.Use(corsMiddleware())

	server := &Server{
		config:   cfg,
		analysis: analysis,
		feedback: store,
		probes:   make(map[string]HealthProbe),
		log:      log,
		router:   router,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// AddHealthProbe registers a dependency check reported by /health. Must be
// called before Start.
func (s *Server) AddHealthProbe(name string, probe HealthProbe) {
	s.probes[name] = probe
}

// Router exposes the configured handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.config.Server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.handleHealth)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/analyze", s.handleAnalyze)
		v1.POST("/score", s.handleScore)
		v1.POST("/risk", s.handleRisk)
		v1.POST("/recommendation", s.handleRecommendation)
		v1.GET("/analysis/:reference", s.handleGetAnalysis)
		v1.GET("/analyses", s.handleListAnalyses)
		v1.DELETE("/analyses", s.handlePruneAnalyses)
		v1.GET("/stats", s.handleStats)
		v1.POST("/feedback", s.handleSaveFeedback)
		v1.GET("/feedback", s.handleListFeedback)
	}
}

// handleHealth handles health check requests. Registered probes are run with
// a short timeout; any failure degrades the overall status.
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	code := http.StatusOK
	checks := gin.H{}
	for name, probe := range s.probes {
		if err := probe(ctx); err != nil {
			checks[name] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
		} else {
			checks[name] = "ok"
		}
	}

	resp := gin.H{
		"status":    status,
		"timestamp": time.Now(),
		"version":   "1.0.0",
	}
	if len(checks) > 0 {
		resp["checks"] = checks
	}
	c.JSON(code, resp)
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-API-Key")
		c.Header("Access-Control-Expose-Headers", "Content-Length")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
