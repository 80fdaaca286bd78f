package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/settleup/internal/api/dto"
	"github.com/eshaffer321/settleup/internal/api/handlers"
	"github.com/eshaffer321/settleup/internal/api/middleware"
	"github.com/eshaffer321/settleup/internal/domain/report"
	"github.com/eshaffer321/settleup/internal/domain/worksheet"
	"github.com/eshaffer321/settleup/internal/infrastructure/storage"
)

// Config holds API server configuration.
type Config struct {
	Port            int
	AllowedOrigins  []string
	Report          report.Options
	MaxBodyBytes    int64
	MaxParticipants int
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:            8080,
		AllowedOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
		Report:          report.DefaultOptions(),
		MaxBodyBytes:    middleware.DefaultMaxBodyBytes,
		MaxParticipants: worksheet.DefaultMaxRows,
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	logger     *slog.Logger
	settler    worksheet.Settler
	sheets     *worksheet.Store
	repo       storage.Repository
}

// NewServer creates a new API server. sheets must settle with the same
// engine as settler.
func NewServer(cfg Config, settler worksheet.Settler, sheets *worksheet.Store, repo storage.Repository, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:  cfg,
		router:  gin.New(),
		logger:  logger,
		settler: settler,
		sheets:  sheets,
		repo:    repo,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.logger.Error("panic in handler", "path", c.Request.URL.Path, "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.InternalError())
	}))

	s.router.Use(middleware.RequestID())

	// CORS
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = s.config.AllowedOrigins
	s.router.Use(middleware.CORS(corsConfig))

	// Request logging
	s.router.Use(middleware.Logging(s.logger, "/health"))

	s.router.Use(middleware.BodyLimit(s.config.MaxBodyBytes))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler()
	s.router.GET("/health", healthHandler.Get)

	reporter := handlers.NewReporter(s.config.Report)

	api := s.router.Group("/api")
	{
		// One-shot settlement
		settlementsHandler := handlers.NewSettlementsHandler(s.settler, reporter, s.config.MaxParticipants, s.logger)
		api.POST("/settlements", settlementsHandler.Create)

		// Worksheets
		sheetsHandler := handlers.NewSheetsHandler(s.sheets, reporter, s.logger)
		api.POST("/sheets", sheetsHandler.Create)
		api.GET("/sheets/:id", sheetsHandler.Get)
		api.DELETE("/sheets/:id", sheetsHandler.Delete)
		api.POST("/sheets/:id/rows", sheetsHandler.AddRow)
		api.PUT("/sheets/:id/rows/:rowID", sheetsHandler.UpdateRow)
		api.DELETE("/sheets/:id/rows/:rowID", sheetsHandler.RemoveRow)
		api.POST("/sheets/:id/calculate", sheetsHandler.Calculate)
		api.GET("/sheets/:id/summary", sheetsHandler.Summary)

		// Visit counters
		visitsHandler := handlers.NewVisitsHandler(s.repo, s.logger)
		api.POST("/visits/:key", visitsHandler.Increment)
		api.GET("/visits/:key", visitsHandler.Get)

		// Run telemetry
		statsHandler := handlers.NewStatsHandler(s.repo, s.logger)
		api.GET("/stats", statsHandler.Get)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NotFoundError("route"))
	})
}

// Start starts the HTTP server. It returns nil once Shutdown is called,
// including when Shutdown ran before Start.
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// Router returns the HTTP handler for testing.
func (s *Server) Router() http.Handler {
	return s.router
}
