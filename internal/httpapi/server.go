// Package httpapi provides the HTTP API for vectord.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/vectord/internal/embeddings"
	"github.com/fyrsmithlabs/vectord/internal/stats"
	"github.com/fyrsmithlabs/vectord/internal/vectorstore"
)

// MemoryStore is the memory operation surface the server exposes.
type MemoryStore interface {
	Upsert(ctx context.Context, stringID string, vector []float32, record vectorstore.MemoryRecord, namespace string) error
	Get(ctx context.Context, stringID string, namespace string) (*vectorstore.MemoryRecord, error)
	Delete(ctx context.Context, stringID string, namespace string) error
	Search(ctx context.Context, queryVector []float32, userID int64, category string, limit uint64, minScore float32, namespace string) ([]vectorstore.MemorySearchResult, error)
	Scroll(ctx context.Context, userID int64, category string, limit uint32, namespace string) ([]vectorstore.MemoryListEntry, error)
	CollectionInfo(ctx context.Context, namespace string) (*vectorstore.CollectionStats, error)
}

// DocumentStore is the document operation surface the server exposes.
type DocumentStore interface {
	Upsert(ctx context.Context, stringID string, vector []float32, chunk vectorstore.ChunkRecord) error
	BatchUpsert(ctx context.Context, items []vectorstore.ChunkUpsert) (*vectorstore.BatchResult, error)
	Search(ctx context.Context, queryVector []float32, userID int64, groupKey string, limit uint64, minScore float32) ([]vectorstore.ChunkSearchResult, error)
	Get(ctx context.Context, stringID string) (*vectorstore.ChunkWithVector, error)
	DeleteByID(ctx context.Context, stringID string) error
	DeleteByFile(ctx context.Context, userID, fileID int64) (uint64, error)
	DeleteByGroupKey(ctx context.Context, userID int64, groupKey string) (uint64, error)
	DeleteAllForOwner(ctx context.Context, userID int64) (uint64, error)
	ReassignGroupKey(ctx context.Context, userID, fileID int64, newGroupKey string) (uint64, error)
	GetStats(ctx context.Context, userID int64) (*vectorstore.OwnerStats, error)
	GetGroupKeys(ctx context.Context, userID int64) ([]string, error)
}

// HealthChecker reports engine reachability.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// APIKey, when set, gates every route except health and metrics behind
	// a bearer token or X-API-Key header.
	APIKey string

	// MaxBatchSize caps batch upsert requests. Zero means the default of
	// 100 items.
	MaxBatchSize int

	// Version is reported by the capabilities and service info endpoints.
	Version string
}

// Server provides the vectord HTTP endpoints.
type Server struct {
	echo     *echo.Echo
	logger   *zap.Logger
	config   *Config
	memories MemoryStore
	docs     DocumentStore
	health   HealthChecker
	tracker  *stats.Tracker
	embedder embeddings.Embedder
}

// NewServer creates the HTTP server with all routes registered.
func NewServer(memories MemoryStore, docs DocumentStore, health HealthChecker, tracker *stats.Tracker, embedder embeddings.Embedder, logger *zap.Logger, cfg *Config) (*Server, error) {
	if memories == nil || docs == nil {
		return nil, fmt.Errorf("stores are required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Port: 8090}
	}
	if embedder == nil {
		embedder = embeddings.NewNoneEmbedder(0)
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 100
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})
	e.Use(requestMetrics())

	s := &Server{
		echo:     e,
		logger:   logger,
		config:   cfg,
		memories: memories,
		docs:     docs,
		health:   health,
		tracker:  tracker,
		embedder: embedder,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	// Public routes.
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/capabilities", s.handleCapabilities)

	// Everything else requires the API key when one is configured.
	protected := s.echo.Group("", requireAPIKey(s.config.APIKey))

	protected.POST("/memories", s.handleUpsertMemory)
	protected.POST("/memories/batch", s.handleBatchUpsertMemories)
	protected.POST("/memories/search", s.handleSearchMemories)
	protected.POST("/memories/scroll", s.handleScrollMemories)
	protected.GET("/memories/:point_id", s.handleGetMemory)
	protected.DELETE("/memories/:point_id", s.handleDeleteMemory)
	protected.GET("/collection/info", s.handleCollectionInfo)

	protected.POST("/documents", s.handleUpsertDocument)
	protected.POST("/documents/batch", s.handleBatchUpsertDocuments)
	protected.POST("/documents/search", s.handleSearchDocuments)
	protected.POST("/documents/delete/file", s.handleDeleteByFile)
	protected.POST("/documents/delete/group", s.handleDeleteByGroup)
	protected.POST("/documents/delete/all", s.handleDeleteAllForOwner)
	protected.POST("/documents/reassign", s.handleReassignGroupKey)
	protected.GET("/documents/stats", s.handleDocumentStats)
	protected.GET("/documents/groups", s.handleDocumentGroups)
	protected.GET("/documents/:point_id", s.handleGetDocument)
	protected.DELETE("/documents/:point_id", s.handleDeleteDocument)

	protected.GET("/service/info", s.handleServiceInfo)
	protected.GET("/stats", s.handleStats)
	protected.POST("/stats/reset", s.handleStatsReset)
}

// healthResponse is the body for GET /health.
type healthResponse struct {
	Status string `json:"status"`
	Engine string `json:"engine"`
}

func (s *Server) handleHealth(c echo.Context) error {
	engine := "connected"
	status := "healthy"
	if s.health != nil {
		if err := s.health.Health(c.Request().Context()); err != nil {
			engine = "disconnected"
			status = "unhealthy"
		}
	}
	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, healthResponse{Status: status, Engine: engine})
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

// Handler exposes the routing tree, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
