package httpapi

import (
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"

	"github.com/fyrsmithlabs/vectord/internal/embeddings"
	"github.com/fyrsmithlabs/vectord/internal/vectorstore"
)

// CapabilitiesResponse is the body for GET /capabilities.
type CapabilitiesResponse struct {
	Service         string                  `json:"service"`
	Version         string                  `json:"version"`
	VectorDimension uint64                  `json:"vector_dimension"`
	Embedding       embeddings.Capabilities `json:"embedding"`
}

// StatsResponse is the body for GET /stats.
type StatsResponse struct {
	Upserts  uint64 `json:"upserts"`
	Searches uint64 `json:"searches"`
	Deletes  uint64 `json:"deletes"`
	Uptime   string `json:"uptime"`
}

// ServiceInfoResponse is the body for GET /service/info.
type ServiceInfoResponse struct {
	Service    string                       `json:"service"`
	Version    string                       `json:"version"`
	GoVersion  string                       `json:"go_version"`
	Status     string                       `json:"status"`
	Embedding  embeddings.Capabilities      `json:"embedding"`
	Collection *vectorstore.CollectionStats `json:"collection"`
	Stats      StatsResponse                `json:"stats"`
}

// handleCapabilities reports service version, vector dimensions, and the
// embedding backend. Lightweight and cacheable: it never calls the engine.
func (s *Server) handleCapabilities(c echo.Context) error {
	caps := s.embedder.Capabilities()
	c.Response().Header().Set("Cache-Control", "public, max-age=30")
	return c.JSON(http.StatusOK, CapabilitiesResponse{
		Service:         "vectord",
		Version:         s.config.Version,
		VectorDimension: caps.Dimension,
		Embedding:       caps,
	})
}

func (s *Server) handleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.statsSnapshot())
}

func (s *Server) handleStatsReset(c echo.Context) error {
	snapshot := s.statsSnapshot()
	if s.tracker != nil {
		s.tracker.Reset()
	}
	// Return the window that was just closed.
	return c.JSON(http.StatusOK, snapshot)
}

func (s *Server) statsSnapshot() StatsResponse {
	if s.tracker == nil {
		return StatsResponse{Uptime: "0m"}
	}
	snap := s.tracker.Snapshot()
	return StatsResponse{
		Upserts:  snap.Upserts,
		Searches: snap.Searches,
		Deletes:  snap.Deletes,
		Uptime:   snap.FormatUptime(),
	}
}

func (s *Server) handleServiceInfo(c echo.Context) error {
	info, err := s.memories.CollectionInfo(c.Request().Context(), "")
	if err != nil {
		return writeError(c, s.logger, err)
	}

	return c.JSON(http.StatusOK, ServiceInfoResponse{
		Service:    "vectord",
		Version:    s.config.Version,
		GoVersion:  runtime.Version(),
		Status:     "healthy",
		Embedding:  s.embedder.Capabilities(),
		Collection: info,
		Stats:      s.statsSnapshot(),
	})
}
