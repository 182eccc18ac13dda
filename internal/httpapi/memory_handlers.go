package httpapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/vectord/internal/vectorstore"
)

// scrollLimitMax caps scroll requests so one call cannot pull an unbounded
// result set into memory.
const scrollLimitMax = 10000

// UpsertMemoryRequest is the body for POST /memories.
type UpsertMemoryRequest struct {
	PointID string    `json:"point_id"`
	Vector  []float32 `json:"vector,omitempty"`
	// Text is embedded server-side when no vector is supplied. Requires an
	// embedding backend.
	Text      string                   `json:"text,omitempty"`
	Payload   vectorstore.MemoryRecord `json:"payload"`
	Namespace string                   `json:"namespace,omitempty"`
}

// UpsertMemoryResponse is the body for a successful single upsert or delete.
type UpsertMemoryResponse struct {
	Success bool   `json:"success"`
	PointID string `json:"point_id"`
	Message string `json:"message"`
}

// MemoryResponse is one memory with its ID.
type MemoryResponse struct {
	ID      string                   `json:"id"`
	Payload vectorstore.MemoryRecord `json:"payload"`
}

// SearchMemoriesRequest is the body for POST /memories/search.
type SearchMemoriesRequest struct {
	QueryVector []float32 `json:"query_vector,omitempty"`
	QueryText   string    `json:"query_text,omitempty"`
	UserID      int64     `json:"user_id"`
	Category    string    `json:"category,omitempty"`
	Limit       uint64    `json:"limit"`
	MinScore    float32   `json:"min_score"`
	Namespace   string    `json:"namespace,omitempty"`
}

// SearchMemoriesResponse is the body for POST /memories/search.
type SearchMemoriesResponse struct {
	Results []vectorstore.MemorySearchResult `json:"results"`
	Count   int                              `json:"count"`
}

// ScrollMemoriesRequest is the body for POST /memories/scroll.
type ScrollMemoriesRequest struct {
	UserID    int64  `json:"user_id"`
	Category  string `json:"category,omitempty"`
	Limit     uint32 `json:"limit"`
	Namespace string `json:"namespace,omitempty"`
}

// ScrollMemoriesResponse is the body for POST /memories/scroll.
type ScrollMemoriesResponse struct {
	Memories []MemoryResponse `json:"memories"`
	Count    int              `json:"count"`
}

// BatchUpsertMemoriesRequest is the body for POST /memories/batch.
type BatchUpsertMemoriesRequest struct {
	Points []UpsertMemoryRequest `json:"points"`
}

// BatchOperationResponse reports per-item outcomes of a batch call.
type BatchOperationResponse struct {
	SuccessCount int                      `json:"success_count"`
	FailedCount  int                      `json:"failed_count"`
	Errors       []vectorstore.BatchError `json:"errors"`
}

func (s *Server) handleUpsertMemory(c echo.Context) error {
	var req UpsertMemoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.PointID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "point_id is required")
	}

	vector, err := s.documentVector(c.Request().Context(), req.Vector, req.Text)
	if err != nil {
		return err
	}
	if err := s.memories.Upsert(c.Request().Context(), req.PointID, vector, req.Payload, req.Namespace); err != nil {
		return writeError(c, s.logger, err)
	}
	return c.JSON(http.StatusOK, UpsertMemoryResponse{
		Success: true,
		PointID: req.PointID,
		Message: "Memory upserted successfully",
	})
}

// handleBatchUpsertMemories processes up to the document batch cap of
// memories, isolating per-item failures.
func (s *Server) handleBatchUpsertMemories(c echo.Context) error {
	var req BatchUpsertMemoriesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Points) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "batch cannot be empty")
	}
	if len(req.Points) > s.config.MaxBatchSize {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("batch size exceeds maximum of %d points", s.config.MaxBatchSize))
	}

	resp := BatchOperationResponse{}
	for _, point := range req.Points {
		vector := point.Vector
		if len(vector) == 0 && point.Text != "" {
			embedded, err := s.embedder.EmbedDocuments(c.Request().Context(), []string{point.Text})
			if err != nil {
				resp.FailedCount++
				resp.Errors = append(resp.Errors, vectorstore.BatchError{ID: point.PointID, Message: embedMessage(err)})
				continue
			}
			vector = embedded[0]
		}
		err := s.memories.Upsert(c.Request().Context(), point.PointID, vector, point.Payload, point.Namespace)
		if err != nil {
			resp.FailedCount++
			resp.Errors = append(resp.Errors, vectorstore.BatchError{ID: point.PointID, Message: err.Error()})
			continue
		}
		resp.SuccessCount++
	}

	s.logger.Info("memory batch upsert done",
		zap.Int("succeeded", resp.SuccessCount),
		zap.Int("failed", resp.FailedCount))
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGetMemory(c echo.Context) error {
	pointID := c.Param("point_id")
	namespace := c.QueryParam("namespace")

	record, err := s.memories.Get(c.Request().Context(), pointID, namespace)
	if err != nil {
		return writeError(c, s.logger, err)
	}
	return c.JSON(http.StatusOK, MemoryResponse{ID: pointID, Payload: *record})
}

func (s *Server) handleDeleteMemory(c echo.Context) error {
	pointID := c.Param("point_id")
	namespace := c.QueryParam("namespace")

	if err := s.memories.Delete(c.Request().Context(), pointID, namespace); err != nil {
		return writeError(c, s.logger, err)
	}
	return c.JSON(http.StatusOK, UpsertMemoryResponse{
		Success: true,
		PointID: pointID,
		Message: "Memory deleted successfully",
	})
}

func (s *Server) handleSearchMemories(c echo.Context) error {
	var req SearchMemoriesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Limit == 0 {
		req.Limit = 10
	}

	vector, err := s.queryVector(c.Request().Context(), req.QueryVector, req.QueryText)
	if err != nil {
		return err
	}
	results, err := s.memories.Search(c.Request().Context(), vector, req.UserID, req.Category, req.Limit, req.MinScore, req.Namespace)
	if err != nil {
		return writeError(c, s.logger, err)
	}
	return c.JSON(http.StatusOK, SearchMemoriesResponse{Results: results, Count: len(results)})
}

func (s *Server) handleScrollMemories(c echo.Context) error {
	var req ScrollMemoriesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Limit == 0 || req.Limit > scrollLimitMax {
		req.Limit = scrollLimitMax
	}

	entries, err := s.memories.Scroll(c.Request().Context(), req.UserID, req.Category, req.Limit, req.Namespace)
	if err != nil {
		return writeError(c, s.logger, err)
	}

	memories := make([]MemoryResponse, 0, len(entries))
	for _, entry := range entries {
		memories = append(memories, MemoryResponse{ID: entry.ID, Payload: entry.Record})
	}
	return c.JSON(http.StatusOK, ScrollMemoriesResponse{Memories: memories, Count: len(memories)})
}

func (s *Server) handleCollectionInfo(c echo.Context) error {
	info, err := s.memories.CollectionInfo(c.Request().Context(), c.QueryParam("namespace"))
	if err != nil {
		return writeError(c, s.logger, err)
	}
	return c.JSON(http.StatusOK, info)
}
