package httpapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/fyrsmithlabs/vectord/internal/vectorstore"
)

// UpsertDocumentRequest is the body for POST /documents.
type UpsertDocumentRequest struct {
	PointID string                  `json:"point_id"`
	Vector  []float32               `json:"vector"`
	Payload vectorstore.ChunkRecord `json:"payload"`
}

// UpsertDocumentResponse is the body for a successful single upsert or
// delete.
type UpsertDocumentResponse struct {
	Success bool   `json:"success"`
	PointID string `json:"point_id"`
	Message string `json:"message"`
}

// BatchUpsertDocumentsRequest is the body for POST /documents/batch.
type BatchUpsertDocumentsRequest struct {
	Points []vectorstore.ChunkUpsert `json:"points"`
}

// SearchDocumentsRequest is the body for POST /documents/search.
type SearchDocumentsRequest struct {
	QueryVector []float32 `json:"query_vector,omitempty"`
	QueryText   string    `json:"query_text,omitempty"`
	UserID      int64     `json:"user_id"`
	GroupKey    string    `json:"group_key,omitempty"`
	Limit       uint64    `json:"limit"`
	MinScore    float32   `json:"min_score"`
}

// SearchDocumentsResponse is the body for POST /documents/search.
type SearchDocumentsResponse struct {
	Results []vectorstore.ChunkSearchResult `json:"results"`
	Count   int                             `json:"count"`
}

// DeleteByFileRequest is the body for POST /documents/delete/file and
// POST /documents/reassign.
type DeleteByFileRequest struct {
	UserID int64 `json:"user_id"`
	FileID int64 `json:"file_id"`
}

// DeleteByGroupRequest is the body for POST /documents/delete/group.
type DeleteByGroupRequest struct {
	UserID   int64  `json:"user_id"`
	GroupKey string `json:"group_key"`
}

// DeleteAllRequest is the body for POST /documents/delete/all.
type DeleteAllRequest struct {
	UserID int64 `json:"user_id"`
}

// ReassignGroupKeyRequest is the body for POST /documents/reassign.
type ReassignGroupKeyRequest struct {
	UserID   int64  `json:"user_id"`
	FileID   int64  `json:"file_id"`
	GroupKey string `json:"group_key"`
}

// BulkCountResponse reports a best-effort affected-row count for filtered
// deletes and reassignment.
type BulkCountResponse struct {
	Success bool   `json:"success"`
	Count   uint64 `json:"count"`
}

// GroupKeysResponse is the body for GET /documents/groups.
type GroupKeysResponse struct {
	GroupKeys []string `json:"group_keys"`
	Count     int      `json:"count"`
}

func (s *Server) handleUpsertDocument(c echo.Context) error {
	var req UpsertDocumentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.PointID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "point_id is required")
	}

	// Without a vector the chunk text is embedded server-side, which needs
	// an embedding backend.
	vector, err := s.documentVector(c.Request().Context(), req.Vector, req.Payload.Text)
	if err != nil {
		return err
	}
	if err := s.docs.Upsert(c.Request().Context(), req.PointID, vector, req.Payload); err != nil {
		return writeError(c, s.logger, err)
	}
	return c.JSON(http.StatusOK, UpsertDocumentResponse{
		Success: true,
		PointID: req.PointID,
		Message: "Document chunk upserted successfully",
	})
}

func (s *Server) handleBatchUpsertDocuments(c echo.Context) error {
	var req BatchUpsertDocumentsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := s.docs.BatchUpsert(c.Request().Context(), req.Points)
	if err != nil {
		return writeError(c, s.logger, err)
	}
	return c.JSON(http.StatusOK, BatchOperationResponse{
		SuccessCount: result.SuccessCount,
		FailedCount:  result.FailedCount,
		Errors:       result.Errors,
	})
}

func (s *Server) handleSearchDocuments(c echo.Context) error {
	var req SearchDocumentsRequest
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
	results, err := s.docs.Search(c.Request().Context(), vector, req.UserID, req.GroupKey, req.Limit, req.MinScore)
	if err != nil {
		return writeError(c, s.logger, err)
	}
	return c.JSON(http.StatusOK, SearchDocumentsResponse{Results: results, Count: len(results)})
}

func (s *Server) handleGetDocument(c echo.Context) error {
	chunk, err := s.docs.Get(c.Request().Context(), c.Param("point_id"))
	if err != nil {
		return writeError(c, s.logger, err)
	}
	return c.JSON(http.StatusOK, chunk)
}

func (s *Server) handleDeleteDocument(c echo.Context) error {
	pointID := c.Param("point_id")
	if err := s.docs.DeleteByID(c.Request().Context(), pointID); err != nil {
		return writeError(c, s.logger, err)
	}
	return c.JSON(http.StatusOK, UpsertDocumentResponse{
		Success: true,
		PointID: pointID,
		Message: "Document chunk deleted successfully",
	})
}

func (s *Server) handleDeleteByFile(c echo.Context) error {
	var req DeleteByFileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	count, err := s.docs.DeleteByFile(c.Request().Context(), req.UserID, req.FileID)
	if err != nil {
		return writeError(c, s.logger, err)
	}
	return c.JSON(http.StatusOK, BulkCountResponse{Success: true, Count: count})
}

func (s *Server) handleDeleteByGroup(c echo.Context) error {
	var req DeleteByGroupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.GroupKey == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "group_key is required")
	}

	count, err := s.docs.DeleteByGroupKey(c.Request().Context(), req.UserID, req.GroupKey)
	if err != nil {
		return writeError(c, s.logger, err)
	}
	return c.JSON(http.StatusOK, BulkCountResponse{Success: true, Count: count})
}

func (s *Server) handleDeleteAllForOwner(c echo.Context) error {
	var req DeleteAllRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	count, err := s.docs.DeleteAllForOwner(c.Request().Context(), req.UserID)
	if err != nil {
		return writeError(c, s.logger, err)
	}
	return c.JSON(http.StatusOK, BulkCountResponse{Success: true, Count: count})
}

func (s *Server) handleReassignGroupKey(c echo.Context) error {
	var req ReassignGroupKeyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	count, err := s.docs.ReassignGroupKey(c.Request().Context(), req.UserID, req.FileID, req.GroupKey)
	if err != nil {
		return writeError(c, s.logger, err)
	}
	return c.JSON(http.StatusOK, BulkCountResponse{Success: true, Count: count})
}

func (s *Server) handleDocumentStats(c echo.Context) error {
	userID, err := userIDQuery(c)
	if err != nil {
		return err
	}

	ownerStats, err := s.docs.GetStats(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, s.logger, err)
	}
	return c.JSON(http.StatusOK, ownerStats)
}

func (s *Server) handleDocumentGroups(c echo.Context) error {
	userID, err := userIDQuery(c)
	if err != nil {
		return err
	}

	keys, err := s.docs.GetGroupKeys(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, s.logger, err)
	}
	return c.JSON(http.StatusOK, GroupKeysResponse{GroupKeys: keys, Count: len(keys)})
}

func userIDQuery(c echo.Context) (int64, error) {
	raw := c.QueryParam("user_id")
	if raw == "" {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "user_id query parameter is required")
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "user_id must be an integer")
	}
	return userID, nil
}
