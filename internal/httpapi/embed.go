package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fyrsmithlabs/vectord/internal/embeddings"
)

// queryVector returns the caller's vector, embedding the query text through
// the configured backend when no vector was supplied. With the "none"
// backend a text-only request gets 501.
func (s *Server) queryVector(ctx context.Context, vector []float32, text string) ([]float32, error) {
	if len(vector) > 0 || text == "" {
		return vector, nil
	}
	embedded, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, embedError(err)
	}
	return embedded, nil
}

// documentVector is queryVector for content being stored.
func (s *Server) documentVector(ctx context.Context, vector []float32, text string) ([]float32, error) {
	if len(vector) > 0 || text == "" {
		return vector, nil
	}
	embedded, err := s.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, embedError(err)
	}
	return embedded[0], nil
}

func embedError(err error) error {
	if errors.Is(err, embeddings.ErrNotSupported) {
		return echo.NewHTTPError(http.StatusNotImplemented, "text API requires an embedding backend")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "Embedding failed")
}

// embedMessage is embedError for per-item batch error entries.
func embedMessage(err error) string {
	if errors.Is(err, embeddings.ErrNotSupported) {
		return "text API requires an embedding backend"
	}
	return "Embedding failed"
}
