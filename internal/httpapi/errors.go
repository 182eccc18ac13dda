package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/vectord/internal/vectorstore"
)

// errorResponse is the uniform error body.
type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps store errors to HTTP responses. Invalid requests and
// missing resources carry their message; engine and decode failures are
// logged in full but reported generically so internals never leak to
// clients.
func writeError(c echo.Context, logger *zap.Logger, err error) error {
	switch {
	case errors.Is(err, vectorstore.ErrInvalidRequest):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, vectorstore.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		logger.Error("request failed",
			zap.String("uri", c.Request().RequestURI),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Database operation failed"})
	}
}
