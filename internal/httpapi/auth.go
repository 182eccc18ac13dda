package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// requireAPIKey gates requests behind a shared key. Both
// "Authorization: Bearer TOKEN" and "X-API-Key: TOKEN" are accepted. When no
// key is configured the middleware is a pass-through.
func requireAPIKey(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if key == "" {
			return next
		}
		return func(c echo.Context) error {
			provided := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if provided == "" {
				provided = c.Request().Header.Get("X-API-Key")
			}
			if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing API key")
			}
			return next(c)
		}
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return header[len(prefix):]
	}
	return ""
}
