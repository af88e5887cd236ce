package api

import (
	"net/http"

	"github.com/labstack/echo/v5"
	"golang.org/x/time/rate"
)

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, "")
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg, "")
}

func writeError(c *echo.Context, status int, errType, msg, code string) error {
	return c.JSON(status, map[string]any{
		"error": ErrorBody{
			Message: msg,
			Type:    errType,
			Code:    code,
		},
	})
}

// rateLimit rejects requests beyond the limiter's budget with 429.
func rateLimit(limiter *rate.Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			if limiter != nil && !limiter.Allow() {
				return writeError(c, http.StatusTooManyRequests, "rate_limit_error", "too many requests", "")
			}
			return next(c)
		}
	}
}
