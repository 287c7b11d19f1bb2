package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nfrund/opin/internal/domain"
	"github.com/nfrund/opin/internal/errmsg"
)

// RateLimiter allows 10 requests per minute per client IP, with bursts of 10,
// across all the routes that share it. Denied requests get the friendly
// rate-limit copy as plain text.
func RateLimiter() echo.MiddlewareFunc {
	config := middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      10.0 / 60, // 10 requests per minute
			Burst:     10,
			ExpiresIn: 3 * time.Minute,
		}),

		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			FromContext(c.Request().Context()).Warn("rate limit exceeded", "ip", identifier, "path", c.Path())
			return c.String(http.StatusTooManyRequests, errmsg.Friendly(domain.ErrRateLimited.Error()))
		},
	}
	return middleware.RateLimiterWithConfig(config)
}
