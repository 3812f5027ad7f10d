package httpserver

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// Idle client buckets are dropped after this long.
const rateLimiterExpiry = 5 * time.Minute

// rateLimit is a per-client-IP token bucket for one group of routes.
type rateLimit struct {
	name  string
	rate  rate.Limit
	burst int
}

var (
	authLimit    = rateLimit{name: "auth", rate: 1, burst: 10}
	analyzeLimit = rateLimit{name: "analyze", rate: 2, burst: 10}
)

// retryAfter is the whole number of seconds until one token refills.
func (l rateLimit) retryAfter() string {
	if l.rate <= 0 {
		return strconv.Itoa(int(rateLimiterExpiry.Seconds()))
	}
	return strconv.Itoa(int(math.Ceil(1 / float64(l.rate))))
}

func (l rateLimit) middleware() echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      l.rate,
		Burst:     l.burst,
		ExpiresIn: rateLimiterExpiry,
	})
	retryAfter := l.retryAfter()

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, _ error) error {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "unable to identify client"})
		},
		DenyHandler: func(c echo.Context, ip string, _ error) error {
			slog.InfoContext(c.Request().Context(), "Rate limit exceeded", "limiter", l.name, "ip", ip, "path", c.Path())
			c.Response().Header().Set("Retry-After", retryAfter)
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
		},
	})
}
