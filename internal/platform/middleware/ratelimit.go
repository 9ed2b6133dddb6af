package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// subjectKey mirrors auth.SubjectKey; auth.Middleware sets it for bearer
// tokens.
const subjectKey = "auth_subject"

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// ExpiresIn drops idle clients from the store. Zero uses echo's default.
	ExpiresIn time.Duration
}

// RateLimit gives every client its own token bucket. Requests carrying a
// verified bearer subject are keyed by subject so one clinic behind a NAT
// does not starve another; everyone else is keyed by IP. A non-positive rate
// disables the limiter.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	if cfg.RequestsPerSecond <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.RequestsPerSecond),
		Burst:     cfg.BurstSize,
		ExpiresIn: cfg.ExpiresIn,
	})
	retryAfter := strconv.Itoa(int(math.Ceil(1 / cfg.RequestsPerSecond)))

	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store:               store,
		IdentifierExtractor: clientKey,
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			c.Response().Header().Set("Retry-After", retryAfter)
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		},
	})
}

func clientKey(c echo.Context) (string, error) {
	if sub, ok := c.Get(subjectKey).(string); ok && sub != "" {
		return "sub:" + sub, nil
	}
	return "ip:" + c.RealIP(), nil
}
