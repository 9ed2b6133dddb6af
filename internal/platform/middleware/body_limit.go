package middleware

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/bytes"
)

// DefaultBodyLimit applies when the configured limit is empty or unparseable.
// A lab panel is a few hundred bytes.
const DefaultBodyLimit = "64K"

// BodyLimit rejects bodies above limit ("64K", "1M", "512B") with 413, both
// from Content-Length and while the body is read.
func BodyLimit(limit string) echo.MiddlewareFunc {
	if n, err := bytes.Parse(limit); err != nil || n <= 0 {
		limit = DefaultBodyLimit
	}
	return echomw.BodyLimitWithConfig(echomw.BodyLimitConfig{Limit: limit})
}
