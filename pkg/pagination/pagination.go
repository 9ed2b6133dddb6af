package pagination

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100

	TotalCountHeader = "X-Total-Count"
	LinkHeader       = "Link"
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Limit  int
	Offset int
}

// FromContext extracts limit and offset using DefaultLimit.
func FromContext(c echo.Context) Params {
	return FromContextWithDefault(c, DefaultLimit)
}

// FromContextWithDefault extracts limit and offset from the query string.
// A missing, zero or malformed limit falls back to def; anything above
// MaxLimit is clamped.
func FromContextWithDefault(c echo.Context, def int) Params {
	if def <= 0 || def > MaxLimit {
		def = DefaultLimit
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = def
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Offset+p.Limit < total
}

// HasPrevious returns true if there are results before the current page.
func (p Params) HasPrevious() bool {
	return p.Offset > 0
}

// NextOffset returns the offset for the next page.
func (p Params) NextOffset() int {
	return p.Offset + p.Limit
}

// PreviousOffset returns the offset for the previous page, floored at 0.
func (p Params) PreviousOffset() int {
	prev := p.Offset - p.Limit
	if prev < 0 {
		return 0
	}
	return prev
}

// Links builds RFC 8288 next/prev links for basePath.
func (p Params) Links(basePath string, total int) string {
	var out string
	if p.HasNext(total) {
		out = fmt.Sprintf(`<%s?limit=%d&offset=%d>; rel="next"`, basePath, p.Limit, p.NextOffset())
	}
	if p.HasPrevious() {
		if out != "" {
			out += ", "
		}
		out += fmt.Sprintf(`<%s?limit=%d&offset=%d>; rel="prev"`, basePath, p.Limit, p.PreviousOffset())
	}
	return out
}

// WriteHeaders sets the total count and Link headers on the response so the
// body can stay a plain JSON array.
func (p Params) WriteHeaders(c echo.Context, total int) {
	h := c.Response().Header()
	h.Set(TotalCountHeader, strconv.Itoa(total))
	if links := p.Links(c.Request().URL.Path, total); links != "" {
		h.Set(LinkHeader, links)
	}
}
