package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// newChain wires the request middleware in the order the server uses.
func newChain(buf *bytes.Buffer) *echo.Echo {
	logger := zerolog.New(buf)
	e := echo.New()
	e.Use(RequestID(), Logger(logger), Recovery(logger))
	return e
}

func TestChain_PanicIsRecoveredAndLogged(t *testing.T) {
	var buf bytes.Buffer
	e := newChain(&buf)
	e.POST("/scores/save", func(c echo.Context) error {
		var m map[string]int
		m["boom"]++
		return nil
	})

	req := httptest.NewRequest(http.MethodPost, "/scores/save", nil)
	req.Header.Set(RequestIDHeader, "req-7")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if rec.Header().Get(RequestIDHeader) != "req-7" {
		t.Errorf("expected request id to be echoed, got %q", rec.Header().Get(RequestIDHeader))
	}
	logs := buf.String()
	for _, want := range []string{
		`"message":"panic recovered"`,
		`"route":"/scores/save"`,
		`"request_id":"req-7"`,
		`"status":500`,
	} {
		if !strings.Contains(logs, want) {
			t.Errorf("expected log to contain %s, got %s", want, logs)
		}
	}
}

func TestChain_ClientErrorLoggedAsWarning(t *testing.T) {
	var buf bytes.Buffer
	e := newChain(&buf)
	e.POST("/scores/compute", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/scores/compute", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	logs := buf.String()
	if !strings.Contains(logs, `"level":"warn"`) || !strings.Contains(logs, `"status":400`) {
		t.Errorf("expected a warn line with status 400, got %s", logs)
	}
	if strings.Contains(logs, "panic recovered") {
		t.Errorf("unexpected panic log: %s", logs)
	}
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name    string
		inbound string
		keep    bool
	}{
		{"missing", "", false},
		{"caller supplied", "clinic-trace-1", true},
		{"oversized", strings.Repeat("x", 200), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			e := newChain(&buf)
			var seen string
			e.GET("/health", func(c echo.Context) error {
				seen, _ = c.Get("request_id").(string)
				return c.NoContent(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			if tt.inbound != "" {
				req.Header.Set(RequestIDHeader, tt.inbound)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			got := rec.Header().Get(RequestIDHeader)
			if got != seen {
				t.Errorf("response id %q differs from context id %q", got, seen)
			}
			if tt.keep && got != tt.inbound {
				t.Errorf("expected %q to be kept, got %q", tt.inbound, got)
			}
			if !tt.keep && len(got) != 36 {
				t.Errorf("expected a generated UUID, got %q", got)
			}
		})
	}
}
