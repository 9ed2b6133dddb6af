package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func serve(e *echo.Echo, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestRequestTimeout_ContextAwareHandlerGets504(t *testing.T) {
	e := echo.New()
	e.Use(RequestTimeout(20 * time.Millisecond))
	e.POST("/scores/save", func(c echo.Context) error {
		<-c.Request().Context().Done()
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save entry").
			SetInternal(c.Request().Context().Err())
	})

	rec := serve(e, http.MethodPost, "/scores/save")
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), TimeoutMessage) {
		t.Errorf("expected timeout message, got %s", rec.Body.String())
	}
}

// A handler that ignores its context keeps sole ownership of the response;
// nothing else writes to the recorder while it runs.
func TestRequestTimeout_SlowHandlerWritesOnce(t *testing.T) {
	e := echo.New()
	e.Use(RequestTimeout(10 * time.Millisecond))
	e.GET("/scores/history", func(c echo.Context) error {
		time.Sleep(40 * time.Millisecond)
		return c.String(http.StatusOK, "late body")
	})

	rec := serve(e, http.MethodGet, "/scores/history")
	if rec.Code != http.StatusOK {
		t.Errorf("expected the handler's status, got %d", rec.Code)
	}
	if rec.Body.String() != "late body" {
		t.Errorf("expected exactly the handler's body, got %q", rec.Body.String())
	}
}

func TestRequestTimeout_NonTimeoutErrorsPassThrough(t *testing.T) {
	e := echo.New()
	e.Use(RequestTimeout(time.Second))
	e.POST("/scores/compute", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	})

	if rec := serve(e, http.MethodPost, "/scores/compute"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestRequestTimeout_SkippedPrefixHasNoDeadline(t *testing.T) {
	e := echo.New()
	e.Use(RequestTimeout(time.Second, "/metrics"))
	report := func(c echo.Context) error {
		if _, ok := c.Request().Context().Deadline(); ok {
			return c.String(http.StatusOK, "deadline")
		}
		return c.String(http.StatusOK, "none")
	}
	e.GET("/metrics", report)
	e.GET("/scores/history", report)

	if got := serve(e, http.MethodGet, "/metrics").Body.String(); got != "none" {
		t.Errorf("expected /metrics without deadline, got %q", got)
	}
	if got := serve(e, http.MethodGet, "/scores/history").Body.String(); got != "deadline" {
		t.Errorf("expected /scores/history with deadline, got %q", got)
	}
}
