package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

type fakeChecker struct {
	err error
}

func (f fakeChecker) Ping(context.Context) error { return f.err }

func (f fakeChecker) Stats() *PoolStats {
	return &PoolStats{Driver: "fake", TotalConns: 1, MaxConns: 4, Healthy: true}
}

func TestHealthHandler_Healthy(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health/db", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := HealthHandler(fakeChecker{})(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var body map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["status"] != "healthy" {
		t.Errorf("expected status healthy, got %v", body["status"])
	}
}

func TestHealthHandler_Unhealthy(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health/db", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := HealthHandler(fakeChecker{err: errors.New("connection refused")})(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}

	var body struct {
		Status string    `json:"status"`
		Error  string    `json:"error"`
		Pool   PoolStats `json:"pool"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Status != "unhealthy" || body.Error != "connection refused" {
		t.Errorf("unexpected body: %+v", body)
	}
	if body.Pool.Healthy {
		t.Error("expected pool marked unhealthy")
	}
}

func TestStatsFromSQL(t *testing.T) {
	stats := statsFromSQL(sql.DBStats{
		MaxOpenConnections: 1,
		OpenConnections:    1,
		InUse:              0,
		Idle:               1,
		WaitCount:          3,
		WaitDuration:       1500 * time.Millisecond,
	})

	if stats.Driver != "sqlite" {
		t.Errorf("expected driver sqlite, got %s", stats.Driver)
	}
	if stats.TotalConns != 1 || stats.IdleConns != 1 || stats.MaxConns != 1 {
		t.Errorf("unexpected connection counts: %+v", stats)
	}
	if stats.AcquireCount != 3 {
		t.Errorf("expected AcquireCount 3, got %d", stats.AcquireCount)
	}
	if stats.AcquireDuration != "1.5s" {
		t.Errorf("expected AcquireDuration '1.5s', got %q", stats.AcquireDuration)
	}
}

func TestPoolStats_JSONTags(t *testing.T) {
	b, err := json.Marshal(&PoolStats{Driver: "postgres", TotalConns: 2})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]interface{}
	json.Unmarshal(b, &m)
	for _, key := range []string{"driver", "total_conns", "idle_conns", "max_conns", "healthy"} {
		if _, ok := m[key]; !ok {
			t.Errorf("expected key %s in JSON", key)
		}
	}
}
