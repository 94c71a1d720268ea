package db

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestRunChecks(t *testing.T) {
	checks := map[string]Check{
		"redis":    func(context.Context) error { return errors.New("connection refused") },
		"postgres": func(context.Context) error { return nil },
	}

	results, healthy := RunChecks(context.Background(), checks, time.Second)
	if healthy {
		t.Error("expected unhealthy when one check fails")
	}
	if len(results) != 2 || results[0].Name != "postgres" || results[1].Name != "redis" {
		t.Fatalf("unexpected results %+v", results)
	}
	if !results[0].Healthy || results[1].Healthy || results[1].Error != "connection refused" {
		t.Errorf("unexpected results %+v", results)
	}
}

func TestRunChecks_Timeout(t *testing.T) {
	checks := map[string]Check{
		"slow": func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
	_, healthy := RunChecks(context.Background(), checks, 10*time.Millisecond)
	if healthy {
		t.Error("expected a check past its deadline to fail")
	}
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"healthy", nil, http.StatusOK, `"status":"healthy"`},
		{"unhealthy", errors.New("down"), http.StatusServiceUnavailable, `"status":"unhealthy"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := HealthHandler(nil, map[string]Check{"postgres": func(context.Context) error { return tt.err }})
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rec := httptest.NewRecorder()
			if err := h(e.NewContext(req, rec)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.body) {
				t.Errorf("unexpected body %s", rec.Body.String())
			}
			if strings.Contains(rec.Body.String(), `"pool"`) {
				t.Error("pool stats without a pool")
			}
		})
	}
}
