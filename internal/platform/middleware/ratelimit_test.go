package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ehr/odonto/internal/platform/auth"
)

type caller struct {
	tenant string
	user   string
}

func limitedCall(h echo.HandlerFunc, who caller) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/agenda", nil)
	if who.user != "" {
		req = req.WithContext(context.WithValue(req.Context(), auth.UserIDKey, who.user))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if who.tenant != "" {
		c.Set("jwt_tenant_id", who.tenant)
	}
	return rec, h(c)
}

func TestRateLimit_BurstThenReject(t *testing.T) {
	h := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})(okHandler)

	for i := 0; i < 2; i++ {
		rec, err := limitedCall(h, caller{})
		if err != nil {
			t.Fatalf("request %d: unexpected error %v", i+1, err)
		}
		if rec.Header().Get("X-RateLimit-Limit") != "1" {
			t.Errorf("request %d: X-RateLimit-Limit = %q", i+1, rec.Header().Get("X-RateLimit-Limit"))
		}
	}

	rec, err := limitedCall(h, caller{})
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}
	retry, perr := strconv.Atoi(rec.Header().Get("Retry-After"))
	if perr != nil || retry < 1 {
		t.Errorf("expected Retry-After >= 1, got %q", rec.Header().Get("Retry-After"))
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("expected X-RateLimit-Remaining 0, got %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimit_KeyIsolation(t *testing.T) {
	h := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})(okHandler)

	first := caller{tenant: "sorriso", user: "ana"}
	if _, err := limitedCall(h, first); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := limitedCall(h, first); err == nil {
		t.Fatal("second call from the same user must be limited")
	}

	for _, other := range []caller{
		{tenant: "sorriso", user: "bruno"},
		{tenant: "acme", user: "ana"},
		{tenant: "sorriso"},
	} {
		if _, err := limitedCall(h, other); err != nil {
			t.Errorf("%+v shares a bucket with %+v: %v", other, first, err)
		}
	}
}

func TestRateLimit_DefaultConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond != 20 || cfg.BurstSize != 40 || cfg.IdleTTL != 10*time.Minute {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestTokenBucket_RetryAfterWithZeroRate(t *testing.T) {
	b := newTokenBucket(0, 1)
	b.allow()
	if ra := b.retryAfter(); ra != 1 {
		t.Errorf("expected retryAfter 1 for zero rate, got %d", ra)
	}
}

func TestRateLimiterStore_SweepsIdleBuckets(t *testing.T) {
	store := newRateLimiterStore(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1, IdleTTL: time.Minute})

	stale := store.getBucket("stale")
	if store.getBucket("stale") != stale {
		t.Fatal("expected the same bucket for the same key")
	}
	stale.lastRefill = time.Now().Add(-2 * time.Minute)
	store.lastSweep = time.Now().Add(-2 * time.Minute)

	store.getBucket("fresh")
	if _, ok := store.buckets["stale"]; ok {
		t.Error("idle bucket was not swept")
	}
	if _, ok := store.buckets["fresh"]; !ok {
		t.Error("new bucket missing")
	}
}
