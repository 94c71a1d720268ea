package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/odonto/internal/config"
	"github.com/ehr/odonto/internal/domain/catalog"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:            "production",
		AuthMode:       config.AuthModeJWT,
		AuthSigningKey: "0123456789abcdef0123456789abcdef",
		DefaultTenant:  "default",
		PendingTTL:     time.Minute,
		RelayInterval:  time.Second,
		RequestTimeout: time.Second,
		BodyLimit:      "1M",
		RateLimitRPS:   10,
		RateLimitBurst: 10,
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := rootCmd()
	for _, path := range [][]string{
		{"serve"},
		{"migrate", "up"},
		{"migrate", "status"},
		{"tenant", "create"},
		{"tenant", "list"},
		{"relay"},
		{"ledger", "export"},
		{"catalog", "list"},
	} {
		cmd, _, err := root.Find(path)
		if err != nil || cmd.Name() != path[len(path)-1] {
			t.Errorf("command %v not registered (%v)", path, err)
		}
	}
}

func TestPeriodFilter(t *testing.T) {
	f, err := periodFilter("2024-06-01", "2024-06-30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.From.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected from %v", f.From)
	}
	if f.To.Day() != 30 || f.To.Hour() != 23 {
		t.Errorf("to must cover the whole last day, got %v", f.To)
	}

	if f, err := periodFilter("", ""); err != nil || f.From != nil || f.To != nil {
		t.Errorf("empty bounds: %+v, %v", f, err)
	}
	for _, bounds := range [][2]string{{"06/01/2024", ""}, {"", "tomorrow"}, {"2024-06-30", "2024-06-01"}} {
		if _, err := periodFilter(bounds[0], bounds[1]); err == nil {
			t.Errorf("expected error for %v", bounds)
		}
	}
}

func TestPrintCatalog(t *testing.T) {
	var buf bytes.Buffer
	if err := printCatalog(&buf, catalog.Default()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "ID") || !strings.Contains(out, "cir_01") || !strings.Contains(out, "Extração Dentária Simples") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestOpenRedis_Empty(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	client, err := openRedis(ctx, "")
	if client != nil || err != nil {
		t.Errorf("expected nil client, got %v, %v", client, err)
	}
	if _, err := openRedis(ctx, "not a url"); err == nil {
		t.Error("expected parse error")
	}
}

func TestNewEcho_Routes(t *testing.T) {
	cfg := testConfig()
	s, err := buildServices(cfg, nil, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("build services: %v", err)
	}
	e := newEcho(cfg, nil, nil, s, zerolog.Nop())

	registered := map[string]bool{}
	for _, r := range e.Routes() {
		registered[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /health",
		"GET /health/db",
		"GET /ws",
		"GET /api/v1/procedures",
		"POST /api/v1/patients",
		"PUT /api/v1/patients/:id/teeth/:number",
		"POST /api/v1/patients/:id/teeth/:number/treatments/:tid/conclude",
		"POST /api/v1/payments/pending/:pid/confirm",
		"GET /api/v1/agenda",
		"GET /api/v1/ledger/export",
		"GET /api/v1/dashboard",
	} {
		if !registered[want] {
			t.Errorf("route %s not registered", want)
		}
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health: expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("health: missing request id")
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/procedures", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("api without token: expected 401, got %d", rec.Code)
	}
}
