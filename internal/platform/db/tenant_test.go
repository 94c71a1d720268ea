package db

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestExtractTenantID(t *testing.T) {
	tests := []struct {
		name   string
		jwt    string
		header string
		query  string
		want   string
	}{
		{"jwt wins", "clinic_jwt", "clinic_header", "clinic_query", "clinic_jwt"},
		{"header over query", "", "clinic_header", "clinic_query", "clinic_header"},
		{"query", "", "", "clinic_query", "clinic_query"},
		{"default", "", "", "", "default"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			target := "/"
			if tt.query != "" {
				target += "?tenant_id=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("X-Tenant-ID", tt.header)
			}
			c := e.NewContext(req, httptest.NewRecorder())
			c.Set("jwt_tenant_id", tt.jwt)

			if got := extractTenantID(c, "default"); got != tt.want {
				t.Errorf("extractTenantID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSchemaName(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"sorriso", "tenant_sorriso", true},
		{"Clinica_2", "tenant_Clinica_2", true},
		{"a-b", "", false},
		{"a.b", "", false},
		{"a b", "", false},
		{"'; DROP TABLE patient", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, err := SchemaName(tt.input)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("SchemaName(%q) = %q, %v", tt.input, got, err)
		}
	}
}

func TestCreateTenantSchema_InvalidID(t *testing.T) {
	for _, id := range []string{"tenant-with-dash", "ten ant", "drop;table"} {
		if err := CreateTenantSchema(context.Background(), nil, id, nil); err == nil {
			t.Errorf("expected error for invalid tenant ID %q", id)
		}
	}
}

func TestContextAccessors_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), DBConnKey, "not-a-conn")
	ctx = context.WithValue(ctx, TxKey, "not-a-tx")
	ctx = context.WithValue(ctx, TenantIDKey, 12345)

	if ConnFromContext(ctx) != nil {
		t.Error("expected nil conn for wrong type")
	}
	if TxFromContext(ctx) != nil {
		t.Error("expected nil tx for wrong type")
	}
	if tid := TenantFromContext(ctx); tid != "" {
		t.Errorf("expected empty tenant, got %q", tid)
	}
}

func TestTenantFromContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), TenantIDKey, "sorriso")
	if tid := TenantFromContext(ctx); tid != "sorriso" {
		t.Errorf("expected sorriso, got %s", tid)
	}
}

func TestTenantOnly(t *testing.T) {
	tests := []struct {
		header string
		want   int
	}{
		{"sorriso", http.StatusOK},
		{"", http.StatusOK},
		{"bad-tenant", http.StatusBadRequest},
	}
	for _, tt := range tests {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if tt.header != "" {
			req.Header.Set("X-Tenant-ID", tt.header)
		}
		c := e.NewContext(req, httptest.NewRecorder())

		var seen string
		err := TenantOnly("default")(func(c echo.Context) error {
			seen = TenantFromContext(c.Request().Context())
			if ConnFromContext(c.Request().Context()) != nil {
				t.Error("no connection may be attached")
			}
			return nil
		})(c)

		if tt.want == http.StatusBadRequest {
			if he, ok := err.(*echo.HTTPError); !ok || he.Code != tt.want {
				t.Errorf("%q: expected 400, got %v", tt.header, err)
			}
			continue
		}
		want := tt.header
		if want == "" {
			want = "default"
		}
		if err != nil || seen != want {
			t.Errorf("%q: got tenant %q, err %v", tt.header, seen, err)
		}
	}
}
