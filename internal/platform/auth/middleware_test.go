package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only")

func createTestToken(t *testing.T, claims Claims, key []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return tokenStr
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func runJWT(t *testing.T, cfg JWTConfig, header string, next echo.HandlerFunc) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	c := e.NewContext(req, httptest.NewRecorder())
	return JWTMiddleware(cfg)(next)(c)
}

func validClaims() Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-456",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		TenantID: "sorriso",
		Roles:    []string{"dentist", "receptionist"},
	}
}

func TestJWTMiddleware_Rejected(t *testing.T) {
	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"no bearer prefix", "Token abc123"},
		{"missing token", "Bearer"},
		{"empty value", "Bearer "},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer not.a.jwt"},
		{"expired", "Bearer " + createTestToken(t, expired, testSigningKey)},
		{"wrong key", "Bearer " + createTestToken(t, validClaims(), []byte("another-key"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runJWT(t, JWTConfig{SigningKey: testSigningKey}, tt.header, okHandler)
			httpErr, ok := err.(*echo.HTTPError)
			if !ok {
				t.Fatalf("expected echo.HTTPError, got %T", err)
			}
			if httpErr.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", httpErr.Code)
			}
		})
	}
}

func TestJWTMiddleware_ClaimsExtraction(t *testing.T) {
	token := createTestToken(t, validClaims(), testSigningKey)

	var called bool
	err := runJWT(t, JWTConfig{SigningKey: testSigningKey}, "Bearer "+token, func(c echo.Context) error {
		called = true
		ctx := c.Request().Context()
		if uid := UserIDFromContext(ctx); uid != "user-456" {
			t.Errorf("expected user_id=user-456, got %s", uid)
		}
		roles := RolesFromContext(ctx)
		if len(roles) != 2 || roles[0] != "dentist" || roles[1] != "receptionist" {
			t.Errorf("expected roles=[dentist receptionist], got %v", roles)
		}
		if tenantID, _ := c.Get("jwt_tenant_id").(string); tenantID != "sorriso" {
			t.Errorf("expected tenant_id=sorriso, got %s", tenantID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("handler was not called")
	}
}

func TestJWTMiddleware_IssuerAndAudience(t *testing.T) {
	claims := validClaims()
	claims.Issuer = "https://idp.example.com"
	claims.Audience = jwt.ClaimStrings{"odonto"}
	token := "Bearer " + createTestToken(t, claims, testSigningKey)

	good := JWTConfig{SigningKey: testSigningKey, Issuer: "https://idp.example.com", Audience: "odonto"}
	if err := runJWT(t, good, token, okHandler); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	bad := JWTConfig{SigningKey: testSigningKey, Issuer: "https://idp.example.com", Audience: "billing"}
	if err := runJWT(t, bad, token, okHandler); err == nil {
		t.Error("expected error for wrong audience")
	}
}

func TestJWTMiddleware_Skipper(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), httptest.NewRecorder())
	c.SetPath("/health")

	mw := JWTMiddleware(JWTConfig{SigningKey: testSigningKey, Skipper: AuthSkipper})
	if err := mw(okHandler)(c); err != nil {
		t.Errorf("public path must skip auth, got %v", err)
	}
}

func TestDevAuthMiddleware(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	var called bool
	err := DevAuthMiddleware("sorriso")(func(c echo.Context) error {
		called = true
		ctx := c.Request().Context()
		if uid := UserIDFromContext(ctx); uid != "dev-user" {
			t.Errorf("expected user_id=dev-user, got %s", uid)
		}
		if roles := RolesFromContext(ctx); len(roles) != 1 || roles[0] != RoleAdmin {
			t.Errorf("expected roles=[admin], got %v", roles)
		}
		if tenantID, _ := c.Get("jwt_tenant_id").(string); tenantID != "sorriso" {
			t.Errorf("expected tenant_id=sorriso, got %s", tenantID)
		}
		return nil
	})(c)
	if err != nil || !called {
		t.Fatalf("expected handler to run, err=%v", err)
	}
}

func TestDevAuthMiddleware_WithToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer x")
	c := e.NewContext(req, httptest.NewRecorder())

	err := DevAuthMiddleware("sorriso")(func(c echo.Context) error {
		if roles := RolesFromContext(c.Request().Context()); roles != nil {
			t.Errorf("no identity may be injected when a token is sent, got %v", roles)
		}
		return nil
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
