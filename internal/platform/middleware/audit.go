package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/odonto/internal/platform/auth"
)

// AuditEntry records one access to a patient chart.
type AuditEntry struct {
	Timestamp  time.Time
	RequestID  string
	TenantID   string
	UserID     string
	UserRoles  []string
	PatientID  string
	Tooth      string
	Action     string // read, create, update, delete
	Method     string
	Route      string
	IPAddress  string
	StatusCode int
}

// AuditRecorder persists audit entries. Failures never fail the request.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// Audit logs every request that touches a patient chart or a pending payment
// and hands the entry to the optional recorders.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			if !isAuditableRoute(route) {
				return next(c)
			}

			err := next(c)

			req := c.Request()
			ctx := req.Context()
			entry := AuditEntry{
				Timestamp:  time.Now().UTC(),
				UserID:     auth.UserIDFromContext(ctx),
				UserRoles:  auth.RolesFromContext(ctx),
				PatientID:  c.Param("id"),
				Tooth:      c.Param("number"),
				Action:     actionFor(req.Method),
				Method:     req.Method,
				Route:      route,
				IPAddress:  c.RealIP(),
				StatusCode: c.Response().Status,
			}
			entry.RequestID, _ = c.Get("request_id").(string)
			entry.TenantID, _ = c.Get("tenant_id").(string)
			if he, ok := err.(*echo.HTTPError); ok {
				entry.StatusCode = he.Code
			}

			logger.Info().
				Str("request_id", entry.RequestID).
				Str("tenant_id", entry.TenantID).
				Str("user_id", entry.UserID).
				Str("patient_id", entry.PatientID).
				Str("tooth", entry.Tooth).
				Str("action", entry.Action).
				Str("route", entry.Route).
				Int("status", entry.StatusCode).
				Msg("chart access")

			for _, r := range recorders {
				if rerr := r.RecordAccess(entry); rerr != nil {
					logger.Warn().Err(rerr).Str("request_id", entry.RequestID).Msg("audit recorder failed")
				}
			}
			return err
		}
	}
}

func isAuditableRoute(route string) bool {
	return strings.HasPrefix(route, "/api/v1/patients/:id") ||
		strings.HasPrefix(route, "/api/v1/payments/")
}

func actionFor(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}
