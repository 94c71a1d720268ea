package dashboard

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ehr/odonto/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := api.Group("", auth.RequireRole("dentist", "assistant", "receptionist"))
	staff.GET("/dashboard", h.GetOverview)
}

// GetOverview serves the overview for ?date=YYYY-MM-DD, today by default.
func (h *Handler) GetOverview(c echo.Context) error {
	var at time.Time
	if v := c.QueryParam("date"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date: "+v)
		}
		// noon keeps "upcoming" to the rest of that day onwards
		at = d.Add(12 * time.Hour)
	}
	out, err := h.svc.Overview(c.Request().Context(), at)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, out)
}
