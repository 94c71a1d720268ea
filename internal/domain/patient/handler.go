package patient

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/odonto/internal/domain/odontogram"
	"github.com/ehr/odonto/internal/platform/auth"
	"github.com/ehr/odonto/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Demographics – all clinic staff
	staff := api.Group("", auth.RequireRole("dentist", "assistant", "receptionist"))
	staff.GET("/patients", h.ListPatients)
	staff.GET("/patients/:id", h.GetPatient)
	staff.POST("/patients", h.CreatePatient)
	staff.PUT("/patients/:id", h.UpdatePatient)

	// Clinical data – dentist, assistant
	clinical := api.Group("", auth.RequireRole("dentist", "assistant"))
	clinical.GET("/patients/:id/records/:section", h.GetRecord)
	clinical.PUT("/patients/:id/records/:section", h.UpdateRecord)
	clinical.GET("/patients/:id/odontogram", h.GetOdontogram)
	clinical.GET("/patients/:id/teeth/:number", h.GetTooth)
	clinical.GET("/patients/:id/treatments", h.ListTreatments)

	admin := api.Group("", auth.RequireRole("dentist"))
	admin.DELETE("/patients/:id", h.DeletePatient)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func notFoundOr(err error, status int) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, odontogram.ErrToothNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return echo.NewHTTPError(status, err.Error())
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreatePatient(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := make(map[string]string)
	for _, k := range []string{"name", "cpf"} {
		if v := c.QueryParam(k); v != "" {
			params[k] = v
		}
	}
	items, total, err := h.svc.SearchPatients(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	summaries := make([]Summary, 0, len(items))
	for _, p := range items {
		summaries = append(summaries, p.Summary())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(summaries, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = id
	if err := h.svc.UpdatePatient(c.Request().Context(), &p); err != nil {
		return notFoundOr(err, http.StatusBadRequest)
	}
	return c.JSON(http.StatusOK, p.Summary())
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeletePatient(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetRecord(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	section := Section(c.Param("section"))
	if !validSections[section] {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record section")
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	rec := p.Section(section)
	if rec == nil {
		rec = Record{}
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) UpdateRecord(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var rec Record
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	out, err := h.svc.UpdateRecord(c.Request().Context(), id, Section(c.Param("section")), rec)
	if err != nil {
		return notFoundOr(err, http.StatusBadRequest)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) GetOdontogram(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	o, err := h.svc.GetOdontogram(c.Request().Context(), id)
	if err != nil {
		return notFoundOr(err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) GetTooth(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid tooth number")
	}
	t, err := h.svc.GetTooth(c.Request().Context(), id, n)
	if err != nil {
		return notFoundOr(err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) ListTreatments(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	active, concluded, err := h.svc.Treatments(c.Request().Context(), id)
	if err != nil {
		return notFoundOr(err, http.StatusInternalServerError)
	}
	if active == nil {
		active = []odontogram.ToothTreatment{}
	}
	if concluded == nil {
		concluded = []odontogram.ToothTreatment{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"active":    active,
		"concluded": concluded,
	})
}
