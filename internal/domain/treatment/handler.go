package treatment

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/odonto/internal/domain/ledger"
	"github.com/ehr/odonto/internal/domain/odontogram"
	"github.com/ehr/odonto/internal/domain/patient"
	"github.com/ehr/odonto/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Charting and treatment plan – dentist, assistant
	clinical := api.Group("", auth.RequireRole("dentist", "assistant"))
	clinical.PUT("/patients/:id/teeth/:number", h.SaveTooth)
	clinical.GET("/patients/:id/teeth/:number/pending", h.ListPending)
	clinical.POST("/patients/:id/teeth/:number/treatments", h.AddTreatment)
	clinical.PUT("/patients/:id/teeth/:number/treatments/:tid", h.EditTreatment)
	clinical.POST("/patients/:id/teeth/:number/treatments/:tid/schedule", h.Schedule)
	clinical.POST("/patients/:id/teeth/:number/treatments/:tid/conclude", h.Conclude)
	clinical.POST("/patients/:id/teeth/:number/treatments/:tid/cancel", h.Cancel)

	dentist := api.Group("", auth.RequireRole("dentist"))
	dentist.DELETE("/patients/:id/teeth/:number/treatments/:tid", h.RemoveTreatment)

	// Payment confirmation – anyone who may take a payment
	payments := api.Group("", auth.RequireRole("dentist", "assistant", "receptionist"))
	payments.GET("/payments/pending/:pid", h.GetPending)
	payments.POST("/payments/pending/:pid/confirm", h.ConfirmPayment)
	payments.DELETE("/payments/pending/:pid", h.CancelPayment)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, patient.ErrNotFound),
		errors.Is(err, odontogram.ErrNotFound),
		errors.Is(err, ErrPendingNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrPaymentPending),
		errors.Is(err, ErrPaymentRequired):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrUnknownProcedure),
		errors.Is(err, ErrPaymentMethodRequired),
		errors.Is(err, ErrConfirmationRequired),
		errors.Is(err, odontogram.ErrInvalidTreatment),
		errors.Is(err, odontogram.ErrInvalidCondition),
		errors.Is(err, odontogram.ErrInvalidRestoration),
		errors.Is(err, odontogram.ErrInvalidAnomaly),
		errors.Is(err, odontogram.ErrInvalidStatus):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// toothParams reads the patient id and tooth number of the path.
func toothParams(c echo.Context) (uuid.UUID, int, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		return uuid.Nil, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid tooth number")
	}
	return id, number, nil
}

func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// respond answers 202 when the outcome waits for a payment confirmation.
func respond(c echo.Context, out *Outcome, status int) error {
	if out.Pending != nil {
		return c.JSON(http.StatusAccepted, out)
	}
	return c.JSON(status, out)
}

func (h *Handler) SaveTooth(c echo.Context) error {
	pid, number, err := toothParams(c)
	if err != nil {
		return err
	}
	var t odontogram.Tooth
	if err := c.Bind(&t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t.Number = number
	saved, err := h.svc.SaveTooth(c.Request().Context(), pid, t)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, saved)
}

func (h *Handler) ListPending(c echo.Context) error {
	pid, number, err := toothParams(c)
	if err != nil {
		return err
	}
	list, err := h.svc.PendingForTooth(c.Request().Context(), pid, number)
	if err != nil {
		return httpError(err)
	}
	if list == nil {
		list = []*Pending{}
	}
	return c.JSON(http.StatusOK, list)
}

func (h *Handler) AddTreatment(c echo.Context) error {
	pid, number, err := toothParams(c)
	if err != nil {
		return err
	}
	var tr odontogram.Treatment
	if err := c.Bind(&tr); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	out, err := h.svc.AddTreatment(c.Request().Context(), pid, number, tr)
	if err != nil {
		return httpError(err)
	}
	return respond(c, out, http.StatusCreated)
}

func (h *Handler) EditTreatment(c echo.Context) error {
	pid, number, err := toothParams(c)
	if err != nil {
		return err
	}
	tid, err := uuidParam(c, "tid")
	if err != nil {
		return err
	}
	var tr odontogram.Treatment
	if err := c.Bind(&tr); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	out, err := h.svc.EditTreatment(c.Request().Context(), pid, number, tid, tr)
	if err != nil {
		return httpError(err)
	}
	return respond(c, out, http.StatusOK)
}

type scheduleRequest struct {
	Start time.Time `json:"start"`
}

func (h *Handler) Schedule(c echo.Context) error {
	pid, number, err := toothParams(c)
	if err != nil {
		return err
	}
	tid, err := uuidParam(c, "tid")
	if err != nil {
		return err
	}
	var req scheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	out, err := h.svc.Schedule(c.Request().Context(), pid, number, tid, req.Start)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Conclude(c echo.Context) error {
	pid, number, err := toothParams(c)
	if err != nil {
		return err
	}
	tid, err := uuidParam(c, "tid")
	if err != nil {
		return err
	}
	out, err := h.svc.Conclude(c.Request().Context(), pid, number, tid)
	if err != nil {
		return httpError(err)
	}
	return respond(c, out, http.StatusOK)
}

func (h *Handler) Cancel(c echo.Context) error {
	pid, number, err := toothParams(c)
	if err != nil {
		return err
	}
	tid, err := uuidParam(c, "tid")
	if err != nil {
		return err
	}
	tr, err := h.svc.Cancel(c.Request().Context(), pid, number, tid)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, tr)
}

func (h *Handler) RemoveTreatment(c echo.Context) error {
	pid, number, err := toothParams(c)
	if err != nil {
		return err
	}
	tid, err := uuidParam(c, "tid")
	if err != nil {
		return err
	}
	confirmed, _ := strconv.ParseBool(c.QueryParam("confirm"))
	if err := h.svc.RemoveTreatment(c.Request().Context(), pid, number, tid, confirmed); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetPending(c echo.Context) error {
	id, err := uuidParam(c, "pid")
	if err != nil {
		return err
	}
	pd, err := h.svc.GetPending(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pd)
}

type confirmRequest struct {
	PaymentMethod ledger.PaymentMethod `json:"payment_method"`
}

func (h *Handler) ConfirmPayment(c echo.Context) error {
	id, err := uuidParam(c, "pid")
	if err != nil {
		return err
	}
	var req confirmRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	out, err := h.svc.ConfirmPayment(c.Request().Context(), id, req.PaymentMethod)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) CancelPayment(c echo.Context) error {
	id, err := uuidParam(c, "pid")
	if err != nil {
		return err
	}
	if err := h.svc.CancelPayment(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
