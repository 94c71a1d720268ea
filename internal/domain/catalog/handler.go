package catalog

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehr/odonto/internal/platform/auth"
)

type Handler struct {
	cat *Catalog
}

func NewHandler(cat *Catalog) *Handler {
	return &Handler{cat: cat}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("dentist", "assistant", "receptionist"))
	read.GET("/procedures", h.ListProcedures)
	read.GET("/procedures/:id", h.GetProcedure)
}

func (h *Handler) ListProcedures(c echo.Context) error {
	if g := c.QueryParam("group"); g != "" {
		return c.JSON(http.StatusOK, h.cat.Groups()[g])
	}
	return c.JSON(http.StatusOK, h.cat.List())
}

func (h *Handler) GetProcedure(c echo.Context) error {
	p, err := h.cat.Resolve(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "procedure not found")
	}
	return c.JSON(http.StatusOK, p)
}
