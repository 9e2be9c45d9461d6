package diet

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hims/hims/internal/platform/auth"
	"github.com/hims/hims/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Read endpoints – any staff role
	api.GET("/diet-orders", h.ListActive)
	api.GET("/diet-orders/:id", h.Get)

	// Write endpoints – admin, doctor, nurse
	writeGroup := api.Group("", auth.RequireRole("admin", "doctor", "nurse"))
	writeGroup.POST("/diet-orders", h.Create)
	writeGroup.PUT("/diet-orders/:id", h.Update)
	writeGroup.POST("/diet-orders/:id/stop", h.Stop)
}

func (h *Handler) mapErr(err error) error {
	switch {
	case IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) Create(c echo.Context) error {
	var o Order
	if err := c.Bind(&o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &o); err != nil {
		return h.mapErr(err)
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	o, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return h.mapErr(err)
	}
	return c.JSON(http.StatusOK, o)
}

type updateRequest struct {
	DietType     string `json:"diet_type"`
	MealsPerDay  int    `json:"meals_per_day"`
	Instructions string `json:"instructions"`
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	o, err := h.svc.Update(c.Request().Context(), id, req.DietType, req.MealsPerDay, req.Instructions)
	if err != nil {
		return h.mapErr(err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) Stop(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	o, err := h.svc.Stop(c.Request().Context(), id)
	if err != nil {
		return h.mapErr(err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) ListActive(c echo.Context) error {
	pg := pagination.FromContext(c)
	orders, total, err := h.svc.ListActive(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return h.mapErr(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(orders, total, pg.Limit, pg.Offset))
}
