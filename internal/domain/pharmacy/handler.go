package pharmacy

import (
	"errors"
	"net/http"
	"strconv"

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
	api.GET("/medicines", h.ListMedicines)
	api.GET("/medicines/low-stock", h.LowStock)
	api.GET("/medicines/expiring", h.Expiring)
	api.GET("/medicines/:id", h.GetMedicine)

	// Write endpoints – admin, pharmacist
	writeGroup := api.Group("", auth.RequireRole("admin", "pharmacist"))
	writeGroup.POST("/medicines", h.CreateMedicine)
	writeGroup.PUT("/medicines/:id", h.UpdateMedicine)
	writeGroup.POST("/pharmacy-sales", h.CreateSale)
	writeGroup.GET("/pharmacy-sales", h.ListSales)
	writeGroup.GET("/pharmacy-sales/:id", h.GetSale)
}

func (h *Handler) mapErr(err error) error {
	switch {
	case IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrMedicineNotFound), errors.Is(err, ErrSaleNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) CreateMedicine(c echo.Context) error {
	var m Medicine
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateMedicine(c.Request().Context(), &m); err != nil {
		return h.mapErr(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) GetMedicine(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	m, err := h.svc.GetMedicine(c.Request().Context(), id)
	if err != nil {
		return h.mapErr(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) UpdateMedicine(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var m Medicine
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m.ID = id
	if err := h.svc.UpdateMedicine(c.Request().Context(), &m); err != nil {
		return h.mapErr(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) ListMedicines(c echo.Context) error {
	pg := pagination.FromContext(c)
	meds, total, err := h.svc.ListMedicines(c.Request().Context(), c.QueryParam("search"), pg.Limit, pg.Offset)
	if err != nil {
		return h.mapErr(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(meds, total, pg.Limit, pg.Offset))
}

func (h *Handler) LowStock(c echo.Context) error {
	meds, err := h.svc.LowStock(c.Request().Context())
	if err != nil {
		return h.mapErr(err)
	}
	return c.JSON(http.StatusOK, meds)
}

func (h *Handler) Expiring(c echo.Context) error {
	days, _ := strconv.Atoi(c.QueryParam("days"))
	meds, err := h.svc.ExpiringSoon(c.Request().Context(), days)
	if err != nil {
		return h.mapErr(err)
	}
	return c.JSON(http.StatusOK, meds)
}

func (h *Handler) CreateSale(c echo.Context) error {
	var in SaleInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sale, err := h.svc.CreateSale(c.Request().Context(), in)
	if err != nil {
		return h.mapErr(err)
	}
	return c.JSON(http.StatusCreated, sale)
}

func (h *Handler) GetSale(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	sale, err := h.svc.GetSale(c.Request().Context(), id)
	if err != nil {
		return h.mapErr(err)
	}
	return c.JSON(http.StatusOK, sale)
}

func (h *Handler) ListSales(c echo.Context) error {
	pg := pagination.FromContext(c)
	sales, total, err := h.svc.ListSales(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return h.mapErr(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(sales, total, pg.Limit, pg.Offset))
}
