package billing

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/hims/hims/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Read endpoints – admin, accountant, receptionist
	readGroup := api.Group("", auth.RequireRole("admin", "accountant", "receptionist"))
	readGroup.GET("/ipd-billing/:admissionId", h.GetInvoice)

	// Write endpoints – admin, accountant
	writeGroup := api.Group("", auth.RequireRole("admin", "accountant"))
	writeGroup.POST("/ipd-billing", h.SaveBill)
	writeGroup.POST("/ipd-billing/:admissionId/pay", h.RecordPayment)
	writeGroup.POST("/ipd-billing/:admissionId/charges", h.AddCharge)
	writeGroup.POST("/ipd-billing/:admissionId/bed-charge", h.AddBedCharge)
	writeGroup.PATCH("/ipd-billing/:admissionId/percentages", h.SetPercentages)
}

// present rounds all monetary amounts to two decimals for the response body.
func present(inv *Invoice) *Invoice {
	inv.Totals = inv.Totals.Rounded()
	return inv
}

func admissionID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("admissionId"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid admission id")
	}
	return id, nil
}

func (h *Handler) GetInvoice(c echo.Context) error {
	id, err := admissionID(c)
	if err != nil {
		return err
	}
	inv, err := h.svc.GetInvoice(c.Request().Context(), id)
	if err != nil {
		if IsValidation(err) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusNotFound, "admission not found")
	}
	return c.JSON(http.StatusOK, present(inv))
}

func (h *Handler) SaveBill(c echo.Context) error {
	var snap BillSnapshot
	if err := c.Bind(&snap); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	inv, err := h.svc.SaveBill(c.Request().Context(), snap)
	if err != nil {
		if IsValidation(err) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, present(inv))
}

type paymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Mode      string          `json:"mode"`
	Reference *string         `json:"reference,omitempty"`
}

func (h *Handler) RecordPayment(c echo.Context) error {
	id, err := admissionID(c)
	if err != nil {
		return err
	}
	var req paymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	inv, err := h.svc.RecordPayment(c.Request().Context(), id, req.Amount, req.Mode, req.Reference)
	if err != nil {
		if IsValidation(err) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, present(inv))
}

func (h *Handler) AddCharge(c echo.Context) error {
	id, err := admissionID(c)
	if err != nil {
		return err
	}
	var in ChargeInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	charge, err := h.svc.AddCharge(c.Request().Context(), id, in)
	if err != nil {
		if IsValidation(err) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, charge)
}

func (h *Handler) AddBedCharge(c echo.Context) error {
	id, err := admissionID(c)
	if err != nil {
		return err
	}
	charge, err := h.svc.AddBedCharge(c.Request().Context(), id)
	if err != nil {
		if IsValidation(err) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, charge)
}

type percentagesRequest struct {
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
}

func (h *Handler) SetPercentages(c echo.Context) error {
	id, err := admissionID(c)
	if err != nil {
		return err
	}
	var req percentagesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	inv, err := h.svc.SetPercentages(c.Request().Context(), id, req.DiscountPercent, req.TaxPercent)
	if err != nil {
		if IsValidation(err) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, present(inv))
}
