package pharmacy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Service struct {
	repo Repository
	tx   TxRunner

	now func() time.Time
}

func NewService(repo Repository, tx TxRunner) *Service {
	return &Service{
		repo: repo,
		tx:   tx,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func validateMedicine(m *Medicine) error {
	if strings.TrimSpace(m.Name) == "" {
		return errValidation("medicine name is required")
	}
	if m.Stock < 0 {
		return errValidation("stock must not be negative, got %d", m.Stock)
	}
	if m.ReorderLevel < 0 {
		return errValidation("reorder level must not be negative, got %d", m.ReorderLevel)
	}
	if m.UnitPrice.IsNegative() {
		return errValidation("unit price must not be negative, got %s", m.UnitPrice)
	}
	return nil
}

func (s *Service) CreateMedicine(ctx context.Context, m *Medicine) error {
	if err := validateMedicine(m); err != nil {
		return err
	}
	m.Name = strings.TrimSpace(m.Name)
	return s.repo.CreateMedicine(ctx, m)
}

func (s *Service) GetMedicine(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return s.repo.GetMedicine(ctx, id)
}

func (s *Service) UpdateMedicine(ctx context.Context, m *Medicine) error {
	if err := validateMedicine(m); err != nil {
		return err
	}
	m.Name = strings.TrimSpace(m.Name)
	return s.repo.UpdateMedicine(ctx, m)
}

func (s *Service) ListMedicines(ctx context.Context, search string, limit, offset int) ([]*Medicine, int, error) {
	return s.repo.ListMedicines(ctx, search, limit, offset)
}

// LowStock lists medicines at or below their reorder level.
func (s *Service) LowStock(ctx context.Context) ([]*Medicine, error) {
	return s.repo.LowStock(ctx)
}

// ExpiringSoon lists medicines whose expiry date falls within the given
// number of days from now.
func (s *Service) ExpiringSoon(ctx context.Context, days int) ([]*Medicine, error) {
	if days <= 0 {
		days = 30
	}
	return s.repo.ExpiringBefore(ctx, s.now().AddDate(0, 0, days))
}

// SaleInput is a counter sale as received from the client.
type SaleInput struct {
	MRN             *string         `json:"mrn,omitempty"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Mode            string          `json:"mode"`
	Items           []SaleItemInput `json:"items"`
}

type SaleItemInput struct {
	MedicineID uuid.UUID `json:"medicine_id"`
	Quantity   int       `json:"quantity"`
}

// CreateSale prices each line from the current medicine record, decrements
// stock, and writes the sale - all in one transaction. Any line with more
// units than stock fails the whole sale.
func (s *Service) CreateSale(ctx context.Context, in SaleInput) (*Sale, error) {
	if len(in.Items) == 0 {
		return nil, errValidation("sale must have at least one item")
	}
	mode, err := ParsePaymentMode(in.Mode)
	if err != nil {
		return nil, err
	}
	if in.DiscountPercent.IsNegative() || in.DiscountPercent.GreaterThan(hundred) {
		return nil, errValidation("discount percent must be between 0 and 100, got %s", in.DiscountPercent)
	}
	for i, item := range in.Items {
		if item.Quantity <= 0 {
			return nil, errValidation("item %d: quantity must be positive, got %d", i+1, item.Quantity)
		}
	}

	soldAt := s.now()
	sale := &Sale{
		BillNo:          fmt.Sprintf("PH-%s", soldAt.Format("20060102-150405.000")),
		MRN:             in.MRN,
		DiscountPercent: in.DiscountPercent,
		Mode:            mode,
		SoldAt:          soldAt,
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		subtotal := decimal.Zero
		for _, item := range in.Items {
			med, err := s.repo.GetMedicine(ctx, item.MedicineID)
			if err != nil {
				return err
			}
			if err := s.repo.DecrementStock(ctx, med.ID, item.Quantity); err != nil {
				if err == ErrInsufficientStock {
					return errValidation("%s: only %d in stock, requested %d", med.Name, med.Stock, item.Quantity)
				}
				return err
			}
			lineTotal := med.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
			sale.Items = append(sale.Items, &SaleItem{
				MedicineID: med.ID,
				Name:       med.Name,
				Quantity:   item.Quantity,
				UnitPrice:  med.UnitPrice,
				Total:      lineTotal,
			})
			subtotal = subtotal.Add(lineTotal)
		}

		sale.Subtotal = subtotal
		discount := subtotal.Mul(sale.DiscountPercent).Div(hundred)
		sale.Total = subtotal.Sub(discount)

		return s.repo.CreateSale(ctx, sale)
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *Service) GetSale(ctx context.Context, id uuid.UUID) (*Sale, error) {
	return s.repo.GetSale(ctx, id)
}

func (s *Service) ListSales(ctx context.Context, limit, offset int) ([]*Sale, int, error) {
	return s.repo.ListSales(ctx, limit, offset)
}
