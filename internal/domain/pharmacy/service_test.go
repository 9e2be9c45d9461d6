package pharmacy

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// -- Mock Repository --

type mockPharmacyRepo struct {
	medicines map[uuid.UUID]*Medicine
	sales     map[uuid.UUID]*Sale
}

func newMockPharmacyRepo() *mockPharmacyRepo {
	return &mockPharmacyRepo{
		medicines: make(map[uuid.UUID]*Medicine),
		sales:     make(map[uuid.UUID]*Sale),
	}
}

func (m *mockPharmacyRepo) CreateMedicine(_ context.Context, med *Medicine) error {
	med.ID = uuid.New()
	m.medicines[med.ID] = med
	return nil
}

func (m *mockPharmacyRepo) GetMedicine(_ context.Context, id uuid.UUID) (*Medicine, error) {
	med, ok := m.medicines[id]
	if !ok {
		return nil, ErrMedicineNotFound
	}
	return med, nil
}

func (m *mockPharmacyRepo) UpdateMedicine(_ context.Context, med *Medicine) error {
	if _, ok := m.medicines[med.ID]; !ok {
		return ErrMedicineNotFound
	}
	m.medicines[med.ID] = med
	return nil
}

func (m *mockPharmacyRepo) ListMedicines(_ context.Context, search string, limit, offset int) ([]*Medicine, int, error) {
	var result []*Medicine
	for _, med := range m.medicines {
		result = append(result, med)
	}
	return result, len(result), nil
}

func (m *mockPharmacyRepo) LowStock(_ context.Context) ([]*Medicine, error) {
	var result []*Medicine
	for _, med := range m.medicines {
		if med.Stock <= med.ReorderLevel {
			result = append(result, med)
		}
	}
	return result, nil
}

func (m *mockPharmacyRepo) ExpiringBefore(_ context.Context, cutoff time.Time) ([]*Medicine, error) {
	var result []*Medicine
	for _, med := range m.medicines {
		if !med.ExpiryDate.After(cutoff) {
			result = append(result, med)
		}
	}
	return result, nil
}

func (m *mockPharmacyRepo) DecrementStock(_ context.Context, id uuid.UUID, qty int) error {
	med, ok := m.medicines[id]
	if !ok || med.Stock < qty {
		return ErrInsufficientStock
	}
	med.Stock -= qty
	return nil
}

func (m *mockPharmacyRepo) CreateSale(_ context.Context, s *Sale) error {
	s.ID = uuid.New()
	m.sales[s.ID] = s
	return nil
}

func (m *mockPharmacyRepo) GetSale(_ context.Context, id uuid.UUID) (*Sale, error) {
	s, ok := m.sales[id]
	if !ok {
		return nil, ErrSaleNotFound
	}
	return s, nil
}

func (m *mockPharmacyRepo) ListSales(_ context.Context, limit, offset int) ([]*Sale, int, error) {
	var result []*Sale
	for _, s := range m.sales {
		result = append(result, s)
	}
	return result, len(result), nil
}

type mockTxRunner struct{}

func (mockTxRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// -- Helpers --

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func seedMedicine(t *testing.T, svc *Service, name string, stock int, price string) *Medicine {
	t.Helper()
	m := &Medicine{
		Name:         name,
		Category:     "tablet",
		BatchNo:      "B-100",
		ExpiryDate:   time.Now().AddDate(1, 0, 0),
		Stock:        stock,
		ReorderLevel: 10,
		UnitPrice:    d(price),
	}
	if err := svc.CreateMedicine(context.Background(), m); err != nil {
		t.Fatalf("CreateMedicine failed: %v", err)
	}
	return m
}

// -- Tests --

func TestCreateMedicineValidation(t *testing.T) {
	svc := NewService(newMockPharmacyRepo(), mockTxRunner{})
	ctx := context.Background()

	cases := []struct {
		name string
		m    *Medicine
	}{
		{"empty name", &Medicine{Name: " ", UnitPrice: d("10")}},
		{"negative stock", &Medicine{Name: "Paracetamol", Stock: -1, UnitPrice: d("10")}},
		{"negative price", &Medicine{Name: "Paracetamol", UnitPrice: d("-10")}},
	}
	for _, tc := range cases {
		if err := svc.CreateMedicine(ctx, tc.m); !IsValidation(err) {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestCreateSale(t *testing.T) {
	repo := newMockPharmacyRepo()
	svc := NewService(repo, mockTxRunner{})

	para := seedMedicine(t, svc, "Paracetamol", 100, "2.50")
	amox := seedMedicine(t, svc, "Amoxicillin", 50, "12")

	sale, err := svc.CreateSale(context.Background(), SaleInput{
		Mode:            "cash",
		DiscountPercent: d("10"),
		Items: []SaleItemInput{
			{MedicineID: para.ID, Quantity: 10},
			{MedicineID: amox.ID, Quantity: 5},
		},
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}

	// 10*2.50 + 5*12 = 85; 10% discount -> 76.50
	if !sale.Subtotal.Equal(d("85")) {
		t.Errorf("expected subtotal 85, got %s", sale.Subtotal)
	}
	if !sale.Total.Equal(d("76.5")) {
		t.Errorf("expected total 76.5, got %s", sale.Total)
	}
	if sale.BillNo == "" {
		t.Error("bill number should be generated")
	}
	if repo.medicines[para.ID].Stock != 90 {
		t.Errorf("expected stock 90, got %d", repo.medicines[para.ID].Stock)
	}
	if repo.medicines[amox.ID].Stock != 45 {
		t.Errorf("expected stock 45, got %d", repo.medicines[amox.ID].Stock)
	}
}

func TestCreateSaleInsufficientStock(t *testing.T) {
	repo := newMockPharmacyRepo()
	svc := NewService(repo, mockTxRunner{})

	med := seedMedicine(t, svc, "Insulin", 3, "450")

	_, err := svc.CreateSale(context.Background(), SaleInput{
		Mode:  "cash",
		Items: []SaleItemInput{{MedicineID: med.ID, Quantity: 5}},
	})
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.sales) != 0 {
		t.Error("failed sale should not be stored")
	}
}

func TestCreateSaleValidation(t *testing.T) {
	svc := NewService(newMockPharmacyRepo(), mockTxRunner{})
	ctx := context.Background()

	if _, err := svc.CreateSale(ctx, SaleInput{Mode: "cash"}); !IsValidation(err) {
		t.Errorf("expected validation error for empty items, got %v", err)
	}
	if _, err := svc.CreateSale(ctx, SaleInput{
		Items: []SaleItemInput{{MedicineID: uuid.New(), Quantity: 1}},
	}); !IsValidation(err) {
		t.Errorf("expected validation error for missing mode, got %v", err)
	}
	if _, err := svc.CreateSale(ctx, SaleInput{
		Mode:  "bitcoin",
		Items: []SaleItemInput{{MedicineID: uuid.New(), Quantity: 1}},
	}); !IsValidation(err) {
		t.Errorf("expected validation error for unknown payment mode, got %v", err)
	}
	if _, err := svc.CreateSale(ctx, SaleInput{
		Mode:  "cash",
		Items: []SaleItemInput{{MedicineID: uuid.New(), Quantity: 0}},
	}); !IsValidation(err) {
		t.Errorf("expected validation error for zero quantity, got %v", err)
	}
	if _, err := svc.CreateSale(ctx, SaleInput{
		Mode:            "cash",
		DiscountPercent: d("120"),
		Items:           []SaleItemInput{{MedicineID: uuid.New(), Quantity: 1}},
	}); !IsValidation(err) {
		t.Errorf("expected validation error for discount above 100, got %v", err)
	}
}

func TestLowStock(t *testing.T) {
	svc := NewService(newMockPharmacyRepo(), mockTxRunner{})

	seedMedicine(t, svc, "Plenty", 100, "1")
	low := seedMedicine(t, svc, "Scarce", 5, "1")

	meds, err := svc.LowStock(context.Background())
	if err != nil {
		t.Fatalf("LowStock failed: %v", err)
	}
	if len(meds) != 1 || meds[0].ID != low.ID {
		t.Errorf("expected only the scarce medicine, got %d", len(meds))
	}
}

func TestExpiringSoon(t *testing.T) {
	repo := newMockPharmacyRepo()
	svc := NewService(repo, mockTxRunner{})

	fresh := seedMedicine(t, svc, "Fresh", 10, "1")
	repo.medicines[fresh.ID].ExpiryDate = time.Now().AddDate(2, 0, 0)
	soon := seedMedicine(t, svc, "Soon", 10, "1")
	repo.medicines[soon.ID].ExpiryDate = time.Now().AddDate(0, 0, 7)

	meds, err := svc.ExpiringSoon(context.Background(), 30)
	if err != nil {
		t.Fatalf("ExpiringSoon failed: %v", err)
	}
	if len(meds) != 1 || meds[0].ID != soon.ID {
		t.Errorf("expected only the soon-to-expire medicine, got %d", len(meds))
	}
}

func TestParsePaymentMode(t *testing.T) {
	for _, s := range []string{"cash", "card", "upi", "insurance", "cheque"} {
		if _, err := ParsePaymentMode(s); err != nil {
			t.Errorf("ParsePaymentMode(%q) failed: %v", s, err)
		}
	}
	if _, err := ParsePaymentMode("barter"); !IsValidation(err) {
		t.Errorf("expected validation error for unknown mode, got %v", err)
	}
}
