package billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func charge(category ChargeCategory, qty int, unitPrice string) *Charge {
	up := d(unitPrice)
	return &Charge{
		Category:  category,
		Quantity:  qty,
		UnitPrice: up,
		Total:     ChargeTotal(qty, up),
	}
}

func TestChargeTotal(t *testing.T) {
	if got := ChargeTotal(3, d("1500")); !got.Equal(d("4500")) {
		t.Errorf("expected 4500, got %s", got)
	}
	if got := ChargeTotal(1, d("0")); !got.IsZero() {
		t.Errorf("expected 0 for zero unit price, got %s", got)
	}
	if got := ChargeTotal(2, d("250.50")); !got.Equal(d("501")) {
		t.Errorf("expected 501, got %s", got)
	}
}

func TestComputeOrderOfOperations(t *testing.T) {
	// Tax applies to the post-discount base, not the raw subtotal.
	charges := []*Charge{charge(CategoryProcedure, 1, "1000")}

	totals := Compute(charges, d("10"), d("5"), decimal.Zero)

	if !totals.Subtotal.Equal(d("1000")) {
		t.Errorf("subtotal: expected 1000, got %s", totals.Subtotal)
	}
	if !totals.Discount.Equal(d("100")) {
		t.Errorf("discount: expected 100, got %s", totals.Discount)
	}
	if !totals.Tax.Equal(d("45")) {
		t.Errorf("tax: expected 45 (5%% of 900), got %s", totals.Tax)
	}
	if !totals.Total.Equal(d("945")) {
		t.Errorf("total: expected 945, got %s", totals.Total)
	}
}

func TestComputeIdempotent(t *testing.T) {
	charges := []*Charge{
		charge(CategoryBed, 3, "1500"),
		charge(CategoryPharmacy, 2, "250"),
	}

	first := Compute(charges, d("10"), d("5"), d("2000"))
	second := Compute(charges, d("10"), d("5"), d("2000"))

	if !first.Total.Equal(second.Total) || !first.Balance.Equal(second.Balance) ||
		first.Status != second.Status {
		t.Errorf("recompute with identical inputs diverged: %+v vs %+v", first, second)
	}
}

func TestComputeFullDiscount(t *testing.T) {
	charges := []*Charge{charge(CategoryLab, 4, "300")}

	totals := Compute(charges, d("100"), d("5"), decimal.Zero)

	if !totals.Discount.Equal(totals.Subtotal) {
		t.Errorf("discount %s should equal subtotal %s at 100%%", totals.Discount, totals.Subtotal)
	}
	if !totals.Tax.IsZero() {
		t.Errorf("tax should be 0 on a zero base, got %s", totals.Tax)
	}
	if !totals.Total.IsZero() {
		t.Errorf("total should be 0, got %s", totals.Total)
	}
}

func TestComputeEmptyLedger(t *testing.T) {
	totals := Compute(nil, d("10"), d("5"), decimal.Zero)

	if !totals.Subtotal.IsZero() || !totals.Total.IsZero() || !totals.Balance.IsZero() {
		t.Errorf("empty ledger should produce zero totals, got %+v", totals)
	}
}

func TestComputeWorkedScenario(t *testing.T) {
	// Three bed days at 1500 plus two pharmacy units at 250, 10% discount,
	// 5% tax on the discounted base.
	charges := []*Charge{
		charge(CategoryBed, 3, "1500"),
		charge(CategoryPharmacy, 2, "250"),
	}

	totals := Compute(charges, d("10"), d("5"), decimal.Zero)

	if !totals.Subtotal.Equal(d("5000")) {
		t.Errorf("subtotal: expected 5000, got %s", totals.Subtotal)
	}
	if !totals.Discount.Equal(d("500")) {
		t.Errorf("discount: expected 500, got %s", totals.Discount)
	}
	if !totals.Tax.Equal(d("225")) {
		t.Errorf("tax: expected 225, got %s", totals.Tax)
	}
	if !totals.Total.Equal(d("4725")) {
		t.Errorf("total: expected 4725, got %s", totals.Total)
	}
	if totals.Status != StatusPending {
		t.Errorf("status: expected Pending before any payment, got %s", totals.Status)
	}

	// First payment of 2000.
	totals = Compute(charges, d("10"), d("5"), d("2000"))
	if !totals.Balance.Equal(d("2725")) {
		t.Errorf("balance after 2000: expected 2725, got %s", totals.Balance)
	}
	if totals.Status != StatusPartial {
		t.Errorf("status after 2000: expected Partial, got %s", totals.Status)
	}

	// Second payment of 2725 settles the bill.
	totals = Compute(charges, d("10"), d("5"), d("4725"))
	if !totals.Balance.IsZero() {
		t.Errorf("balance after settlement: expected 0, got %s", totals.Balance)
	}
	if totals.Status != StatusPaid {
		t.Errorf("status after settlement: expected Paid, got %s", totals.Status)
	}
}

func TestBedDays(t *testing.T) {
	admitted := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		until time.Time
		want  int
	}{
		{"same moment", admitted, 1},
		{"a few hours", admitted.Add(6 * time.Hour), 1},
		{"exactly one day", admitted.Add(24 * time.Hour), 1},
		{"one day and an hour", admitted.Add(25 * time.Hour), 2},
		{"three full days", admitted.Add(72 * time.Hour), 3},
	}
	for _, tc := range cases {
		if got := BedDays(admitted, tc.until); got != tc.want {
			t.Errorf("%s: expected %d days, got %d", tc.name, tc.want, got)
		}
	}
}

func TestParseChargeCategory(t *testing.T) {
	if _, err := ParseChargeCategory("bed"); err != nil {
		t.Errorf("bed should be valid: %v", err)
	}
	if _, err := ParseChargeCategory("spa"); err == nil {
		t.Error("expected error for unknown category")
	} else if !IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestParsePaymentMode(t *testing.T) {
	for _, mode := range []string{"cash", "card", "upi", "insurance", "cheque"} {
		if _, err := ParsePaymentMode(mode); err != nil {
			t.Errorf("%s should be valid: %v", mode, err)
		}
	}
	if _, err := ParsePaymentMode("barter"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestTotalsRounded(t *testing.T) {
	totals := Totals{
		Subtotal: d("100.005"),
		Discount: d("33.3333333"),
		Tax:      d("3.14159"),
		Total:    d("69.81326"),
		Paid:     d("0"),
		Balance:  d("69.81326"),
		Status:   StatusPending,
	}

	r := totals.Rounded()
	if r.Discount.String() != "33.33" {
		t.Errorf("expected 33.33, got %s", r.Discount)
	}
	if r.Tax.String() != "3.14" {
		t.Errorf("expected 3.14, got %s", r.Tax)
	}
	if r.Status != StatusPending {
		t.Errorf("status should carry through, got %s", r.Status)
	}
}
