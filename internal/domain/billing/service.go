package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AdmissionInfo is the slice of an admission the billing module needs.
type AdmissionInfo struct {
	AdmissionID  uuid.UUID
	MRN          string
	PatientName  string
	WardName     string
	DailyRate    decimal.Decimal
	AdmittedAt   time.Time
	DischargedAt *time.Time
}

// AdmissionSource supplies admission details and performs the discharge that
// concludes a finalized bill. Implemented by an adapter over the admission
// service to avoid a package cycle.
type AdmissionSource interface {
	Info(ctx context.Context, admissionID uuid.UUID) (*AdmissionInfo, error)
	Discharge(ctx context.Context, admissionID uuid.UUID, at time.Time) error
}

type Service struct {
	repo       Repository
	tx         TxRunner
	admissions AdmissionSource

	defaultDiscount decimal.Decimal
	defaultTax      decimal.Decimal

	now func() time.Time
}

func NewService(repo Repository, tx TxRunner, admissions AdmissionSource) *Service {
	return &Service{
		repo:       repo,
		tx:         tx,
		admissions: admissions,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetDefaultPercents sets the discount and tax percentages applied to bills
// that have no stored parameters yet.
func (s *Service) SetDefaultPercents(discount, tax decimal.Decimal) {
	s.defaultDiscount = discount
	s.defaultTax = tax
}

// ChargeInput is a charge line as received from the client.
type ChargeInput struct {
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	ChargeDate  time.Time       `json:"charge_date"`
}

// BillSnapshot is the full bill payload persisted atomically on save.
type BillSnapshot struct {
	AdmissionID     uuid.UUID       `json:"admission_id"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
	Charges         []ChargeInput   `json:"charges"`
	Discharge       bool            `json:"discharge"`
}

// buildCharge validates a charge input and materializes it with its derived
// total.
func (s *Service) buildCharge(admissionID uuid.UUID, in ChargeInput) (*Charge, error) {
	category, err := ParseChargeCategory(in.Category)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, errValidation("description is required")
	}
	if in.Quantity <= 0 {
		return nil, errValidation("quantity must be positive, got %d", in.Quantity)
	}
	if in.UnitPrice.IsNegative() {
		return nil, errValidation("unit price must not be negative, got %s", in.UnitPrice)
	}
	chargeDate := in.ChargeDate
	if chargeDate.IsZero() {
		chargeDate = s.now()
	}
	return &Charge{
		AdmissionID: admissionID,
		Category:    category,
		Description: strings.TrimSpace(in.Description),
		Quantity:    in.Quantity,
		UnitPrice:   in.UnitPrice,
		Total:       ChargeTotal(in.Quantity, in.UnitPrice),
		ChargeDate:  chargeDate,
	}, nil
}

// AddCharge validates and appends one line item to the admission's ledger.
func (s *Service) AddCharge(ctx context.Context, admissionID uuid.UUID, in ChargeInput) (*Charge, error) {
	if _, err := s.admissions.Info(ctx, admissionID); err != nil {
		return nil, fmt.Errorf("admission not found: %w", err)
	}
	charge, err := s.buildCharge(admissionID, in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AddCharge(ctx, charge); err != nil {
		return nil, err
	}
	return charge, nil
}

// AddBedCharge derives the bed-stay charge from the admission's ward rate and
// stay duration and appends it to the ledger. The stay is billed per started
// day, minimum one day; an open admission is billed up to now.
func (s *Service) AddBedCharge(ctx context.Context, admissionID uuid.UUID) (*Charge, error) {
	info, err := s.admissions.Info(ctx, admissionID)
	if err != nil {
		return nil, fmt.Errorf("admission not found: %w", err)
	}

	until := s.now()
	if info.DischargedAt != nil {
		until = *info.DischargedAt
	}
	days := BedDays(info.AdmittedAt, until)

	charge := &Charge{
		AdmissionID: admissionID,
		Category:    CategoryBed,
		Description: fmt.Sprintf("Bed charges - %s (%d day(s))", info.WardName, days),
		Quantity:    days,
		UnitPrice:   info.DailyRate,
		Total:       ChargeTotal(days, info.DailyRate),
		ChargeDate:  until,
	}
	if err := s.repo.AddCharge(ctx, charge); err != nil {
		return nil, err
	}
	return charge, nil
}

// params returns the stored bill parameters for an admission, falling back to
// the configured defaults when the bill has not been touched yet.
func (s *Service) params(ctx context.Context, admissionID uuid.UUID) (*BillParams, error) {
	p, err := s.repo.GetParams(ctx, admissionID)
	if errors.Is(err, ErrParamsNotFound) {
		return &BillParams{
			AdmissionID:     admissionID,
			DiscountPercent: s.defaultDiscount,
			TaxPercent:      s.defaultTax,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func sumPayments(payments []*Payment) decimal.Decimal {
	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}
	return paid
}

// GetInvoice assembles the derived invoice for one admission. Totals are
// recomputed from the ledger and parameters on every call; nothing derived is
// read back from storage.
func (s *Service) GetInvoice(ctx context.Context, admissionID uuid.UUID) (*Invoice, error) {
	info, err := s.admissions.Info(ctx, admissionID)
	if err != nil {
		return nil, fmt.Errorf("admission not found: %w", err)
	}

	p, err := s.params(ctx, admissionID)
	if err != nil {
		return nil, err
	}
	charges, err := s.repo.ListCharges(ctx, admissionID)
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.ListPayments(ctx, admissionID)
	if err != nil {
		return nil, err
	}

	until := s.now()
	if info.DischargedAt != nil {
		until = *info.DischargedAt
	}

	return &Invoice{
		AdmissionID:     admissionID,
		PatientRef:      info.MRN,
		PatientName:     info.PatientName,
		AdmittedAt:      info.AdmittedAt,
		DischargedAt:    info.DischargedAt,
		TotalDays:       BedDays(info.AdmittedAt, until),
		DiscountPercent: p.DiscountPercent,
		TaxPercent:      p.TaxPercent,
		Finalized:       p.Finalized,
		Charges:         charges,
		Payments:        payments,
		Totals:          Compute(charges, p.DiscountPercent, p.TaxPercent, sumPayments(payments)),
	}, nil
}

func validatePercent(name string, p decimal.Decimal) error {
	if p.IsNegative() || p.GreaterThan(hundred) {
		return errValidation("%s must be between 0 and 100, got %s", name, p)
	}
	return nil
}

// SetPercentages updates the discount and tax percentages for an admission's
// bill. A change that would push the recomputed total below what has already
// been paid is rejected, so paid can never exceed total.
func (s *Service) SetPercentages(ctx context.Context, admissionID uuid.UUID, discount, tax decimal.Decimal) (*Invoice, error) {
	if err := validatePercent("discount percent", discount); err != nil {
		return nil, err
	}
	if err := validatePercent("tax percent", tax); err != nil {
		return nil, err
	}

	inv, err := s.GetInvoice(ctx, admissionID)
	if err != nil {
		return nil, err
	}

	prospective := Compute(inv.Charges, discount, tax, inv.Totals.Paid)
	if prospective.Total.LessThan(inv.Totals.Paid) {
		return nil, errValidation("new percentages would reduce total %s below amount already paid %s",
			prospective.Total.Round(2), inv.Totals.Paid.Round(2))
	}

	if err := s.repo.UpsertParams(ctx, &BillParams{
		AdmissionID:     admissionID,
		DiscountPercent: discount,
		TaxPercent:      tax,
		Finalized:       inv.Finalized,
	}); err != nil {
		return nil, err
	}

	return s.GetInvoice(ctx, admissionID)
}

// RecordPayment appends a payment against the admission's bill. The amount
// must be positive and must not exceed the current balance; on failure
// nothing is stored.
func (s *Service) RecordPayment(ctx context.Context, admissionID uuid.UUID, amount decimal.Decimal, mode string, reference *string) (*Invoice, error) {
	paymentMode, err := ParsePaymentMode(mode)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, errValidation("payment amount must be positive, got %s", amount)
	}

	inv, err := s.GetInvoice(ctx, admissionID)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(inv.Totals.Balance) {
		return nil, errValidation("payment %s exceeds outstanding balance %s",
			amount.Round(2), inv.Totals.Balance.Round(2))
	}

	payment := &Payment{
		AdmissionID: admissionID,
		Amount:      amount,
		Mode:        paymentMode,
		Reference:   reference,
		PaidAt:      s.now(),
	}
	if err := s.repo.AddPayment(ctx, payment); err != nil {
		return nil, err
	}

	return s.GetInvoice(ctx, admissionID)
}

// SaveBill persists a full bill snapshot in one transaction: the charge list
// is replaced wholesale, the parameters are upserted, the bill is marked
// finalized, and - when requested - the admission is discharged. The last
// save wins; there is no concurrent-editor conflict resolution.
func (s *Service) SaveBill(ctx context.Context, snap BillSnapshot) (*Invoice, error) {
	if snap.AdmissionID == uuid.Nil {
		return nil, errValidation("admission_id is required")
	}
	if err := validatePercent("discount percent", snap.DiscountPercent); err != nil {
		return nil, err
	}
	if err := validatePercent("tax percent", snap.TaxPercent); err != nil {
		return nil, err
	}

	charges := make([]*Charge, 0, len(snap.Charges))
	for i, in := range snap.Charges {
		c, err := s.buildCharge(snap.AdmissionID, in)
		if err != nil {
			return nil, errValidation("charge %d: %v", i+1, err)
		}
		charges = append(charges, c)
	}

	info, err := s.admissions.Info(ctx, snap.AdmissionID)
	if err != nil {
		return nil, fmt.Errorf("admission not found: %w", err)
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		payments, err := s.repo.ListPayments(ctx, snap.AdmissionID)
		if err != nil {
			return err
		}
		paid := sumPayments(payments)

		prospective := Compute(charges, snap.DiscountPercent, snap.TaxPercent, paid)
		if prospective.Total.LessThan(paid) {
			return errValidation("bill total %s is below amount already paid %s",
				prospective.Total.Round(2), paid.Round(2))
		}

		if err := s.repo.ReplaceCharges(ctx, snap.AdmissionID, charges); err != nil {
			return err
		}
		if err := s.repo.UpsertParams(ctx, &BillParams{
			AdmissionID:     snap.AdmissionID,
			DiscountPercent: snap.DiscountPercent,
			TaxPercent:      snap.TaxPercent,
			Finalized:       true,
		}); err != nil {
			return err
		}

		if snap.Discharge && info.DischargedAt == nil {
			if err := s.admissions.Discharge(ctx, snap.AdmissionID, s.now()); err != nil {
				return fmt.Errorf("discharge admission: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetInvoice(ctx, snap.AdmissionID)
}
