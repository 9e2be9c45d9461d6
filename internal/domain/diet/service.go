package diet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository

	now func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func validateOrder(o *Order) error {
	if o.AdmissionID == uuid.Nil {
		return errValidation("admission_id is required")
	}
	if _, err := ParseDietType(string(o.Type)); err != nil {
		return err
	}
	if o.MealsPerDay < 1 || o.MealsPerDay > 6 {
		return errValidation("meals per day must be 1..6, got %d", o.MealsPerDay)
	}
	return nil
}

// Create starts a diet order for an admission. An admission can have only one
// active order; the existing one must be stopped first.
func (s *Service) Create(ctx context.Context, o *Order) error {
	if err := validateOrder(o); err != nil {
		return err
	}

	if _, err := s.repo.GetActiveByAdmission(ctx, o.AdmissionID); err == nil {
		return errValidation("admission %s already has an active diet order", o.AdmissionID)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	if o.StartDate.IsZero() {
		o.StartDate = s.now()
	}
	o.Status = OrderActive
	return s.repo.Create(ctx, o)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.repo.GetByID(ctx, id)
}

// Update changes the diet type, meals per day, or instructions of an active
// order.
func (s *Service) Update(ctx context.Context, id uuid.UUID, dietType string, mealsPerDay int, instructions string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status != OrderActive {
		return nil, errValidation("diet order %s is not active", id)
	}

	if dietType != "" {
		t, err := ParseDietType(dietType)
		if err != nil {
			return nil, err
		}
		o.Type = t
	}
	if mealsPerDay != 0 {
		if mealsPerDay < 1 || mealsPerDay > 6 {
			return nil, errValidation("meals per day must be 1..6, got %d", mealsPerDay)
		}
		o.MealsPerDay = mealsPerDay
	}
	if instructions != "" {
		o.Instructions = instructions
	}

	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Stop ends an active order. Stopping a stopped order fails.
func (s *Service) Stop(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status == OrderStopped {
		return nil, errValidation("diet order %s is already stopped", id)
	}
	o.Status = OrderStopped
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// ListActive is the kitchen queue.
func (s *Service) ListActive(ctx context.Context, limit, offset int) ([]*Order, int, error) {
	return s.repo.ListActive(ctx, limit, offset)
}
