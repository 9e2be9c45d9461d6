package diet

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DietType is the kitchen-facing diet classification.
type DietType string

const (
	DietRegular  DietType = "regular"
	DietDiabetic DietType = "diabetic"
	DietRenal    DietType = "renal"
	DietLiquid   DietType = "liquid"
	DietSoft     DietType = "soft"
	DietCardiac  DietType = "cardiac"
)

var dietTypes = map[DietType]bool{
	DietRegular:  true,
	DietDiabetic: true,
	DietRenal:    true,
	DietLiquid:   true,
	DietSoft:     true,
	DietCardiac:  true,
}

func ParseDietType(s string) (DietType, error) {
	t := DietType(s)
	if !dietTypes[t] {
		return "", errValidation("invalid diet type: %q", s)
	}
	return t, nil
}

// OrderStatus is the diet order lifecycle: active until explicitly stopped.
type OrderStatus string

const (
	OrderActive  OrderStatus = "active"
	OrderStopped OrderStatus = "stopped"
)

// Order maps to the diet_order table. An admission has at most one active
// order at a time.
type Order struct {
	ID           uuid.UUID   `db:"id" json:"id"`
	AdmissionID  uuid.UUID   `db:"admission_id" json:"admission_id"`
	Type         DietType    `db:"diet_type" json:"diet_type"`
	MealsPerDay  int         `db:"meals_per_day" json:"meals_per_day"`
	Instructions string      `db:"instructions" json:"instructions"`
	StartDate    time.Time   `db:"start_date" json:"start_date"`
	Status       OrderStatus `db:"status" json:"status"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// ValidationError marks input errors reported before any persistence happens.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func errValidation(format string, args ...interface{}) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
