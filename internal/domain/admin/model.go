package admin

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role is the closed set of staff roles. Route guards key off these values.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleDoctor       Role = "doctor"
	RoleNurse        Role = "nurse"
	RoleReceptionist Role = "receptionist"
	RolePharmacist   Role = "pharmacist"
	RoleAccountant   Role = "accountant"
)

var roles = map[Role]bool{
	RoleAdmin:        true,
	RoleDoctor:       true,
	RoleNurse:        true,
	RoleReceptionist: true,
	RolePharmacist:   true,
	RoleAccountant:   true,
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !roles[r] {
		return "", errValidation("invalid role: %q", s)
	}
	return r, nil
}

// User maps to the app_user table. PasswordHash never leaves the API.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         Role       `db:"role" json:"role"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Setting is one key/value configuration row.
type Setting struct {
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Setting keys consumed elsewhere in the system.
const (
	SettingDefaultTaxPercent      = "default_tax_percent"
	SettingDefaultDiscountPercent = "default_discount_percent"
)

// AuditEntry is one append-only audit log row.
type AuditEntry struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Actor     string    `db:"actor" json:"actor"`
	Action    string    `db:"action" json:"action"`
	Entity    string    `db:"entity" json:"entity"`
	EntityID  string    `db:"entity_id" json:"entity_id"`
	Detail    string    `db:"detail" json:"detail"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RevenueLine is one charge-category slice of the revenue report.
type RevenueLine struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// RevenueReport summarizes billed charges and collected payments between two
// dates.
type RevenueReport struct {
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
	ByCategory  []*RevenueLine  `json:"by_category"`
	TotalBilled decimal.Decimal `json:"total_billed"`
	Collected   decimal.Decimal `json:"collected"`
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
