package ward

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WardType classifies a ward by accommodation level.
type WardType string

const (
	TypeGeneral     WardType = "general"
	TypeSemiPrivate WardType = "semi_private"
	TypePrivate     WardType = "private"
	TypeICU         WardType = "icu"
	TypeHDU         WardType = "hdu"
)

var wardTypes = map[WardType]bool{
	TypeGeneral:     true,
	TypeSemiPrivate: true,
	TypePrivate:     true,
	TypeICU:         true,
	TypeHDU:         true,
}

func ParseWardType(s string) (WardType, error) {
	t := WardType(s)
	if !wardTypes[t] {
		return "", errValidation("invalid ward type: %q", s)
	}
	return t, nil
}

// BedStatus tracks a bed's availability.
type BedStatus string

const (
	BedAvailable   BedStatus = "available"
	BedOccupied    BedStatus = "occupied"
	BedMaintenance BedStatus = "maintenance"
)

var bedStatuses = map[BedStatus]bool{
	BedAvailable:   true,
	BedOccupied:    true,
	BedMaintenance: true,
}

func ParseBedStatus(s string) (BedStatus, error) {
	b := BedStatus(s)
	if !bedStatuses[b] {
		return "", errValidation("invalid bed status: %q", s)
	}
	return b, nil
}

// Ward maps to the ward table. DailyRate feeds the bed charge on admission
// bills.
type Ward struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Type      WardType        `db:"ward_type" json:"ward_type"`
	Floor     string          `db:"floor" json:"floor"`
	DailyRate decimal.Decimal `db:"daily_rate" json:"daily_rate"`
	Active    bool            `db:"active" json:"active"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// Bed maps to the bed table.
type Bed struct {
	ID        uuid.UUID `db:"id" json:"id"`
	WardID    uuid.UUID `db:"ward_id" json:"ward_id"`
	Number    string    `db:"number" json:"number"`
	Status    BedStatus `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Occupancy is the per-ward bed count summary.
type Occupancy struct {
	WardID    uuid.UUID `json:"ward_id"`
	WardName  string    `json:"ward_name"`
	Total     int       `json:"total"`
	Occupied  int       `json:"occupied"`
	Available int       `json:"available"`
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
