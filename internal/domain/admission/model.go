package admission

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status tracks an admission through its lifecycle.
type Status string

const (
	StatusAdmitted   Status = "admitted"
	StatusDischarged Status = "discharged"
)

// Gender as captured at registration.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

var genders = map[Gender]bool{
	GenderMale:   true,
	GenderFemale: true,
	GenderOther:  true,
}

func ParseGender(s string) (Gender, error) {
	g := Gender(s)
	if !genders[g] {
		return "", errValidation("invalid gender: %q", s)
	}
	return g, nil
}

// Admission maps to the admission table. An admission holds exactly one bed
// from admit until discharge.
type Admission struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	MRN             string     `db:"mrn" json:"mrn"`
	PatientName     string     `db:"patient_name" json:"patient_name"`
	Age             int        `db:"age" json:"age"`
	Gender          Gender     `db:"gender" json:"gender"`
	WardID          uuid.UUID  `db:"ward_id" json:"ward_id"`
	BedID           uuid.UUID  `db:"bed_id" json:"bed_id"`
	AttendingDoctor string     `db:"attending_doctor" json:"attending_doctor"`
	Diagnosis       string     `db:"diagnosis" json:"diagnosis"`
	AdmittedAt      time.Time  `db:"admitted_at" json:"admitted_at"`
	DischargedAt    *time.Time `db:"discharged_at" json:"discharged_at,omitempty"`
	Status          Status     `db:"status" json:"status"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
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
