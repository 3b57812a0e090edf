// Package patients is the directory of known patients used to tell new
// patients from returning ones.
package patients

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidPatient is returned when a patient lacks the lookup key fields.
var ErrInvalidPatient = errors.New("patients: first name, last name and date of birth are required")

// Patient is one directory row. DOB is stored as MM/DD/YYYY.
type Patient struct {
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	DOB              string `json:"dob"`
	Phone            string `json:"phone,omitempty"`
	Email            string `json:"email,omitempty"`
	IsReturning      bool   `json:"is_returning"`
	InsuranceCarrier string `json:"insurance_carrier,omitempty"`
	MemberID         string `json:"member_id,omitempty"`
	GroupNumber      string `json:"group_number,omitempty"`
}

// Validate checks the fields that make up the lookup key.
func (p Patient) Validate() error {
	if strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "" || strings.TrimSpace(p.DOB) == "" {
		return ErrInvalidPatient
	}
	return nil
}

// Matches reports whether the patient's names contain the fragments
// (case-insensitive) and the DOB is exactly equal.
func (p Patient) Matches(firstFragment, lastFragment, dob string) bool {
	return p.DOB == dob &&
		strings.Contains(strings.ToLower(p.FirstName), strings.ToLower(firstFragment)) &&
		strings.Contains(strings.ToLower(p.LastName), strings.ToLower(lastFragment))
}

// Directory looks up and appends patients.
type Directory interface {
	// FindMatch returns the first matching patient, or nil without error on a miss.
	FindMatch(ctx context.Context, firstFragment, lastFragment, dob string) (*Patient, error)
	// Append durably adds a patient; the directory only ever grows.
	Append(ctx context.Context, p Patient) error
}
