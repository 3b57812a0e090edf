// Package bookings records confirmed appointments in an append-only ledger and
// dispatches confirmation notifications.
package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StatusConfirmed is the only status this flow writes.
const StatusConfirmed = "Confirmed"

// TimestampLayout is how booking timestamps appear in the ledger.
const TimestampLayout = "2006-01-02 15:04:05"

// Appointment is an immutable ledger record. Patient and insurance fields are
// copied by value at confirmation time.
type Appointment struct {
	ID               uuid.UUID `json:"id"`
	PatientName      string    `json:"patient_name"`
	PatientType      string    `json:"patient_type"`
	PatientEmail     string    `json:"patient_email"`
	PatientDOB       string    `json:"patient_dob"`
	Doctor           string    `json:"doctor"`
	Date             string    `json:"date"`
	Time             string    `json:"time"`
	DurationMinutes  int       `json:"duration_minutes"`
	InsuranceCarrier string    `json:"insurance_carrier"`
	MemberID         string    `json:"member_id"`
	GroupNumber      string    `json:"group_number,omitempty"`
	Status           string    `json:"status"`
	BookedAt         time.Time `json:"booked_at"`
}

// Ledger is the durable, append-only appointment record.
type Ledger interface {
	Append(ctx context.Context, appt Appointment) error
	List(ctx context.Context) ([]Appointment, error)
}

// Notifier delivers the confirmation for an appointment to the patient.
type Notifier interface {
	NotifyBooking(ctx context.Context, appt Appointment) error
}

// ledgerColumns is the header row shared by file ledgers.
var ledgerColumns = []string{
	"Patient Name", "Patient Type", "Patient Email", "Date of Birth",
	"Doctor", "Appointment Date", "Appointment Time", "Duration (min)",
	"Insurance Carrier", "Member ID", "Group Number", "Status", "Booking Timestamp",
}
