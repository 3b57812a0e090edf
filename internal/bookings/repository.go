package bookings

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wolfman30/clinic-intake/pkg/logging"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresLedger appends appointments to the appointments table.
type PostgresLedger struct {
	db     DB
	logger *logging.Logger
}

// NewPostgresLedger wires the ledger to a pgx pool.
func NewPostgresLedger(db DB, logger *logging.Logger) *PostgresLedger {
	if db == nil {
		panic("bookings: postgres db required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PostgresLedger{db: db, logger: logger}
}

// Append inserts one appointment row.
func (l *PostgresLedger) Append(ctx context.Context, appt Appointment) error {
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	_, err := l.db.Exec(ctx, `
		INSERT INTO appointments (
			id, patient_name, patient_type, patient_email, patient_dob,
			doctor, appt_date, appt_time, duration_minutes,
			insurance_carrier, member_id, group_number, status, booked_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		appt.ID, appt.PatientName, appt.PatientType, appt.PatientEmail, appt.PatientDOB,
		appt.Doctor, appt.Date, appt.Time, appt.DurationMinutes,
		appt.InsuranceCarrier, appt.MemberID, appt.GroupNumber, appt.Status, appt.BookedAt,
	)
	if err != nil {
		return fmt.Errorf("bookings: insert appointment: %w", err)
	}
	l.logger.Info("appointment appended to ledger", "appointment_id", appt.ID, "doctor", appt.Doctor, "date", appt.Date, "time", appt.Time)
	return nil
}

// List returns appointments in booking order.
func (l *PostgresLedger) List(ctx context.Context) ([]Appointment, error) {
	rows, err := l.db.Query(ctx, `
		SELECT id, patient_name, patient_type, patient_email, patient_dob,
		       doctor, appt_date, appt_time, duration_minutes,
		       insurance_carrier, member_id, group_number, status, booked_at
		FROM appointments
		ORDER BY booked_at, id`)
	if err != nil {
		return nil, fmt.Errorf("bookings: list appointments: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(
			&a.ID, &a.PatientName, &a.PatientType, &a.PatientEmail, &a.PatientDOB,
			&a.Doctor, &a.Date, &a.Time, &a.DurationMinutes,
			&a.InsuranceCarrier, &a.MemberID, &a.GroupNumber, &a.Status, &a.BookedAt,
		); err != nil {
			return nil, fmt.Errorf("bookings: scan appointment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: iterate appointments: %w", err)
	}
	return out, nil
}

var _ Ledger = (*PostgresLedger)(nil)
