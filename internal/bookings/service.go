package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/clinic-intake/pkg/logging"
)

var bookingsTracer = otel.Tracer("clinic.internal.bookings")

// ErrNotifierMissing is returned by Notify when no notifier was configured.
var ErrNotifierMissing = errors.New("bookings: notifier not configured")

// Recorder appends confirmed appointments to the ledger and sends the
// patient confirmation. The two steps report independently.
type Recorder struct {
	ledger   Ledger
	notifier Notifier
	logger   *logging.Logger
	now      func() time.Time
}

// NewRecorder constructs a recorder. notifier may be nil, in which case every
// Notify call fails with ErrNotifierMissing.
func NewRecorder(ledger Ledger, notifier Notifier, logger *logging.Logger) *Recorder {
	if ledger == nil {
		panic("bookings: ledger required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Recorder{ledger: ledger, notifier: notifier, logger: logger, now: time.Now}
}

// Append stamps the appointment (ID, status, booking time) and writes it to
// the ledger. The stamped appointment is returned so callers can notify with it.
func (r *Recorder) Append(ctx context.Context, appt Appointment) (Appointment, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.append")
	defer span.End()

	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	if appt.Status == "" {
		appt.Status = StatusConfirmed
	}
	if appt.BookedAt.IsZero() {
		appt.BookedAt = r.now()
	}
	span.SetAttributes(
		attribute.String("clinic.appointment_id", appt.ID.String()),
		attribute.String("clinic.doctor", appt.Doctor),
		attribute.Int("clinic.duration_minutes", appt.DurationMinutes),
	)

	if err := r.ledger.Append(ctx, appt); err != nil {
		span.RecordError(err)
		r.logger.Error("appointment ledger append failed", "error", err, "doctor", appt.Doctor, "date", appt.Date, "time", appt.Time)
		return appt, err
	}
	r.logger.Info("appointment recorded", "appointment_id", appt.ID, "patient_type", appt.PatientType)
	return appt, nil
}

// Notify sends the confirmation for an already recorded appointment.
func (r *Recorder) Notify(ctx context.Context, appt Appointment) error {
	ctx, span := bookingsTracer.Start(ctx, "bookings.notify")
	defer span.End()
	span.SetAttributes(attribute.String("clinic.appointment_id", appt.ID.String()))

	if r.notifier == nil {
		span.RecordError(ErrNotifierMissing)
		return ErrNotifierMissing
	}
	if err := r.notifier.NotifyBooking(ctx, appt); err != nil {
		span.RecordError(err)
		r.logger.Warn("appointment confirmation not delivered", "error", err, "appointment_id", appt.ID)
		return err
	}
	r.logger.Info("appointment confirmation sent", "appointment_id", appt.ID)
	return nil
}

// List returns the ledger contents.
func (r *Recorder) List(ctx context.Context) ([]Appointment, error) {
	return r.ledger.List(ctx)
}
