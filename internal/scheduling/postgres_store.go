package scheduling

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/clinic-intake/pkg/logging"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore keeps slots in the slots table. The conditional UPDATE makes
// MarkUnavailable succeed at most once per slot across every process.
type PostgresStore struct {
	db     DB
	tracer trace.Tracer
	logger *logging.Logger
}

// NewPostgresStore creates a slot store over a pgx pool or transaction.
func NewPostgresStore(db DB, logger *logging.Logger) *PostgresStore {
	if db == nil {
		panic("scheduling: postgres db required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PostgresStore{
		db:     db,
		tracer: otel.Tracer("clinic.internal.scheduling"),
		logger: logger,
	}
}

// ListAvailable returns available slots ordered by doctor, date, then time.
func (s *PostgresStore) ListAvailable(ctx context.Context) ([]Slot, error) {
	ctx, span := s.tracer.Start(ctx, "scheduling.list_available")
	defer span.End()

	slots, err := s.query(ctx, `
		SELECT doctor, slot_date, slot_time, available
		FROM slots
		WHERE available = true
		ORDER BY doctor, slot_date`)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("scheduling: list available: %w", err)
	}
	span.SetAttributes(attribute.Int("clinic.slots.available", len(slots)))
	return slots, nil
}

// ListAll returns every slot.
func (s *PostgresStore) ListAll(ctx context.Context) ([]Slot, error) {
	slots, err := s.query(ctx, `
		SELECT doctor, slot_date, slot_time, available
		FROM slots
		ORDER BY doctor, slot_date`)
	if err != nil {
		return nil, fmt.Errorf("scheduling: list all: %w", err)
	}
	return slots, nil
}

// MarkUnavailable flips the slot only if it is still available.
func (s *PostgresStore) MarkUnavailable(ctx context.Context, doctor, date, clock string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "scheduling.mark_unavailable")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinic.doctor", doctor),
		attribute.String("clinic.slot_date", date),
		attribute.String("clinic.slot_time", clock),
	)

	tag, err := s.db.Exec(ctx, `
		UPDATE slots SET available = false, updated_at = now()
		WHERE doctor = $1 AND slot_date = $2 AND slot_time = $3 AND available = true`,
		doctor, date, clock)
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("scheduling: mark unavailable: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Seed inserts missing slots; existing rows keep their availability.
func (s *PostgresStore) Seed(ctx context.Context, slots []Slot) error {
	added := 0
	for _, slot := range slots {
		tag, err := s.db.Exec(ctx, `
			INSERT INTO slots (doctor, slot_date, slot_time, available)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (doctor, slot_date, slot_time) DO NOTHING`,
			slot.Doctor, slot.Date, slot.Time, slot.Available)
		if err != nil {
			return fmt.Errorf("scheduling: seed %s: %w", slot.Key(), err)
		}
		added += int(tag.RowsAffected())
	}
	s.logger.Info("slots seeded", "added", added, "requested", len(slots))
	return nil
}

// query scans rows and applies numeric time ordering, which text ORDER BY cannot.
func (s *PostgresStore) query(ctx context.Context, sql string) ([]Slot, error) {
	rows, err := s.db.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []Slot
	for rows.Next() {
		var slot Slot
		if err := rows.Scan(&slot.Doctor, &slot.Date, &slot.Time, &slot.Available); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	SortSlots(slots)
	return slots, nil
}

var _ Store = (*PostgresStore)(nil)
