package patients

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wolfman30/clinic-intake/pkg/logging"
)

// PostgresDirectory stores patients in the patients table.
type PostgresDirectory struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewPostgresDirectory creates a directory over a database/sql handle.
func NewPostgresDirectory(db *sql.DB, logger *logging.Logger) *PostgresDirectory {
	if db == nil {
		panic("patients: sql db required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PostgresDirectory{db: db, logger: logger}
}

// FindMatch uses strpos so name fragments are matched literally, not as LIKE patterns.
func (d *PostgresDirectory) FindMatch(ctx context.Context, firstFragment, lastFragment, dob string) (*Patient, error) {
	var p Patient
	var phone, email, carrier, memberID, group sql.NullString
	err := d.db.QueryRowContext(ctx, `
		SELECT first_name, last_name, dob, phone, email, is_returning,
		       insurance_carrier, member_id, group_number
		FROM patients
		WHERE strpos(lower(first_name), lower($1)) > 0
		  AND strpos(lower(last_name), lower($2)) > 0
		  AND dob = $3
		ORDER BY created_at
		LIMIT 1`,
		firstFragment, lastFragment, dob,
	).Scan(&p.FirstName, &p.LastName, &p.DOB, &phone, &email, &p.IsReturning, &carrier, &memberID, &group)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("patients: find match: %w", err)
	}
	p.Phone = phone.String
	p.Email = email.String
	p.InsuranceCarrier = carrier.String
	p.MemberID = memberID.String
	p.GroupNumber = group.String
	return &p, nil
}

// Append inserts a new patient row.
func (d *PostgresDirectory) Append(ctx context.Context, p Patient) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO patients (
			first_name, last_name, dob, phone, email, is_returning,
			insurance_carrier, member_id, group_number, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.FirstName, p.LastName, p.DOB, p.Phone, p.Email, p.IsReturning,
		p.InsuranceCarrier, p.MemberID, p.GroupNumber, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("patients: insert: %w", err)
	}
	d.logger.Info("patient added to directory", "first_name", p.FirstName, "last_name", p.LastName)
	return nil
}

var _ Directory = (*PostgresDirectory)(nil)
