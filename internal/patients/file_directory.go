package patients

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/wolfman30/clinic-intake/internal/tablefile"
	"github.com/wolfman30/clinic-intake/pkg/logging"
)

var patientHeader = []string{
	"first_name", "last_name", "dob", "phone", "email",
	"is_returning", "insurance_carrier", "member_id", "group_number",
}

// FileDirectory reads the patients CSV on every call so rows added by other
// writers are visible. Append reloads, appends and rewrites the whole table.
type FileDirectory struct {
	mu     sync.Mutex
	path   string
	logger *logging.Logger
}

// NewFileDirectory creates a CSV-backed directory. The file may not exist yet.
func NewFileDirectory(path string, logger *logging.Logger) *FileDirectory {
	if logger == nil {
		logger = logging.Default()
	}
	return &FileDirectory{path: path, logger: logger}
}

// FindMatch scans the latest table for the first matching patient.
func (d *FileDirectory) FindMatch(ctx context.Context, firstFragment, lastFragment, dob string) (*Patient, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rows, err := tablefile.Read(d.path)
	if err != nil {
		return nil, fmt.Errorf("patients: load directory: %w", err)
	}
	for _, row := range rows {
		p := patientFromRow(row)
		if p.Matches(firstFragment, lastFragment, dob) {
			return &p, nil
		}
	}
	return nil, nil
}

// Append adds a patient. Columns the table already has but Patient does not
// know about are carried over untouched.
func (d *FileDirectory) Append(ctx context.Context, p Patient) error {
	if err := p.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	header, rows, err := tablefile.ReadWithHeader(d.path)
	if err != nil {
		return fmt.Errorf("patients: reload directory: %w", err)
	}
	header = mergeHeader(header, patientHeader)

	records := make([][]string, 0, len(rows)+1)
	for _, row := range rows {
		records = append(records, row.Values(header))
	}
	records = append(records, rowFromPatient(p).Values(header))

	if err := tablefile.Write(d.path, header, records); err != nil {
		return fmt.Errorf("patients: append: %w", err)
	}
	d.logger.Info("patient added to directory", "first_name", p.FirstName, "last_name", p.LastName, "rows", len(records))
	return nil
}

func patientFromRow(row tablefile.Row) Patient {
	returning, _ := strconv.ParseBool(row.Get("is_returning"))
	return Patient{
		FirstName:        row.Get("first_name"),
		LastName:         row.Get("last_name"),
		DOB:              row.Get("dob"),
		Phone:            row.Get("phone"),
		Email:            row.Get("email"),
		IsReturning:      returning,
		InsuranceCarrier: row.Get("insurance_carrier"),
		MemberID:         row.Get("member_id"),
		GroupNumber:      row.Get("group_number"),
	}
}

func rowFromPatient(p Patient) tablefile.Row {
	returning := "False"
	if p.IsReturning {
		returning = "True"
	}
	return tablefile.Row{
		"first_name":        p.FirstName,
		"last_name":         p.LastName,
		"dob":               p.DOB,
		"phone":             p.Phone,
		"email":             p.Email,
		"is_returning":      returning,
		"insurance_carrier": p.InsuranceCarrier,
		"member_id":         p.MemberID,
		"group_number":      p.GroupNumber,
	}
}

// mergeHeader keeps the existing column order and appends any missing required columns.
func mergeHeader(existing, required []string) []string {
	seen := make(map[string]struct{}, len(existing))
	out := make([]string, 0, len(existing)+len(required))
	for _, col := range existing {
		seen[col] = struct{}{}
		out = append(out, col)
	}
	for _, col := range required {
		if _, ok := seen[col]; !ok {
			out = append(out, col)
		}
	}
	return out
}

var _ Directory = (*FileDirectory)(nil)
