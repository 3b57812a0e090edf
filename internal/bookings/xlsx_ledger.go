package bookings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/wolfman30/clinic-intake/pkg/logging"
)

const ledgerSheet = "Sheet1"

// XLSXLedger appends appointments to a spreadsheet that front-desk staff open
// directly. The workbook is rewritten through a temp file on every append.
type XLSXLedger struct {
	mu     sync.Mutex
	path   string
	logger *logging.Logger
}

// NewXLSXLedger creates a spreadsheet ledger at path; the file is created on first append.
func NewXLSXLedger(path string, logger *logging.Logger) *XLSXLedger {
	if logger == nil {
		logger = logging.Default()
	}
	return &XLSXLedger{path: path, logger: logger}
}

// Append writes one row below the existing ones.
func (l *XLSXLedger) Append(ctx context.Context, appt Appointment) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := l.open()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(ledgerSheet)
	if err != nil {
		return fmt.Errorf("bookings: read ledger rows: %w", err)
	}
	if len(rows) == 0 {
		if err := setRow(f, 1, toCells(ledgerColumns)); err != nil {
			return err
		}
		rows = [][]string{ledgerColumns}
	}
	if err := setRow(f, len(rows)+1, ledgerRow(appt)); err != nil {
		return err
	}
	if err := l.save(f); err != nil {
		return err
	}
	l.logger.Info("appointment appended to ledger", "path", l.path, "doctor", appt.Doctor, "date", appt.Date, "time", appt.Time)
	return nil
}

// List returns every appointment in the workbook in row order.
func (l *XLSXLedger) List(ctx context.Context) ([]Appointment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := os.Stat(l.path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	f, err := l.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(ledgerSheet)
	if err != nil {
		return nil, fmt.Errorf("bookings: read ledger rows: %w", err)
	}
	var out []Appointment
	for i, row := range rows {
		if i == 0 {
			continue
		}
		out = append(out, appointmentFromRow(row))
	}
	return out, nil
}

func (l *XLSXLedger) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return excelize.NewFile(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("bookings: open ledger %s: %w", l.path, err)
	}
	return f, nil
}

func (l *XLSXLedger) save(f *excelize.File) error {
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("bookings: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".ledger-*.xlsx")
	if err != nil {
		return fmt.Errorf("bookings: temp ledger: %w", err)
	}
	tmpName := tmp.Name()
	if err := f.Write(tmp); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("bookings: write ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("bookings: close ledger: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("bookings: replace ledger: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("bookings: cell name: %w", err)
	}
	if err := f.SetSheetRow(ledgerSheet, cell, &values); err != nil {
		return fmt.Errorf("bookings: set ledger row %d: %w", row, err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func ledgerRow(a Appointment) []interface{} {
	return []interface{}{
		a.PatientName, a.PatientType, a.PatientEmail, a.PatientDOB,
		a.Doctor, a.Date, a.Time, a.DurationMinutes,
		a.InsuranceCarrier, a.MemberID, a.GroupNumber, a.Status,
		a.BookedAt.Format(TimestampLayout),
	}
}

func appointmentFromRow(row []string) Appointment {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	duration, _ := strconv.Atoi(cell(7))
	bookedAt, _ := time.ParseInLocation(TimestampLayout, cell(12), time.Local)
	return Appointment{
		PatientName:      cell(0),
		PatientType:      cell(1),
		PatientEmail:     cell(2),
		PatientDOB:       cell(3),
		Doctor:           cell(4),
		Date:             cell(5),
		Time:             cell(6),
		DurationMinutes:  duration,
		InsuranceCarrier: cell(8),
		MemberID:         cell(9),
		GroupNumber:      cell(10),
		Status:           cell(11),
		BookedAt:         bookedAt,
	}
}

var _ Ledger = (*XLSXLedger)(nil)
