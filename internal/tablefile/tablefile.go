// Package tablefile reads and atomically rewrites small CSV tables with a header row.
package tablefile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Row maps header names to cell values.
type Row map[string]string

// Get returns the trimmed value for a column, or "" when absent.
func (r Row) Get(column string) string {
	return strings.TrimSpace(r[column])
}

// Read loads every row of the table at path. A missing file yields no rows and
// no error so a fresh data directory behaves like an empty table.
func Read(path string) ([]Row, error) {
	_, rows, err := ReadWithHeader(path)
	return rows, err
}

// ReadWithHeader is Read plus the header in file order.
func ReadWithHeader(path string) ([]string, []Row, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("tablefile: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("tablefile: read header %s: %w", path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var rows []Row
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("tablefile: read %s: %w", path, err)
		}
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// Values lays a row out in header order.
func (r Row) Values(header []string) []string {
	out := make([]string, len(header))
	for i, col := range header {
		out[i] = r[col]
	}
	return out
}

// Write replaces the table at path. Rows are written to a temp file in the
// same directory and renamed over the target, so readers never see a partial table.
func Write(path string, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("tablefile: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("tablefile: temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("tablefile: write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("tablefile: write rows: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("tablefile: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("tablefile: close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("tablefile: replace %s: %w", path, err)
	}
	return nil
}
