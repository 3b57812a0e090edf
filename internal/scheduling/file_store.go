package scheduling

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/wolfman30/clinic-intake/internal/tablefile"
	"github.com/wolfman30/clinic-intake/pkg/logging"
)

var slotHeader = []string{"doctor", "date", "time", "available"}

// FileStore keeps the slot table in memory and writes the whole table through
// to a CSV file on every mutation. One mutex covers read-check-write-persist.
type FileStore struct {
	mu     sync.Mutex
	path   string
	slots  []Slot
	index  map[string]int
	logger *logging.Logger
}

// OpenFileStore loads the table at path. A missing file starts an empty table.
func OpenFileStore(path string, logger *logging.Logger) (*FileStore, error) {
	if logger == nil {
		logger = logging.Default()
	}
	rows, err := tablefile.Read(path)
	if err != nil {
		return nil, fmt.Errorf("scheduling: load slots: %w", err)
	}
	s := &FileStore{path: path, logger: logger}
	slots := make([]Slot, 0, len(rows))
	for i, row := range rows {
		available, err := strconv.ParseBool(row.Get("available"))
		if err != nil {
			return nil, fmt.Errorf("scheduling: row %d: bad available flag %q", i+2, row.Get("available"))
		}
		slots = append(slots, Slot{
			Doctor:    row.Get("doctor"),
			Date:      row.Get("date"),
			Time:      row.Get("time"),
			Available: available,
		})
	}
	s.replace(slots)
	return s, nil
}

// ListAvailable returns available slots ordered by doctor, date, then time.
func (s *FileStore) ListAvailable(ctx context.Context) ([]Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterAvailable(s.slots), nil
}

// ListAll returns every slot.
func (s *FileStore) ListAll(ctx context.Context) ([]Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Slot, len(s.slots))
	copy(out, s.slots)
	return out, nil
}

// MarkUnavailable flips one available slot and persists the table. When the
// write fails the flip is undone so memory and disk never disagree.
func (s *FileStore) MarkUnavailable(ctx context.Context, doctor, date, clock string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[SlotKey(doctor, date, clock)]
	if !ok || !s.slots[i].Available {
		return false, nil
	}
	s.slots[i].Available = false
	if err := s.persistLocked(); err != nil {
		s.slots[i].Available = true
		return false, err
	}
	s.logger.Debug("slot marked unavailable", "doctor", doctor, "date", date, "time", clock)
	return true, nil
}

// Seed adds slots that are not already present and persists the table.
func (s *FileStore) Seed(ctx context.Context, slots []Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := make([]Slot, len(s.slots), len(s.slots)+len(slots))
	copy(merged, s.slots)
	added := 0
	for _, slot := range slots {
		if _, exists := s.index[slot.Key()]; exists {
			continue
		}
		merged = append(merged, slot)
		added++
	}
	if added == 0 {
		return nil
	}
	previous := s.slots
	s.replace(merged)
	if err := s.persistLocked(); err != nil {
		s.replace(previous)
		return err
	}
	s.logger.Info("slots seeded", "added", added, "total", len(s.slots))
	return nil
}

func (s *FileStore) replace(slots []Slot) {
	SortSlots(slots)
	index := make(map[string]int, len(slots))
	for i, slot := range slots {
		index[slot.Key()] = i
	}
	s.slots = slots
	s.index = index
}

func (s *FileStore) persistLocked() error {
	rows := make([][]string, 0, len(s.slots))
	for _, slot := range s.slots {
		rows = append(rows, []string{slot.Doctor, slot.Date, slot.Time, formatBool(slot.Available)})
	}
	if err := tablefile.Write(s.path, slotHeader, rows); err != nil {
		s.logger.Error("failed to persist slot table", "error", err, "path", s.path)
		return fmt.Errorf("scheduling: persist slots: %w", err)
	}
	return nil
}

// formatBool matches the True/False spelling already used by existing tables.
func formatBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

var _ Store = (*FileStore)(nil)
