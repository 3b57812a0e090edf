// Package scheduling owns the bookable (doctor, date, time) slot table.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrInvalidSelection is returned when a selection event cannot be parsed.
	ErrInvalidSelection = errors.New("scheduling: invalid slot selection")
	// ErrSlotUnavailable is returned when a selected slot is unknown or already booked.
	ErrSlotUnavailable = errors.New("scheduling: slot is not available")
)

// Slot is one bookable unit. Date is YYYY-MM-DD, Time is H:MM on a 24h clock.
type Slot struct {
	Doctor    string `json:"doctor"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// Key returns the doctor|date|time form used by selection events.
func (s Slot) Key() string {
	return SlotKey(s.Doctor, s.Date, s.Time)
}

// SlotKey joins the identifying triple with pipes.
func SlotKey(doctor, date, clock string) string {
	return doctor + "|" + date + "|" + clock
}

// Store is the slot table contract shared by every backend.
type Store interface {
	// ListAvailable returns available slots ordered by doctor, date, then time.
	ListAvailable(ctx context.Context) ([]Slot, error)
	// ListAll returns every slot, booked or not, in the same order.
	ListAll(ctx context.Context) ([]Slot, error)
	// MarkUnavailable flips an available slot and persists the change. It reports
	// false without error when the slot is unknown or already booked.
	MarkUnavailable(ctx context.Context, doctor, date, clock string) (bool, error)
	// Seed inserts slots that do not exist yet; existing rows keep their availability.
	Seed(ctx context.Context, slots []Slot) error
}

// Selection is the structured slot choice sent back by a UI.
type Selection struct {
	Doctor string `json:"doctor"`
	Date   string `json:"date"`
	Time   string `json:"time"`
}

// Key returns the doctor|date|time form of the selection.
func (s Selection) Key() string {
	return SlotKey(s.Doctor, s.Date, s.Time)
}

// Validate checks that every field is present and the time parses.
func (s Selection) Validate() error {
	if s.Doctor == "" || s.Date == "" || s.Time == "" {
		return ErrInvalidSelection
	}
	if _, err := ParseClock(s.Time); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}
	return nil
}

// ParseSelection parses a "doctor|date|time" event.
func ParseSelection(raw string) (Selection, error) {
	parts := strings.Split(raw, "|")
	if len(parts) != 3 {
		return Selection{}, ErrInvalidSelection
	}
	sel := Selection{
		Doctor: strings.TrimSpace(parts[0]),
		Date:   strings.TrimSpace(parts[1]),
		Time:   strings.TrimSpace(parts[2]),
	}
	if err := sel.Validate(); err != nil {
		return Selection{}, err
	}
	return sel, nil
}

// ParseClock converts "H:MM" or "HH:MM" to minutes after midnight.
func ParseClock(clock string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(clock), ":")
	if !ok {
		return 0, fmt.Errorf("scheduling: bad time %q", clock)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("scheduling: bad hour in %q", clock)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || len(m) != 2 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("scheduling: bad minute in %q", clock)
	}
	return hour*60 + minute, nil
}

// FormatClock renders minutes after midnight as H:MM without hour padding.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}

// AddMinutes shifts a clock string, e.g. AddMinutes("9:30", 30) == "10:00".
func AddMinutes(clock string, delta int) (string, error) {
	m, err := ParseClock(clock)
	if err != nil {
		return "", err
	}
	next := m + delta
	if next < 0 || next >= 24*60 {
		return "", fmt.Errorf("scheduling: %s%+d leaves the day", clock, delta)
	}
	return FormatClock(next), nil
}

// SortSlots orders slots by doctor, date, then numeric time.
func SortSlots(slots []Slot) {
	sort.SliceStable(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if a.Doctor != b.Doctor {
			return a.Doctor < b.Doctor
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return clockOrder(a.Time) < clockOrder(b.Time)
	})
}

// clockOrder sorts unparsable times last.
func clockOrder(clock string) int {
	m, err := ParseClock(clock)
	if err != nil {
		return 24 * 60
	}
	return m
}

func filterAvailable(slots []Slot) []Slot {
	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if s.Available {
			out = append(out, s)
		}
	}
	return out
}
