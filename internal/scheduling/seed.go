package scheduling

import (
	"fmt"
	"time"
)

// SeedPlan describes the pre-seeded availability horizon.
type SeedPlan struct {
	Doctors         []string
	Start           time.Time
	Days            int
	StartHour       int // first bookable hour, inclusive
	EndHour         int // last bookable hour, exclusive
	LunchHour       int // skipped entirely; negative disables
	IntervalMinutes int
}

// Validate rejects plans that would generate nothing sensible.
func (p SeedPlan) Validate() error {
	switch {
	case len(p.Doctors) == 0:
		return fmt.Errorf("scheduling: seed plan needs at least one doctor")
	case p.Days <= 0:
		return fmt.Errorf("scheduling: seed plan days must be positive")
	case p.StartHour < 0 || p.EndHour > 24 || p.StartHour >= p.EndHour:
		return fmt.Errorf("scheduling: seed hours %d-%d are invalid", p.StartHour, p.EndHour)
	case p.IntervalMinutes <= 0 || 60%p.IntervalMinutes != 0:
		return fmt.Errorf("scheduling: interval %d must divide an hour", p.IntervalMinutes)
	}
	return nil
}

// GenerateSlots expands a plan into available slots, ordered like ListAvailable.
func GenerateSlots(plan SeedPlan) ([]Slot, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	start := plan.Start
	if start.IsZero() {
		start = time.Now()
	}

	var slots []Slot
	for _, doctor := range plan.Doctors {
		for day := 0; day < plan.Days; day++ {
			date := start.AddDate(0, 0, day).Format("2006-01-02")
			for hour := plan.StartHour; hour < plan.EndHour; hour++ {
				if hour == plan.LunchHour {
					continue
				}
				for minute := 0; minute < 60; minute += plan.IntervalMinutes {
					slots = append(slots, Slot{
						Doctor:    doctor,
						Date:      date,
						Time:      FormatClock(hour*60 + minute),
						Available: true,
					})
				}
			}
		}
	}
	SortSlots(slots)
	return slots, nil
}
