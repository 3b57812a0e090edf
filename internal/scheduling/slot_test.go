package scheduling

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelection(t *testing.T) {
	sel, err := ParseSelection(" Dr. Smith | 2025-01-15 | 9:30 ")
	require.NoError(t, err)
	assert.Equal(t, Selection{Doctor: "Dr. Smith", Date: "2025-01-15", Time: "9:30"}, sel)
	assert.Equal(t, "Dr. Smith|2025-01-15|9:30", sel.Key())

	for _, raw := range []string{"", "Dr. Smith|2025-01-15", "Dr. Smith||9:00", "a|b|c|d", "Dr. Smith|2025-01-15|nine"} {
		_, err := ParseSelection(raw)
		assert.True(t, errors.Is(err, ErrInvalidSelection), "expected invalid selection for %q", raw)
	}
}

func TestClockArithmetic(t *testing.T) {
	tests := []struct {
		in    string
		delta int
		want  string
	}{
		{"9:00", 30, "9:30"},
		{"9:30", 30, "10:00"},
		{"09:30", 30, "10:00"},
		{"16:30", 30, "17:00"},
	}
	for _, tt := range tests {
		got, err := AddMinutes(tt.in, tt.delta)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := AddMinutes("23:45", 30)
	assert.Error(t, err)
	_, err = ParseClock("9:5")
	assert.Error(t, err)
	_, err = ParseClock("24:00")
	assert.Error(t, err)
}

func TestSortSlotsUsesNumericTime(t *testing.T) {
	slots := []Slot{
		{Doctor: "Dr. Smith", Date: "2025-01-15", Time: "10:00"},
		{Doctor: "Dr. Johnson", Date: "2025-01-16", Time: "9:00"},
		{Doctor: "Dr. Smith", Date: "2025-01-15", Time: "9:30"},
		{Doctor: "Dr. Johnson", Date: "2025-01-15", Time: "14:00"},
	}
	SortSlots(slots)
	var keys []string
	for _, s := range slots {
		keys = append(keys, s.Key())
	}
	assert.Equal(t, []string{
		"Dr. Johnson|2025-01-15|14:00",
		"Dr. Johnson|2025-01-16|9:00",
		"Dr. Smith|2025-01-15|9:30",
		"Dr. Smith|2025-01-15|10:00",
	}, keys)
}

func TestGroup(t *testing.T) {
	groups := Group([]Slot{
		{Doctor: "Dr. Smith", Date: "2025-01-16", Time: "9:00"},
		{Doctor: "Dr. Smith", Date: "2025-01-15", Time: "13:00"},
		{Doctor: "Dr. Brown", Date: "2025-01-15", Time: "10:00"},
		{Doctor: "Dr. Smith", Date: "2025-01-15", Time: "9:00"},
	})
	require.Len(t, groups, 2)
	assert.Equal(t, "Dr. Brown", groups[0].Doctor)
	assert.Equal(t, "Dr. Smith", groups[1].Doctor)
	require.Len(t, groups[1].Dates, 2)
	assert.Equal(t, DateSlots{Date: "2025-01-15", Times: []string{"9:00", "13:00"}}, groups[1].Dates[0])
	assert.Equal(t, DateSlots{Date: "2025-01-16", Times: []string{"9:00"}}, groups[1].Dates[1])
	assert.Empty(t, Group(nil))
}

func TestGenerateSlotsSkipsLunch(t *testing.T) {
	start := time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)
	slots, err := GenerateSlots(SeedPlan{
		Doctors:         []string{"Dr. Smith", "Dr. Brown"},
		Start:           start,
		Days:            2,
		StartHour:       9,
		EndHour:         17,
		LunchHour:       12,
		IntervalMinutes: 30,
	})
	require.NoError(t, err)
	// 7 hours × 2 half-hours × 2 days × 2 doctors
	assert.Len(t, slots, 56)
	for _, s := range slots {
		assert.True(t, s.Available)
		assert.NotEqual(t, "12:00", s.Time)
		assert.NotEqual(t, "12:30", s.Time)
	}
	assert.Equal(t, Slot{Doctor: "Dr. Brown", Date: "2025-01-15", Time: "9:00", Available: true}, slots[0])
	assert.Equal(t, "16:30", slots[len(slots)-1].Time)
	assert.Equal(t, "2025-01-16", slots[len(slots)-1].Date)
}

func TestSeedPlanValidate(t *testing.T) {
	base := SeedPlan{Doctors: []string{"Dr. Smith"}, Days: 1, StartHour: 9, EndHour: 17, IntervalMinutes: 30}
	require.NoError(t, base.Validate())

	bad := base
	bad.IntervalMinutes = 45
	assert.Error(t, bad.Validate())
	bad = base
	bad.Doctors = nil
	assert.Error(t, bad.Validate())
	bad = base
	bad.EndHour = 9
	assert.Error(t, bad.Validate())
}
