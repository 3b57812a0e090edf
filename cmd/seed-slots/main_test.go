package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-intake/internal/scheduling"
	"github.com/wolfman30/clinic-intake/pkg/logging"
)

func basePlan() scheduling.SeedPlan {
	return scheduling.SeedPlan{StartHour: 9, EndHour: 17, LunchHour: 12, IntervalMinutes: 30}
}

func TestApplyFlags(t *testing.T) {
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.Local)
	plan := basePlan()
	require.NoError(t, applyFlags(&plan, "", 3, " Dr. Smith , ,Dr. Brown", now))
	assert.Equal(t, []string{"Dr. Smith", "Dr. Brown"}, plan.Doctors)
	assert.Equal(t, 3, plan.Days)
	assert.Equal(t, now, plan.Start)

	plan = basePlan()
	require.NoError(t, applyFlags(&plan, "2025-07-01", 1, "Dr. Lee", now))
	assert.Equal(t, "2025-07-01", plan.Start.Format("2006-01-02"))

	plan = basePlan()
	assert.Error(t, applyFlags(&plan, "07/01/2025", 1, "Dr. Lee", now))
	plan = basePlan()
	assert.Error(t, applyFlags(&plan, "", 1, " , ", now), "no doctors")
	plan = basePlan()
	assert.Error(t, applyFlags(&plan, "", 0, "Dr. Lee", now), "no days")
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, err := scheduling.OpenFileStore(filepath.Join(t.TempDir(), "doctor_schedules.csv"), logging.Discard())
	require.NoError(t, err)

	plan := basePlan()
	require.NoError(t, applyFlags(&plan, "2025-06-02", 1, "Dr. Smith", time.Now()))

	n, err := seed(ctx, store, plan)
	require.NoError(t, err)
	// 9..16 minus lunch = 7 hours, two slots each.
	assert.Equal(t, 14, n)

	flipped, err := store.MarkUnavailable(ctx, "Dr. Smith", "2025-06-02", "9:00")
	require.NoError(t, err)
	require.True(t, flipped)

	_, err = seed(ctx, store, plan)
	require.NoError(t, err)
	available, err := store.ListAvailable(ctx)
	require.NoError(t, err)
	assert.Len(t, available, 13)
}
