package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/wolfman30/clinic-intake/cmd/mainconfig"
	"github.com/wolfman30/clinic-intake/internal/app/bootstrap"
	"github.com/wolfman30/clinic-intake/internal/scheduling"
)

func main() {
	cfg := mainconfig.LoadEnv()
	logger := mainconfig.NewLogger(cfg)

	plan := bootstrap.SeedPlan(cfg)
	start := flag.String("start", "", "first date to seed (YYYY-MM-DD, default today)")
	days := flag.Int("days", plan.Days, "number of days to seed")
	doctors := flag.String("doctors", strings.Join(plan.Doctors, ","), "comma-separated doctor names")
	flag.Parse()

	if err := applyFlags(&plan, *start, *days, *doctors, time.Now()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	stores, err := bootstrap.BuildStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open stores", "error", err)
		os.Exit(1)
	}
	defer stores.Close()

	n, err := seed(ctx, stores.Slots, plan)
	if err != nil {
		logger.Error("seeding failed", "error", err)
		os.Exit(1)
	}
	logger.Info("slots seeded", "generated", n, "doctors", len(plan.Doctors), "days", plan.Days, "slot_backend", cfg.SlotBackend)
}

func applyFlags(plan *scheduling.SeedPlan, start string, days int, doctors string, now time.Time) error {
	plan.Start = now
	if start != "" {
		t, err := time.ParseInLocation("2006-01-02", start, time.Local)
		if err != nil {
			return fmt.Errorf("invalid -start %q: want YYYY-MM-DD", start)
		}
		plan.Start = t
	}
	plan.Days = days
	plan.Doctors = nil
	for _, d := range strings.Split(doctors, ",") {
		if d = strings.TrimSpace(d); d != "" {
			plan.Doctors = append(plan.Doctors, d)
		}
	}
	return plan.Validate()
}

// seed generates the plan and inserts slots that do not exist yet. Existing
// slots keep their availability, so reseeding never reopens a booking.
func seed(ctx context.Context, store scheduling.Store, plan scheduling.SeedPlan) (int, error) {
	slots, err := scheduling.GenerateSlots(plan)
	if err != nil {
		return 0, err
	}
	if err := store.Seed(ctx, slots); err != nil {
		return 0, err
	}
	return len(slots), nil
}
