package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/clinic-intake/internal/bookings"
	appconfig "github.com/wolfman30/clinic-intake/internal/config"
	"github.com/wolfman30/clinic-intake/internal/patients"
	"github.com/wolfman30/clinic-intake/internal/scheduling"
	"github.com/wolfman30/clinic-intake/pkg/logging"
)

// File names used under DATA_DIR by the file backend.
const (
	SlotsFile        = "doctor_schedules.csv"
	PatientsFile     = "patients.csv"
	AppointmentsFile = "all_appointments.xlsx"
)

// Stores bundles the persistence backends selected by configuration.
type Stores struct {
	Slots     scheduling.Store
	Directory patients.Directory
	Ledger    bookings.Ledger

	pool  *pgxpool.Pool
	sqlDB *sql.DB
	redis *redis.Client
}

// Ping checks every remote backend in use. File backends are always ready.
func (s *Stores) Ping(ctx context.Context) error {
	var errs []error
	if s.pool != nil {
		errs = append(errs, s.pool.Ping(ctx))
	}
	if s.sqlDB != nil {
		errs = append(errs, s.sqlDB.PingContext(ctx))
	}
	if s.redis != nil {
		errs = append(errs, s.redis.Ping(ctx).Err())
	}
	return errors.Join(errs...)
}

// Close releases pooled connections.
func (s *Stores) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.sqlDB != nil {
		_ = s.sqlDB.Close()
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
}

// BuildStores wires the slot store, patient directory and ledger.
// STORAGE_BACKEND picks the directory and ledger; SLOT_BACKEND may move the
// slot table to Redis or Postgres on its own.
func BuildStores(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*Stores, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	s := &Stores{}
	fail := func(err error) (*Stores, error) {
		s.Close()
		return nil, err
	}

	if cfg.UsesPostgres() {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("bootstrap: DATABASE_URL is required for the postgres backend")
		}
		pool, err := ConnectPostgresPool(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return fail(err)
		}
		s.pool = pool
	}

	switch cfg.StorageBackend {
	case appconfig.BackendFile:
		s.Directory = patients.NewFileDirectory(filepath.Join(cfg.DataDir, PatientsFile), logger)
		s.Ledger = bookings.NewXLSXLedger(filepath.Join(cfg.DataDir, AppointmentsFile), logger)
	case appconfig.BackendPostgres:
		db, err := OpenSQLDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return fail(err)
		}
		s.sqlDB = db
		s.Directory = patients.NewPostgresDirectory(db, logger)
		s.Ledger = bookings.NewPostgresLedger(s.pool, logger)
	default:
		return fail(fmt.Errorf("bootstrap: unknown STORAGE_BACKEND %q", cfg.StorageBackend))
	}

	switch cfg.SlotBackend {
	case appconfig.BackendFile:
		store, err := scheduling.OpenFileStore(filepath.Join(cfg.DataDir, SlotsFile), logger)
		if err != nil {
			return fail(err)
		}
		s.Slots = store
	case appconfig.BackendPostgres:
		s.Slots = scheduling.NewPostgresStore(s.pool, logger)
	case appconfig.BackendRedis:
		client := BuildRedisClient(ctx, cfg, logger, true)
		if client == nil {
			return fail(fmt.Errorf("bootstrap: SLOT_BACKEND=redis needs a reachable REDIS_ADDR"))
		}
		s.redis = client
		s.Slots = scheduling.NewRedisStore(client, "", logger)
	default:
		return fail(fmt.Errorf("bootstrap: unknown SLOT_BACKEND %q", cfg.SlotBackend))
	}

	logger.Info("stores ready", "storage_backend", cfg.StorageBackend, "slot_backend", cfg.SlotBackend, "data_dir", cfg.DataDir)
	return s, nil
}

// SeedPlan turns the SEED_* settings into a scheduling plan.
func SeedPlan(cfg *appconfig.Config) scheduling.SeedPlan {
	return scheduling.SeedPlan{
		Doctors:         cfg.SeedDoctors,
		Days:            cfg.SeedDays,
		StartHour:       cfg.SeedStartHour,
		EndHour:         cfg.SeedEndHour,
		LunchHour:       cfg.SeedLunchHour,
		IntervalMinutes: cfg.SeedIntervalMinutes,
	}
}
