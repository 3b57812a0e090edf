package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "STORAGE_BACKEND", "SLOT_BACKEND", "SEED_DOCTORS", "SESSION_IDLE_TTL", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.StorageBackend != BackendFile || cfg.SlotBackend != BackendFile {
		t.Fatalf("expected file backends by default, got %s/%s", cfg.StorageBackend, cfg.SlotBackend)
	}
	if len(cfg.SeedDoctors) != 4 {
		t.Fatalf("expected four default doctors, got %v", cfg.SeedDoctors)
	}
	if cfg.SessionIdleTTL != 30*time.Minute {
		t.Fatalf("expected default idle ttl, got %s", cfg.SessionIdleTTL)
	}
	if cfg.CORSAllowedOrigins != nil {
		t.Fatalf("expected no CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.UsesPostgres() {
		t.Fatalf("file backend should not need postgres")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("STORAGE_BACKEND", "Postgres")
	t.Setenv("SLOT_BACKEND", "redis")
	t.Setenv("SEED_DOCTORS", "Dr. Who, ,Dr. House")
	t.Setenv("SEED_INTERVAL_MINUTES", "60")
	t.Setenv("SESSION_IDLE_TTL", "5m")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected env override, got %s", cfg.Env)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected database url override, got %s", cfg.DatabaseURL)
	}
	if cfg.StorageBackend != BackendPostgres || cfg.SlotBackend != BackendRedis {
		t.Fatalf("unexpected backends %s/%s", cfg.StorageBackend, cfg.SlotBackend)
	}
	if !cfg.UsesPostgres() {
		t.Fatalf("expected postgres to be required")
	}
	if len(cfg.SeedDoctors) != 2 || cfg.SeedDoctors[1] != "Dr. House" {
		t.Fatalf("unexpected doctors %v", cfg.SeedDoctors)
	}
	if cfg.SeedIntervalMinutes != 60 {
		t.Fatalf("expected interval 60, got %d", cfg.SeedIntervalMinutes)
	}
	if cfg.SessionIdleTTL != 5*time.Minute {
		t.Fatalf("expected idle ttl 5m, got %s", cfg.SessionIdleTTL)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("expected rps 2.5, got %v", cfg.RateLimitRPS)
	}
}

func TestSlotBackendFollowsStorage(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("SLOT_BACKEND", "")
	cfg := Load()
	if cfg.SlotBackend != BackendPostgres {
		t.Fatalf("expected slot backend to follow storage, got %s", cfg.SlotBackend)
	}
}
