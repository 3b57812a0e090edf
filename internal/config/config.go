package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends understood by the bootstrap package.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config holds application configuration
type Config struct {
	Port       string
	Env        string
	LogLevel   string
	LogFormat  string
	ClinicName string

	// Storage
	DataDir        string
	StorageBackend string
	SlotBackend    string
	DatabaseURL    string
	RedisAddr      string
	RedisPassword  string
	RedisTLS       bool

	// Email
	EmailProvider  string
	SendGridAPIKey string
	EmailFrom      string
	EmailFromName  string

	// AWS (SES delivery, S3 intake form)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	IntakeFormPath      string
	IntakeFormS3Bucket  string
	IntakeFormS3Key     string

	// HTTP surface
	SessionIdleTTL     time.Duration
	AdminJWTSecret     string
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int

	// Slot seeding
	SeedDoctors         []string
	SeedDays            int
	SeedStartHour       int
	SeedEndHour         int
	SeedLunchHour       int
	SeedIntervalMinutes int
}

// Load reads configuration from environment variables
func Load() *Config {
	storage := strings.ToLower(strings.TrimSpace(getEnv("STORAGE_BACKEND", BackendFile)))
	return &Config{
		Port:       getEnv("PORT", "8080"),
		Env:        getEnv("ENV", "development"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "json"),
		ClinicName: getEnv("CLINIC_NAME", "Medical Clinic"),

		DataDir:        getEnv("DATA_DIR", "data"),
		StorageBackend: storage,
		SlotBackend:    strings.ToLower(strings.TrimSpace(getEnv("SLOT_BACKEND", storage))),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisTLS:       getEnvAsBool("REDIS_TLS", false),

		EmailProvider:  strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "auto"))),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		EmailFrom:      getEnv("EMAIL_FROM", ""),
		EmailFromName:  getEnv("EMAIL_FROM_NAME", "Medical Clinic"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		IntakeFormPath:      getEnv("INTAKE_FORM_PATH", "data/patient_intake_form.pdf"),
		IntakeFormS3Bucket:  getEnv("INTAKE_FORM_S3_BUCKET", ""),
		IntakeFormS3Key:     getEnv("INTAKE_FORM_S3_KEY", ""),

		SessionIdleTTL:     getEnvAsDuration("SESSION_IDLE_TTL", 30*time.Minute),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),

		SeedDoctors:         getEnvAsListDefault("SEED_DOCTORS", []string{"Dr. Smith", "Dr. Johnson", "Dr. Williams", "Dr. Brown"}),
		SeedDays:            getEnvAsInt("SEED_DAYS", 7),
		SeedStartHour:       getEnvAsInt("SEED_START_HOUR", 9),
		SeedEndHour:         getEnvAsInt("SEED_END_HOUR", 17),
		SeedLunchHour:       getEnvAsInt("SEED_LUNCH_HOUR", 12),
		SeedIntervalMinutes: getEnvAsInt("SEED_INTERVAL_MINUTES", 30),
	}
}

// UsesPostgres reports whether any store needs DATABASE_URL.
func (c *Config) UsesPostgres() bool {
	return c.StorageBackend == BackendPostgres || c.SlotBackend == BackendPostgres
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvAsListDefault(key string, defaultValue []string) []string {
	if list := getEnvAsList(key); len(list) > 0 {
		return list
	}
	return defaultValue
}
