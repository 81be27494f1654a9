package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	AuthModeStub = "stub"
	AuthModeJWT  = "jwt"

	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	Port          string
	StoreBackend  string
	DatabaseURL   string
	MigrationsDir string
	AutoMigrate   bool
	RedisAddr     string

	AuthMode          string
	JWTSecret         string
	JWTIssuer         string
	AccessTTLSeconds  int64
	RefreshTTLSeconds int64
	StubStudentCode   string

	PublicBaseURL string
	QRDefaultTTL  time.Duration

	DefaultCentralHours float64
	DefaultFacultyHours float64
	DefaultFreeHours    float64

	SweepSchedule  string
	ActivityGrace  time.Duration
	ScanRatePerMin int

	CorsOrigins      []string
	LogDir           string
	LogRetentionDays int
	SeedFile         string
	MetricsDiskPath  string
}

func Load() Config {
	cfg := Config{
		Port:          envOr("PORT", "8080"),
		StoreBackend:  strings.ToLower(envOr("STORE_BACKEND", BackendPostgres)),
		MigrationsDir: envOr("MIGRATIONS_DIR", ""),
		AutoMigrate:   envOrBool("AUTO_MIGRATE", true),
		RedisAddr:     envOr("REDIS_ADDR", ""),

		AuthMode:          strings.ToLower(envOr("AUTH_MODE", AuthModeStub)),
		JWTIssuer:         envOr("JWT_ISSUER", "acty"),
		AccessTTLSeconds:  int64(envOrInt("ACCESS_TTL_SECONDS", 14400)),
		RefreshTTLSeconds: int64(envOrInt("REFRESH_TTL_SECONDS", 1209600)),
		StubStudentCode:   envOr("STUB_STUDENT_CODE", "66010001"),

		PublicBaseURL: strings.TrimRight(envOr("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
		QRDefaultTTL:  envOrDuration("QR_DEFAULT_TTL", 7*24*time.Hour),

		DefaultCentralHours: envOrFloat("DEFAULT_CENTRAL_HOURS", 90),
		DefaultFacultyHours: envOrFloat("DEFAULT_FACULTY_HOURS", 90),
		DefaultFreeHours:    envOrFloat("DEFAULT_FREE_HOURS", 50),

		SweepSchedule:  envOr("SWEEP_SCHEDULE", "@every 15m"),
		ActivityGrace:  envOrDuration("ACTIVITY_GRACE", 24*time.Hour),
		ScanRatePerMin: envOrInt("SCAN_RATE_PER_MIN", 30),

		CorsOrigins:      parseCSV(envOr("CORS_ORIGINS", "")),
		LogDir:           envOr("LOG_DIR", "storage/logs"),
		LogRetentionDays: envOrInt("LOG_RETENTION_DAYS", 7),
		SeedFile:         envOr("SEED_FILE", ""),
		MetricsDiskPath:  envOr("METRICS_DISK_PATH", "/"),
	}
	if cfg.StoreBackend != BackendMemory {
		cfg.StoreBackend = BackendPostgres
		cfg.DatabaseURL = mustEnv("DATABASE_URL")
	}
	if cfg.AuthMode == AuthModeJWT {
		cfg.JWTSecret = mustEnv("JWT_SECRET")
	} else {
		cfg.AuthMode = AuthModeStub
		cfg.JWTSecret = envOr("JWT_SECRET", "")
	}
	return cfg
}

func mustEnv(key string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		panic("missing env var: " + key)
	}
	return value
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func envOrBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
