package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaultsWithMemoryBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("AUTH_MODE", "")

	cfg := Load()
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, AuthModeStub, cfg.AuthMode)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 7*24*time.Hour, cfg.QRDefaultTTL)
	assert.Equal(t, 90.0, cfg.DefaultCentralHours)
	assert.Equal(t, 90.0, cfg.DefaultFacultyHours)
	assert.Equal(t, 50.0, cfg.DefaultFreeHours)
	assert.Equal(t, "66010001", cfg.StubStudentCode)
	assert.True(t, cfg.AutoMigrate)
}

func TestLoadRequiresDatabaseURLForPostgres(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")
	assert.PanicsWithValue(t, "missing env var: DATABASE_URL", func() { Load() })
}

func TestLoadRequiresSecretInJWTMode(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("AUTH_MODE", "JWT")
	t.Setenv("JWT_SECRET", "")
	assert.Panics(t, func() { Load() })

	t.Setenv("JWT_SECRET", "s3cret")
	cfg := Load()
	assert.Equal(t, AuthModeJWT, cfg.AuthMode)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestEnvHelpersFallBack(t *testing.T) {
	t.Setenv("X_DURATION", "soon")
	t.Setenv("X_FLOAT", "-4")
	t.Setenv("X_BOOL", "nope")
	t.Setenv("X_INT", "12")
	assert.Equal(t, time.Minute, envOrDuration("X_DURATION", time.Minute))
	assert.Equal(t, 1.5, envOrFloat("X_FLOAT", 1.5))
	assert.True(t, envOrBool("X_BOOL", true))
	assert.Equal(t, 12, envOrInt("X_INT", 3))
}

func TestParseCSV(t *testing.T) {
	assert.Nil(t, parseCSV("  "))
	assert.Equal(t, []string{"http://a", "http://b"}, parseCSV(" http://a, ,http://b "))
}

func TestPublicBaseURLTrimsSlash(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("PUBLIC_BASE_URL", "https://acty.example.ac.th/")
	assert.Equal(t, "https://acty.example.ac.th", Load().PublicBaseURL)
}
