package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATABASE_URL", "postgres://localhost/presensi")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, PhotoStorageLocal, cfg.PhotoStorage)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	require.NotNil(t, cfg.DisplayLocation)

	_, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, cfg.DisplayLocation).Zone()
	assert.Equal(t, 7*3600, offset)
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/presensi")

	_, err := Load()
	require.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATABASE_URL", "")

	_, err = Load()
	require.ErrorContains(t, err, "DATABASE_URL")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			ServerPort:        "3001",
			DatabaseURL:       "postgres://localhost/presensi",
			JWTSecret:         "secret",
			JWTTTL:            time.Hour,
			RequestTimeout:    time.Second,
			BcryptCost:        10,
			PhotoStorage:      PhotoStorageLocal,
			PhotoRoot:         "./uploads",
			PhotoMaxSize:      1024,
			PhotoMaxDimension: 640,
			DisplayTimezone:   "+07:00",
		}
	}

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, base().Validate())
	})

	t.Run("s3 needs credentials", func(t *testing.T) {
		cfg := base()
		cfg.PhotoStorage = PhotoStorageS3
		require.Error(t, cfg.Validate())

		cfg.S3Bucket = "presensi"
		cfg.S3AccessKey = "key"
		cfg.S3SecretKey = "secret"
		require.NoError(t, cfg.Validate())
	})

	t.Run("unknown photo storage", func(t *testing.T) {
		cfg := base()
		cfg.PhotoStorage = "ftp"
		require.Error(t, cfg.Validate())
	})

	t.Run("seed admin needs both fields", func(t *testing.T) {
		cfg := base()
		cfg.SeedAdminEmail = "admin@example.com"
		require.Error(t, cfg.Validate())
	})

	t.Run("bad timezone", func(t *testing.T) {
		cfg := base()
		cfg.DisplayTimezone = "+7"
		require.Error(t, cfg.Validate())
	})
}

func TestParseLocation(t *testing.T) {
	loc, err := ParseLocation("UTC")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	loc, err = ParseLocation("-03:30")
	require.NoError(t, err)
	_, offset := time.Now().In(loc).Zone()
	assert.Equal(t, -(3*3600 + 30*60), offset)
}
