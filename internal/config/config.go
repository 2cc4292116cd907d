package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	PhotoStorageLocal = "local"
	PhotoStorageS3    = "s3"
)

type Config struct {
	Env                     string
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration

	DatabaseURL    string
	DBMaxOpenConns int
	DBMaxIdleConns int

	JWTSecret  string
	JWTIssuer  string
	JWTTTL     time.Duration
	BcryptCost int

	DisplayTimezone string
	DisplayLocation *time.Location

	CORSOrigins []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PhotoStorage      string
	PhotoRoot         string
	PhotoPublicPath   string
	PhotoMaxSize      int64
	PhotoMaxDimension int

	S3Endpoint      string
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3UsePathStyle  bool
	S3PublicBaseURL string

	SeedAdminEmail    string
	SeedAdminPassword string

	LogFormat string
	LogLevel  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:                     getEnv("APP_ENV", "development"),
		ServerPort:              getEnv("SERVER_PORT", "3001"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 15*time.Second),
		DatabaseURL:             strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxOpenConns:          getInt("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:          getInt("DB_MAX_IDLE_CONNS", 5),
		JWTSecret:               strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:               getEnv("JWT_ISSUER", "go-presensi"),
		JWTTTL:                  getDuration("JWT_TTL", time.Hour),
		BcryptCost:              getInt("BCRYPT_COST", 10),
		DisplayTimezone:         getEnv("DISPLAY_TIMEZONE", "+07:00"),
		CORSOrigins:             splitCSV(getEnv("CORS_ORIGINS", "*")),
		RedisAddr:               strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:           os.Getenv("REDIS_PASSWORD"),
		RedisDB:                 getInt("REDIS_DB", 0),
		PhotoStorage:            strings.ToLower(getEnv("PHOTO_STORAGE", PhotoStorageLocal)),
		PhotoRoot:               getEnv("PHOTO_ROOT", "./uploads"),
		PhotoPublicPath:         getEnv("PHOTO_PUBLIC_PATH", "/uploads"),
		PhotoMaxSize:            getInt64("PHOTO_MAX_SIZE", 5*1024*1024),
		PhotoMaxDimension:       getInt("PHOTO_MAX_DIMENSION", 1280),
		S3Endpoint:              strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
		S3Region:                getEnv("S3_REGION", "us-east-1"),
		S3Bucket:                strings.TrimSpace(os.Getenv("S3_BUCKET")),
		S3AccessKey:             strings.TrimSpace(os.Getenv("S3_ACCESS_KEY")),
		S3SecretKey:             strings.TrimSpace(os.Getenv("S3_SECRET_KEY")),
		S3UsePathStyle:          getBool("S3_USE_PATH_STYLE", true),
		S3PublicBaseURL:         strings.TrimSpace(os.Getenv("S3_PUBLIC_BASE_URL")),
		SeedAdminEmail:          strings.TrimSpace(os.Getenv("SEED_ADMIN_EMAIL")),
		SeedAdminPassword:       os.Getenv("SEED_ADMIN_PASSWORD"),
		LogFormat:               strings.ToLower(getEnv("LOG_FORMAT", "pretty")),
		LogLevel:                strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required settings and resolves DisplayLocation.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}

	if c.PhotoMaxSize <= 0 {
		return fmt.Errorf("PHOTO_MAX_SIZE must be positive")
	}

	if c.PhotoMaxDimension <= 0 {
		return fmt.Errorf("PHOTO_MAX_DIMENSION must be positive")
	}

	switch c.PhotoStorage {
	case PhotoStorageLocal:
		if strings.TrimSpace(c.PhotoRoot) == "" {
			return fmt.Errorf("PHOTO_ROOT cannot be empty")
		}
	case PhotoStorageS3:
		if c.S3Bucket == "" || c.S3AccessKey == "" || c.S3SecretKey == "" {
			return fmt.Errorf("S3_BUCKET, S3_ACCESS_KEY and S3_SECRET_KEY are required when PHOTO_STORAGE=s3")
		}
	default:
		return fmt.Errorf("PHOTO_STORAGE must be %q or %q", PhotoStorageLocal, PhotoStorageS3)
	}

	if (c.SeedAdminEmail == "") != (c.SeedAdminPassword == "") {
		return fmt.Errorf("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD must be set together")
	}

	loc, err := ParseLocation(c.DisplayTimezone)
	if err != nil {
		return fmt.Errorf("DISPLAY_TIMEZONE: %w", err)
	}
	c.DisplayLocation = loc

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// ParseLocation accepts a fixed offset such as "+07:00" or an IANA zone
// name such as "Asia/Jakarta".
func ParseLocation(raw string) (*time.Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "UTC") {
		return time.UTC, nil
	}

	if raw[0] == '+' || raw[0] == '-' {
		offset, err := time.Parse("-07:00", raw)
		if err != nil {
			return nil, fmt.Errorf("invalid offset %q", raw)
		}
		_, seconds := offset.Zone()
		return time.FixedZone("UTC"+raw, seconds), nil
	}

	return time.LoadLocation(raw)
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getInt64(key string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}

	return v
}

func getBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
