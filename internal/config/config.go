package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"taskflow-console/internal/storage"
)

type Config struct {
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration
	APIBaseURL              string
	APITimeout              time.Duration
	StorageDriver           string
	StorageFile             string
	StorageSecret           string
	StorageProfile          string
	DatabaseURL             string
	DBMaxConns              int32
	DBMinConns              int32
	CORSOrigins             []string
	RateLimitRPM            int
	AuthRateLimitRPM        int
	RefreshQueue            bool
	RegisterRedirectDelay   time.Duration
	LogLevel                slog.Level
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8090"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 30*time.Second),
		APIBaseURL:              strings.TrimRight(strings.TrimSpace(os.Getenv("API_BASE_URL")), "/"),
		APITimeout:              getDuration("API_TIMEOUT", 10*time.Second),
		StorageDriver:           strings.ToLower(getEnv("STORAGE_DRIVER", storage.DriverFile)),
		StorageFile:             getEnv("STORAGE_FILE", defaultStorageFile()),
		StorageSecret:           os.Getenv("STORAGE_SECRET"),
		StorageProfile:          getEnv("STORAGE_PROFILE", "default"),
		DatabaseURL:             strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:              int32(getInt("DB_MAX_CONNS", 4)),
		DBMinConns:              int32(getInt("DB_MIN_CONNS", 0)),
		CORSOrigins:             splitCSV(getEnv("CORS_ORIGINS", "http://localhost:8090")),
		RateLimitRPM:            getInt("RATE_LIMIT_RPM", 300),
		AuthRateLimitRPM:        getInt("AUTH_RATE_LIMIT_RPM", 10),
		RefreshQueue:            getBool("REFRESH_QUEUE", true),
		RegisterRedirectDelay:   getDuration("REGISTER_REDIRECT_DELAY", 1500*time.Millisecond),
		LogLevel:                getLevel("LOG_LEVEL", slog.LevelInfo),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}

	parsed, err := url.Parse(c.APIBaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute URL, got %q", c.APIBaseURL)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	switch c.StorageDriver {
	case storage.DriverMemory:
	case storage.DriverFile:
		if strings.TrimSpace(c.StorageFile) == "" {
			return fmt.Errorf("STORAGE_FILE cannot be empty with the file storage driver")
		}
	case storage.DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required with the postgres storage driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	return nil
}

func defaultStorageFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "./state/storage.json"
	}
	return dir + string(os.PathSeparator) + "taskflow-console" + string(os.PathSeparator) + "storage.json"
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

func getLevel(key string, fallback slog.Level) slog.Level {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return fallback
	}

	return level
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
