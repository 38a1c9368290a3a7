package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Storage backends.
const (
	StorageFile  = "file"
	StorageRedis = "redis"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	StorageBackend string
	DataDir        string
	DataFile       string
	LangDir        string

	// RedisURL is empty when Redis is not in use.
	RedisURL string

	AdminIDs []string
	// TrustHostPermissions accepts the permissions the caller reports for a
	// player. Only enable it when the API is reachable by the host alone;
	// otherwise ADMIN_IDS is the only source of admin rights.
	TrustHostPermissions bool

	WorldSize       float64
	DefaultLanguage string

	// RateLimit is the sustained API request rate per second. Zero disables
	// limiting.
	RateLimit float64
	RateBurst int
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		LogLevel:        parseLogLevel(getEnv("LOG_LEVEL", "info")),
		StorageBackend:  strings.ToLower(getEnv("STORAGE_BACKEND", StorageFile)),
		DataDir:         getEnv("DATA_DIR", "data"),
		DataFile:        getEnv("DATA_FILE", "ButtonCommands"),
		LangDir:         getEnv("LANG_DIR", "lang"),
		RedisURL:        os.Getenv("REDIS_URL"),
		AdminIDs:        parseList(os.Getenv("ADMIN_IDS")),
		DefaultLanguage: getEnv("DEFAULT_LANGUAGE", "en"),
	}

	worldSize, err := strconv.ParseFloat(getEnv("WORLD_SIZE", "4000"), 64)
	if err != nil || worldSize <= 0 {
		return nil, fmt.Errorf("invalid WORLD_SIZE %q: must be a positive number", os.Getenv("WORLD_SIZE"))
	}
	cfg.WorldSize = worldSize

	trust, err := strconv.ParseBool(getEnv("TRUST_HOST_PERMISSIONS", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid TRUST_HOST_PERMISSIONS %q: %w", os.Getenv("TRUST_HOST_PERMISSIONS"), err)
	}
	cfg.TrustHostPermissions = trust

	rateLimit, err := strconv.ParseFloat(getEnv("RATE_LIMIT", "50"), 64)
	if err != nil || rateLimit < 0 {
		return nil, fmt.Errorf("invalid RATE_LIMIT %q: must be zero or a positive number", os.Getenv("RATE_LIMIT"))
	}
	cfg.RateLimit = rateLimit

	rateBurst, err := strconv.Atoi(getEnv("RATE_BURST", "100"))
	if err != nil || rateBurst < 1 {
		return nil, fmt.Errorf("invalid RATE_BURST %q: must be a positive integer", os.Getenv("RATE_BURST"))
	}
	cfg.RateBurst = rateBurst

	switch cfg.StorageBackend {
	case StorageFile:
	case StorageRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("STORAGE_BACKEND=redis requires REDIS_URL")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	return cfg, nil
}

// UseRedis reports whether a Redis URL is configured.
func (c *Config) UseRedis() bool {
	return c.RedisURL != ""
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
