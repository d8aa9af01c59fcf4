// Package config builds runtime configuration from the environment so main
// stays lean. An optional .env file is honored for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config captures process-level configuration.
type Config struct {
	Addr       string
	AdminToken string

	Postgres PostgresConfig
	Redis    RedisConfig

	PathCacheTTL time.Duration
	SyncInterval time.Duration

	// MaxCustomLevels bounds tenant-authored sub-levels per tenant.
	MaxCustomLevels int
}

// PostgresConfig holds the canonical and replica store connection settings.
type PostgresConfig struct {
	DSN string
}

// RedisConfig holds path-cache connection settings. An empty URL disables
// Redis; the service falls back to the in-process cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Load reads an optional .env file then builds a Config from environment
// variables with development defaults.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() Config {
	return Config{
		Addr:       getEnv("GAZETTEER_ADDR", ":8080"),
		AdminToken: os.Getenv("GAZETTEER_ADMIN_TOKEN"),
		Postgres: PostgresConfig{
			DSN: os.Getenv("GAZETTEER_POSTGRES_DSN"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("GAZETTEER_REDIS_URL"),
			PoolSize:     getEnvInt("GAZETTEER_REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("GAZETTEER_REDIS_MIN_IDLE", 2),
			DialTimeout:  getEnvDuration("GAZETTEER_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("GAZETTEER_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("GAZETTEER_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		PathCacheTTL:    getEnvDuration("GAZETTEER_PATH_CACHE_TTL", 6*time.Hour),
		SyncInterval:    getEnvDuration("GAZETTEER_SYNC_INTERVAL", 15*time.Minute),
		MaxCustomLevels: getEnvInt("GAZETTEER_MAX_CUSTOM_LEVELS", 500),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
