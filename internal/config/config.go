package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPPort              string
	PostgresDSN           string
	RedisURL              string
	LogLevel              string
	DBMaxOpenConns        int
	DBMaxIdleConns        int
	DBConnMaxIdle         time.Duration
	DBConnMaxLife         time.Duration
	RequestTimeout        time.Duration
	MaxBodyBytes          int64
	CreateRateLimitPerMin int
}

func Load() *Config {
	cfg := &Config{
		HTTPPort:              getEnv("HTTP_PORT", "8080"),
		PostgresDSN:           getEnv("DATABASE_URL", ""),
		RedisURL:              getEnv("REDIS_URL", ""),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		DBMaxOpenConns:        getInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:        getInt("DB_MAX_IDLE_CONNS", 10),
		DBConnMaxIdle:         getDuration("DB_CONN_MAX_IDLE", 5*time.Minute),
		DBConnMaxLife:         getDuration("DB_CONN_MAX_LIFE", 30*time.Minute),
		RequestTimeout:        getDuration("REQUEST_TIMEOUT", 30*time.Second),
		MaxBodyBytes:          int64(getInt("MAX_BODY_BYTES", 50<<20)),
		CreateRateLimitPerMin: getInt("CREATE_RATE_LIMIT_PER_MIN", 30),
	}

	if cfg.PostgresDSN == "" {
		log.Fatal("DATABASE_URL is required")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
