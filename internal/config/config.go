package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultFTACountries is the preferential-trade membership used when
// TARIFF_FTA_COUNTRIES is not set.
var DefaultFTACountries = []string{
	"Singapore",
	"Malaysia",
	"Thailand",
	"Indonesia",
	"Philippines",
	"Vietnam",
	"China",
	"Japan",
	"South Korea",
}

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port string
	Env  string

	DB        DatabaseConfig
	Redis     RedisConfig
	Currency  CurrencyConfig
	Tariff    TariffConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// CurrencyConfig controls the live exchange-rate source and its cache.
type CurrencyConfig struct {
	APIURL   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// TariffConfig contains calculation settings.
type TariffConfig struct {
	FTACountries       []string
	CompareConcurrency int
}

// SessionConfig controls the lifetime of session-scoped simulated tariffs.
type SessionConfig struct {
	OverrideTTL time.Duration
}

// RateLimitConfig controls per-client request throttling.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// CORSConfig lists hosts allowed to call the API from a browser.
type CORSConfig struct {
	AllowedHosts []string
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")

	// Database
	cfg.DB = DatabaseConfig{
		Host:         getEnv("DB_HOST", ""),
		Port:         getEnv("DB_PORT", "5432"),
		User:         getEnv("DB_USER", ""),
		Password:     getEnv("DB_PASSWORD", ""),
		Name:         getEnv("DB_NAME", ""),
		SSLMode:      getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	cfg.Currency = CurrencyConfig{
		APIURL: getEnv("CURRENCY_API_URL", "https://api.exchangerate-api.com/v4"),
	}

	cfg.Tariff = TariffConfig{
		FTACountries:       getEnvList("TARIFF_FTA_COUNTRIES", DefaultFTACountries),
		CompareConcurrency: getEnvInt("COMPARE_CONCURRENCY", 8),
	}

	cfg.RateLimit = RateLimitConfig{
		RPS:   getEnvFloat("RATE_LIMIT_RPS", 20),
		Burst: getEnvInt("RATE_LIMIT_BURST", 40),
	}

	cfg.CORS = CORSConfig{
		AllowedHosts: getEnvList("CORS_ALLOWED_HOSTS", []string{"localhost:3000", "127.0.0.1:3000"}),
	}

	// Durations
	var err error
	if cfg.DB.ConnLifetime, err = parseDurationEnv("DB_CONN_MAX_LIFETIME", "5m"); err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}
	if cfg.Currency.Timeout, err = parseDurationEnv("CURRENCY_API_TIMEOUT", "5s"); err != nil {
		return nil, fmt.Errorf("invalid CURRENCY_API_TIMEOUT: %w", err)
	}
	if cfg.Currency.CacheTTL, err = parseDurationEnv("CURRENCY_CACHE_TTL", "1h"); err != nil {
		return nil, fmt.Errorf("invalid CURRENCY_CACHE_TTL: %w", err)
	}
	if cfg.Session.OverrideTTL, err = parseDurationEnv("SESSION_OVERRIDE_TTL", "24h"); err != nil {
		return nil, fmt.Errorf("invalid SESSION_OVERRIDE_TTL: %w", err)
	}

	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}
	if cfg.Tariff.CompareConcurrency <= 0 {
		return nil, errors.New("COMPARE_CONCURRENCY must be greater than zero")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// getEnvList splits a comma separated variable, dropping blank entries.
func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
