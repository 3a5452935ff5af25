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

const (
	BackendRedis  = "redis"
	BackendMemory = "memory"

	minSecretLen = 32
	devSecret    = "dev-only-session-secret-change-me"
)

type Config struct {
	Port     string
	LogLevel string

	DatabaseURL string
	CatalogURL  string

	Session SessionConfig
	Redis   RedisConfig

	// CartSessionKey is the session key the cart mapping lives under.
	CartSessionKey string

	MetricsEnabled bool
	MetricsToken   string

	RateLimitPerMin int
}

type SessionConfig struct {
	Backend      string
	CookieName   string
	CookieSecure bool
	TTL          time.Duration
	Secret       string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// Load reads the environment, after an optional .env file in the working
// directory.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:     getenv("PORT", "8080"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		CatalogURL:  os.Getenv("CATALOG_URL"),

		Session: SessionConfig{
			Backend:      strings.ToLower(getenv("SESSION_BACKEND", BackendMemory)),
			CookieName:   getenv("SESSION_COOKIE_NAME", "sessionid"),
			CookieSecure: getenvBool("SESSION_COOKIE_SECURE", false),
			TTL:          getenvDuration("SESSION_TTL", 14*24*time.Hour),
			Secret:       getenv("SESSION_SECRET", devSecret),
		},
		Redis: RedisConfig{
			Addr:     getenv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getenvInt("REDIS_DB", 0),
			PoolSize: getenvInt("REDIS_POOL_SIZE", 10),
		},

		CartSessionKey: getenv("CART_SESSION_ID", "cart"),

		MetricsEnabled: getenvBool("METRICS_ENABLED", true),
		MetricsToken:   os.Getenv("METRICS_TOKEN"),

		RateLimitPerMin: getenvInt("RATE_LIMIT_PER_MIN", 120),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Session.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return errors.New("REDIS_ADDR is required for the redis session backend")
		}
		if len(c.Session.Secret) < minSecretLen || c.Session.Secret == devSecret {
			return fmt.Errorf("SESSION_SECRET must be set and at least %d chars", minSecretLen)
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.Session.Backend)
	}

	if strings.TrimSpace(c.CartSessionKey) == "" {
		return errors.New("CART_SESSION_ID must not be empty")
	}
	if c.DatabaseURL != "" && c.CatalogURL != "" {
		return errors.New("set only one of DATABASE_URL and CATALOG_URL")
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
