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
	defaultEnv             = "development"
	defaultLogLevel        = "info"
	defaultHTTPHost        = "0.0.0.0"
	defaultHTTPPort        = 8080
	defaultStoreDriver     = StoreDriverPostgres
	defaultStoreMaxConc    = 64
	defaultStoreTimeout    = 5 * time.Second
	defaultRedisAddr       = "localhost:6379"
	defaultRedisDB         = 0
	defaultCacheTTLSeconds = 30
	defaultTradesExchange  = "trades"
	defaultPrefetch        = 100
	defaultBatchSize       = 100
	defaultBatchTimeout    = time.Second
	defaultSummaryInterval = time.Minute
	defaultSummaryWindow   = time.Hour
	defaultTickTimeout     = 30 * time.Second
	defaultPingInterval    = 30 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultStreamMailbox   = 16
	defaultCORSOrigin      = "*"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config keeps the runtime configuration for the service.
type Config struct {
	Env      string
	LogLevel string
	HTTP     HTTPConfig
	Store    StoreConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Cache    CacheConfig
	RabbitMQ RabbitMQConfig
	Summary  SummaryConfig
	Stream   StreamConfig
	CORS     CORSConfig
}

// HTTPConfig holds HTTP server related settings.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr renders the listen address in host:port form.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// StoreConfig selects the trade store implementation.
type StoreConfig struct {
	Driver         string
	MaxConcurrency int
	QueryTimeout   time.Duration
}

// PostgresConfig stores database connection parameters.
type PostgresConfig struct {
	DSN string
}

// RedisConfig stores Redis connection parameters. An empty Addr disables
// the search cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CacheConfig stores cache behavior.
type CacheConfig struct {
	TTLSeconds int
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// RabbitMQConfig configures trade ingestion. An empty URL disables it.
type RabbitMQConfig struct {
	URL            string
	TradesExchange string
	Prefetch       int
	BatchSize      int
	BatchTimeout   time.Duration
}

// SummaryConfig drives the periodic summary publisher.
type SummaryConfig struct {
	Interval       time.Duration
	Window         time.Duration
	TickTimeout    time.Duration
	MockEnabled    bool
	PublishOnStart bool
}

// StreamConfig tunes the live summary feed connections.
type StreamConfig struct {
	PingInterval time.Duration
	WriteTimeout time.Duration
	Mailbox      int
}

type CORSConfig struct {
	Origin string
}

// Load builds Config from environment variables. A .env file in the working
// directory is read first; variables already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var errs []error
	intVar := func(key string, fallback int) int {
		v, err := getInt(key, fallback)
		errs = append(errs, err)
		return v
	}
	durationVar := func(key string, fallback time.Duration) time.Duration {
		v, err := getDuration(key, fallback)
		errs = append(errs, err)
		return v
	}
	boolVar := func(key string, fallback bool) bool {
		v, err := getBool(key, fallback)
		errs = append(errs, err)
		return v
	}

	cfg := &Config{
		Env:      getString("APP_ENV", defaultEnv),
		LogLevel: getString("LOG_LEVEL", defaultLogLevel),
		HTTP: HTTPConfig{
			Host: getString("HTTP_HOST", defaultHTTPHost),
			Port: intVar("HTTP_PORT", defaultHTTPPort),
		},
		Store: StoreConfig{
			Driver:         strings.ToLower(getString("STORE_DRIVER", defaultStoreDriver)),
			MaxConcurrency: intVar("STORE_MAX_CONCURRENCY", defaultStoreMaxConc),
			QueryTimeout:   durationVar("STORE_QUERY_TIMEOUT", defaultStoreTimeout),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("DATABASE_DSN"),
		},
		Redis: RedisConfig{
			Addr:     getString("REDIS_ADDR", defaultRedisAddr),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       intVar("REDIS_DB", defaultRedisDB),
		},
		Cache: CacheConfig{
			TTLSeconds: intVar("CACHE_TTL_SECONDS", defaultCacheTTLSeconds),
		},
		RabbitMQ: RabbitMQConfig{
			URL:            os.Getenv("RABBITMQ_URL"),
			TradesExchange: getString("RABBITMQ_TRADES_EXCHANGE", defaultTradesExchange),
			Prefetch:       intVar("RABBITMQ_PREFETCH", defaultPrefetch),
			BatchSize:      intVar("RABBITMQ_BATCH_SIZE", defaultBatchSize),
			BatchTimeout:   durationVar("RABBITMQ_BATCH_TIMEOUT", defaultBatchTimeout),
		},
		Summary: SummaryConfig{
			Interval:       durationVar("SUMMARY_INTERVAL", defaultSummaryInterval),
			Window:         durationVar("SUMMARY_WINDOW", defaultSummaryWindow),
			TickTimeout:    durationVar("SUMMARY_TICK_TIMEOUT", defaultTickTimeout),
			MockEnabled:    boolVar("SUMMARY_MOCK_ENABLED", false),
			PublishOnStart: boolVar("SUMMARY_PUBLISH_ON_START", true),
		},
		Stream: StreamConfig{
			PingInterval: durationVar("STREAM_PING_INTERVAL", defaultPingInterval),
			WriteTimeout: durationVar("STREAM_WRITE_TIMEOUT", defaultWriteTimeout),
			Mailbox:      intVar("STREAM_MAILBOX", defaultStreamMailbox),
		},
		CORS: CORSConfig{
			Origin: getString("CORS_ORIGIN", defaultCORSOrigin),
		},
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("DATABASE_DSN is required for the postgres store driver")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Summary.Interval <= 0 {
		return errors.New("SUMMARY_INTERVAL must be positive")
	}
	if c.Summary.Window <= 0 {
		return errors.New("SUMMARY_WINDOW must be positive")
	}
	return nil
}

func getString(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func getInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("convert %s value %q to int: %w", key, value, err)
	}
	return parsed, nil
}

func getBool(key string, fallback bool) (bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("convert %s value %q to bool: %w", key, value, err)
	}
	return parsed, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("convert %s value %q to duration: %w", key, value, err)
	}
	return parsed, nil
}
