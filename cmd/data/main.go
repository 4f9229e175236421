package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"tradefeed/internal/infrastructure/synthetic"
	infratrades "tradefeed/internal/infrastructure/trades"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultSeedCount  = 1000
	defaultSeedBatch  = 200
	defaultSeedUsers  = 25
	defaultSeedSpread = 6 * time.Hour
)

var seedNamespace = uuid.MustParse("5b0cf3a2-6f0e-4d55-9a57-3f1fd1a8c0de")

type dataConfig struct {
	DatabaseDSN string
	Count       int
	BatchSize   int
	Users       int
	Spread      time.Duration
	SkipSeed    bool
}

// The data loader applies the schema migrations and then seeds synthetic
// trades. Seeded trade ids are stable so a rerun overwrites the same rows.
func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}

	if err := infratrades.Migrate(ctx, cfg.DatabaseDSN); err != nil {
		logger.Fatalf("migrate: %v", err)
	}
	logger.Info("schema migrated")

	if cfg.SkipSeed {
		return
	}

	repo, err := infratrades.NewRepository(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatalf("connect postgres: %v", err)
	}
	defer repo.Close()

	gen := synthetic.NewGenerator(synthetic.Config{Users: cfg.Users, Spread: cfg.Spread}, uint64(time.Now().UnixNano()))
	seeded := 0
	for seeded < cfg.Count {
		n := min(cfg.BatchSize, cfg.Count-seeded)
		batch := gen.Batch(n)
		for i := range batch {
			batch[i].TradeID = stableUUID(seedNamespace, "seed-"+strconv.Itoa(seeded+i)).String()
		}
		if err := repo.IndexBatch(ctx, batch); err != nil {
			logger.Fatalf("save trades: %v", err)
		}
		seeded += n
		logger.WithField("trades", seeded).Debug("seed batch written")
	}
	logger.WithField("trades", seeded).Info("trade seed finished")
}

func loadConfig() (*dataConfig, error) {
	dsn := strings.TrimSpace(os.Getenv("DATABASE_DSN"))
	if dsn == "" {
		return nil, errors.New("DATABASE_DSN is required")
	}

	spread := defaultSeedSpread
	if raw := envOrDefault("SEED_SPREAD", ""); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, errors.New("SEED_SPREAD must be a duration")
		}
		spread = parsed
	}

	batchSize := intEnv("SEED_BATCH_SIZE", defaultSeedBatch)
	if batchSize <= 0 {
		batchSize = defaultSeedBatch
	}

	return &dataConfig{
		DatabaseDSN: dsn,
		Count:       intEnv("SEED_COUNT", defaultSeedCount),
		BatchSize:   batchSize,
		Users:       intEnv("SEED_USERS", defaultSeedUsers),
		Spread:      spread,
		SkipSeed:    boolEnv("SEED_SKIP", false),
	}, nil
}

func envOrDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func intEnv(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func boolEnv(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	switch strings.ToLower(value) {
	case "1", "t", "true", "yes", "y":
		return true
	case "0", "f", "false", "no", "n":
		return false
	default:
		return fallback
	}
}

func stableUUID(namespace uuid.UUID, value string) uuid.UUID {
	if value == "" {
		return uuid.New()
	}
	return uuid.NewSHA1(namespace, []byte(value))
}
