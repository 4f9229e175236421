package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	docs "tradefeed/docs"
	appsummary "tradefeed/internal/application/service/summary"
	apptrades "tradefeed/internal/application/service/trades"
	"tradefeed/internal/config"
	summary "tradefeed/internal/domain/entity/summary"
	interfaces "tradefeed/internal/domain/interfaces"
	"tradefeed/internal/infrastructure/broadcast"
	"tradefeed/internal/infrastructure/broker"
	"tradefeed/internal/infrastructure/metrics"
	infratrades "tradefeed/internal/infrastructure/trades"
	infrahttp "tradefeed/internal/interfaces/http"
	"tradefeed/internal/interfaces/ws"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	migrate := flag.Bool("migrate", false, "apply database migrations before serving")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, keeping %s", cfg.LogLevel, logger.GetLevel())
	}

	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Host = cfg.HTTP.Addr()

	if *migrate && cfg.Store.Driver == config.StoreDriverPostgres {
		if err := infratrades.Migrate(ctx, cfg.Postgres.DSN); err != nil {
			logger.Fatalf("failed to migrate database: %v", err)
		}
		logger.Info("database migrations applied")
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to init trade store: %v", err)
	}
	defer store.Close()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("redis unavailable, search responses will not be cached until it recovers")
		}
		defer redisClient.Close()
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	tradeService := apptrades.NewService(store)
	aggregator := appsummary.NewAggregator(store, logger,
		appsummary.WithWindow(cfg.Summary.Window),
		appsummary.WithMetrics(m),
	)

	var provider interfaces.SummaryProvider = aggregator
	if cfg.Summary.MockEnabled {
		logger.Warn("summary feed is publishing mock data")
		provider = appsummary.NewMockSource(cfg.Summary.Window)
	}

	hub := broadcast.NewHub[summary.WindowSummary](cfg.Stream.Mailbox)
	scheduler := appsummary.NewScheduler(appsummary.SchedulerConfig{
		Interval:       cfg.Summary.Interval,
		TickTimeout:    cfg.Summary.TickTimeout,
		PublishOnStart: cfg.Summary.PublishOnStart,
	}, provider, hub, logger, m)

	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		scheduler.Run(ctx)
	}()

	var consumer *broker.Consumer
	if cfg.RabbitMQ.URL != "" {
		consumer, err = broker.NewConsumer(cfg.RabbitMQ, tradeService, logger, m.Ingested)
		if err != nil {
			logger.Fatalf("failed to init trade consumer: %v", err)
		}
		if err := consumer.Start(ctx); err != nil {
			logger.Fatalf("failed to start trade consumer: %v", err)
		}
	}

	gateway := ws.NewGateway(ws.Config{
		PingInterval: cfg.Stream.PingInterval,
		WriteTimeout: cfg.Stream.WriteTimeout,
	}, hub, logger, m)

	handler := infrahttp.NewHandler(infrahttp.Dependencies{
		Trades:     tradeService,
		Summary:    aggregator,
		Stream:     gateway,
		Metrics:    promhttp.Handler(),
		Cache:      redisClient,
		CacheTTL:   cfg.Cache.TTL(),
		CORSOrigin: cfg.CORS.Origin,
		Logger:     logger,
	})

	server := &http.Server{
		Addr:    cfg.HTTP.Addr(),
		Handler: handler,
	}

	go func() {
		logger.Infof("HTTP server listening on %s", cfg.HTTP.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	<-schedulerDone
	hub.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown error: %v", err)
	}
	if consumer != nil {
		if err := consumer.Close(shutdownCtx); err != nil {
			logger.Errorf("trade consumer shutdown error: %v", err)
		}
	}
	logger.Info("server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (interfaces.TradeRepository, error) {
	var store interfaces.TradeRepository
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		store = infratrades.NewMemoryStore()
	default:
		repo, err := infratrades.NewRepository(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		store = repo
	}
	return infratrades.NewBounded(store, cfg.Store.MaxConcurrency, cfg.Store.QueryTimeout), nil
}
