package main

import (
	"context"
	"time"

	"github.com/common-nighthawk/go-figure"

	"staybook/internal/api"
	"staybook/internal/availability"
	"staybook/internal/bookings/repository"
	"staybook/internal/bookings/service"
	"staybook/internal/bookings/validator"
	"staybook/internal/cancellation"
	"staybook/internal/catalog"
	"staybook/internal/checkout"
	"staybook/internal/events"
	"staybook/internal/favorites"
	"staybook/internal/querycache"
	"staybook/pkg/app"
	"staybook/pkg/client"
	"staybook/pkg/config"
	"staybook/pkg/kafka"
	kafka_config "staybook/pkg/kafka/config"
	kafka_middleware "staybook/pkg/kafka/middleware"
	"staybook/pkg/metrics"
)

const (
	ServiceName = "staybook"

	guardSweepInterval = 10 * time.Minute
	settledGuardTTL    = 30 * time.Minute
	journalTimeout     = 5 * time.Second
	backendHealthPath  = "/hotels/locations"
	backendHealthWait  = time.Second
)

func main() {
	figure.NewFigure("STAYBOOK", "", true).Print()

	cfg := config.Load(ServiceName)
	m := metrics.New()
	serverApp := app.NewApplication()

	backend := client.NewClient(client.Config{
		BaseURL:            cfg.BackendURL,
		Timeout:            cfg.BackendTimeout,
		RateLimit:          cfg.BackendRateLimit,
		Burst:              cfg.BackendBurst,
		MaxRetries:         cfg.BackendMaxRetries,
		RetryDelay:         cfg.BackendRetryDelay,
		BreakerFailures:    cfg.BreakerFailures,
		BreakerOpenTimeout: cfg.BreakerOpenTimeout,
	}, cfg.Log, m)

	checks := map[string]api.Check{
		"backend": func(ctx context.Context) error {
			return backend.HTTP.WaitForHealthy(ctx, backendHealthPath, backendHealthWait)
		},
	}
	cache := initCache(cfg, m, checks)
	serverApp.Close("query cache", cache)

	attempts := initJournal(cfg, backend, checks)
	publisher := initEvents(cfg, m, cache, serverApp)
	serverApp.Close("event publisher", publisher)

	catalogService := catalog.NewService(backend.Hotels, cache, catalog.NewHotelValidator(cfg.Log), publisher, cfg.Log)
	policy := cancellation.NewPolicy(cfg.Location)
	drafts := service.NewDraftStore(cfg.DraftTTL, m)
	bookingService := service.NewBookingService(service.Dependencies{
		Backend:   backend.Bookings,
		Hotels:    catalogService,
		Resolver:  availability.NewResolver(backend.Hotels, cache, cfg.Log),
		Validator: validator.NewBookingValidator(cfg.Log, cfg.Location),
		Policy:    policy,
		Attempts:  attempts,
		Publisher: publisher,
		Cache:     cache,
		Drafts:    drafts,
		Metrics:   m,
		Log:       cfg.Log,
		Location:  cfg.Location,
	})
	favoriteService := favorites.NewService(backend.Favorites, cache, publisher, m, cfg.Log)

	serverApp.OnShutdown(func(ctx context.Context) {
		drafts.Stop()
		backend.GracefulShutdown(ctx, cfg.Log)
	})
	serverApp.Go("favorite-guard-sweeper", func(ctx context.Context) error {
		ticker := time.NewTicker(guardSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if n := favoriteService.Sweep(settledGuardTTL); n > 0 {
					cfg.Log.Debug("Swept favorite guards", "count", n)
				}
			}
		}
	})

	handler := api.NewHandler(api.Services{
		Catalog:      catalogService,
		Bookings:     bookingService,
		Cancellation: cancellation.NewService(bookingService, backend.Bookings, policy, cache, publisher, m, cfg.Log),
		Favorites:    favoriteService,
		Checkout:     checkout.NewService(backend.Payments, cache, publisher, cfg.Location, cfg.Log),
	}, cfg.Location, cfg.Log)

	cfg.Log.Info("Starting StayBook BFF", "backend_url", cfg.BackendURL, "cache_backend", cfg.CacheBackend)
	serverApp.SetApp(cfg, handler, api.NewHealthHandler(checks, cfg.Log), m)
	serverApp.Run()
}

func initCache(cfg *config.Config, m *metrics.Metrics, checks map[string]api.Check) *querycache.Cache {
	if cfg.CacheBackend == config.CacheBackendRedis {
		store := querycache.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
		checks["redis"] = store.Ping
		cfg.Log.Info("Query cache backed by Redis", "addr", cfg.RedisAddr)
		return querycache.New(store, cfg.CacheTTL, cfg.Log, m)
	}
	cfg.Log.Info("Query cache held in memory")
	return querycache.New(querycache.NewMemoryStore(cfg.CacheTTL), cfg.CacheTTL, cfg.Log, m)
}

func initJournal(cfg *config.Config, backend *client.Client, checks map[string]api.Check) repository.AttemptRepository {
	if !cfg.JournalEnabled() {
		cfg.Log.Info("Booking attempt journal disabled")
		return repository.NoopAttemptRepository{}
	}
	backend.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
	checks["mongo"] = func(ctx context.Context) error { return backend.Mongo.Ping(ctx, nil) }
	cfg.Log.Info("Booking attempt journal enabled", "database", cfg.MongoDatabaseName)
	return repository.NewMongoAttemptRepository(backend.Mongo, cfg.MongoDatabaseName, repository.Timeouts{
		Read:  journalTimeout,
		Write: journalTimeout,
	})
}

// initEvents starts the lifecycle publisher and the backend update consumer.
// With events disabled every publish is a no-op.
func initEvents(cfg *config.Config, m *metrics.Metrics, cache *querycache.Cache, serverApp *app.Application) events.Publisher {
	if !cfg.EventsEnabled {
		cfg.Log.Info("Kafka events disabled")
		return events.Noop{}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.EventsTopic, cfg.EventsDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(kafka_middleware.MetricsProducerMiddleware(m))
	}

	if cfg.BackendUpdatesTopic != "" {
		consumer, err := kafka.NewConsumer(kafkaCfg, cfg.BackendUpdatesTopic, cfg.EventsGroupID, cfg.EventsDLQTopic, events.UpdateHandler(cache, cfg.Log), cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
		}
		if kafkaCfg.EnableMiddleware {
			consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
			consumer.Use(kafka_middleware.MetricsConsumerMiddleware(m))
		}
		serverApp.Go("backend-updates-consumer", consumer.Start)
		serverApp.Close("backend updates consumer", consumer)
	}

	return events.NewKafkaPublisher(producer, ServiceName, cfg.Log)
}
