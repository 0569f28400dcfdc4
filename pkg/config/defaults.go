package config

import "time"

const (
	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultTimezone  = "UTC"
	DefaultEnvFile   = ".env"

	DefaultBackendURL         = "http://localhost:8000/api"
	DefaultBackendTimeout     = 10 * time.Second
	DefaultBackendRateLimit   = 20 // requests per second
	DefaultBackendBurst       = 40
	DefaultBackendMaxRetries  = 2
	DefaultBackendRetryDelay  = 200 * time.Millisecond
	DefaultBreakerFailures    = 5
	DefaultBreakerOpenTimeout = 30 * time.Second

	CacheBackendMemory  = "memory"
	CacheBackendRedis   = "redis"
	DefaultCacheBackend = CacheBackendMemory
	DefaultCacheTTL     = 60 * time.Second
	DefaultRedisAddr    = "localhost:6379"
	DefaultRedisDB      = 0
	DefaultRedisPrefix  = "staybook:"

	DefaultDraftTTL = 2 * time.Hour

	DefaultMongoDatabaseName = "staybook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultEventsTopic         = "staybook.booking-events"
	DefaultEventsDLQTopic      = "staybook.booking-events.dlq"
	DefaultBackendUpdatesTopic = "backend.booking-updates"
	DefaultEventsGroupID       = "staybook-bff"

	DefaultRateLimitRequests = 120
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB
	DefaultIdempotencyTTL = 10 * time.Minute

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)
