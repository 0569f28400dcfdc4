package config

const (
	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"
	EnvTimezone  = "TIMEZONE"
	EnvEnvFile   = "ENV_FILE"

	EnvBackendURL         = "BACKEND_URL"
	EnvBackendTimeout     = "BACKEND_TIMEOUT"
	EnvBackendRateLimit   = "BACKEND_RATE_LIMIT"
	EnvBackendBurst       = "BACKEND_BURST"
	EnvBackendMaxRetries  = "BACKEND_MAX_RETRIES"
	EnvBackendRetryDelay  = "BACKEND_RETRY_DELAY"
	EnvBreakerFailures    = "BACKEND_BREAKER_FAILURES"
	EnvBreakerOpenTimeout = "BACKEND_BREAKER_OPEN_TIMEOUT"

	EnvCacheBackend  = "CACHE_BACKEND"
	EnvCacheTTL      = "CACHE_TTL"
	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"
	EnvRedisPrefix   = "REDIS_KEY_PREFIX"

	EnvDraftTTL = "DRAFT_TTL"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvEventsEnabled       = "EVENTS_ENABLED"
	EnvEventsTopic         = "EVENTS_TOPIC"
	EnvEventsDLQTopic      = "EVENTS_DLQ_TOPIC"
	EnvBackendUpdatesTopic = "BACKEND_UPDATES_TOPIC"
	EnvEventsGroupID       = "EVENTS_GROUP_ID"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
