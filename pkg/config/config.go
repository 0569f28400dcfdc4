package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"staybook/pkg/logger"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/subosito/gotenv"
)

type Config struct {
	Port      string
	LogLevel  string
	LogFormat string
	Timezone  string
	Location  *time.Location

	BackendURL         string
	BackendTimeout     time.Duration
	BackendRateLimit   int
	BackendBurst       int
	BackendMaxRetries  int
	BackendRetryDelay  time.Duration
	BreakerFailures    int
	BreakerOpenTimeout time.Duration

	CacheBackend  string
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	DraftTTL time.Duration

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	EventsEnabled       bool
	EventsTopic         string
	EventsDLQTopic      string
	BackendUpdatesTopic string
	EventsGroupID       string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	MaxRequestSize int
	IdempotencyTTL time.Duration

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log *logger.Logger
}

// Load reads the optional env file, then the process environment. Invalid
// configuration is fatal.
func Load(serviceName string) *Config {
	_ = gotenv.Load(getEnvStr(EnvEnvFile, DefaultEnvFile))

	cfg := &Config{
		Port:      getEnvStr(EnvPort, DefaultPort),
		LogLevel:  getEnvStr(EnvLogLevel, DefaultLogLevel),
		LogFormat: getEnvStr(EnvLogFormat, DefaultLogFormat),
		Timezone:  getEnvStr(EnvTimezone, DefaultTimezone),

		BackendURL:         strings.TrimRight(getEnvStr(EnvBackendURL, DefaultBackendURL), "/"),
		BackendTimeout:     getEnvDuration(EnvBackendTimeout, DefaultBackendTimeout),
		BackendRateLimit:   getEnvNum(EnvBackendRateLimit, DefaultBackendRateLimit),
		BackendBurst:       getEnvNum(EnvBackendBurst, DefaultBackendBurst),
		BackendMaxRetries:  getEnvNum(EnvBackendMaxRetries, DefaultBackendMaxRetries),
		BackendRetryDelay:  getEnvDuration(EnvBackendRetryDelay, DefaultBackendRetryDelay),
		BreakerFailures:    getEnvNum(EnvBreakerFailures, DefaultBreakerFailures),
		BreakerOpenTimeout: getEnvDuration(EnvBreakerOpenTimeout, DefaultBreakerOpenTimeout),

		CacheBackend:  strings.ToLower(getEnvStr(EnvCacheBackend, DefaultCacheBackend)),
		CacheTTL:      getEnvDuration(EnvCacheTTL, DefaultCacheTTL),
		RedisAddr:     getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),
		RedisPrefix:   getEnvStr(EnvRedisPrefix, DefaultRedisPrefix),

		DraftTTL: getEnvDuration(EnvDraftTTL, DefaultDraftTTL),

		MongoURI:          getEnvStr(EnvMongoURI, ""),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		EventsEnabled:       getEnvBool(EnvEventsEnabled, false),
		EventsTopic:         getEnvStr(EnvEventsTopic, DefaultEventsTopic),
		EventsDLQTopic:      getEnvStr(EnvEventsDLQTopic, DefaultEventsDLQTopic),
		BackendUpdatesTopic:getEnvStr(EnvBackendUpdatesTopic, DefaultBackendUpdatesTopic),
		EventsGroupID:       getEnvStr(EnvEventsGroupID, DefaultEventsGroupID),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),
	}

	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		AddSource: true,
		Service:   serviceName,
	})

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// Validate checks every setting and resolves Location as a side effect.
func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if loc, err := time.LoadLocation(cfg.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("Timezone must be a valid IANA zone name, got: %s", cfg.Timezone))
	} else {
		cfg.Location = loc
	}

	if u, err := url.Parse(cfg.BackendURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errors = append(errors, fmt.Sprintf("BackendURL must be an absolute http(s) URL, got: %s", cfg.BackendURL))
	}

	if cfg.CacheBackend != CacheBackendMemory && cfg.CacheBackend != CacheBackendRedis {
		errors = append(errors, fmt.Sprintf("CacheBackend must be %q or %q, got: %s", CacheBackendMemory, CacheBackendRedis, cfg.CacheBackend))
	}
	if cfg.CacheBackend == CacheBackendRedis && cfg.RedisAddr == "" {
		errors = append(errors, "RedisAddr cannot be empty when CacheBackend is redis")
	}
	if cfg.RedisDB < 0 {
		errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
	}

	if cfg.MongoURI != "" {
		if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty when MongoURI is set")
		}
	}

	if cfg.EventsEnabled && cfg.EventsTopic == "" {
		errors = append(errors, "EventsTopic cannot be empty when events are enabled")
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"BackendTimeout", cfg.BackendTimeout},
		{"BreakerOpenTimeout", cfg.BreakerOpenTimeout},
		{"CacheTTL", cfg.CacheTTL},
		{"DraftTTL", cfg.DraftTTL},
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}
	if cfg.BackendRetryDelay < 0 {
		errors = append(errors, fmt.Sprintf("BackendRetryDelay cannot be negative, got: %s", cfg.BackendRetryDelay))
	}

	if cfg.BackendRateLimit <= 0 {
		errors = append(errors, fmt.Sprintf("BackendRateLimit must be positive, got: %d", cfg.BackendRateLimit))
	}
	if cfg.BackendBurst < 1 {
		errors = append(errors, fmt.Sprintf("BackendBurst must be at least 1, got: %d", cfg.BackendBurst))
	}
	if cfg.BackendMaxRetries < 0 {
		errors = append(errors, fmt.Sprintf("BackendMaxRetries cannot be negative, got: %d", cfg.BackendMaxRetries))
	}
	if cfg.BreakerFailures <= 0 {
		errors = append(errors, fmt.Sprintf("BreakerFailures must be positive, got: %d", cfg.BreakerFailures))
	}
	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"port", cfg.Port,
		"timezone", cfg.Timezone,
		"backend_url", cfg.BackendURL,
		"backend_timeout", cfg.BackendTimeout,
		"backend_rate_limit", cfg.BackendRateLimit,
		"backend_burst", cfg.BackendBurst,
		"backend_max_retries", cfg.BackendMaxRetries,
		"breaker_failures", cfg.BreakerFailures,
		"breaker_open_timeout", cfg.BreakerOpenTimeout,
		"cache_backend", cfg.CacheBackend,
		"cache_ttl", cfg.CacheTTL,
		"redis_addr", cfg.RedisAddr,
		"redis_password_set", cfg.RedisPassword != "",
		"draft_ttl", cfg.DraftTTL,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"events_enabled", cfg.EventsEnabled,
		"events_topic", cfg.EventsTopic,
		"backend_updates_topic", cfg.BackendUpdatesTopic,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"max_request_size", cfg.MaxRequestSize,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

// JournalEnabled reports whether booking attempts are persisted to MongoDB.
func (cfg *Config) JournalEnabled() bool {
	return cfg.MongoURI != ""
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
