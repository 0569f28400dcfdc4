package kafka_config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"staybook/pkg/logger"
)

// Config holds the broker list plus the settings of the lifecycle event
// publisher and the backend update consumer. Anything not listed here
// runs on kafka-go defaults.
type Config struct {
	Brokers []string

	PublishMaxAttempts  int
	PublishBatchTimeout time.Duration
	PublishRequireAcks  int    // -1 all, 0 none, 1 leader
	PublishCompression  string // none, gzip, snappy, lz4, zstd

	UpdatesStartOffset    int64 // -1 newest, -2 oldest
	UpdatesMaxWait        time.Duration
	UpdatesCommitInterval time.Duration
	UpdatesMaxRetries     int

	EnableMiddleware bool
}

var validCompressions = map[string]bool{
	"none": true, "gzip": true, "snappy": true, "lz4": true, "zstd": true,
}

// Load reads the Kafka settings from the environment.
func Load() (*Config, error) {
	var brokers []string
	for _, b := range strings.Split(getEnvStr(EnvKafkaBrokers, DefaultKafkaBrokers), ",") {
		brokers = append(brokers, strings.TrimSpace(b))
	}

	cfg := &Config{
		Brokers: brokers,

		PublishMaxAttempts:  getEnvInt(EnvPublishMaxAttempts, DefaultPublishMaxAttempts),
		PublishBatchTimeout: getEnvDuration(EnvPublishBatchTimeout, DefaultPublishBatchTimeout),
		PublishRequireAcks:  getEnvInt(EnvPublishRequireAcks, DefaultPublishRequireAcks),
		PublishCompression:  strings.ToLower(getEnvStr(EnvPublishCompression, DefaultPublishCompression)),

		UpdatesStartOffset:    int64(getEnvInt(EnvUpdatesStartOffset, DefaultUpdatesStartOffset)),
		UpdatesMaxWait:        getEnvDuration(EnvUpdatesMaxWait, DefaultUpdatesMaxWait),
		UpdatesCommitInterval: getEnvDuration(EnvUpdatesCommitInterval, DefaultUpdatesCommitInterval),
		UpdatesMaxRetries:     getEnvInt(EnvUpdatesMaxRetries, DefaultUpdatesMaxRetries),

		EnableMiddleware: getEnvBool(EnvKafkaEnableMiddleware, DefaultEnableMiddleware),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("kafka configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	var problems []string

	if len(cfg.Brokers) == 0 {
		problems = append(problems, "at least one broker is required")
	}
	for i, broker := range cfg.Brokers {
		if broker == "" {
			problems = append(problems, fmt.Sprintf("broker %d is empty", i))
		}
	}

	if cfg.PublishMaxAttempts <= 0 {
		problems = append(problems, fmt.Sprintf("PublishMaxAttempts must be positive, got: %d", cfg.PublishMaxAttempts))
	}
	if cfg.PublishBatchTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("PublishBatchTimeout must be positive, got: %s", cfg.PublishBatchTimeout))
	}
	if cfg.PublishRequireAcks < -1 || cfg.PublishRequireAcks > 1 {
		problems = append(problems, fmt.Sprintf("PublishRequireAcks must be -1, 0 or 1, got: %d", cfg.PublishRequireAcks))
	}
	if !validCompressions[cfg.PublishCompression] {
		problems = append(problems, fmt.Sprintf("PublishCompression must be one of none, gzip, snappy, lz4, zstd, got: %q", cfg.PublishCompression))
	}

	if cfg.UpdatesStartOffset < -2 {
		problems = append(problems, fmt.Sprintf("UpdatesStartOffset must be -1 (newest), -2 (oldest) or >= 0, got: %d", cfg.UpdatesStartOffset))
	}
	if cfg.UpdatesMaxWait <= 0 {
		problems = append(problems, fmt.Sprintf("UpdatesMaxWait must be positive, got: %s", cfg.UpdatesMaxWait))
	}
	if cfg.UpdatesCommitInterval < 0 {
		problems = append(problems, fmt.Sprintf("UpdatesCommitInterval cannot be negative, got: %s", cfg.UpdatesCommitInterval))
	}
	if cfg.UpdatesMaxRetries < 0 {
		problems = append(problems, fmt.Sprintf("UpdatesMaxRetries cannot be negative, got: %d", cfg.UpdatesMaxRetries))
	}

	if len(problems) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("invalid kafka settings:\n")
	for i, p := range problems {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, p)
	}
	return fmt.Errorf("%s", b.String())
}

func (cfg *Config) LogConfiguration(log *logger.Logger) {
	log.Info("Kafka configuration loaded",
		"brokers", cfg.Brokers,
		"publish_max_attempts", cfg.PublishMaxAttempts,
		"publish_batch_timeout", cfg.PublishBatchTimeout,
		"publish_require_acks", cfg.PublishRequireAcks,
		"publish_compression", cfg.PublishCompression,
		"updates_start_offset", cfg.UpdatesStartOffset,
		"updates_max_wait", cfg.UpdatesMaxWait,
		"updates_commit_interval", cfg.UpdatesCommitInterval,
		"updates_max_retries", cfg.UpdatesMaxRetries,
		"enable_middleware", cfg.EnableMiddleware,
	)
}

func getEnvStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}
