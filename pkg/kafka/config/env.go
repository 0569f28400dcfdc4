package kafka_config

const (
	EnvKafkaBrokers = "KAFKA_BROKERS"

	EnvPublishMaxAttempts  = "KAFKA_PUBLISH_MAX_ATTEMPTS"
	EnvPublishBatchTimeout = "KAFKA_PUBLISH_BATCH_TIMEOUT"
	EnvPublishRequireAcks  = "KAFKA_PUBLISH_REQUIRE_ACKS"
	EnvPublishCompression  = "KAFKA_PUBLISH_COMPRESSION"

	// Backend update consumer.
	EnvUpdatesStartOffset    = "KAFKA_UPDATES_START_OFFSET"
	EnvUpdatesMaxWait        = "KAFKA_UPDATES_MAX_WAIT"
	EnvUpdatesCommitInterval = "KAFKA_UPDATES_COMMIT_INTERVAL"
	EnvUpdatesMaxRetries     = "KAFKA_UPDATES_MAX_RETRIES"

	EnvKafkaEnableMiddleware = "KAFKA_ENABLE_MIDDLEWARE"
)
