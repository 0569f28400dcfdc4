package kafka_config

import "time"

const (
	DefaultKafkaBrokers = "localhost:9092"

	// Lifecycle events are small, so batches linger briefly.
	DefaultPublishMaxAttempts  = 3
	DefaultPublishBatchTimeout = 10 * time.Millisecond
	DefaultPublishRequireAcks  = -1
	DefaultPublishCompression  = "snappy"

	// Updates that arrived before boot are moot: the cache starts empty.
	DefaultUpdatesStartOffset    = -1
	DefaultUpdatesMaxWait        = 500 * time.Millisecond
	DefaultUpdatesCommitInterval = time.Second
	DefaultUpdatesMaxRetries     = 3

	DefaultEnableMiddleware = true
)
