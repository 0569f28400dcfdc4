package querycache

import (
	"context"
	"encoding/json"
	"time"
)

// Entry is one cached query result.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	Tags      []string        `json:"tags"`
}

// Store keeps entries by query key plus a tag -> keys index.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, bool, error)
	Set(ctx context.Context, key string, entry *Entry, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// InvalidateTags drops every key indexed under any of tags and returns how
	// many keys were removed.
	InvalidateTags(ctx context.Context, tags ...string) (int, error)
	Close() error
}
