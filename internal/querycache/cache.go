// Package querycache memoizes backend query results by key and drops them by
// tag after mutations.
package querycache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"staybook/pkg/logger"
	"staybook/pkg/metrics"
)

// Query identifies one cacheable read. Family labels metrics, Key is the
// canonical cache key, Tags are the invalidation handles.
type Query struct {
	Family string
	Key    string
	Tags   []string
}

type Cache struct {
	store   Store
	ttl     time.Duration
	log     *logger.Logger
	metrics *metrics.Metrics
	group   singleflight.Group

	mu   sync.Mutex
	gens map[string]uint64
}

func New(store Store, ttl time.Duration, log *logger.Logger, m *metrics.Metrics) *Cache {
	if log == nil {
		log = logger.Discard()
	}
	return &Cache{
		store:   store,
		ttl:     ttl,
		log:     log.Component("querycache"),
		metrics: m,
		gens:    make(map[string]uint64),
	}
}

// Fetch returns the cached value for q or loads it with fn. Concurrent
// callers for the same key share one load. A load that overlaps an
// invalidation of any of its tags is returned but not stored.
func Fetch[T any](ctx context.Context, c *Cache, q Query, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if entry, ok := c.lookup(ctx, q.Key); ok {
		var v T
		if err := json.Unmarshal(entry.Data, &v); err == nil {
			c.metrics.ObserveCache(q.Family, true)
			return v, nil
		}
		c.log.Warn("discarding undecodable cache entry", "key", q.Key)
	}
	c.metrics.ObserveCache(q.Family, false)

	gens := c.snapshot(q.Tags)
	raw, err, _ := c.group.Do(flightKey(q.Key, gens), func() (any, error) {
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s result: %w", q.Family, err)
		}
		c.storeIfCurrent(ctx, q, data, gens)
		return data, nil
	})
	if err != nil {
		return zero, err
	}

	var v T
	if err := json.Unmarshal(raw.([]byte), &v); err != nil {
		return zero, fmt.Errorf("decode %s result: %w", q.Family, err)
	}
	return v, nil
}

func (c *Cache) lookup(ctx context.Context, key string) (*Entry, bool) {
	entry, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warn("cache read failed", "key", key, "error", err)
		return nil, false
	}
	return entry, ok
}

func (c *Cache) snapshot(tags []string) []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]uint64, len(tags))
	for i, tag := range tags {
		out[i] = c.gens[tag]
	}
	return out
}

// flightKey folds tag generations into the key so loads started after an
// invalidation never join one started before it.
func flightKey(key string, gens []uint64) string {
	var b strings.Builder
	b.WriteString(key)
	for _, g := range gens {
		b.WriteByte('#')
		b.WriteString(strconv.FormatUint(g, 10))
	}
	return b.String()
}

func (c *Cache) storeIfCurrent(ctx context.Context, q Query, data []byte, gens []uint64) {
	if !c.current(q.Tags, gens) {
		c.log.Debug("skipping stale cache write", "key", q.Key)
		return
	}

	entry := &Entry{Data: data, Timestamp: time.Now(), Tags: q.Tags}
	if err := c.store.Set(ctx, q.Key, entry, c.ttl); err != nil {
		c.log.Warn("cache write failed", "key", q.Key, "error", err)
		return
	}

	// An invalidation that ran while Set was in progress has already cleared
	// the store, so the stale entry it missed is removed here.
	if !c.current(q.Tags, gens) {
		c.log.Debug("removing cache write overtaken by invalidation", "key", q.Key)
		if err := c.store.Delete(ctx, q.Key); err != nil {
			c.log.Warn("cache delete failed", "key", q.Key, "error", err)
		}
	}
}

// current reports whether no tag has been invalidated since gens was taken.
func (c *Cache) current(tags []string, gens []uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, tag := range tags {
		if c.gens[tag] != gens[i] {
			return false
		}
	}
	return true
}

// Invalidate drops every entry carrying any of tags. Loads already in flight
// for those tags will not be stored.
func (c *Cache) Invalidate(ctx context.Context, tags ...string) {
	if len(tags) == 0 {
		return
	}

	c.mu.Lock()
	for _, tag := range tags {
		c.gens[tag]++
	}
	c.mu.Unlock()

	removed, err := c.store.InvalidateTags(ctx, tags...)
	if err != nil {
		c.log.Error("cache invalidation failed", "tags", tags, "error", err)
		return
	}
	c.metrics.ObserveInvalidation(Family(tags[0]), removed)
	c.log.Debug("cache invalidated", "tags", tags, "keys", removed)
}

func (c *Cache) Close() error {
	return c.store.Close()
}

// Family returns the part of a tag or key before the first ':'.
func Family(tag string) string {
	if i := strings.IndexByte(tag, ':'); i >= 0 {
		return tag[:i]
	}
	return tag
}

// Key joins parts into a canonical cache key.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
