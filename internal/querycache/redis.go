package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares the cache between BFF replicas. Tag sets are Redis SETs
// of query keys that expire alongside the entries they index.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(addr, password string, db int, prefix string) *RedisStore {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db, PoolSize: 50})
	return &RedisStore{client: c, prefix: prefix}
}

func (r *RedisStore) entryKey(key string) string { return r.prefix + "q:" + key }
func (r *RedisStore) tagKey(tag string) string   { return r.prefix + "t:" + tag }

func (r *RedisStore) Get(ctx context.Context, key string) (*Entry, bool, error) {
	val, err := r.client.Get(ctx, r.entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var entry Entry
	if err := json.Unmarshal(val, &entry); err != nil {
		return nil, false, fmt.Errorf("corrupt cache entry %q: %w", key, err)
	}
	return &entry, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, entry *Entry, ttl time.Duration) error {
	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.entryKey(key), b, ttl)
	for _, tag := range entry.Tags {
		pipe.SAdd(ctx, r.tagKey(tag), key)
		pipe.Expire(ctx, r.tagKey(tag), ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Delete removes the entry. Its key may linger in tag sets until the next
// invalidation of those tags, which tolerates missing entries.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.entryKey(key)).Err()
}

func (r *RedisStore) InvalidateTags(ctx context.Context, tags ...string) (int, error) {
	seen := make(map[string]struct{})
	for _, tag := range tags {
		keys, err := r.client.SMembers(ctx, r.tagKey(tag)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return 0, err
		}
		for _, key := range keys {
			seen[key] = struct{}{}
		}
	}

	toDelete := make([]string, 0, len(seen)+len(tags))
	for key := range seen {
		toDelete = append(toDelete, r.entryKey(key))
	}
	for _, tag := range tags {
		toDelete = append(toDelete, r.tagKey(tag))
	}
	if len(toDelete) == 0 {
		return 0, nil
	}

	if err := r.client.Del(ctx, toDelete...).Err(); err != nil {
		return 0, err
	}
	return len(seen), nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
