package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/matzehuels/fluidcad/pkg/interchange"
	"github.com/matzehuels/fluidcad/pkg/observability"
)

// Redis key layout.
const (
	redisKeyPrefix = "fluidcad:device:"
	redisIndexKey  = "fluidcad:devices"
)

// RedisStore keeps msgpack records in Redis and a sorted set of device
// names scored by update time.
type RedisStore struct {
	client *redis.Client
}

// OpenRedis connects to the redis:// URL and pings the server, retrying
// with backoff while it is unreachable.
func OpenRedis(ctx context.Context, url string) (*RedisStore, error) {
	if url == "" {
		url = "redis://localhost:6379/0"
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	err = retry(ctx, connectAttempts, connectDelay, func() error {
		if err := client.Ping(ctx).Err(); err != nil {
			return &retryableError{err}
		}
		return nil
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisStore(client), nil
}

// NewRedisStore wraps an existing client. Close closes the client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Save stores doc under name and updates the index atomically.
func (s *RedisStore) Save(ctx context.Context, name string, doc interchange.DeviceV1) error {
	if err := validName(name); err != nil {
		return err
	}
	now := time.Now().UTC()
	data, err := msgpack.Marshal(record{Name: name, UpdatedAt: now, Document: doc})
	if err != nil {
		return fmt.Errorf("encode device %s: %w", name, err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisKeyPrefix+name, data, 0)
		pipe.ZAdd(ctx, redisIndexKey, redis.Z{Score: float64(now.UnixNano()), Member: name})
		return nil
	})
	if err != nil {
		return fmt.Errorf("save device %s: %w", name, err)
	}
	observability.Store().OnStoreSave(ctx, BackendRedis, len(data))
	return nil
}

// Load returns the document stored under name.
func (s *RedisStore) Load(ctx context.Context, name string) (interchange.DeviceV1, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return interchange.DeviceV1{}, loaded(ctx, BackendRedis, notFound(name))
	}
	if err != nil {
		return interchange.DeviceV1{}, fmt.Errorf("load device %s: %w", name, err)
	}
	var rec record
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return interchange.DeviceV1{}, fmt.Errorf("decode device %s: %w", name, err)
	}
	return rec.Document, loaded(ctx, BackendRedis, nil)
}

// List reads the index. Redis orders equal scores by member, so entries
// are re-sorted by name.
func (s *RedisStore) List(ctx context.Context) ([]Entry, error) {
	zs, err := s.client.ZRangeWithScores(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	out := make([]Entry, 0, len(zs))
	for _, z := range zs {
		name, _ := z.Member.(string)
		out = append(out, Entry{Name: name, UpdatedAt: time.Unix(0, int64(z.Score)).UTC()})
	}
	sortEntries(out)
	return out, nil
}

// Delete removes the document and its index entry.
func (s *RedisStore) Delete(ctx context.Context, name string) error {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, redisKeyPrefix+name)
		pipe.ZRem(ctx, redisIndexKey, name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete device %s: %w", name, err)
	}
	if del.Val() == 0 {
		return notFound(name)
	}
	return nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ensure RedisStore implements Store.
var _ Store = (*RedisStore)(nil)
