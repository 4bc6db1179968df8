package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/altscribe/altscribe-api/internal/store"
	goredis "github.com/redis/go-redis/v9"
)

// scanBatch is the COUNT hint for SCAN and the MGET batch size.
const scanBatch = 200

// Backend is a store.Backend on a Redis client.
type Backend struct {
	client *goredis.Client
	logger *slog.Logger
}

var _ store.Backend = (*Backend)(nil)

// Open parses a redis:// URL, connects and pings the server.
func Open(ctx context.Context, url string, logger *slog.Logger) (*Backend, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	backend := NewBackend(goredis.NewClient(opts), logger)
	if err := backend.Ping(ctx); err != nil {
		_ = backend.Close()
		return nil, err
	}
	return backend, nil
}

// NewBackend wraps an existing client.
func NewBackend(client *goredis.Client, logger *slog.Logger) *Backend {
	return &Backend{
		client: client,
		logger: logger.With("component", "redis_backend"),
	}
}

// Client exposes the underlying client so the job queue can share the connection pool.
func (b *Backend) Client() *goredis.Client {
	return b.client
}

// Collection returns the named collection.
func (b *Backend) Collection(name string) store.Collection {
	return &collection{client: b.client, prefix: name + ":"}
}

// Name returns "redis".
func (b *Backend) Name() string {
	return "redis"
}

// Ping checks that the server is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the client.
func (b *Backend) Close() error {
	return b.client.Close()
}

type collection struct {
	client *goredis.Client
	prefix string
}

func (c *collection) key(k string) string {
	return c.prefix + k
}

func (c *collection) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %q: %w", c.key(key), err)
	}
	return data, nil
}

func (c *collection) Set(ctx context.Context, key string, value []byte) error {
	return c.SetWithTTL(ctx, key, value, 0)
}

func (c *collection) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", c.key(key), err)
	}
	return nil
}

func (c *collection) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", c.key(key), err)
	}
	return nil
}

func (c *collection) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %q: %w", c.key(key), err)
	}
	return n > 0, nil
}

func (c *collection) ListAll(ctx context.Context) ([][]byte, error) {
	// SCAN may return a key more than once.
	var keys []string
	seen := make(map[string]struct{})
	iter := c.client.Scan(ctx, 0, c.prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %q: %w", c.prefix, err)
	}

	out := make([][]byte, 0, len(keys))
	for start := 0; start < len(keys); start += scanBatch {
		end := min(start+scanBatch, len(keys))
		values, err := c.client.MGet(ctx, keys[start:end]...).Result()
		if err != nil {
			return nil, fmt.Errorf("redis mget %q: %w", c.prefix, err)
		}
		for _, v := range values {
			// Keys that expired between SCAN and MGET come back nil.
			if s, ok := v.(string); ok {
				out = append(out, []byte(s))
			}
		}
	}
	return out, nil
}

