package remote

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis"
	"go.uber.org/zap"
)

// DefaultCacheKey holds the cached snapshot payload.
const DefaultCacheKey = "boids:snapshot"

// CachedSource keeps the last snapshot of another source in redis, so several
// viewers polling the same backend share one fetch per ttl.
// Redis failures are logged and the inner source is used directly.
type CachedSource struct {
	inner  SnapshotSource
	client *redis.Client
	key    string
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisClient connects to redisAddr and checks the connection.
func NewRedisClient(redisAddr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: "",
		DB:       0,
	})
	if _, err := client.Ping().Result(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// NewCachedSource wraps inner with a redis cache entry living ttl.
// redis keeps a zero ttl entry forever, so a ttl <= 0 turns the cache off.
func NewCachedSource(inner SnapshotSource, client *redis.Client, ttl time.Duration, log *zap.Logger) *CachedSource {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedSource{
		inner:  inner,
		client: client,
		key:    DefaultCacheKey,
		ttl:    ttl,
		log:    log,
	}
}

// FetchSnapshot serves the cached snapshot when present, otherwise fetches
// from the inner source and caches the result.
func (c *CachedSource) FetchSnapshot(ctx context.Context) (Snapshot, error) {
	if c.ttl <= 0 {
		return c.inner.FetchSnapshot(ctx)
	}
	body, err := c.client.Get(c.key).Bytes()
	switch {
	case err == nil:
		snap, decodeErr := DecodeSnapshot(body)
		if decodeErr == nil {
			c.log.Debug("snapshot cache hit", zap.String("key", c.key), zap.Int("agents", len(snap)))
			return snap, nil
		}
		c.log.Warn("dropping invalid cached snapshot", zap.String("key", c.key), zap.Error(decodeErr))
	case err == redis.Nil:
	default:
		c.log.Warn("snapshot cache unavailable", zap.String("key", c.key), zap.Error(err))
	}

	snap, err := c.inner.FetchSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	if body, err = json.Marshal(snap); err != nil {
		c.log.Warn("failed to encode snapshot for cache", zap.Error(err))
		return snap, nil
	}
	if err := c.client.Set(c.key, body, c.ttl).Err(); err != nil {
		c.log.Warn("failed to cache snapshot", zap.String("key", c.key), zap.Error(err))
	}
	return snap, nil
}
