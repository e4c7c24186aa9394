package verify

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache memoizes on-chain existence checks so repeated verifications of the
// same token skip the chain RPC. Lookup misses and backend errors both come
// back as ok=false; the cache is never authoritative.
type Cache interface {
	Lookup(ctx context.Context, proofHash string) (exists bool, ok bool)
	Store(ctx context.Context, proofHash string, exists bool)
}

const cacheKeyPrefix = "verify:onchain:"

// RedisCache keeps existence results in Redis with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Lookup(ctx context.Context, proofHash string) (bool, bool) {
	val, err := c.client.Get(ctx, cacheKeyPrefix+proofHash).Result()
	if err != nil {
		return false, false
	}
	return val == "1", true
}

func (c *RedisCache) Store(ctx context.Context, proofHash string, exists bool) {
	val := "0"
	if exists {
		val = "1"
	}
	// Best effort; a failed write just means a chain call next time.
	_ = c.client.Set(ctx, cacheKeyPrefix+proofHash, val, c.ttl).Err()
}

// NoopCache disables memoization.
type NoopCache struct{}

func (NoopCache) Lookup(context.Context, string) (bool, bool) { return false, false }
func (NoopCache) Store(context.Context, string, bool)         {}
