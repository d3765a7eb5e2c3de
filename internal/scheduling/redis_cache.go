package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisCachePrefix = "availability:"
	redisCacheKeySet = "availability:keys"
)

// RedisCache is an AvailabilityCache shared across API instances. Entries
// carry a TTL as a safety net only; coherence still comes from InvalidateAll
// on every write. Redis failures are logged and degrade to cache misses, the
// database stays the source of truth.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]AvailableSlot, bool) {
	raw, err := c.client.Get(ctx, redisCachePrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("availability cache get %s: %v", key, err)
		}
		return nil, false
	}

	var slots []AvailableSlot
	if err := json.Unmarshal(raw, &slots); err != nil {
		log.Printf("availability cache decode %s: %v", key, err)
		return nil, false
	}

	return slots, true
}

func (c *RedisCache) Put(ctx context.Context, key string, slots []AvailableSlot) {
	raw, err := json.Marshal(slots)
	if err != nil {
		log.Printf("availability cache encode %s: %v", key, err)
		return
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, redisCachePrefix+key, raw, c.ttl)
	pipe.SAdd(ctx, redisCacheKeySet, key)
	if c.ttl > 0 {
		pipe.Expire(ctx, redisCacheKeySet, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("availability cache put %s: %v", key, err)
	}
}

func (c *RedisCache) InvalidateAll(ctx context.Context) {
	keys, err := c.client.SMembers(ctx, redisCacheKeySet).Result()
	if err != nil {
		log.Printf("availability cache list keys: %v", err)
		return
	}

	del := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		del = append(del, redisCachePrefix+k)
	}
	del = append(del, redisCacheKeySet)

	if err := c.client.Del(ctx, del...).Err(); err != nil {
		log.Printf("availability cache invalidate: %v", err)
	}
}
