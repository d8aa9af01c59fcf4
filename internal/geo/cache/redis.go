package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	id "gazetteer/pkg/domain"
)

const keyPrefix = "geo:path:"

// RedisPathCache is the shared cache for multi-node deployments.
type RedisPathCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPathCache(client *redis.Client, ttl time.Duration) *RedisPathCache {
	return &RedisPathCache{client: client, ttl: ttl}
}

func (c *RedisPathCache) Get(ctx context.Context, key Key) (id.GeoPath, bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+key.String()).Result()
	if errors.Is(err, redis.Nil) {
		return id.GeoPath{}, false, nil
	}
	if err != nil {
		return id.GeoPath{}, false, fmt.Errorf("path cache get: %w", err)
	}
	path, err := id.ParseGeoPath(raw)
	if err != nil {
		// A corrupt entry is treated as a miss; the rewrite will replace it.
		return id.GeoPath{}, false, nil
	}
	return path, true, nil
}

func (c *RedisPathCache) Set(ctx context.Context, key Key, path id.GeoPath) error {
	if err := c.client.Set(ctx, keyPrefix+key.String(), path.String(), c.ttl).Err(); err != nil {
		return fmt.Errorf("path cache set: %w", err)
	}
	return nil
}

// InvalidateCountry scans for the country's keys and deletes them in batches.
// SCAN keeps the operation incremental on large keyspaces.
func (c *RedisPathCache) InvalidateCountry(ctx context.Context, country id.CountryCode) error {
	pattern := keyPrefix + country.String() + ":*"
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 512).Result()
		if err != nil {
			return fmt.Errorf("path cache scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("path cache invalidate %s: %w", country, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
