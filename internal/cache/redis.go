// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pdiddy/bioscience-explorer/pkg/types"
)

// DefaultKeyPrefix namespaces insight keys when none is configured.
const DefaultKeyPrefix = "insights:"

var _ InsightStore = (*RedisInsights)(nil)

// RedisInsights is an InsightStore shared across processes through Redis.
// Values are JSON arrays stored without TTL under prefix+key.
type RedisInsights struct {
	client *redis.Client
	prefix string
	owned  bool
}

// NewRedisInsights wraps an existing client. The caller keeps ownership of it.
func NewRedisInsights(client *redis.Client, prefix string) *RedisInsights {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisInsights{client: client, prefix: prefix}
}

// OpenRedisInsights connects to the Redis server at url and verifies it
// answers PING. Close releases the connection.
func OpenRedisInsights(ctx context.Context, url, prefix string) (*RedisInsights, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	r := NewRedisInsights(client, prefix)
	r.owned = true
	return r, nil
}

func (r *RedisInsights) Get(ctx context.Context, key string) ([]types.Insight, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("getting insights %s: %w", key, err)
	}

	var insights []types.Insight
	if err := json.Unmarshal(data, &insights); err != nil {
		return nil, false, fmt.Errorf("unmarshaling insights %s: %w", key, err)
	}
	return insights, true, nil
}

func (r *RedisInsights) Set(ctx context.Context, key string, insights []types.Insight) error {
	data, err := json.Marshal(insights)
	if err != nil {
		return fmt.Errorf("marshaling insights %s: %w", key, err)
	}
	if err := r.client.Set(ctx, r.prefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("storing insights %s: %w", key, err)
	}
	return nil
}

// Clear deletes every key under the prefix.
func (r *RedisInsights) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scanning insight keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("deleting insight keys: %w", err)
	}
	return nil
}

// Close releases the client when the store opened it.
func (r *RedisInsights) Close() error {
	if !r.owned {
		return nil
	}
	return r.client.Close()
}
