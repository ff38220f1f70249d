package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	creatorNamePrefix = "creator:name:"
	creatorNameTTL    = 10 * time.Minute
)

func creatorNameKey(userID string) string {
	return creatorNamePrefix + userID
}

// GetCreatorName returns a cached display name.
// The bool is false on a cache miss.
func (c *Cache) GetCreatorName(ctx context.Context, userID string) (string, bool, error) {
	name, err := c.client.Get(ctx, creatorNameKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

// SetCreatorName caches a display name.
func (c *Cache) SetCreatorName(ctx context.Context, userID, name string) error {
	return c.client.Set(ctx, creatorNameKey(userID), name, creatorNameTTL).Err()
}

// DeleteCreatorName drops a cached display name after a profile change.
func (c *Cache) DeleteCreatorName(ctx context.Context, userID string) error {
	return c.client.Del(ctx, creatorNameKey(userID)).Err()
}
