package cache

import (
	"context"
	"time"
)

const revokedTokenPrefix = "session:revoked:"

func revokedTokenKey(tokenID string) string {
	return revokedTokenPrefix + tokenID
}

// RevokeToken marks a session token as signed out until it would have expired anyway.
func (c *Cache) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, revokedTokenKey(tokenID), 1, ttl).Err()
}

// IsTokenRevoked reports whether a token was signed out.
func (c *Cache) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := c.client.Exists(ctx, revokedTokenKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
