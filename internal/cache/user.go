package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/talentsync/talentsync/internal/model"
)

// Cache key prefixes and TTLs.
const (
	userKeyPrefix     = "user:clerk:"
	negCacheKeySuffix = ":neg"

	// DefaultUserTTL is the TTL for cached user records. Records are
	// immutable after creation, so a long TTL is safe.
	DefaultUserTTL = 12 * time.Hour

	// NegativeCacheTTL is the TTL for negative cache entries.
	NegativeCacheTTL = 5 * time.Minute
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// GetUser retrieves a user from cache by clerk id.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetUser(ctx context.Context, clerkID string) (*model.User, error) {
	key := userKeyPrefix + clerkID

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var user model.User
	if err := json.Unmarshal(raw, &user); err != nil {
		// Treat a corrupt entry as a miss; it will be rewritten.
		c.client.Del(ctx, key)
		return nil, ErrCacheMiss
	}

	return &user, nil
}

// SetUser stores a user in cache keyed by clerk id.
func (c *Cache) SetUser(ctx context.Context, user *model.User) error {
	key := userKeyPrefix + user.ClerkID

	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, raw, DefaultUserTTL)
	pipe.Del(ctx, key+negCacheKeySuffix)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache user: %w", err)
	}

	return nil
}

// DeleteUser removes a user from cache.
func (c *Cache) DeleteUser(ctx context.Context, clerkID string) error {
	key := userKeyPrefix + clerkID

	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.Del(ctx, key+negCacheKeySuffix)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete user from cache: %w", err)
	}

	return nil
}

// IsNegativelyCached checks if a clerk id is in negative cache.
func (c *Cache) IsNegativelyCached(ctx context.Context, clerkID string) (bool, error) {
	key := userKeyPrefix + clerkID + negCacheKeySuffix

	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}

	return exists > 0, nil
}

// SetNegativeCache marks a clerk id as not found.
func (c *Cache) SetNegativeCache(ctx context.Context, clerkID string) error {
	key := userKeyPrefix + clerkID + negCacheKeySuffix

	if err := c.client.SetEx(ctx, key, "", NegativeCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}

	return nil
}
