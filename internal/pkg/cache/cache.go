package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/OpenScholar/ScholarPress/internal/pkg/env"
)

// Cache wraps the Redis client. All lookups are best-effort: callers treat a
// miss and an error the same way and fall through to the database.
type Cache struct {
	client *redis.Client
}

// Setup connects to the cache server configured via CACHE_HOST/CACHE_PORT.
// A failed ping is logged, not fatal.
func Setup() *Cache {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")

	client := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", host, port),
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		log.Printf("Warning: could not connect to cache: %v", err)
	}

	return &Cache{client: client}
}

// Set stores a value with the given expiration.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Set(ctx, key, value, expiration).Err()
}

// Get retrieves a string value; redis.Nil means a miss.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	if c == nil || c.client == nil {
		return "", redis.Nil
	}
	return c.client.Get(ctx, key).Result()
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, key).Err()
}

// IsMiss reports whether err is a cache miss.
func IsMiss(err error) bool {
	return err == redis.Nil
}

// Close releases the underlying connection.
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
