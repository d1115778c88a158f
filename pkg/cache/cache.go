// Package cache provides a small key/value cache with Redis and in-memory
// drivers. Values are stored JSON-encoded so both drivers behave the same.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/shashiranjanraj/rincon/config"
)

// Store is implemented by every cache driver.
type Store interface {
	// Get decodes the cached value for key into dest. It reports false on a
	// miss or on any decode or transport error.
	Get(ctx context.Context, key string, dest interface{}) bool
	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Del removes keys. Missing keys are not an error.
	Del(ctx context.Context, keys ...string) error
	// Driver names the backend for metrics and logs.
	Driver() string
}

// FromConfig builds the store selected by CACHE_DRIVER. It returns a nil
// Store for "none".
func FromConfig() (Store, error) {
	switch config.CacheDriver() {
	case "redis":
		s, err := NewRedis(config.RedisAddr(), config.RedisPassword())
		if err != nil {
			return nil, fmt.Errorf("cache: %w", err)
		}
		return s, nil
	case "memory":
		return NewMemory(), nil
	default:
		return nil, nil
	}
}
