package cache

import (
	"errors"
	"fmt"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired
var ErrMiss = errors.New("cache miss")

// CacheService represents a generic cache service
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}

// Remember returns the cached value for key, calling load and storing its
// result on a miss. A nil cache always calls load. Store failures are
// ignored since the value is already in hand.
func Remember(c CacheService, key string, ttl time.Duration, load func() ([]byte, error)) ([]byte, error) {
	if c != nil {
		if v, err := c.Get(key); err == nil {
			return v, nil
		}
	}
	v, err := load()
	if err != nil {
		return nil, err
	}
	if c != nil {
		_ = c.Set(key, v, ttl)
	}
	return v, nil
}

// IsBlocked reports whether a rate limit block is active for key
func IsBlocked(c CacheService, key string) bool {
	if c == nil || key == "" {
		return false
	}
	_, err := c.Get(key)
	return err == nil
}

// Block stores a rate limit block for key lasting d
func Block(c CacheService, key string, d time.Duration) error {
	if c == nil || key == "" {
		return nil
	}
	return c.Set(key, []byte(fmt.Sprintf("%d", d/time.Second)), d)
}
