package jobstore

import (
	"time"

	"github.com/redis/rueidis"
)

// NewRedisStoreForTest creates a RedisStore with the provided rueidis client
// (test-only).
func NewRedisStoreForTest(c rueidis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: c, ttl: ttl}
}
