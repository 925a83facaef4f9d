package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	OwnerDashboardKey = "dashboard:owner"
	authKeyPrefix     = "auth:"
	authUserKeyFmt    = "auth:user:"
)

var client *redis.Client

// Init connects to Redis. On failure the client stays nil and every
// function in this package becomes a no-op.
func Init(addr, password string, db int) error {
	c := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		client = nil
		return err
	}
	client = c
	return nil
}

// SetClient replaces the package client; used by tests.
func SetClient(c *redis.Client) {
	client = c
}

// GetClient returns the Redis client
func GetClient() *redis.Client {
	return client
}

// Ping reports Redis health; nil client reports as disabled.
func Ping(ctx context.Context) error {
	if client == nil {
		return redis.ErrClosed
	}
	return client.Ping(ctx).Err()
}

// hashCredentials creates a hash of identifier+password for cache key
func hashCredentials(identifier, password string) string {
	h := sha256.New()
	h.Write([]byte(identifier + ":" + password))
	return authKeyPrefix + hex.EncodeToString(h.Sum(nil))[:32]
}

// GetCachedAuth checks if credentials are cached and valid
func GetCachedAuth(ctx context.Context, identifier, password string) (int, bool) {
	if client == nil {
		return 0, false
	}
	userID, err := client.Get(ctx, hashCredentials(identifier, password)).Int()
	if err != nil {
		return 0, false
	}
	return userID, true
}

// CacheAuth caches valid credentials for 15 minutes. The key is also
// remembered per user so a password change can drop it.
func CacheAuth(ctx context.Context, identifier, password string, userID int) {
	if client == nil {
		return
	}
	key := hashCredentials(identifier, password)
	pipe := client.TxPipeline()
	pipe.Set(ctx, key, userID, 15*time.Minute)
	pipe.SAdd(ctx, authUserKeyFmt+strconv.Itoa(userID), key)
	pipe.Expire(ctx, authUserKeyFmt+strconv.Itoa(userID), 15*time.Minute)
	pipe.Exec(ctx)
}

// InvalidateUserAuth removes every cached login of a user
func InvalidateUserAuth(ctx context.Context, userID int) {
	if client == nil {
		return
	}
	setKey := authUserKeyFmt + strconv.Itoa(userID)
	keys, err := client.SMembers(ctx, setKey).Result()
	if err == nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
	client.Del(ctx, setKey)
}

// GetCached returns cached data for a key
func GetCached(ctx context.Context, key string) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetCached stores data with a TTL
func SetCached(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if client == nil {
		return
	}
	client.Set(ctx, key, data, ttl)
}

// InvalidateKeys removes specific cache keys
func InvalidateKeys(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}

// IncrWithin increments a counter that expires window after its first hit.
// Returns 0 when Redis is unavailable.
func IncrWithin(ctx context.Context, key string, window time.Duration) int64 {
	if client == nil {
		return 0
	}
	n, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0
	}
	if n == 1 {
		client.Expire(ctx, key, window)
	}
	return n
}
