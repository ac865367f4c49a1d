package cache

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"errors"        // redis.Nil comparison
	"time"          // Time durations

	"ebank_api/internal/domain" // Importing domain models

	"github.com/redis/go-redis/v9" // Redis client
)

const profileKeyPrefix = "user:profile:"

// ProfileCache keeps user profiles in Redis. A nil client disables it.
type ProfileCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewProfileCache returns a cache backed by rdb; pass nil to disable caching
func NewProfileCache(rdb *redis.Client, ttl time.Duration) *ProfileCache {
	return &ProfileCache{rdb: rdb, ttl: ttl}
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,     // Redis server address
		Password: password, // Redis password
		DB:       db,       // Redis database number
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Enabled reports whether a Redis client is configured
func (c *ProfileCache) Enabled() bool {
	return c != nil && c.rdb != nil
}

// Get retrieves a cached profile
func (c *ProfileCache) Get(ctx context.Context, userID string) (*domain.User, bool, error) {
	if !c.Enabled() {
		return nil, false, nil
	}
	val, err := c.rdb.Get(ctx, profileKey(userID)).Bytes() // Get value from Redis
	if errors.Is(err, redis.Nil) {
		return nil, false, nil // Key does not exist
	} else if err != nil {
		return nil, false, err // Other Redis error
	}
	var user domain.User
	if err := json.Unmarshal(val, &user); err != nil {
		return nil, false, err
	}
	return &user, true, nil
}

// Set stores a profile; the password hash is never part of the JSON form
func (c *ProfileCache) Set(ctx context.Context, user *domain.User) error {
	if !c.Enabled() {
		return nil
	}
	b, err := json.Marshal(user) // Marshal value to JSON
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, profileKey(user.ID), b, c.ttl).Err() // Set value in Redis with TTL
}

// Fill caches a profile read from the store unless a newer entry is already there
func (c *ProfileCache) Fill(ctx context.Context, user *domain.User) error {
	if !c.Enabled() {
		return nil
	}
	b, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return c.rdb.SetNX(ctx, profileKey(user.ID), b, c.ttl).Err() // Writers always win over readers
}

// Invalidate drops a cached profile
func (c *ProfileCache) Invalidate(ctx context.Context, userID string) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Del(ctx, profileKey(userID)).Err()
}

func profileKey(userID string) string {
	return profileKeyPrefix + userID
}
