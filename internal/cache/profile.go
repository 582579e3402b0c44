package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/fittrack/internal/domain/user"
	"github.com/redis/go-redis/v9"
)

// ProfileCache holds public profiles keyed by user id. Profiles carry no
// password material, so nothing secret is ever written to the cache.
type ProfileCache interface {
	Get(ctx context.Context, userID string) (user.Profile, bool, error)
	Set(ctx context.Context, p user.Profile) error
}

type MemoryProfileCache struct {
	c *Cache
}

func NewMemoryProfileCache(ttl time.Duration) *MemoryProfileCache {
	return &MemoryProfileCache{c: New(ttl)}
}

func (m *MemoryProfileCache) Get(_ context.Context, userID string) (user.Profile, bool, error) {
	v, ok := m.c.Get(userID)
	if !ok {
		return user.Profile{}, false, nil
	}
	p, ok := v.(user.Profile)
	return p, ok, nil
}

func (m *MemoryProfileCache) Set(_ context.Context, p user.Profile) error {
	m.c.Set(p.ID, p)
	return nil
}

const profileKeyPrefix = "fittrack:profile:"

type RedisProfileCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisProfileCache(rdb *redis.Client, ttl time.Duration) *RedisProfileCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisProfileCache{rdb: rdb, ttl: ttl}
}

func (r *RedisProfileCache) Get(ctx context.Context, userID string) (user.Profile, bool, error) {
	raw, err := r.rdb.Get(ctx, profileKeyPrefix+userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return user.Profile{}, false, nil
		}
		return user.Profile{}, false, fmt.Errorf("redis get profile: %w", err)
	}

	var p user.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return user.Profile{}, false, fmt.Errorf("decode cached profile: %w", err)
	}
	return p, true, nil
}

func (r *RedisProfileCache) Set(ctx context.Context, p user.Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, profileKeyPrefix+p.ID, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set profile: %w", err)
	}
	return nil
}
