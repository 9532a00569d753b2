package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyPrefix  = "marketplace:v1:"
	cacheVersionKey = "marketplace:v1:version"
)

// Cache holds marketplace pages for a short time. Lookup returns the key a
// page read after it must be stored under, bound to the cache version Lookup
// saw. An empty key means the page is not stored.
type Cache interface {
	Lookup(ctx context.Context, f Filter) (key string, listings []*Listing, ok bool, err error)
	Store(ctx context.Context, key string, listings []*Listing) error
	Invalidate(ctx context.Context) error
}

// NewCache returns a Redis-backed cache, or a no-op cache when client is nil
// or ttl is not positive.
func NewCache(client *redis.Client, ttl time.Duration) Cache {
	if client == nil || ttl <= 0 {
		return noopCache{}
	}
	return &redisCache{client: client, ttl: ttl}
}

// redisCache keys pages by a version counter so invalidation is one INCR
// and stale pages expire on their own.
type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// pageKey names the cached page of f at a cache version.
func pageKey(version int64, f Filter) (string, error) {
	raw, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d:%016x", cacheKeyPrefix, version, xxhash.Sum64(raw)), nil
}

func (c *redisCache) Lookup(ctx context.Context, f Filter) (string, []*Listing, bool, error) {
	version, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", nil, false, err
	}
	key, err := pageKey(version, f)
	if err != nil {
		return "", nil, false, err
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return key, nil, false, nil
	}
	if err != nil {
		return "", nil, false, err
	}
	var listings []*Listing
	if err := json.Unmarshal(raw, &listings); err != nil {
		return key, nil, false, err
	}
	return key, listings, true, nil
}

func (c *redisCache) Store(ctx context.Context, key string, listings []*Listing) error {
	raw, err := json.Marshal(listings)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

func (c *redisCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, cacheVersionKey).Err()
}

type noopCache struct{}

func (noopCache) Lookup(context.Context, Filter) (string, []*Listing, bool, error) {
	return "", nil, false, nil
}
func (noopCache) Store(context.Context, string, []*Listing) error { return nil }
func (noopCache) Invalidate(context.Context) error { return nil }
