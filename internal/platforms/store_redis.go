// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

package platforms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/blognest/blognest/internal/platform/apperr"
	"github.com/blognest/blognest/internal/platform/constants"
)

// RedisCatalogCache implements [CatalogCache] using Redis.
//
// The whole active listing is stored as one JSON blob under a single key.
// The catalog is small (a handful of platforms) and always read whole, so
// per-platform keys would only add invalidation surface.
type RedisCatalogCache struct {
	client *redis.Client
}

// NewCatalogCache creates a new Redis-backed [CatalogCache].
func NewCatalogCache(client *redis.Client) *RedisCatalogCache {
	return &RedisCatalogCache{client: client}
}

/*
GetActive returns the cached active-platform listing.

Description: Returns apperr.NotFound on a cache miss so callers fall
through to Postgres; a corrupt payload is treated the same way.

Parameters:
  - context: context.Context

Returns:
  - []Platform: The cached catalog
  - error: apperr.NotFound on a miss, or connectivity errors
*/
func (cache *RedisCatalogCache) GetActive(context context.Context) ([]Platform, error) {
	payload, err := cache.client.Get(context, constants.RedisKeyActivePlatforms).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFound("Cached platform catalog")
		}
		return nil, fmt.Errorf("redis_platform_cache_get_failed: %w", err)
	}

	var platforms []Platform
	if err := json.Unmarshal([]byte(payload), &platforms); err != nil {
		// Stale or corrupt entry. Drop it and report a miss.
		cache.client.Del(context, constants.RedisKeyActivePlatforms)
		return nil, apperr.NotFound("Cached platform catalog")
	}

	return platforms, nil
}

/*
SetActive stores the active-platform listing with the catalog TTL.

Parameters:
  - context: context.Context
  - platforms: []Platform

Returns:
  - error: Serialization or storage failures
*/
func (cache *RedisCatalogCache) SetActive(context context.Context, platforms []Platform) error {
	payload, err := json.Marshal(platforms)
	if err != nil {
		return fmt.Errorf("redis_platform_cache_encode_failed: %w", err)
	}

	if err := cache.client.Set(context, constants.RedisKeyActivePlatforms, payload, constants.PlatformCacheTTL).Err(); err != nil {
		return fmt.Errorf("redis_platform_cache_set_failed: %w", err)
	}

	return nil
}

/*
Invalidate drops the cached listing after an admin mutation.

Parameters:
  - context: context.Context

Returns:
  - error: Deletion failures
*/
func (cache *RedisCatalogCache) Invalidate(context context.Context) error {
	if err := cache.client.Del(context, constants.RedisKeyActivePlatforms).Err(); err != nil {
		return fmt.Errorf("redis_platform_cache_invalidate_failed: %w", err)
	}

	return nil
}
