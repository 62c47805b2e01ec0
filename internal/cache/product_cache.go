// Package cache keeps recent public product listings in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"flashdeal/internal/models"
	"flashdeal/internal/repositories"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const generationKey = "products:approved:gen"

// ProductCache is a cache-aside store for approved listings. Keys embed a
// generation counter; Invalidate bumps it so every older page is orphaned and
// left to expire.
type ProductCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

// NewProductCache creates a ProductCache. A zero ttl falls back to 30s.
func NewProductCache(rdb *redis.Client, ttl time.Duration, log *zap.Logger) *ProductCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &ProductCache{rdb: rdb, ttl: ttl, log: log.Named("product_cache")}
}

func (c *ProductCache) key(ctx context.Context, filter repositories.ProductFilter) (string, error) {
	gen, err := c.rdb.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	category := "all"
	if filter.CategoryID != nil {
		category = fmt.Sprint(*filter.CategoryID)
	}
	term := strings.ToLower(strings.TrimSpace(filter.SearchTerm))
	return fmt.Sprintf("products:approved:%d:%s:%d:%d:%s", gen, category, filter.Page, filter.Limit, term), nil
}

// Get returns the cached listing for filter. Misses and Redis failures both
// report ok=false; failures are logged.
func (c *ProductCache) Get(ctx context.Context, filter repositories.ProductFilter) ([]models.ProductListing, bool) {
	key, err := c.key(ctx, filter)
	if err != nil {
		c.log.Warn("cache key lookup failed", zap.Error(err))
		return nil, false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var listings []models.ProductListing
	if err := json.Unmarshal(data, &listings); err != nil {
		c.log.Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return listings, true
}

// Set stores listings for filter.
func (c *ProductCache) Set(ctx context.Context, filter repositories.ProductFilter, listings []models.ProductListing) {
	key, err := c.key(ctx, filter)
	if err != nil {
		c.log.Warn("cache key lookup failed", zap.Error(err))
		return
	}
	payload, err := json.Marshal(listings)
	if err != nil {
		c.log.Warn("cache encode failed", zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops every cached listing.
func (c *ProductCache) Invalidate(ctx context.Context) {
	if err := c.rdb.Incr(ctx, generationKey).Err(); err != nil {
		c.log.Warn("cache invalidation failed", zap.Error(err))
	}
}
