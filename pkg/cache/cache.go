// Package cache stores JSON snapshots of entities in Redis for read paths.
// Writers delete keys after their transaction commits; readers repopulate.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hoangdh1/eCommerce/pkg/logger"
	"github.com/hoangdh1/eCommerce/pkg/redis"
)

const defaultTTL = 10 * time.Minute

const (
	kindProduct   = "product"
	kindOrder     = "order"
	kindOrderList = "order_list"
	kindSale      = "sale"
)

type store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CacheKey(kind string, parts ...string) string
}

// Cache wraps the Redis client with JSON encoding and entity key naming.
type Cache struct {
	store store
	ttl   time.Duration
	logg  *logger.Logger
}

// New builds a cache. A non-positive ttl falls back to the default.
func New(store store, ttl time.Duration, logg *logger.Logger) (*Cache, error) {
	if store == nil {
		return nil, fmt.Errorf("cache store required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{store: store, ttl: ttl, logg: logg}, nil
}

// GetJSON decodes the cached value into dest. It reports false on a miss.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores value under key using the default TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, value any) error {
	return c.SetJSONWithTTL(ctx, key, value, c.ttl)
}

// SetJSONWithTTL stores value under key. A zero ttl keeps the key forever.
func (c *Cache) SetJSONWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.store.Set(ctx, key, string(payload), ttl); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Delete removes keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// Invalidate deletes keys and logs instead of failing. Used after a commit,
// when the write already succeeded.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if err := c.Delete(ctx, keys...); err != nil && c.logg != nil {
		c.logg.Warn(c.logg.WithField(ctx, "cache_keys", keys), "cache invalidation failed")
	}
}

// Remember stores value and logs on failure. Used on read paths.
func (c *Cache) Remember(ctx context.Context, key string, value any) {
	if err := c.SetJSON(ctx, key, value); err != nil && c.logg != nil {
		c.logg.Warn(c.logg.WithField(ctx, "cache_key", key), "cache fill failed")
	}
}

func (c *Cache) ProductKey(productID string) string {
	return c.store.CacheKey(kindProduct, productID)
}

func (c *Cache) OrderKey(orderID string) string {
	return c.store.CacheKey(kindOrder, orderID)
}

// ShipperOrdersKey names the cached order list for one shipper.
func (c *Cache) ShipperOrdersKey(shipperID string) string {
	return c.store.CacheKey(kindOrderList, shipperID)
}

// SaleKey names the latest sale schedule stored for a product.
func (c *Cache) SaleKey(productID string) string {
	return c.store.CacheKey(kindSale, productID)
}
