// Package cache is a thin cache-aside layer over Redis. Keys carry a
// namespace generation number, so bumping the generation retires every page
// cached under it without scanning for keys.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"whisk-system/internal/metrics"

	"github.com/go-redis/redis/v8"
)

const (
	KeyPrefix = "whisk:"

	TTLShort  = 5 * time.Minute
	TTLMedium = 30 * time.Minute
)

// Namespaces shared by the services. Recipe costs read the stock catalogue,
// so stock writes retire both.
const (
	NamespaceStock     = "stock"
	NamespaceRecipes   = "recipes"
	NamespaceInvoices  = "invoices"
	NamespaceCustomers = "customers"
)

type Cache struct {
	redis *redis.Client
}

// New returns a Cache. A nil client yields a cache that always misses.
func New(rdb *redis.Client) *Cache {
	return &Cache{redis: rdb}
}

func (c *Cache) generationKey(namespace string) string {
	return KeyPrefix + namespace + ":gen"
}

// Key builds a versioned key for namespace from the given parts.
func (c *Cache) Key(ctx context.Context, namespace string, parts ...interface{}) string {
	gen := int64(0)
	if c.redis != nil {
		n, err := c.redis.Get(ctx, c.generationKey(namespace)).Int64()
		if err != nil && err != redis.Nil {
			log.Printf("Redis error reading generation for %s: %v", namespace, err)
		}
		gen = n
	}
	key := fmt.Sprintf("%s%s:%d", KeyPrefix, namespace, gen)
	for _, p := range parts {
		key += fmt.Sprintf(":%v", p)
	}
	return key
}

// Get decodes the cached value into dst and reports whether it was found.
func (c *Cache) Get(ctx context.Context, key string, dst interface{}) bool {
	if c.redis == nil {
		return false
	}
	val, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Redis error on GET %s: %v. Falling back to DB.", key, err)
		}
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return false
	}
	if err := json.Unmarshal(val, dst); err != nil {
		log.Printf("Discarding undecodable cache entry %s: %v", key, err)
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return false
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return true
}

func (c *Cache) Set(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if c.redis == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Failed to encode cache entry %s: %v", key, err)
		return
	}
	if err := c.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("Failed to set cache for key %s: %v", key, err)
	}
}

// Invalidate retires everything cached under the namespaces.
func (c *Cache) Invalidate(ctx context.Context, namespaces ...string) {
	if c.redis == nil {
		return
	}
	for _, ns := range namespaces {
		if err := c.redis.Incr(ctx, c.generationKey(ns)).Err(); err != nil {
			log.Printf("Failed to invalidate cache namespace %s: %v", ns, err)
		}
	}
}

// Publish sends payload as JSON on each channel.
func (c *Cache) Publish(ctx context.Context, payload interface{}, channels ...string) error {
	if c.redis == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	for _, ch := range channels {
		if err := c.redis.Publish(ctx, ch, data).Err(); err != nil {
			return fmt.Errorf("failed to publish to %s: %w", ch, err)
		}
	}
	return nil
}
