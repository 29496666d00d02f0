package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ikkim/udonggeum-checkout/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const catalogKeyPrefix = "catalog:"

// CachedDocument is a raw catalog document as stored in redis.
type CachedDocument struct {
	Format string
	Body   []byte
}

// CatalogCache keeps raw catalog documents in redis hashes. A cache built on a nil client
// misses on every read and ignores writes, so callers need no separate code path when redis
// is not configured.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCatalogCache(client *redis.Client, ttl time.Duration) *CatalogCache {
	return &CatalogCache{client: client, ttl: ttl}
}

func (c *CatalogCache) Enabled() bool {
	return c != nil && c.client != nil
}

func catalogKey(productID string) string {
	return catalogKeyPrefix + productID
}

// Get returns the cached document and whether it was present.
func (c *CatalogCache) Get(ctx context.Context, productID string) (*CachedDocument, bool, error) {
	if !c.Enabled() {
		return nil, false, nil
	}

	fields, err := c.client.HGetAll(ctx, catalogKey(productID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		logger.Error("Failed to read catalog cache", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, false, fmt.Errorf("read catalog cache: %w", err)
	}
	body, ok := fields["body"]
	if !ok {
		return nil, false, nil
	}

	logger.Debug("Catalog cache hit", map[string]interface{}{
		"product_id": productID,
	})
	return &CachedDocument{Format: fields["format"], Body: []byte(body)}, true, nil
}

func (c *CatalogCache) Set(ctx context.Context, productID string, doc CachedDocument) error {
	if !c.Enabled() {
		return nil
	}

	key := catalogKey(productID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "format", doc.Format, "body", string(doc.Body))
		if c.ttl > 0 {
			pipe.Expire(ctx, key, c.ttl)
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to write catalog cache", err, map[string]interface{}{
			"product_id": productID,
		})
		return fmt.Errorf("write catalog cache: %w", err)
	}
	return nil
}

func (c *CatalogCache) Invalidate(ctx context.Context, productID string) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.client.Del(ctx, catalogKey(productID)).Err(); err != nil {
		logger.Error("Failed to invalidate catalog cache", err, map[string]interface{}{
			"product_id": productID,
		})
		return fmt.Errorf("invalidate catalog cache: %w", err)
	}
	return nil
}
