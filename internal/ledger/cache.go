package ledger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// QuantityCache serves display reads of on-hand quantities from Redis. It is
// never consulted inside an atomic unit; every successful apply invalidates
// the product's key.
type QuantityCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewQuantityCache instantiates the cache helper.
func NewQuantityCache(client *redis.Client, ttl time.Duration) *QuantityCache {
	return &QuantityCache{client: client, ttl: ttl}
}

func quantityKey(productID int64) string {
	return fmt.Sprintf("ledger:product:%d:quantity", productID)
}

// Fetch loads a cached quantity or populates it using the loader.
func (c *QuantityCache) Fetch(ctx context.Context, productID int64, loader func(context.Context) (int64, error)) (int64, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	key := quantityKey(productID)
	raw, err := c.client.Get(ctx, key).Result()
	if err == nil {
		if qty, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
			return qty, nil
		}
	} else if err != redis.Nil {
		return 0, err
	}
	qty, err := loader(ctx)
	if err != nil {
		return 0, err
	}
	if err := c.client.Set(ctx, key, qty, c.ttl).Err(); err != nil {
		return 0, err
	}
	return qty, nil
}

// Invalidate drops the cached quantity for a product.
func (c *QuantityCache) Invalidate(ctx context.Context, productID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, quantityKey(productID)).Err()
}
