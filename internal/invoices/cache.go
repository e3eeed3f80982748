package invoices

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const cacheKeyPrefix = "invoice:"

// AggregateCache is a read-through cache for invoice aggregates. Concurrent
// fills for the same invoice collapse into one repository load. Every write
// path invalidates the entry before returning, so a cached aggregate never
// outlives the item set it was computed from beyond the TTL.
type AggregateCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewAggregateCache builds a cache over the given redis client. A nil client
// yields a pass-through cache.
func NewAggregateCache(client *redis.Client, ttl time.Duration) *AggregateCache {
	return &AggregateCache{client: client, ttl: ttl}
}

// Fetch returns the cached aggregate or populates it via the loader.
func (c *AggregateCache) Fetch(ctx context.Context, invoiceNumber string, loader func(context.Context) (*Invoice, error)) (*Invoice, error) {
	if loader == nil {
		return nil, errors.New("invoices: cache loader required")
	}
	if c == nil || c.client == nil {
		return loader(ctx)
	}

	key := cacheKeyPrefix + invoiceNumber
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var inv Invoice
		if err := json.Unmarshal(payload, &inv); err == nil {
			return &inv, nil
		}
		// Corrupt entry: drop it and fall through to the loader.
		_ = c.client.Del(ctx, key).Err()
	}

	result := c.group.DoChan(key, func() (interface{}, error) {
		inv, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(inv)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			return inv, nil
		}
		return inv, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-result:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Invoice), nil
	}
}

// Invalidate drops the cached aggregate for the invoice.
func (c *AggregateCache) Invalidate(ctx context.Context, invoiceNumber string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, cacheKeyPrefix+invoiceNumber).Err()
}
