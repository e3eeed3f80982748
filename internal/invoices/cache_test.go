package invoices

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func testCache(t *testing.T) (*AggregateCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewAggregateCache(client, time.Minute), mr
}

func TestAggregateCacheFetchPopulates(t *testing.T) {
	cache, mr := testCache(t)

	loads := 0
	loader := func(context.Context) (*Invoice, error) {
		loads++
		return &Invoice{InvoiceNumber: "FT-2026-001", ClientName: "Mário Machava"}, nil
	}

	inv, err := cache.Fetch(context.Background(), "FT-2026-001", loader)
	require.NoError(t, err)
	require.Equal(t, "FT-2026-001", inv.InvoiceNumber)
	require.Equal(t, 1, loads)
	require.True(t, mr.Exists("invoice:FT-2026-001"))

	// Second fetch is served from redis without touching the loader.
	inv, err = cache.Fetch(context.Background(), "FT-2026-001", loader)
	require.NoError(t, err)
	require.Equal(t, "Mário Machava", inv.ClientName)
	require.Equal(t, 1, loads)
}

func TestAggregateCacheInvalidate(t *testing.T) {
	cache, mr := testCache(t)

	loads := 0
	loader := func(context.Context) (*Invoice, error) {
		loads++
		return &Invoice{InvoiceNumber: "FT-2026-002"}, nil
	}

	_, err := cache.Fetch(context.Background(), "FT-2026-002", loader)
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(context.Background(), "FT-2026-002"))
	require.False(t, mr.Exists("invoice:FT-2026-002"))

	_, err = cache.Fetch(context.Background(), "FT-2026-002", loader)
	require.NoError(t, err)
	require.Equal(t, 2, loads)
}

func TestAggregateCacheCorruptEntryFallsThrough(t *testing.T) {
	cache, mr := testCache(t)
	require.NoError(t, mr.Set("invoice:FT-2026-003", "not json"))

	inv, err := cache.Fetch(context.Background(), "FT-2026-003", func(context.Context) (*Invoice, error) {
		return &Invoice{InvoiceNumber: "FT-2026-003"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, "FT-2026-003", inv.InvoiceNumber)
}

func TestAggregateCacheNilClientPassesThrough(t *testing.T) {
	cache := NewAggregateCache(nil, time.Minute)

	inv, err := cache.Fetch(context.Background(), "FT-2026-004", func(context.Context) (*Invoice, error) {
		return &Invoice{InvoiceNumber: "FT-2026-004"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, "FT-2026-004", inv.InvoiceNumber)
	require.NoError(t, cache.Invalidate(context.Background(), "FT-2026-004"))
}
