package apiclient

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/clem-pxp/elevate-auth/internal/plans"
	"github.com/clem-pxp/elevate-auth/internal/storage"
)

const (
	priceCacheKey = "elevate-prices-cache"
	priceCacheTTL = 15 * time.Minute
)

type cachedPrices struct {
	Prices    []plans.LivePrice `json:"prices"`
	FetchedAt time.Time         `json:"fetchedAt"`
}

// priceCache memoizes the live price list for priceCacheTTL. A corrupted
// or expired cache entry falls through to a fresh fetch; fetch failures
// never poison the cache.
type priceCache struct {
	mu    sync.Mutex
	store storage.Store
	now   func() time.Time

	mem   []plans.LivePrice
	memAt time.Time
}

func newPriceCache() *priceCache {
	return &priceCache{now: time.Now}
}

func (pc *priceCache) get(ctx context.Context, fetchFn func(ctx context.Context) ([]plans.LivePrice, error)) ([]plans.LivePrice, error) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	now := pc.now()
	if pc.mem != nil && now.Sub(pc.memAt) < priceCacheTTL {
		return pc.mem, nil
	}
	if pc.store != nil {
		var cached cachedPrices
		found, err := storage.LoadJSON(ctx, pc.store, priceCacheKey, &cached)
		if err == nil && found && now.Sub(cached.FetchedAt) < priceCacheTTL && len(cached.Prices) > 0 {
			pc.mem, pc.memAt = cached.Prices, cached.FetchedAt
			return cached.Prices, nil
		}
	}

	prices, err := fetchFn(ctx)
	if err != nil {
		// Serve a stale copy rather than nothing.
		if pc.mem != nil {
			return pc.mem, nil
		}
		return nil, err
	}

	pc.mem, pc.memAt = prices, now
	if pc.store != nil {
		if err := storage.SaveJSON(ctx, pc.store, priceCacheKey, cachedPrices{Prices: prices, FetchedAt: now}); err != nil {
			log.Printf("[apiclient] caching prices failed: %v", err)
		}
	}
	return prices, nil
}

// invalidate drops both cache layers.
func (pc *priceCache) invalidate(ctx context.Context) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.mem, pc.memAt = nil, time.Time{}
	if pc.store != nil {
		if err := pc.store.Clear(ctx, priceCacheKey); err != nil {
			log.Printf("[apiclient] clearing price cache failed: %v", err)
		}
	}
}

// InvalidatePrices forces the next FetchPrices to hit the network.
func (c *Client) InvalidatePrices(ctx context.Context) {
	c.prices.invalidate(ctx)
}
