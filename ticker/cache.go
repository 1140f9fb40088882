package ticker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-kit/log"
	"golang.org/x/sync/singleflight"

	"go-currency-exchange/domain"
)

// Cache keeps the latest ticker per currency in front of a ticker.Service.
// The Cache is concurrency safe. Entries are overwritten by newer loads and never
// evicted, staleness is decided when reading against domain.TickerValidity.
type Cache struct {
	// next the service being decorated with a cache
	next Service

	// cache the latest ticker per currency
	cache domain.Tickers

	// lock synchronizes access to cache to make it concurrency safe
	lock sync.RWMutex

	// inflight collapses concurrent refreshes of the same currency into one request
	inflight singleflight.Group

	// now the clock freshness is measured against
	now func() time.Time

	logger log.Logger
}

// NewCache returns a new, empty, Cache in front of s
func NewCache(logger log.Logger, s Service) *Cache {
	return &Cache{
		next:   s,
		cache:  domain.Tickers{},
		now:    time.Now,
		logger: logger,
	}
}

// Currencies is not cached
func (c *Cache) Currencies(ctx context.Context) ([]domain.Currency, error) {
	return c.next.Currencies(ctx)
}

// Ensure returns a fresh ticker for currency, refreshing it if it is stale or absent.
// Concurrent calls for the same currency share one request. ok is false when the
// source has no ticker for currency.
func (c *Cache) Ensure(ctx context.Context, currency domain.Currency) (ticker domain.Ticker, ok bool, err error) {
	if t, fresh := c.Lookup(currency); fresh {
		return t, true, nil
	}

	_, err, shared := c.inflight.Do(string(currency), func() (interface{}, error) {
		return c.refreshNow(ctx, []domain.Currency{currency})
	})
	if err != nil {
		return domain.Ticker{}, false, fmt.Errorf("ensure [%v]: %w", currency, err)
	}
	if shared {
		c.logger.Log("msg", "shared in-flight refresh", "currency", currency)
	}

	c.lock.RLock()
	defer c.lock.RUnlock()
	ticker, ok = c.cache[currency]
	return ticker, ok, nil
}

// Lookup returns the cached ticker for currency and whether it is still fresh
func (c *Cache) Lookup(currency domain.Currency) (domain.Ticker, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	t, ok := c.cache[currency]
	return t, ok && t.Fresh(c.now())
}

// Merge stores tickers, overwriting by currency, and returns the resulting snapshot
func (c *Cache) Merge(tickers []domain.Ticker) domain.Tickers {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.cache = c.cache.Merge(tickers)
	return c.cache
}

// Snapshot returns the cached tickers. The returned map must not be modified.
func (c *Cache) Snapshot() domain.Tickers {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.cache
}

// refreshNow loads currencies from the decorated service and merges the result
func (c *Cache) refreshNow(ctx context.Context, currencies []domain.Currency) ([]domain.Ticker, error) {
	tickers, err := c.next.Tickers(ctx, currencies)
	if err != nil {
		return nil, fmt.Errorf("refresh %v: %w", currencies, err)
	}
	c.Merge(tickers)
	c.logger.Log("msg", "refreshed tickers", "requested", len(currencies), "loaded", len(tickers))
	return tickers, nil
}
