package tastytrade

import (
	"context"
	"fmt"
	"time"

	"github.com/etnz/binnaculum"
	"github.com/patrickmn/go-cache"
)

// Resolver maps statement codes and symbols to entity records, creating them
// when they do not exist yet.
type Resolver interface {
	Currency(ctx context.Context, code string) (binnaculum.Currency, error)
	// Ticker returns the ticker of symbol, and whether it was just created.
	Ticker(ctx context.Context, symbol string, currencyID int) (binnaculum.Ticker, bool, error)
}

// StoreResolver resolves through the atomic upserts of an EntityStore and
// caches the ids it has seen.
type StoreResolver struct {
	store binnaculum.EntityStore
	cache *cache.Cache
}

func NewStoreResolver(store binnaculum.EntityStore) *StoreResolver {
	return &StoreResolver{
		store: store,
		cache: cache.New(time.Hour, 2*time.Hour),
	}
}

func (r *StoreResolver) Currency(ctx context.Context, code string) (binnaculum.Currency, error) {
	key := "currency:" + code
	if c, found := r.cache.Get(key); found {
		return c.(binnaculum.Currency), nil
	}
	c, _, err := r.store.UpsertCurrency(ctx, code)
	if err != nil {
		return binnaculum.Currency{}, fmt.Errorf("resolving currency %q: %w", code, err)
	}
	r.cache.Set(key, c, cache.DefaultExpiration)
	return c, nil
}

func (r *StoreResolver) Ticker(ctx context.Context, symbol string, currencyID int) (binnaculum.Ticker, bool, error) {
	key := "ticker:" + symbol
	if t, found := r.cache.Get(key); found {
		return t.(binnaculum.Ticker), false, nil
	}
	t, created, err := r.store.UpsertTicker(ctx, symbol, currencyID)
	if err != nil {
		return binnaculum.Ticker{}, false, fmt.Errorf("resolving ticker %q: %w", symbol, err)
	}
	r.cache.Set(key, t, cache.DefaultExpiration)
	return t, created, nil
}
