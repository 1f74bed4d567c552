package quote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/etnz/binnaculum"
	"github.com/etnz/binnaculum/common"
	"github.com/etnz/binnaculum/storage/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// server answers tradegate-like quotes: SOFI as a number, PLTR as a string.
func server(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Query().Get("isin") {
		case "SOFI":
			w.Write([]byte(`{"last": 7.25, "bid": 7.2}`))
		case "PLTR":
			w.Write([]byte(`{"last": "24,5", "bid": 0}`))
		case "EMPTY":
			w.Write([]byte(`{"last": 0}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func fetcher(srv *httptest.Server) *Fetcher {
	return New(common.QuotesConfig{URL: srv.URL + "/refresh.php?isin={symbol}", Path: "$.last", Timeout: "5s", CacheTTL: "1m"}, nil)
}

func TestFetcher_Latest(t *testing.T) {
	var hits atomic.Int32
	f := fetcher(server(t, &hits))
	ctx := context.Background()

	got, err := f.Latest(ctx, "SOFI")
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("7.25")), "got %v", got)

	got, err = f.Latest(ctx, "PLTR")
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("24.5")), "got %v", got)

	_, err = f.Latest(ctx, "SOFI")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load(), "cached quote must not hit the server")

	_, err = f.Latest(ctx, "EMPTY")
	assert.Error(t, err)
	_, err = f.Latest(ctx, "UNKNOWN")
	assert.ErrorContains(t, err, "404")
}

func TestFetcher_Update(t *testing.T) {
	var hits atomic.Int32
	f := fetcher(server(t, &hits))
	ctx := context.Background()
	store := memory.New()
	usd, _, err := store.UpsertCurrency(ctx, "USD")
	require.NoError(t, err)
	sofi, _, err := store.UpsertTicker(ctx, "SOFI", usd.ID)
	require.NoError(t, err)
	_, _, err = store.UpsertTicker(ctx, "UNKNOWN", usd.ID)
	require.NoError(t, err)

	day := binnaculum.MustParseDate("2024-05-10")
	updated, err := f.Update(ctx, store, day)
	assert.Error(t, err, "UNKNOWN cannot be priced")
	assert.Equal(t, []int{sofi.ID}, updated)

	p, err := store.LatestTickerPrice(ctx, sofi.ID, day)
	require.NoError(t, err)
	assert.True(t, p.Price.Equal(binnaculum.M(7.25, "USD")), "got %v", p.Price)
}
