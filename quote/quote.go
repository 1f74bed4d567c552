// Package quote fetches the latest price of tickers from a JSON web service
// and records them as ticker prices.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/binnaculum"
	"github.com/etnz/binnaculum/common"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

// Fetcher reads prices from a service answering JSON.
//
// URL contains a {symbol} placeholder. Path is the jsonpath of the price in
// the response, the price may be a number or a string using a decimal comma.
type Fetcher struct {
	URL    string
	Path   string
	Client *http.Client

	cache *cache.Cache
	log   *common.Logger
}

// New returns a Fetcher configured from cfg.
func New(cfg common.QuotesConfig, log *common.Logger) *Fetcher {
	ttl := cfg.GetCacheTTL()
	return &Fetcher{
		URL:    cfg.URL,
		Path:   cfg.Path,
		Client: &http.Client{Timeout: cfg.GetTimeout()},
		cache:  cache.New(ttl, 2*ttl),
		log:    common.OrSilent(log),
	}
}

// Latest returns the latest price of symbol. Prices are cached for the
// configured TTL.
func (f *Fetcher) Latest(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if v, ok := f.cache.Get(symbol); ok {
		return v.(decimal.Decimal), nil
	}
	addr := strings.ReplaceAll(f.URL, "{symbol}", url.QueryEscape(symbol))
	var jobj any
	if err := f.jget(ctx, addr, &jobj); err != nil {
		return decimal.Zero, fmt.Errorf("fetching %s: %w", symbol, err)
	}
	jval, err := jsonpath.Get(f.Path, jobj)
	if err != nil {
		return decimal.Zero, fmt.Errorf("reading %s at %q: %w", symbol, f.Path, err)
	}
	// jsonpath returns a list for filter and slice expressions.
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	price, err := parsePrice(jval)
	if err != nil {
		return decimal.Zero, fmt.Errorf("reading %s at %q: %w", symbol, f.Path, err)
	}
	if price.IsZero() {
		return decimal.Zero, fmt.Errorf("no price for %s", symbol)
	}
	f.cache.SetDefault(symbol, price)
	return price, nil
}

func parsePrice(jval any) (decimal.Decimal, error) {
	switch v := jval.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		// some services return the value as a localized string.
		s := strings.ReplaceAll(strings.ReplaceAll(v, ",", "."), " ", "")
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid price %q", v)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("not a price: %v", jval)
	}
}

// jget performs an HTTP GET request and unmarshals the JSON response into data.
func (f *Fetcher) jget(ctx context.Context, addr string, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	f.logger().Debug().Str("host", req.URL.Host).Str("path", req.URL.Path).Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).Msg("quote request")
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot http GET %v%v: %v", req.URL.Host, req.URL.Path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(data)
}

func (f *Fetcher) logger() *common.Logger { return common.OrSilent(f.log) }

// Update fetches the latest price of every ticker and stores it as the price
// on day. It returns the ids of the tickers updated. A ticker that cannot be
// priced is reported in the error and does not stop the others.
func (f *Fetcher) Update(ctx context.Context, store binnaculum.Store, on binnaculum.Date) ([]int, error) {
	tickers, err := store.Tickers(ctx)
	if err != nil {
		return nil, err
	}
	var updated []int
	var errs []error
	for _, t := range tickers {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		price, err := f.Latest(ctx, t.Symbol)
		if err != nil {
			f.logger().Warn().Err(err).Str("symbol", t.Symbol).Msg("no quote")
			errs = append(errs, err)
			continue
		}
		c, err := store.Currency(ctx, t.CurrencyID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		_, err = store.SaveTickerPrice(ctx, binnaculum.TickerPrice{
			Date:       on,
			TickerID:   t.ID,
			CurrencyID: t.CurrencyID,
			Price:      binnaculum.M(price, c.Code),
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("saving price of %s: %w", t.Symbol, err))
			continue
		}
		f.logger().Info().Str("symbol", t.Symbol).Str("price", price.String()).Stringer("date", on).Msg("price updated")
		updated = append(updated, t.ID)
	}
	return updated, errors.Join(errs...)
}
