package snapshot

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/etnz/binnaculum"
)

// source gives the calculators access to the ledger.
type source struct {
	store           binnaculum.Store
	defaultCurrency string
}

// code returns the code of a currency.
func (s source) code(ctx context.Context, currencyID int) (string, error) {
	c, err := s.store.Currency(ctx, currencyID)
	if err != nil {
		return "", err
	}
	return c.Code, nil
}

// fallbackCurrency returns the currency of entities without movements nor
// home currency.
func (s source) fallbackCurrency(ctx context.Context) (int, error) {
	c, _, err := s.store.UpsertCurrency(ctx, s.defaultCurrency)
	if err != nil {
		return 0, fmt.Errorf("default currency %q: %w", s.defaultCurrency, err)
	}
	return c.ID, nil
}

// relevant returns the sorted distinct currencies of ids, or home when there
// is none, or the default currency when home is not set either.
func (s source) relevant(ctx context.Context, ids []int, home int) ([]int, error) {
	ids = slices.DeleteFunc(slices.Clone(ids), func(id int) bool { return id == 0 })
	if len(ids) > 0 {
		slices.Sort(ids)
		return slices.Compact(ids), nil
	}
	if home != 0 {
		return []int{home}, nil
	}
	id, err := s.fallbackCurrency(ctx)
	if err != nil {
		return nil, err
	}
	return []int{id}, nil
}

// splits returns the splits of the tickers.
func (s source) splits(ctx context.Context, tickerIDs []int) ([]binnaculum.TickerSplit, error) {
	var res []binnaculum.TickerSplit
	for _, id := range tickerIDs {
		splits, err := s.store.TickerSplits(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("splits of ticker %d: %w", id, err)
		}
		res = append(res, splits...)
	}
	return res, nil
}

// price returns the price of a ticker on day in a currency: the latest
// stored price on or before day, or the price of the last trade through day.
// It is zero when neither exists.
func (s source) price(ctx context.Context, tickerID, currencyID int, code string, trades []binnaculum.Trade, day binnaculum.Date) (binnaculum.Money, error) {
	p, err := s.store.LatestTickerPrice(ctx, tickerID, day)
	switch {
	case err == nil && p.CurrencyID == currencyID:
		return p.Price.In(code), nil
	case err != nil && !errors.Is(err, binnaculum.ErrNotFound):
		return binnaculum.Money{}, fmt.Errorf("price of ticker %d: %w", tickerID, err)
	}

	last := binnaculum.M(0, code)
	var at binnaculum.DateTime
	for _, t := range trades {
		if t.TickerID != tickerID || t.CurrencyID != currencyID || t.Price.IsZero() || t.TimeStamp.Date().After(day) {
			continue
		}
		if t.TimeStamp.Before(at) {
			continue
		}
		last, at = t.Price.In(code), t.TimeStamp
	}
	return last, nil
}

// inCurrency returns the records in a currency. Conversions belong to both
// their currencies.
func inCurrency(m binnaculum.Movements, currencyID int) binnaculum.Movements {
	var r binnaculum.Movements
	for _, x := range m.BrokerMovements {
		if x.CurrencyID == currencyID || (x.MovementType == binnaculum.Conversion && x.FromCurrencyID == currencyID) {
			r.BrokerMovements = append(r.BrokerMovements, x)
		}
	}
	for _, x := range m.Trades {
		if x.CurrencyID == currencyID {
			r.Trades = append(r.Trades, x)
		}
	}
	for _, x := range m.OptionTrades {
		if x.CurrencyID == currencyID {
			r.OptionTrades = append(r.OptionTrades, x)
		}
	}
	for _, x := range m.Dividends {
		if x.CurrencyID == currencyID {
			r.Dividends = append(r.Dividends, x)
		}
	}
	for _, x := range m.DividendTaxes {
		if x.CurrencyID == currencyID {
			r.DividendTaxes = append(r.DividendTaxes, x)
		}
	}
	return r
}

func is(id int) func(int) bool { return func(x int) bool { return x == id } }

// onOrBefore returns the snapshot of key on day, or the nearest before it.
func onOrBefore[S binnaculum.Snapshot](ctx context.Context, repo binnaculum.SnapshotRepository[S], key binnaculum.SnapshotKey, day binnaculum.Date) (S, bool, error) {
	s, err := repo.ByKeyAndDate(ctx, key, day)
	if errors.Is(err, binnaculum.ErrNotFound) {
		s, err = repo.Before(ctx, key, day)
	}
	if errors.Is(err, binnaculum.ErrNotFound) {
		return s, false, nil
	}
	if err != nil {
		return s, false, err
	}
	return s, true, nil
}

// sortedDays returns the distinct days, ascending.
func sortedDays(days []binnaculum.Date) []binnaculum.Date {
	days = slices.Clone(days)
	slices.SortFunc(days, binnaculum.Date.Compare)
	return slices.Compact(days)
}
