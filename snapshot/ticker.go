package snapshot

import (
	"context"

	"github.com/etnz/binnaculum"
	"github.com/etnz/binnaculum/common"
)

// TickerManager maintains the per currency snapshots of tickers.
type TickerManager struct {
	*engine[binnaculum.TickerCurrencySnapshot]
}

func NewTickerManager(store binnaculum.Store, defaultCurrency string, log *common.Logger) *TickerManager {
	calc := tickerCalculator{source{store: store, defaultCurrency: defaultCurrency}}
	return &TickerManager{newEngine("ticker", store.TickerSnapshots(), calc, log)}
}

type tickerCalculator struct {
	source
}

func (c tickerCalculator) created(ctx context.Context, id int) (binnaculum.Date, error) {
	t, err := c.store.Ticker(ctx, id)
	if err != nil {
		return binnaculum.Date{}, err
	}
	return t.CreatedAt.Date(), nil
}

func (c tickerCalculator) currencies(ctx context.Context, id int) ([]int, error) {
	t, err := c.store.Ticker(ctx, id)
	if err != nil {
		return nil, err
	}
	m, err := c.store.Movements(ctx, binnaculum.MovementFilter{TickerID: id})
	if err != nil {
		return nil, err
	}
	return c.relevant(ctx, m.CurrencyIDs(), t.CurrencyID)
}

func (c tickerCalculator) days(ctx context.Context, id int) ([]binnaculum.Date, error) {
	m, err := c.store.Movements(ctx, binnaculum.MovementFilter{TickerID: id})
	if err != nil {
		return nil, err
	}
	splits, err := c.splits(ctx, []int{id})
	if err != nil {
		return nil, err
	}
	days := m.Dates()
	for _, sp := range splits {
		days = append(days, sp.Date)
	}
	return sortedDays(days), nil
}

// compute derives the position figures from the whole history of the ticker,
// and accumulates incomes and realized gains from prev.
//
// The weight is the share of the ticker in the market value of all the
// positions held in the same currency.
func (c tickerCalculator) compute(ctx context.Context, key binnaculum.SnapshotKey, day binnaculum.Date, prev *binnaculum.TickerCurrencySnapshot) (binnaculum.TickerCurrencySnapshot, error) {
	var s binnaculum.TickerCurrencySnapshot
	code, err := c.code(ctx, key.CurrencyID)
	if err != nil {
		return s, err
	}
	all, err := c.store.Movements(ctx, binnaculum.MovementFilter{})
	if err != nil {
		return s, err
	}
	ledger := inCurrency(all, key.CurrencyID)
	splits, err := c.splits(ctx, ledger.TickerIDs())
	if err != nil {
		return s, err
	}
	mine := ledger.Filter(nil, is(key.EntityID))
	zero := binnaculum.M(0, code)

	s = binnaculum.TickerCurrencySnapshot{
		Date:       day,
		TickerID:   key.EntityID,
		CurrencyID: key.CurrencyID,
		Dividends:  zero,
		Options:    zero,
		Realized:   zero,
	}
	var since binnaculum.Date
	if prev != nil {
		s.Dividends, s.Options, s.Realized = prev.Dividends, prev.Options, prev.Realized
		since = prev.Date
	}

	delta := mine.Between(since, day)
	for _, d := range delta.Dividends {
		s.Dividends = s.Dividends.Add(d.Amount)
	}
	for _, t := range delta.DividendTaxes {
		s.Dividends = s.Dividends.Sub(t.Amount)
	}
	for _, o := range delta.OptionTrades {
		s.Options = s.Options.Add(o.NetPremium)
	}

	realized := binnaculum.CumulativeRealized(mine.Trades, mine.OptionTrades, splits, day)
	if prev == nil {
		s.Realized = s.Realized.Add(realized)
	} else {
		before := binnaculum.CumulativeRealized(mine.Trades, mine.OptionTrades, splits, prev.Date)
		s.Realized = s.Realized.Add(binnaculum.RealizedDelta(realized, before))
	}

	holdings := binnaculum.Holdings(ledger.Trades, ledger.OptionTrades, splits, day)
	h := holdings[key.EntityID]
	s.TotalShares = h.Shares
	s.CostBasis = zero.Add(h.CostBasis)
	s.TotalIncomes = s.Dividends.Add(s.Options)
	s.RealCost = s.CostBasis.Sub(s.TotalIncomes)
	s.OpenTrades = binnaculum.OpenTrades(h.Shares, mine.Through(day).OptionTrades, day)
	if s.LatestPrice, err = c.price(ctx, key.EntityID, key.CurrencyID, code, ledger.Trades, day); err != nil {
		return s, err
	}

	positions := make([]binnaculum.TickerCurrencySnapshot, 0, len(holdings))
	for id, h := range holdings {
		price := s.LatestPrice
		if id != key.EntityID {
			if price, err = c.price(ctx, id, key.CurrencyID, code, ledger.Trades, day); err != nil {
				return s, err
			}
		}
		positions = append(positions, binnaculum.TickerCurrencySnapshot{TickerID: id, CurrencyID: key.CurrencyID, TotalShares: h.Shares, LatestPrice: price})
	}
	binnaculum.AssignWeights(positions)
	for _, p := range positions {
		if p.TickerID == key.EntityID {
			s.Weight = p.Weight
		}
	}
	return s, nil
}
