package binnaculum

import (
	"cmp"
	"slices"
)

// Holding is the state of the position held in one ticker at the end of a day.
type Holding struct {
	TickerID int
	// Shares is the long quantity minus the short quantity.
	Shares Quantity
	// CostBasis is the cost of the open long lots minus the proceeds of the open short lots.
	CostBasis Money
	// Realized is the cumulative realized gain of closed shares and option contracts.
	Realized Money
	// OpenOptions is true when at least one option contract is still held.
	OpenOptions bool
}

// ledgerEvent is one dated entry of a ticker history.
type ledgerEvent struct {
	ts     DateTime
	kind   int // splits first on a given timestamp
	id     int
	trade  *Trade
	option *OptionTrade
	split  *TickerSplit
}

// book replays the history of one ticker.
type book struct {
	long, short lots
	realized    Money
	options     optionBook
}

// optionSide groups open contracts of one series and one side.
type optionSide struct {
	contract OptionContract
	side     TradeType
}

// optionBook holds the open option contracts waiting for a closing trade, in FIFO order.
type optionBook map[optionSide][]OptionTrade

// OptionLink pairs an opening option contract with the contract that closed it.
type OptionLink struct {
	OpenID  int
	CloseID int
}

// match applies a single contract trade and returns the realized gain it
// produced and the opening contract it closed, if any.
func (b optionBook) match(o OptionTrade) (Money, *OptionTrade) {
	key := optionSide{contract: o.Contract(), side: TradeTypeOf(o.Code)}
	if o.Code.IsOpening() {
		b[key] = append(b[key], o)
		return Money{}, nil
	}
	open := b[key]
	if len(open) == 0 {
		// closing a contract that was never opened here: the premium is all realized.
		return o.NetPremium, nil
	}
	first := open[0]
	b[key] = open[1:]
	return first.NetPremium.Add(o.NetPremium), &first
}

// expire realizes every open contract whose expiration day is strictly before on.
func (b optionBook) expire(on Date) Money {
	var realized Money
	for key, open := range b {
		if len(open) == 0 || !key.contract.Expiration.Before(on) {
			continue
		}
		for _, o := range open {
			realized = realized.Add(o.NetPremium)
		}
		delete(b, key)
	}
	return realized
}

func (b optionBook) hasOpen() bool {
	for _, open := range b {
		if len(open) > 0 {
			return true
		}
	}
	return false
}

func (b *book) apply(e ledgerEvent) {
	switch {
	case e.split != nil:
		b.long = b.long.split(e.split.Factor)
		b.short = b.short.split(e.split.Factor)
	case e.trade != nil:
		t := *e.trade
		q := t.Quantity.Abs()
		costs := t.Commissions.Add(t.Fees)
		switch t.TradeCode {
		case BuyToOpen:
			b.long = append(b.long, lot{Date: t.TimeStamp.Date(), Quantity: q, Cost: t.Gross().Add(costs)})
		case SellToOpen:
			b.short = append(b.short, lot{Date: t.TimeStamp.Date(), Quantity: q, Cost: t.Gross().Sub(costs)})
		case SellToClose:
			proceeds := t.Gross().Sub(costs)
			b.realized = b.realized.Add(proceeds.Sub(b.long.fifoCostOfSelling(q)))
			b.long = b.long.sell(q)
		case BuyToClose:
			paid := t.Gross().Add(costs)
			b.realized = b.realized.Add(b.short.fifoCostOfSelling(q).Sub(paid))
			b.short = b.short.sell(q)
		}
	case e.option != nil:
		r, _ := b.options.match(*e.option)
		b.realized = b.realized.Add(r)
	}
}

// history merges trades, option trades and splits into a chronological sequence.
func history(trades []Trade, options []OptionTrade, splits []TickerSplit, through Date) []ledgerEvent {
	var events []ledgerEvent
	for i := range trades {
		if !trades[i].TimeStamp.Date().After(through) {
			events = append(events, ledgerEvent{ts: trades[i].TimeStamp, kind: 1, id: trades[i].ID, trade: &trades[i]})
		}
	}
	for i := range options {
		if !options[i].TimeStamp.Date().After(through) {
			events = append(events, ledgerEvent{ts: options[i].TimeStamp, kind: 1, id: options[i].ID, option: &options[i]})
		}
	}
	for i := range splits {
		if !splits[i].Date.After(through) {
			events = append(events, ledgerEvent{ts: splits[i].Date.StartOfDay(), kind: 0, id: splits[i].ID, split: &splits[i]})
		}
	}
	slices.SortStableFunc(events, func(a, b ledgerEvent) int {
		return cmp.Or(a.ts.Compare(b.ts), cmp.Compare(a.kind, b.kind), cmp.Compare(a.id, b.id))
	})
	return events
}

// Holdings replays the history through the given day, inclusive, and returns
// the holding of every ticker that appears in it.
//
// Splits apply to the ticker they reference. Trades are expected to be in a
// single currency: mixing currencies panics.
func Holdings(trades []Trade, options []OptionTrade, splits []TickerSplit, through Date) map[int]Holding {
	books := make(map[int]*book)
	get := func(tickerID int) *book {
		b, ok := books[tickerID]
		if !ok {
			b = &book{options: make(optionBook)}
			books[tickerID] = b
		}
		return b
	}
	for _, e := range history(trades, options, splits, through) {
		switch {
		case e.trade != nil:
			get(e.trade.TickerID).apply(e)
		case e.option != nil:
			get(e.option.TickerID).apply(e)
		case e.split != nil:
			// a split only matters for a ticker with lots.
			if b, ok := books[e.split.TickerID]; ok {
				b.apply(e)
			}
		}
	}

	res := make(map[int]Holding, len(books))
	for tickerID, b := range books {
		b.realized = b.realized.Add(b.options.expire(through))
		res[tickerID] = Holding{
			TickerID:    tickerID,
			Shares:      b.long.quantity().Sub(b.short.quantity()),
			CostBasis:   b.long.cost().Sub(b.short.cost()),
			Realized:    b.realized,
			OpenOptions: b.options.hasOpen(),
		}
	}
	return res
}

// CumulativeRealized returns the realized gains of all closed positions
// since inception through the given day. The day itself is included.
func CumulativeRealized(trades []Trade, options []OptionTrade, splits []TickerSplit, through Date) Money {
	var total Money
	for _, h := range Holdings(trades, options, splits, through) {
		total = total.Add(h.Realized)
	}
	return total
}

// LinkOptions replays option contracts in FIFO order and returns, for every
// closed opening contract, the contract that closed it.
func LinkOptions(options []OptionTrade) []OptionLink {
	sorted := slices.Clone(options)
	slices.SortStableFunc(sorted, func(a, b OptionTrade) int {
		return cmp.Or(a.TimeStamp.Compare(b.TimeStamp), cmp.Compare(a.ID, b.ID))
	})
	open := make(optionBook)
	var links []OptionLink
	for _, o := range sorted {
		if _, opening := open.match(o); opening != nil {
			links = append(links, OptionLink{OpenID: opening.ID, CloseID: o.ID})
		}
	}
	return links
}
