package tastytrade

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/etnz/binnaculum"
	"github.com/shopspring/decimal"
)

// Split is a stock split. Tastytrade records it as a pair of receive-deliver
// rows on the split day: the old shares are closed and the new ones opened.
type Split struct {
	Symbol   string
	Date     binnaculum.Date
	Currency string
	Closed   decimal.Decimal
	Opened   decimal.Decimal
}

// Factor is the number of new shares for one old share.
func (s Split) Factor() decimal.Decimal { return s.Opened.Div(s.Closed) }

func isSplit(tx Transaction) bool {
	rd, ok := tx.Kind.(ReceiveDeliver)
	return ok && (rd.SubType == ForwardSplit || rd.SubType == ReverseSplit) && tx.Instrument == Equity
}

// DetectSplits pairs the equity split rows of the same day and symbol. Rows
// that cannot be paired, or pairs that do not change the share count, are
// returned as unpaired.
func DetectSplits(txs []Transaction) (splits []Split, unpaired []Transaction) {
	type group struct {
		day    binnaculum.Date
		symbol string
	}
	groups := make(map[group][]Transaction)
	var order []group
	for _, tx := range txs {
		if !isSplit(tx) {
			continue
		}
		g := group{day: tx.Date.Date(), symbol: tx.Symbol}
		if _, ok := groups[g]; !ok {
			order = append(order, g)
		}
		groups[g] = append(groups[g], tx)
	}

	for _, g := range order {
		rows := groups[g]
		s := Split{Symbol: g.symbol, Date: g.day, Currency: rows[0].Currency}
		for _, tx := range rows {
			rd := tx.Kind.(ReceiveDeliver)
			if rd.HasAction && rd.Action.IsOpening() {
				s.Opened = s.Opened.Add(tx.Quantity.Abs())
			} else {
				s.Closed = s.Closed.Add(tx.Quantity.Abs())
			}
		}
		if !s.Closed.IsPositive() || !s.Opened.IsPositive() || s.Closed.Equal(s.Opened) {
			unpaired = append(unpaired, rows...)
			continue
		}
		splits = append(splits, s)
	}
	slices.SortStableFunc(splits, func(a, b Split) int {
		return cmp.Or(a.Date.Compare(b.Date), strings.Compare(a.Symbol, b.Symbol))
	})
	return splits, unpaired
}

// splitWarning describes a split row that could not be paired.
func splitWarning(tx Transaction) error {
	return fmt.Errorf("split of %s on %s has no matching leg, shares are not adjusted", tx.Symbol, tx.Date.Date())
}
