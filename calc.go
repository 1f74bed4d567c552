package binnaculum

import "github.com/shopspring/decimal"

// Unrealized returns the gain of a position valued at latestPrice.
// It is zero when there is no position.
func Unrealized(totalShares Quantity, latestPrice, costBasis Money) Money {
	if totalShares.IsZero() {
		return Money{cur: cur(latestPrice, costBasis)}
	}
	return latestPrice.Mul(totalShares).Sub(costBasis)
}

// Performance returns (unrealized+realized)/costBasis in percent, and zero when costBasis is zero.
func Performance(unrealized, realized, costBasis Money) Percent {
	return Ratio(unrealized.Add(realized).value, costBasis.value)
}

// RealizedDelta returns the realized gain produced after the previous snapshot.
//
// Both cumulative values must be computed with an inclusive day boundary: a
// trade closed on the previous snapshot date belongs to the previous
// cumulative value and must not appear in the delta.
func RealizedDelta(throughCurrent, throughPrevious Money) Money {
	return throughCurrent.Sub(throughPrevious)
}

// AdjustForSplit returns the share count and per share cost after a split by factor.
// The total cost basis is unchanged.
func AdjustForSplit(shares Quantity, perShareCost Money, factor Quantity) (Quantity, Money) {
	if factor.IsZero() {
		return shares, perShareCost
	}
	return shares.Mul(factor), perShareCost.Div(factor)
}

// OptionNetPositions sums, for each option series, the signed effect of every
// contract trade (see TradeCode.NetPosition).
func OptionNetPositions(options []OptionTrade) map[OptionContract]int {
	res := make(map[OptionContract]int)
	for _, o := range options {
		q := o.Quantity
		if q == 0 {
			q = 1
		}
		res[o.Contract()] += o.Code.NetPosition() * q
	}
	return res
}

// HasOpenOptions reports whether a series still has a non zero net position on
// the given day. Series that expired strictly before on are closed.
// A zero on ignores expirations.
func HasOpenOptions(options []OptionTrade, on Date) bool {
	for contract, net := range OptionNetPositions(options) {
		if net == 0 {
			continue
		}
		if !on.IsZero() && contract.Expiration.Before(on) {
			continue
		}
		return true
	}
	return false
}

// OpenTrades reports whether shares or option contracts are still held.
func OpenTrades(totalShares Quantity, options []OptionTrade, on Date) bool {
	return !totalShares.IsZero() || HasOpenOptions(options, on)
}

// AssignWeights sets the Weight of every snapshot to its market value relative
// to the total market value of the snapshots in the same currency.
// Weights are zero when that total is zero.
func AssignWeights(snaps []TickerCurrencySnapshot) {
	totals := make(map[int]decimal.Decimal)
	for _, s := range snaps {
		totals[s.CurrencyID] = totals[s.CurrencyID].Add(s.MarketValue().value.Abs())
	}
	for i := range snaps {
		snaps[i].Weight = Ratio(snaps[i].MarketValue().value.Abs(), totals[snaps[i].CurrencyID])
	}
}
