package tastytrade

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/etnz/binnaculum"
	"github.com/shopspring/decimal"
)

// StrikeAdjustment is a change of the strike of an option series caused by a
// corporate action on the underlying.
type StrikeAdjustment struct {
	Underlying     string
	Expiration     binnaculum.Date
	OriginalStrike decimal.Decimal
	AdjustedStrike decimal.Decimal
	OptionType     binnaculum.OptionType
	Date           binnaculum.Date
	Reason         string
}

// Note is the human readable description appended to adjusted trades.
func (a StrikeAdjustment) Note() string {
	return fmt.Sprintf("Strike adjusted from %s to %s (%s on %s)",
		a.OriginalStrike, a.AdjustedStrike, a.Reason, a.Date)
}

func (a StrikeAdjustment) matches(o binnaculum.OptionTrade) bool {
	return a.Expiration == o.ExpirationDate.Date() &&
		a.OriginalStrike.Equal(o.Strike.Decimal()) &&
		a.OptionType == o.OptionType &&
		!o.TimeStamp.Date().After(a.Date)
}

// DetectStrikeAdjustments finds, among the transactions, pairs of Special
// Dividend receive-deliver rows of the same day, underlying, expiration,
// option type and quantity where one closes a series and the other opens it
// again at a different strike.
func DetectStrikeAdjustments(txs []Transaction) []StrikeAdjustment {
	type group struct {
		day        binnaculum.Date
		underlying string
		expiration binnaculum.Date
		typ        binnaculum.OptionType
		quantity   string
	}
	type leg struct {
		strike  decimal.Decimal
		opening bool
	}
	groups := make(map[group][]leg)
	var order []group
	for _, tx := range txs {
		rd, ok := tx.Kind.(ReceiveDeliver)
		if !ok || rd.SubType != SpecialDividend || !rd.HasAction || !tx.Instrument.IsOption() {
			continue
		}
		o, err := tx.option()
		if err != nil {
			continue
		}
		g := group{
			day:        tx.Date.Date(),
			underlying: tx.UnderlyingSymbol(),
			expiration: o.Expiration,
			typ:        o.Type,
			quantity:   tx.Quantity.Abs().String(),
		}
		if _, ok := groups[g]; !ok {
			order = append(order, g)
		}
		groups[g] = append(groups[g], leg{strike: o.Strike, opening: rd.Action.IsOpening()})
	}

	var res []StrikeAdjustment
	for _, g := range order {
		legs := groups[g]
		closing := slices.IndexFunc(legs, func(l leg) bool { return !l.opening })
		opening := slices.IndexFunc(legs, func(l leg) bool { return l.opening })
		if closing < 0 || opening < 0 || legs[closing].strike.Equal(legs[opening].strike) {
			continue
		}
		res = append(res, StrikeAdjustment{
			Underlying:     g.underlying,
			Expiration:     g.expiration,
			OriginalStrike: legs[closing].strike,
			AdjustedStrike: legs[opening].strike,
			OptionType:     g.typ,
			Date:           g.day,
			Reason:         "Special Dividend",
		})
	}
	slices.SortStableFunc(res, func(a, b StrikeAdjustment) int {
		return cmp.Or(a.Date.Compare(b.Date), strings.Compare(a.Underlying, b.Underlying))
	})
	return res
}

// AdjustStrike rewrites the strike of an option trade opened before a
// matching adjustment. The adjustment note is appended to the trade notes and
// UpdatedAt is set to now. Trades without a match are returned unchanged.
func AdjustStrike(o binnaculum.OptionTrade, adjustments []StrikeAdjustment, now binnaculum.DateTime) (binnaculum.OptionTrade, bool) {
	for _, a := range adjustments {
		if !a.matches(o) {
			continue
		}
		o.Strike = binnaculum.M(a.AdjustedStrike, o.Strike.Currency())
		if o.Notes != "" {
			o.Notes += "; "
		}
		o.Notes += a.Note()
		o.UpdatedAt = now
		return o, true
	}
	return o, false
}

// adjustmentsFor returns the adjustments of one underlying.
func adjustmentsFor(adjustments []StrikeAdjustment, underlying string) []StrikeAdjustment {
	var res []StrikeAdjustment
	for _, a := range adjustments {
		if a.Underlying == underlying {
			res = append(res, a)
		}
	}
	return res
}
