package binnaculum

import "slices"

// SnapshotKey identifies the series a snapshot belongs to: one entity in one currency.
type SnapshotKey struct {
	EntityID   int
	CurrencyID int
}

// Snapshot is implemented by every snapshot record. For a given key there is at
// most one snapshot per date.
type Snapshot interface {
	SnapshotKey() SnapshotKey
	SnapshotDate() Date
}

// TickerCurrencySnapshot holds the cumulative figures of a ticker in one currency on a day.
type TickerCurrencySnapshot struct {
	ID           int      `json:"id,omitempty"`
	Date         Date     `json:"date"`
	TickerID     int      `json:"tickerId"`
	CurrencyID   int      `json:"currencyId"`
	TotalShares  Quantity `json:"totalShares"`
	Weight       Percent  `json:"weight"`
	CostBasis    Money    `json:"costBasis"`
	RealCost     Money    `json:"realCost"`
	Dividends    Money    `json:"dividends"`
	Options      Money    `json:"options"`
	TotalIncomes Money    `json:"totalIncomes"`
	Realized     Money    `json:"realized"`
	LatestPrice  Money    `json:"latestPrice"`
	OpenTrades   bool     `json:"openTrades"`
}

func (s TickerCurrencySnapshot) SnapshotKey() SnapshotKey {
	return SnapshotKey{EntityID: s.TickerID, CurrencyID: s.CurrencyID}
}
func (s TickerCurrencySnapshot) SnapshotDate() Date { return s.Date }

// Unrealized is the gain of the open position at the latest price.
func (s TickerCurrencySnapshot) Unrealized() Money {
	return Unrealized(s.TotalShares, s.LatestPrice, s.CostBasis)
}

// Performance is the total gain relative to the cost basis, in percent.
func (s TickerCurrencySnapshot) Performance() Percent {
	return Performance(s.Unrealized(), s.Realized, s.CostBasis)
}

// MarketValue is the value of the position at the latest price.
func (s TickerCurrencySnapshot) MarketValue() Money { return s.LatestPrice.Mul(s.TotalShares) }

// Equal reports whether both snapshots hold the same values. The database id is ignored.
func (s TickerCurrencySnapshot) Equal(o TickerCurrencySnapshot) bool {
	return s.Date == o.Date && s.TickerID == o.TickerID && s.CurrencyID == o.CurrencyID &&
		s.TotalShares.Equal(o.TotalShares) &&
		s.Weight.Equal(o.Weight) &&
		sameValue(s.CostBasis, o.CostBasis) &&
		sameValue(s.RealCost, o.RealCost) &&
		sameValue(s.Dividends, o.Dividends) &&
		sameValue(s.Options, o.Options) &&
		sameValue(s.TotalIncomes, o.TotalIncomes) &&
		sameValue(s.Realized, o.Realized) &&
		sameValue(s.LatestPrice, o.LatestPrice) &&
		s.OpenTrades == o.OpenTrades
}

// TickerSnapshot groups the per currency snapshots of a ticker on a day.
type TickerSnapshot struct {
	TickerID   int                      `json:"tickerId"`
	Date       Date                     `json:"date"`
	Currencies []TickerCurrencySnapshot `json:"currencies"`
}

// GroupTickerSnapshots groups currency snapshots by ticker and date, ordered by ticker then date.
func GroupTickerSnapshots(snaps []TickerCurrencySnapshot) []TickerSnapshot {
	type group struct {
		ticker int
		date   Date
	}
	index := make(map[group]int)
	var res []TickerSnapshot
	for _, s := range snaps {
		g := group{s.TickerID, s.Date}
		i, ok := index[g]
		if !ok {
			i = len(res)
			index[g] = i
			res = append(res, TickerSnapshot{TickerID: s.TickerID, Date: s.Date})
		}
		res[i].Currencies = append(res[i].Currencies, s)
	}
	slices.SortFunc(res, func(a, b TickerSnapshot) int {
		if a.TickerID != b.TickerID {
			return a.TickerID - b.TickerID
		}
		return a.Date.Compare(b.Date)
	})
	return res
}

// BrokerFinancialSnapshot holds the cumulative figures of a broker account, or
// of a whole broker when BrokerAccountID is zero, in one currency on a day.
type BrokerFinancialSnapshot struct {
	ID                int   `json:"id,omitempty"`
	Date              Date  `json:"date"`
	BrokerID          int   `json:"brokerId"`
	BrokerAccountID   int   `json:"brokerAccountId,omitempty"`
	CurrencyID        int   `json:"currencyId"`
	MovementCounter   int   `json:"movementCounter"`
	Deposited         Money `json:"deposited"`
	Withdrawn         Money `json:"withdrawn"`
	Commissions       Money `json:"commissions"`
	Fees              Money `json:"fees"`
	DividendsReceived Money `json:"dividendsReceived"`
	DividendTaxes     Money `json:"dividendTaxes"`
	OptionsIncome     Money `json:"optionsIncome"`
	OtherIncome       Money `json:"otherIncome"`
	Realized          Money `json:"realized"`
	Invested          Money `json:"invested"`
	MarketValue       Money `json:"marketValue"`
	NetCashFlow       Money `json:"netCashFlow"`
	OpenTrades        bool  `json:"openTrades"`
}

func (s BrokerFinancialSnapshot) SnapshotKey() SnapshotKey {
	if s.BrokerAccountID != 0 {
		return SnapshotKey{EntityID: s.BrokerAccountID, CurrencyID: s.CurrencyID}
	}
	return SnapshotKey{EntityID: s.BrokerID, CurrencyID: s.CurrencyID}
}
func (s BrokerFinancialSnapshot) SnapshotDate() Date { return s.Date }

// Unrealized is the gain of the open share positions. It is zero without open position.
func (s BrokerFinancialSnapshot) Unrealized() Money {
	if !s.OpenTrades {
		return Money{}.In(s.Invested.Currency())
	}
	return s.MarketValue.Sub(s.Invested)
}

func (s BrokerFinancialSnapshot) Performance() Percent {
	return Performance(s.Unrealized(), s.Realized, s.Invested)
}

// Equal reports whether both snapshots hold the same values. The database id is ignored.
func (s BrokerFinancialSnapshot) Equal(o BrokerFinancialSnapshot) bool {
	return s.Date == o.Date && s.BrokerID == o.BrokerID && s.BrokerAccountID == o.BrokerAccountID &&
		s.CurrencyID == o.CurrencyID &&
		s.MovementCounter == o.MovementCounter &&
		sameValue(s.Deposited, o.Deposited) &&
		sameValue(s.Withdrawn, o.Withdrawn) &&
		sameValue(s.Commissions, o.Commissions) &&
		sameValue(s.Fees, o.Fees) &&
		sameValue(s.DividendsReceived, o.DividendsReceived) &&
		sameValue(s.DividendTaxes, o.DividendTaxes) &&
		sameValue(s.OptionsIncome, o.OptionsIncome) &&
		sameValue(s.OtherIncome, o.OtherIncome) &&
		sameValue(s.Realized, o.Realized) &&
		sameValue(s.Invested, o.Invested) &&
		sameValue(s.MarketValue, o.MarketValue) &&
		sameValue(s.NetCashFlow, o.NetCashFlow) &&
		s.OpenTrades == o.OpenTrades
}

// BankAccountSnapshot holds the cumulative figures of a bank account on a day.
type BankAccountSnapshot struct {
	ID              int   `json:"id,omitempty"`
	Date            Date  `json:"date"`
	BankAccountID   int   `json:"bankAccountId"`
	CurrencyID      int   `json:"currencyId"`
	Balance         Money `json:"balance"`
	InterestEarned  Money `json:"interestEarned"`
	FeesPaid        Money `json:"feesPaid"`
	MovementCounter int   `json:"movementCounter"`
}

func (s BankAccountSnapshot) SnapshotKey() SnapshotKey {
	return SnapshotKey{EntityID: s.BankAccountID, CurrencyID: s.CurrencyID}
}
func (s BankAccountSnapshot) SnapshotDate() Date { return s.Date }

func (s BankAccountSnapshot) Equal(o BankAccountSnapshot) bool {
	return s.Date == o.Date && s.BankAccountID == o.BankAccountID && s.CurrencyID == o.CurrencyID &&
		sameValue(s.Balance, o.Balance) &&
		sameValue(s.InterestEarned, o.InterestEarned) &&
		sameValue(s.FeesPaid, o.FeesPaid) &&
		s.MovementCounter == o.MovementCounter
}

// BankSnapshot aggregates the accounts of a bank in one currency on a day.
type BankSnapshot struct {
	ID              int   `json:"id,omitempty"`
	Date            Date  `json:"date"`
	BankID          int   `json:"bankId"`
	CurrencyID      int   `json:"currencyId"`
	Balance         Money `json:"balance"`
	InterestEarned  Money `json:"interestEarned"`
	FeesPaid        Money `json:"feesPaid"`
	AccountCount    int   `json:"accountCount"`
	MovementCounter int   `json:"movementCounter"`
}

func (s BankSnapshot) SnapshotKey() SnapshotKey {
	return SnapshotKey{EntityID: s.BankID, CurrencyID: s.CurrencyID}
}
func (s BankSnapshot) SnapshotDate() Date { return s.Date }

func (s BankSnapshot) Equal(o BankSnapshot) bool {
	return s.Date == o.Date && s.BankID == o.BankID && s.CurrencyID == o.CurrencyID &&
		sameValue(s.Balance, o.Balance) &&
		sameValue(s.InterestEarned, o.InterestEarned) &&
		sameValue(s.FeesPaid, o.FeesPaid) &&
		s.AccountCount == o.AccountCount &&
		s.MovementCounter == o.MovementCounter
}

// sameValue compares amounts by value. Snapshot amounts share the currency of
// the snapshot, a zero amount may have lost it.
func sameValue(a, b Money) bool { return a.value.Equal(b.value) }
