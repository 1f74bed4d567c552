package snapshot

import (
	"context"

	"github.com/etnz/binnaculum"
	"github.com/etnz/binnaculum/common"
)

// BrokerAccountManager maintains the financial snapshots of broker accounts.
type BrokerAccountManager struct {
	*engine[binnaculum.BrokerFinancialSnapshot]
}

func NewBrokerAccountManager(store binnaculum.Store, defaultCurrency string, log *common.Logger) *BrokerAccountManager {
	calc := accountCalculator{source{store: store, defaultCurrency: defaultCurrency}}
	return &BrokerAccountManager{newEngine("broker account", store.BrokerAccountSnapshots(), calc, log)}
}

type accountCalculator struct {
	source
}

func (c accountCalculator) created(ctx context.Context, id int) (binnaculum.Date, error) {
	a, err := c.store.BrokerAccount(ctx, id)
	if err != nil {
		return binnaculum.Date{}, err
	}
	return a.CreatedAt.Date(), nil
}

func (c accountCalculator) currencies(ctx context.Context, id int) ([]int, error) {
	a, err := c.store.BrokerAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	m, err := c.store.Movements(ctx, binnaculum.MovementFilter{BrokerAccountID: id})
	if err != nil {
		return nil, err
	}
	return c.relevant(ctx, m.CurrencyIDs(), a.CurrencyID)
}

func (c accountCalculator) days(ctx context.Context, id int) ([]binnaculum.Date, error) {
	m, err := c.store.Movements(ctx, binnaculum.MovementFilter{BrokerAccountID: id})
	if err != nil {
		return nil, err
	}
	return m.Dates(), nil
}

func (c accountCalculator) compute(ctx context.Context, key binnaculum.SnapshotKey, day binnaculum.Date, prev *binnaculum.BrokerFinancialSnapshot) (binnaculum.BrokerFinancialSnapshot, error) {
	var s binnaculum.BrokerFinancialSnapshot
	a, err := c.store.BrokerAccount(ctx, key.EntityID)
	if err != nil {
		return s, err
	}
	code, err := c.code(ctx, key.CurrencyID)
	if err != nil {
		return s, err
	}
	all, err := c.store.Movements(ctx, binnaculum.MovementFilter{BrokerAccountID: key.EntityID})
	if err != nil {
		return s, err
	}
	ledger := inCurrency(all, key.CurrencyID)
	splits, err := c.splits(ctx, ledger.TickerIDs())
	if err != nil {
		return s, err
	}

	zero := binnaculum.M(0, code)
	if prev != nil {
		s = *prev
		s.ID = 0
	} else {
		s = binnaculum.BrokerFinancialSnapshot{
			Deposited: zero, Withdrawn: zero, Commissions: zero, Fees: zero,
			DividendsReceived: zero, DividendTaxes: zero, OptionsIncome: zero,
			OtherIncome: zero, Realized: zero, NetCashFlow: zero,
		}
	}
	s.Date, s.BrokerID, s.BrokerAccountID, s.CurrencyID = day, a.BrokerID, key.EntityID, key.CurrencyID

	var since binnaculum.Date
	if prev != nil {
		since = prev.Date
	}
	accumulate(&s, ledger.Between(since, day), key.CurrencyID)

	realized := binnaculum.CumulativeRealized(ledger.Trades, ledger.OptionTrades, splits, day)
	if prev == nil {
		s.Realized = s.Realized.Add(realized)
	} else {
		before := binnaculum.CumulativeRealized(ledger.Trades, ledger.OptionTrades, splits, prev.Date)
		s.Realized = s.Realized.Add(binnaculum.RealizedDelta(realized, before))
	}

	s.Invested, s.MarketValue, s.OpenTrades = zero, zero, false
	for id, h := range binnaculum.Holdings(ledger.Trades, ledger.OptionTrades, splits, day) {
		price, err := c.price(ctx, id, key.CurrencyID, code, ledger.Trades, day)
		if err != nil {
			return s, err
		}
		s.Invested = s.Invested.Add(h.CostBasis)
		s.MarketValue = s.MarketValue.Add(price.Mul(h.Shares))
		s.OpenTrades = s.OpenTrades || !h.Shares.IsZero()
	}
	s.OpenTrades = s.OpenTrades || binnaculum.HasOpenOptions(ledger.Through(day).OptionTrades, day)
	return s, nil
}

// accumulate adds the cash figures of the records to s.
func accumulate(s *binnaculum.BrokerFinancialSnapshot, delta binnaculum.Movements, currencyID int) {
	s.MovementCounter += delta.Len()
	for _, m := range delta.BrokerMovements {
		s.NetCashFlow = s.NetCashFlow.Add(m.CashEffect(currencyID))
		if m.CurrencyID != currencyID {
			continue
		}
		// signed: a negative fee is a refund.
		s.Commissions = s.Commissions.Add(m.Commissions)
		s.Fees = s.Fees.Add(m.Fees)
		switch m.MovementType {
		case binnaculum.Deposit, binnaculum.ACATMoneyTransferReceived:
			s.Deposited = s.Deposited.Add(m.Amount.Abs())
		case binnaculum.Withdrawal, binnaculum.ACATMoneyTransferSent:
			s.Withdrawn = s.Withdrawn.Add(m.Amount.Abs())
		case binnaculum.InterestsGained, binnaculum.Lending:
			s.OtherIncome = s.OtherIncome.Add(m.Amount)
		case binnaculum.InterestsPaid:
			s.OtherIncome = s.OtherIncome.Sub(m.Amount.Abs())
		case binnaculum.Fee:
			s.Fees = s.Fees.Add(m.Amount.Abs())
		}
	}
	for _, t := range delta.Trades {
		s.NetCashFlow = s.NetCashFlow.Add(t.CashEffect())
		s.Commissions = s.Commissions.Add(t.Commissions.Abs())
		s.Fees = s.Fees.Add(t.Fees.Abs())
	}
	for _, o := range delta.OptionTrades {
		s.NetCashFlow = s.NetCashFlow.Add(o.NetPremium)
		s.OptionsIncome = s.OptionsIncome.Add(o.NetPremium)
		s.Commissions = s.Commissions.Add(o.Commissions.Abs())
		s.Fees = s.Fees.Add(o.Fees.Abs())
	}
	for _, d := range delta.Dividends {
		s.NetCashFlow = s.NetCashFlow.Add(d.Amount)
		s.DividendsReceived = s.DividendsReceived.Add(d.Amount)
	}
	for _, t := range delta.DividendTaxes {
		s.NetCashFlow = s.NetCashFlow.Sub(t.Amount.Abs())
		s.DividendTaxes = s.DividendTaxes.Add(t.Amount.Abs())
	}
}
