package snapshot

import (
	"context"

	"github.com/etnz/binnaculum"
	"github.com/etnz/binnaculum/common"
)

// BrokerManager maintains the snapshots of brokers. A broker snapshot sums
// the latest snapshots of its accounts on or before its day, so accounts
// must be up to date first.
type BrokerManager struct {
	*engine[binnaculum.BrokerFinancialSnapshot]
}

func NewBrokerManager(store binnaculum.Store, defaultCurrency string, log *common.Logger) *BrokerManager {
	src := source{store: store, defaultCurrency: defaultCurrency}
	calc := brokerCalculator{source: src, accounts: accountCalculator{src}}
	return &BrokerManager{newEngine("broker", store.BrokerSnapshots(), calc, log)}
}

type brokerCalculator struct {
	source
	accounts accountCalculator
}

func (c brokerCalculator) created(ctx context.Context, id int) (binnaculum.Date, error) {
	b, err := c.store.Broker(ctx, id)
	if err != nil {
		return binnaculum.Date{}, err
	}
	return b.CreatedAt.Date(), nil
}

func (c brokerCalculator) currencies(ctx context.Context, id int) ([]int, error) {
	accounts, err := c.store.BrokerAccountsByBroker(ctx, id)
	if err != nil {
		return nil, err
	}
	var ids []int
	for _, a := range accounts {
		cs, err := c.accounts.currencies(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, cs...)
	}
	return c.relevant(ctx, ids, 0)
}

func (c brokerCalculator) days(ctx context.Context, id int) ([]binnaculum.Date, error) {
	accounts, err := c.store.BrokerAccountsByBroker(ctx, id)
	if err != nil {
		return nil, err
	}
	var all []binnaculum.Date
	for _, a := range accounts {
		days, err := c.accounts.days(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		all = append(all, days...)
	}
	return sortedDays(all), nil
}

func (c brokerCalculator) compute(ctx context.Context, key binnaculum.SnapshotKey, day binnaculum.Date, _ *binnaculum.BrokerFinancialSnapshot) (binnaculum.BrokerFinancialSnapshot, error) {
	code, err := c.code(ctx, key.CurrencyID)
	if err != nil {
		return binnaculum.BrokerFinancialSnapshot{}, err
	}
	zero := binnaculum.M(0, code)
	s := binnaculum.BrokerFinancialSnapshot{
		Date: day, BrokerID: key.EntityID, CurrencyID: key.CurrencyID,
		Deposited: zero, Withdrawn: zero, Commissions: zero, Fees: zero,
		DividendsReceived: zero, DividendTaxes: zero, OptionsIncome: zero,
		OtherIncome: zero, Realized: zero, Invested: zero, MarketValue: zero, NetCashFlow: zero,
	}
	accounts, err := c.store.BrokerAccountsByBroker(ctx, key.EntityID)
	if err != nil {
		return s, err
	}
	repo := c.store.BrokerAccountSnapshots()
	for _, a := range accounts {
		as, ok, err := onOrBefore(ctx, repo, binnaculum.SnapshotKey{EntityID: a.ID, CurrencyID: key.CurrencyID}, day)
		if err != nil {
			return s, err
		}
		if !ok {
			continue
		}
		s.MovementCounter += as.MovementCounter
		s.Deposited = s.Deposited.Add(as.Deposited)
		s.Withdrawn = s.Withdrawn.Add(as.Withdrawn)
		s.Commissions = s.Commissions.Add(as.Commissions)
		s.Fees = s.Fees.Add(as.Fees)
		s.DividendsReceived = s.DividendsReceived.Add(as.DividendsReceived)
		s.DividendTaxes = s.DividendTaxes.Add(as.DividendTaxes)
		s.OptionsIncome = s.OptionsIncome.Add(as.OptionsIncome)
		s.OtherIncome = s.OtherIncome.Add(as.OtherIncome)
		s.Realized = s.Realized.Add(as.Realized)
		s.Invested = s.Invested.Add(as.Invested)
		s.MarketValue = s.MarketValue.Add(as.MarketValue)
		s.NetCashFlow = s.NetCashFlow.Add(as.NetCashFlow)
		s.OpenTrades = s.OpenTrades || as.OpenTrades
	}
	return s, nil
}
