package snapshot

import (
	"context"

	"github.com/etnz/binnaculum"
	"github.com/etnz/binnaculum/common"
)

// BankAccountManager maintains the snapshots of bank accounts.
type BankAccountManager struct {
	*engine[binnaculum.BankAccountSnapshot]
}

func NewBankAccountManager(store binnaculum.Store, defaultCurrency string, log *common.Logger) *BankAccountManager {
	calc := bankAccountCalculator{source{store: store, defaultCurrency: defaultCurrency}}
	return &BankAccountManager{newEngine("bank account", store.BankAccountSnapshots(), calc, log)}
}

type bankAccountCalculator struct {
	source
}

func (c bankAccountCalculator) created(ctx context.Context, id int) (binnaculum.Date, error) {
	a, err := c.store.BankAccount(ctx, id)
	if err != nil {
		return binnaculum.Date{}, err
	}
	return a.CreatedAt.Date(), nil
}

func (c bankAccountCalculator) currencies(ctx context.Context, id int) ([]int, error) {
	a, err := c.store.BankAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	movements, err := c.store.BankMovements(ctx, id)
	if err != nil {
		return nil, err
	}
	ids := []int{a.CurrencyID}
	for _, m := range movements {
		ids = append(ids, m.CurrencyID)
	}
	return c.relevant(ctx, ids, a.CurrencyID)
}

func (c bankAccountCalculator) days(ctx context.Context, id int) ([]binnaculum.Date, error) {
	movements, err := c.store.BankMovements(ctx, id)
	if err != nil {
		return nil, err
	}
	days := make([]binnaculum.Date, 0, len(movements))
	for _, m := range movements {
		days = append(days, m.TimeStamp.Date())
	}
	return sortedDays(days), nil
}

func (c bankAccountCalculator) compute(ctx context.Context, key binnaculum.SnapshotKey, day binnaculum.Date, prev *binnaculum.BankAccountSnapshot) (binnaculum.BankAccountSnapshot, error) {
	code, err := c.code(ctx, key.CurrencyID)
	if err != nil {
		return binnaculum.BankAccountSnapshot{}, err
	}
	zero := binnaculum.M(0, code)
	s := binnaculum.BankAccountSnapshot{
		Date: day, BankAccountID: key.EntityID, CurrencyID: key.CurrencyID,
		Balance: zero, InterestEarned: zero, FeesPaid: zero,
	}
	var since binnaculum.Date
	if prev != nil {
		s.Balance, s.InterestEarned, s.FeesPaid, s.MovementCounter = prev.Balance, prev.InterestEarned, prev.FeesPaid, prev.MovementCounter
		since = prev.Date
	}
	movements, err := c.store.BankMovements(ctx, key.EntityID)
	if err != nil {
		return s, err
	}
	for _, m := range movements {
		d := m.TimeStamp.Date()
		if m.CurrencyID != key.CurrencyID || d.After(day) || (!since.IsZero() && !d.After(since)) {
			continue
		}
		s.MovementCounter++
		switch m.MovementType {
		case binnaculum.Balance:
			s.Balance = s.Balance.Add(m.Amount)
		case binnaculum.Interest:
			s.Balance = s.Balance.Add(m.Amount)
			s.InterestEarned = s.InterestEarned.Add(m.Amount)
		case binnaculum.BankFee:
			s.Balance = s.Balance.Sub(m.Amount.Abs())
			s.FeesPaid = s.FeesPaid.Add(m.Amount.Abs())
		}
	}
	return s, nil
}

// BankManager maintains the snapshots of banks, the sum of the snapshots of
// their accounts.
type BankManager struct {
	*engine[binnaculum.BankSnapshot]
}

func NewBankManager(store binnaculum.Store, defaultCurrency string, log *common.Logger) *BankManager {
	src := source{store: store, defaultCurrency: defaultCurrency}
	calc := bankCalculator{source: src, accounts: bankAccountCalculator{src}}
	return &BankManager{newEngine("bank", store.BankSnapshots(), calc, log)}
}

type bankCalculator struct {
	source
	accounts bankAccountCalculator
}

func (c bankCalculator) created(ctx context.Context, id int) (binnaculum.Date, error) {
	b, err := c.store.Bank(ctx, id)
	if err != nil {
		return binnaculum.Date{}, err
	}
	return b.CreatedAt.Date(), nil
}

func (c bankCalculator) currencies(ctx context.Context, id int) ([]int, error) {
	accounts, err := c.store.BankAccountsByBank(ctx, id)
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

func (c bankCalculator) days(ctx context.Context, id int) ([]binnaculum.Date, error) {
	accounts, err := c.store.BankAccountsByBank(ctx, id)
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

func (c bankCalculator) compute(ctx context.Context, key binnaculum.SnapshotKey, day binnaculum.Date, _ *binnaculum.BankSnapshot) (binnaculum.BankSnapshot, error) {
	code, err := c.code(ctx, key.CurrencyID)
	if err != nil {
		return binnaculum.BankSnapshot{}, err
	}
	zero := binnaculum.M(0, code)
	s := binnaculum.BankSnapshot{
		Date: day, BankID: key.EntityID, CurrencyID: key.CurrencyID,
		Balance: zero, InterestEarned: zero, FeesPaid: zero,
	}
	accounts, err := c.store.BankAccountsByBank(ctx, key.EntityID)
	if err != nil {
		return s, err
	}
	repo := c.store.BankAccountSnapshots()
	for _, a := range accounts {
		as, ok, err := onOrBefore(ctx, repo, binnaculum.SnapshotKey{EntityID: a.ID, CurrencyID: key.CurrencyID}, day)
		if err != nil {
			return s, err
		}
		if !ok {
			continue
		}
		s.AccountCount++
		s.MovementCounter += as.MovementCounter
		s.Balance = s.Balance.Add(as.Balance)
		s.InterestEarned = s.InterestEarned.Add(as.InterestEarned)
		s.FeesPaid = s.FeesPaid.Add(as.FeesPaid)
	}
	return s, nil
}
