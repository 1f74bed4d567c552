package memory

import (
	"context"
	"slices"

	"github.com/etnz/binnaculum"
)

func (s *Store) SaveMovements(ctx context.Context, m binnaculum.Movements) (binnaculum.Movements, error) {
	if err := ctx.Err(); err != nil {
		return binnaculum.Movements{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range m.BrokerAccountIDs() {
		if _, err := find(s.accounts, id, func(a binnaculum.BrokerAccount) int { return a.ID }, "broker account"); err != nil {
			return binnaculum.Movements{}, err
		}
	}
	var saved binnaculum.Movements
	for _, x := range m.BrokerMovements {
		x.ID = s.id()
		saved.BrokerMovements = append(saved.BrokerMovements, x)
	}
	for _, x := range m.Trades {
		x.ID = s.id()
		saved.Trades = append(saved.Trades, x)
	}
	for _, x := range m.OptionTrades {
		x.ID = s.id()
		saved.OptionTrades = append(saved.OptionTrades, x)
	}
	for _, x := range m.Dividends {
		x.ID = s.id()
		saved.Dividends = append(saved.Dividends, x)
	}
	for _, x := range m.DividendTaxes {
		x.ID = s.id()
		saved.DividendTaxes = append(saved.DividendTaxes, x)
	}
	s.ledger.Append(saved)
	return saved, nil
}

func (s *Store) Movements(ctx context.Context, f binnaculum.MovementFilter) (binnaculum.Movements, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account := func(id int) bool { return f.BrokerAccountID == 0 || id == f.BrokerAccountID }
	ticker := func(id int) bool { return f.TickerID == 0 || id == f.TickerID }
	return s.ledger.Filter(account, ticker), nil
}

func (s *Store) LinkOptionTrades(ctx context.Context, links []binnaculum.OptionLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range links {
		i := slices.IndexFunc(s.ledger.OptionTrades, func(o binnaculum.OptionTrade) bool { return o.ID == l.OpenID })
		if i < 0 {
			return &binnaculum.LookupError{Kind: "option trade", ID: l.OpenID}
		}
		s.ledger.OptionTrades[i].IsOpen = false
		s.ledger.OptionTrades[i].ClosedWith = l.CloseID
	}
	return nil
}

func (s *Store) SaveBankMovement(ctx context.Context, m binnaculum.BankAccountMovement) (binnaculum.BankAccountMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := find(s.bankAccounts, m.BankAccountID, func(a binnaculum.BankAccount) int { return a.ID }, "bank account"); err != nil {
		return m, err
	}
	m.ID = s.id()
	s.bankMovements = append(s.bankMovements, m)
	return m, nil
}

func (s *Store) BankMovements(ctx context.Context, bankAccountID int) ([]binnaculum.BankAccountMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []binnaculum.BankAccountMovement
	for _, m := range s.bankMovements {
		if m.BankAccountID == bankAccountID {
			res = append(res, m)
		}
	}
	return res, nil
}

func (s *Store) SaveTickerSplit(ctx context.Context, split binnaculum.TickerSplit) (binnaculum.TickerSplit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	split.ID = s.id()
	s.splits = append(s.splits, split)
	return split, nil
}

func (s *Store) TickerSplits(ctx context.Context, tickerID int) ([]binnaculum.TickerSplit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []binnaculum.TickerSplit
	for _, split := range s.splits {
		if split.TickerID == tickerID {
			res = append(res, split)
		}
	}
	return res, nil
}

// SaveTickerPrice keeps one price per ticker and day, the last one saved.
func (s *Store) SaveTickerPrice(ctx context.Context, p binnaculum.TickerPrice) (binnaculum.TickerPrice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.prices, func(x binnaculum.TickerPrice) bool { return x.TickerID == p.TickerID && x.Date == p.Date })
	if i >= 0 {
		p.ID = s.prices[i].ID
		s.prices[i] = p
		return p, nil
	}
	p.ID = s.id()
	s.prices = append(s.prices, p)
	return p, nil
}

func (s *Store) LatestTickerPrice(ctx context.Context, tickerID int, on binnaculum.Date) (binnaculum.TickerPrice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest binnaculum.TickerPrice
	found := false
	for _, p := range s.prices {
		if p.TickerID != tickerID || p.Date.After(on) {
			continue
		}
		if !found || p.Date.After(latest.Date) {
			latest, found = p, true
		}
	}
	if !found {
		return latest, binnaculum.ErrNotFound
	}
	return latest, nil
}
