// Package memory implements binnaculum.Store in memory. It backs dry-run
// imports and tests.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/etnz/binnaculum"
)

// Store is a binnaculum.Store keeping everything in memory. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	nextID int

	currencies   []binnaculum.Currency
	tickers      []binnaculum.Ticker
	brokers      []binnaculum.Broker
	accounts     []binnaculum.BrokerAccount
	banks        []binnaculum.Bank
	bankAccounts []binnaculum.BankAccount

	ledger        binnaculum.Movements
	bankMovements []binnaculum.BankAccountMovement
	splits        []binnaculum.TickerSplit
	prices        []binnaculum.TickerPrice

	tickerSnapshots      *Repository[binnaculum.TickerCurrencySnapshot]
	accountSnapshots     *Repository[binnaculum.BrokerFinancialSnapshot]
	brokerSnapshots      *Repository[binnaculum.BrokerFinancialSnapshot]
	bankAccountSnapshots *Repository[binnaculum.BankAccountSnapshot]
	bankSnapshots        *Repository[binnaculum.BankSnapshot]
}

var _ binnaculum.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		tickerSnapshots:      NewRepository[binnaculum.TickerCurrencySnapshot](),
		accountSnapshots:     NewRepository[binnaculum.BrokerFinancialSnapshot](),
		brokerSnapshots:      NewRepository[binnaculum.BrokerFinancialSnapshot](),
		bankAccountSnapshots: NewRepository[binnaculum.BankAccountSnapshot](),
		bankSnapshots:        NewRepository[binnaculum.BankSnapshot](),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) TickerSnapshots() binnaculum.SnapshotRepository[binnaculum.TickerCurrencySnapshot] {
	return s.tickerSnapshots
}
func (s *Store) BrokerAccountSnapshots() binnaculum.SnapshotRepository[binnaculum.BrokerFinancialSnapshot] {
	return s.accountSnapshots
}
func (s *Store) BrokerSnapshots() binnaculum.SnapshotRepository[binnaculum.BrokerFinancialSnapshot] {
	return s.brokerSnapshots
}
func (s *Store) BankAccountSnapshots() binnaculum.SnapshotRepository[binnaculum.BankAccountSnapshot] {
	return s.bankAccountSnapshots
}
func (s *Store) BankSnapshots() binnaculum.SnapshotRepository[binnaculum.BankSnapshot] {
	return s.bankSnapshots
}

// id returns a new id. The lock must be held.
func (s *Store) id() int {
	s.nextID++
	return s.nextID
}

func stamp(t binnaculum.DateTime) binnaculum.DateTime {
	if t.IsZero() {
		return binnaculum.Now()
	}
	return t
}

// find returns the item with the id.
func find[T any](items []T, id int, idOf func(T) int, kind string) (T, error) {
	for _, it := range items {
		if idOf(it) == id {
			return it, nil
		}
	}
	var zero T
	return zero, &binnaculum.LookupError{Kind: kind, ID: id}
}

// save replaces the item with the same id, or appends it.
func save[T any](items []T, it T, idOf func(T) int) []T {
	if i := slices.IndexFunc(items, func(x T) bool { return idOf(x) == idOf(it) }); i >= 0 {
		items[i] = it
		return items
	}
	return append(items, it)
}

func (s *Store) UpsertCurrency(ctx context.Context, code string) (binnaculum.Currency, bool, error) {
	code = strings.ToUpper(code)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.currencies {
		if c.Code == code {
			return c, false, nil
		}
	}
	c := binnaculum.Currency{ID: s.id(), Code: code}
	s.currencies = append(s.currencies, c)
	return c, true, nil
}

func (s *Store) Currency(ctx context.Context, id int) (binnaculum.Currency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.currencies, id, func(c binnaculum.Currency) int { return c.ID }, "currency")
}

func (s *Store) CurrencyByCode(ctx context.Context, code string) (binnaculum.Currency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.currencies {
		if c.Code == strings.ToUpper(code) {
			return c, nil
		}
	}
	return binnaculum.Currency{}, binnaculum.ErrNotFound
}

func (s *Store) Currencies(ctx context.Context) ([]binnaculum.Currency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.currencies), nil
}

func (s *Store) UpsertTicker(ctx context.Context, symbol string, currencyID int) (binnaculum.Ticker, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tickers {
		if t.Symbol == symbol {
			return t, false, nil
		}
	}
	t := binnaculum.Ticker{ID: s.id(), Symbol: symbol, CurrencyID: currencyID, CreatedAt: binnaculum.Now()}
	s.tickers = append(s.tickers, t)
	return t, true, nil
}

func (s *Store) Ticker(ctx context.Context, id int) (binnaculum.Ticker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.tickers, id, func(t binnaculum.Ticker) int { return t.ID }, "ticker")
}

func (s *Store) Tickers(ctx context.Context) ([]binnaculum.Ticker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tickers), nil
}

func (s *Store) SaveBroker(ctx context.Context, b binnaculum.Broker) (binnaculum.Broker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == 0 {
		b.ID = s.id()
	}
	b.CreatedAt = stamp(b.CreatedAt)
	s.brokers = save(s.brokers, b, func(b binnaculum.Broker) int { return b.ID })
	return b, nil
}

func (s *Store) Broker(ctx context.Context, id int) (binnaculum.Broker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.brokers, id, func(b binnaculum.Broker) int { return b.ID }, "broker")
}

func (s *Store) Brokers(ctx context.Context) ([]binnaculum.Broker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.brokers), nil
}

func (s *Store) SaveBrokerAccount(ctx context.Context, a binnaculum.BrokerAccount) (binnaculum.BrokerAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := find(s.brokers, a.BrokerID, func(b binnaculum.Broker) int { return b.ID }, "broker"); err != nil {
		return a, err
	}
	if a.ID == 0 {
		a.ID = s.id()
	}
	a.CreatedAt = stamp(a.CreatedAt)
	s.accounts = save(s.accounts, a, func(a binnaculum.BrokerAccount) int { return a.ID })
	return a, nil
}

func (s *Store) BrokerAccount(ctx context.Context, id int) (binnaculum.BrokerAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.accounts, id, func(a binnaculum.BrokerAccount) int { return a.ID }, "broker account")
}

func (s *Store) BrokerAccounts(ctx context.Context) ([]binnaculum.BrokerAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.accounts), nil
}

func (s *Store) BrokerAccountsByBroker(ctx context.Context, brokerID int) ([]binnaculum.BrokerAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []binnaculum.BrokerAccount
	for _, a := range s.accounts {
		if a.BrokerID == brokerID {
			res = append(res, a)
		}
	}
	return res, nil
}

func (s *Store) SaveBank(ctx context.Context, b binnaculum.Bank) (binnaculum.Bank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == 0 {
		b.ID = s.id()
	}
	b.CreatedAt = stamp(b.CreatedAt)
	s.banks = save(s.banks, b, func(b binnaculum.Bank) int { return b.ID })
	return b, nil
}

func (s *Store) Bank(ctx context.Context, id int) (binnaculum.Bank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.banks, id, func(b binnaculum.Bank) int { return b.ID }, "bank")
}

func (s *Store) Banks(ctx context.Context) ([]binnaculum.Bank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.banks), nil
}

func (s *Store) SaveBankAccount(ctx context.Context, a binnaculum.BankAccount) (binnaculum.BankAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := find(s.banks, a.BankID, func(b binnaculum.Bank) int { return b.ID }, "bank"); err != nil {
		return a, err
	}
	if a.ID == 0 {
		a.ID = s.id()
	}
	a.CreatedAt = stamp(a.CreatedAt)
	s.bankAccounts = save(s.bankAccounts, a, func(a binnaculum.BankAccount) int { return a.ID })
	return a, nil
}

func (s *Store) BankAccount(ctx context.Context, id int) (binnaculum.BankAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.bankAccounts, id, func(a binnaculum.BankAccount) int { return a.ID }, "bank account")
}

func (s *Store) BankAccounts(ctx context.Context) ([]binnaculum.BankAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.bankAccounts), nil
}

func (s *Store) BankAccountsByBank(ctx context.Context, bankID int) ([]binnaculum.BankAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []binnaculum.BankAccount
	for _, a := range s.bankAccounts {
		if a.BankID == bankID {
			res = append(res, a)
		}
	}
	return res, nil
}
