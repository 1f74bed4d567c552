package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/etnz/binnaculum"
	"github.com/etnz/binnaculum/common"
	"github.com/etnz/binnaculum/overview"
)

// Service keeps every kind of snapshot consistent with the ledger.
//
// Tickers and broker accounts are independent of each other. Brokers and
// banks aggregate their accounts and are always refreshed after them.
type Service struct {
	Tickers      *TickerManager
	Accounts     *BrokerAccountManager
	Brokers      *BrokerManager
	BankAccounts *BankAccountManager
	Banks        *BankManager

	store   binnaculum.Store
	workers int
	log     *common.Logger
}

// NewService returns a Service on store. Entities without any movement nor
// home currency get snapshots in defaultCurrency. Recalculations run at most
// workers entities at a time.
func NewService(store binnaculum.Store, defaultCurrency string, workers int, log *common.Logger) *Service {
	log = common.OrSilent(log)
	return &Service{
		Tickers:      NewTickerManager(store, defaultCurrency, log),
		Accounts:     NewBrokerAccountManager(store, defaultCurrency, log),
		Brokers:      NewBrokerManager(store, defaultCurrency, log),
		BankAccounts: NewBankAccountManager(store, defaultCurrency, log),
		Banks:        NewBankManager(store, defaultCurrency, log),
		store:        store,
		workers:      workers,
		log:          log,
	}
}

// Refresh updates the snapshots touched by newly saved movements: the
// tickers and accounts they reference, then the brokers of those accounts.
// Ticker weights depend on every position in the same currency, so every
// ticker is cascaded from the earliest saved day.
func (s *Service) Refresh(ctx context.Context, saved binnaculum.Movements) error {
	earliest, ok := saved.Earliest()
	if !ok {
		return nil
	}
	var errs []error
	for _, id := range saved.BrokerAccountIDs() {
		if err := s.linkOptions(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}

	for _, id := range saved.TickerIDs() {
		if err := s.Tickers.Update(ctx, id, saved.Filter(nil, is(id)).Dates()); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, s.cascadeTickers(ctx, earliest)...)

	accounts := make(map[int][]binnaculum.Date)
	for _, id := range saved.BrokerAccountIDs() {
		accounts[id] = saved.Filter(is(id), nil).Dates()
	}
	errs = append(errs, s.updateAccounts(ctx, accounts)...)
	if err := errors.Join(errs...); err != nil {
		s.log.Error().Err(err).Msg("snapshot refresh incomplete")
		return err
	}
	return nil
}

// RefreshSplits updates the snapshots after newly saved splits: the split
// tickers get a snapshot on the split day, every ticker is cascaded for the
// weights, and the broker accounts that traded the tickers are updated.
func (s *Service) RefreshSplits(ctx context.Context, splits []binnaculum.TickerSplit) error {
	if len(splits) == 0 {
		return nil
	}
	var errs []error
	earliest := splits[0].Date
	accounts := make(map[int][]binnaculum.Date)
	for _, sp := range splits {
		if sp.Date.Before(earliest) {
			earliest = sp.Date
		}
		if err := s.Tickers.Update(ctx, sp.TickerID, []binnaculum.Date{sp.Date}); err != nil {
			errs = append(errs, err)
		}
		m, err := s.store.Movements(ctx, binnaculum.MovementFilter{TickerID: sp.TickerID})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, id := range m.BrokerAccountIDs() {
			accounts[id] = append(accounts[id], sp.Date)
		}
	}
	errs = append(errs, s.cascadeTickers(ctx, earliest)...)
	errs = append(errs, s.updateAccounts(ctx, accounts)...)
	if err := errors.Join(errs...); err != nil {
		s.log.Error().Err(err).Msg("snapshot refresh after splits incomplete")
		return err
	}
	return nil
}

// cascadeTickers recomputes every ticker snapshot from day on.
func (s *Service) cascadeTickers(ctx context.Context, day binnaculum.Date) []error {
	tickers, err := s.store.Tickers(ctx)
	if err != nil {
		return []error{err}
	}
	ids := make([]int, 0, len(tickers))
	for _, t := range tickers {
		ids = append(ids, t.ID)
	}
	cascade := func(ctx context.Context, id int) error {
		_, err := s.Tickers.CascadeUpdate(ctx, id, day.Add(-1))
		return err
	}
	return failures(RecalculateAll(ctx, s.workers, ids, cascade))
}

// updateAccounts updates the broker accounts on the given days, then their
// brokers.
func (s *Service) updateAccounts(ctx context.Context, accounts map[int][]binnaculum.Date) []error {
	var errs []error
	brokers := make(map[int][]binnaculum.Date)
	for id, days := range accounts {
		if err := s.Accounts.Update(ctx, id, days); err != nil {
			errs = append(errs, err)
			continue
		}
		a, err := s.store.BrokerAccount(ctx, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		brokers[a.BrokerID] = append(brokers[a.BrokerID], days...)
	}
	for id, days := range brokers {
		if err := s.Brokers.Update(ctx, id, days); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// linkOptions records which contract closed each opening contract of the account.
func (s *Service) linkOptions(ctx context.Context, accountID int) error {
	m, err := s.store.Movements(ctx, binnaculum.MovementFilter{BrokerAccountID: accountID})
	if err != nil {
		return err
	}
	links := binnaculum.LinkOptions(m.OptionTrades)
	if len(links) == 0 {
		return nil
	}
	if err := s.store.LinkOptionTrades(ctx, links); err != nil {
		return fmt.Errorf("linking options of broker account %d: %w", accountID, err)
	}
	return nil
}

// RefreshBankAccount updates the snapshots of a bank account and of its
// bank after a movement on day.
func (s *Service) RefreshBankAccount(ctx context.Context, bankAccountID int, day binnaculum.Date) error {
	a, err := s.store.BankAccount(ctx, bankAccountID)
	if err != nil {
		return fmt.Errorf("bank account snapshots: %w", err)
	}
	if err := s.BankAccounts.Update(ctx, bankAccountID, []binnaculum.Date{day}); err != nil {
		return err
	}
	return s.Banks.Update(ctx, a.BankID, []binnaculum.Date{day})
}

// RefreshPrices updates the snapshots valued with prices stored on day for
// the given tickers.
func (s *Service) RefreshPrices(ctx context.Context, day binnaculum.Date, tickerIDs []int) error {
	var errs []error
	for _, id := range tickerIDs {
		if err := s.Tickers.Update(ctx, id, []binnaculum.Date{day}); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, s.cascadeTickers(ctx, day)...)
	all, err := s.store.BrokerAccounts(ctx)
	if err != nil {
		return errors.Join(append(errs, err)...)
	}
	accounts := make(map[int][]binnaculum.Date, len(all))
	for _, a := range all {
		accounts[a.ID] = []binnaculum.Date{day}
	}
	errs = append(errs, s.updateAccounts(ctx, accounts)...)
	return errors.Join(errs...)
}

// RecalculateEverything recomputes every snapshot from the given day on,
// fanning out over entities of the same kind. A zero from recomputes the
// whole history. Each result carries the error of its own entity.
func (s *Service) RecalculateEverything(ctx context.Context, from binnaculum.Date) ([]Result, error) {
	ids, err := s.entities(ctx)
	if err != nil {
		return nil, err
	}
	recalc := func(kind string, ids []int, fn func(context.Context, int, binnaculum.Date) error) []Result {
		res := RecalculateAll(ctx, s.workers, ids, func(ctx context.Context, id int) error {
			return fn(ctx, id, from)
		})
		for i := range res {
			res[i].Kind = kind
		}
		return res
	}

	var all []Result
	all = append(all, recalc("ticker", ids.tickers, s.Tickers.Recalculate)...)
	all = append(all, recalc("broker account", ids.accounts, s.Accounts.Recalculate)...)
	all = append(all, recalc("broker", ids.brokers, s.Brokers.Recalculate)...)
	all = append(all, recalc("bank account", ids.bankAccounts, s.BankAccounts.Recalculate)...)
	all = append(all, recalc("bank", ids.banks, s.Banks.Recalculate)...)

	failed := failures(all)
	s.log.Info().Int("entities", len(all)).Int("failed", len(failed)).Msg("snapshots recalculated")
	return all, errors.Join(failed...)
}

type entityIDs struct {
	tickers, accounts, brokers, bankAccounts, banks []int
}

func (s *Service) entities(ctx context.Context) (entityIDs, error) {
	var ids entityIDs
	tickers, err := s.store.Tickers(ctx)
	if err != nil {
		return ids, err
	}
	for _, t := range tickers {
		ids.tickers = append(ids.tickers, t.ID)
	}
	accounts, err := s.store.BrokerAccounts(ctx)
	if err != nil {
		return ids, err
	}
	for _, a := range accounts {
		ids.accounts = append(ids.accounts, a.ID)
	}
	brokers, err := s.store.Brokers(ctx)
	if err != nil {
		return ids, err
	}
	for _, b := range brokers {
		ids.brokers = append(ids.brokers, b.ID)
	}
	bankAccounts, err := s.store.BankAccounts(ctx)
	if err != nil {
		return ids, err
	}
	for _, a := range bankAccounts {
		ids.bankAccounts = append(ids.bankAccounts, a.ID)
	}
	banks, err := s.store.Banks(ctx)
	if err != nil {
		return ids, err
	}
	for _, b := range banks {
		ids.banks = append(ids.banks, b.ID)
	}
	return ids, nil
}

func failures(results []Result) []error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}

// Overviews returns the latest snapshot of every entity and currency,
// merged into one collection per category. A category without any snapshot
// holds a single Empty placeholder.
func (s *Service) Overviews(ctx context.Context) (*overview.Board, error) {
	board := &overview.Board{}

	brokers, err := s.store.Brokers(ctx)
	if err != nil {
		return nil, err
	}
	for _, b := range brokers {
		snaps, err := latest(ctx, s.store.BrokerSnapshots(), b.ID)
		if err != nil {
			return nil, err
		}
		for _, snap := range snaps {
			overview.Merge(&board.Brokers, overview.OfBroker(b, snap))
		}
	}

	accounts, err := s.store.BrokerAccounts(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		snaps, err := latest(ctx, s.store.BrokerAccountSnapshots(), a.ID)
		if err != nil {
			return nil, err
		}
		for _, snap := range snaps {
			overview.Merge(&board.BrokerAccounts, overview.OfBrokerAccount(a, snap))
		}
	}

	banks, err := s.store.Banks(ctx)
	if err != nil {
		return nil, err
	}
	for _, b := range banks {
		snaps, err := latest(ctx, s.store.BankSnapshots(), b.ID)
		if err != nil {
			return nil, err
		}
		for _, snap := range snaps {
			overview.Merge(&board.Banks, overview.OfBank(b, snap))
		}
	}

	bankAccounts, err := s.store.BankAccounts(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range bankAccounts {
		snaps, err := latest(ctx, s.store.BankAccountSnapshots(), a.ID)
		if err != nil {
			return nil, err
		}
		for _, snap := range snaps {
			overview.Merge(&board.BankAccounts, overview.OfBankAccount(a, snap))
		}
	}

	for _, l := range []*overview.List{&board.Brokers, &board.BrokerAccounts, &board.Banks, &board.BankAccounts} {
		overview.Merge(l, overview.Empty())
	}
	return board, nil
}

// latest returns the most recent snapshot of every currency of the entity.
func latest[S binnaculum.Snapshot](ctx context.Context, repo binnaculum.SnapshotRepository[S], entityID int) ([]S, error) {
	keys, err := repo.Keys(ctx, entityID)
	if err != nil {
		return nil, err
	}
	res := make([]S, 0, len(keys))
	for _, k := range keys {
		s, err := repo.Latest(ctx, k)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, nil
}
