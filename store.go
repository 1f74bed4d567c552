package binnaculum

import "context"

// EntityStore persists the reference entities.
//
// UpsertCurrency and UpsertTicker are atomic upserts by natural key: two
// concurrent imports creating the same symbol get the same record.
type EntityStore interface {
	UpsertCurrency(ctx context.Context, code string) (c Currency, created bool, err error)
	Currency(ctx context.Context, id int) (Currency, error)
	CurrencyByCode(ctx context.Context, code string) (Currency, error)
	Currencies(ctx context.Context) ([]Currency, error)

	UpsertTicker(ctx context.Context, symbol string, currencyID int) (t Ticker, created bool, err error)
	Ticker(ctx context.Context, id int) (Ticker, error)
	Tickers(ctx context.Context) ([]Ticker, error)

	SaveBroker(ctx context.Context, b Broker) (Broker, error)
	Broker(ctx context.Context, id int) (Broker, error)
	Brokers(ctx context.Context) ([]Broker, error)

	SaveBrokerAccount(ctx context.Context, a BrokerAccount) (BrokerAccount, error)
	BrokerAccount(ctx context.Context, id int) (BrokerAccount, error)
	BrokerAccounts(ctx context.Context) ([]BrokerAccount, error)
	BrokerAccountsByBroker(ctx context.Context, brokerID int) ([]BrokerAccount, error)

	SaveBank(ctx context.Context, b Bank) (Bank, error)
	Bank(ctx context.Context, id int) (Bank, error)
	Banks(ctx context.Context) ([]Bank, error)

	SaveBankAccount(ctx context.Context, a BankAccount) (BankAccount, error)
	BankAccount(ctx context.Context, id int) (BankAccount, error)
	BankAccounts(ctx context.Context) ([]BankAccount, error)
	BankAccountsByBank(ctx context.Context, bankID int) ([]BankAccount, error)
}

// MovementFilter selects broker records. Zero fields match everything.
type MovementFilter struct {
	BrokerAccountID int
	TickerID        int
}

// Match reports whether the ids pass the filter.
func (f MovementFilter) Match(brokerAccountID, tickerID int) bool {
	return (f.BrokerAccountID == 0 || f.BrokerAccountID == brokerAccountID) &&
		(f.TickerID == 0 || f.TickerID == tickerID)
}

// LedgerStore persists the movement records.
type LedgerStore interface {
	// SaveMovements stores the bundle in a single transaction and returns it with ids assigned.
	SaveMovements(ctx context.Context, m Movements) (Movements, error)
	Movements(ctx context.Context, f MovementFilter) (Movements, error)
	// LinkOptionTrades marks opening contracts as closed by the given contracts.
	LinkOptionTrades(ctx context.Context, links []OptionLink) error

	SaveBankMovement(ctx context.Context, m BankAccountMovement) (BankAccountMovement, error)
	BankMovements(ctx context.Context, bankAccountID int) ([]BankAccountMovement, error)

	SaveTickerSplit(ctx context.Context, s TickerSplit) (TickerSplit, error)
	TickerSplits(ctx context.Context, tickerID int) ([]TickerSplit, error)

	SaveTickerPrice(ctx context.Context, p TickerPrice) (TickerPrice, error)
	// LatestTickerPrice returns the last price on or before the given day.
	LatestTickerPrice(ctx context.Context, tickerID int, on Date) (TickerPrice, error)
}

// SnapshotRepository stores one kind of snapshot. Lookups not matching any
// snapshot return ErrNotFound.
type SnapshotRepository[S Snapshot] interface {
	// Latest returns the most recent snapshot of the key.
	Latest(ctx context.Context, key SnapshotKey) (S, error)
	// ByKeyAndDate returns the snapshot of the key on exactly that day.
	ByKeyAndDate(ctx context.Context, key SnapshotKey, on Date) (S, error)
	// Before returns the nearest snapshot strictly before the day.
	Before(ctx context.Context, key SnapshotKey, on Date) (S, error)
	// After returns the snapshots strictly after the day, ascending.
	After(ctx context.Context, key SnapshotKey, on Date) ([]S, error)
	// All returns every snapshot of the key, ascending.
	All(ctx context.Context, key SnapshotKey) ([]S, error)
	// Keys returns the keys having at least one snapshot for the entity.
	Keys(ctx context.Context, entityID int) ([]SnapshotKey, error)
	// Save inserts or replaces the snapshot of the same key and day.
	Save(ctx context.Context, s S) error
	// InsertIfNotExists saves s unless a snapshot of the same key and day exists.
	InsertIfNotExists(ctx context.Context, s S) (inserted bool, err error)
}

// Store is the complete storage collaborator.
type Store interface {
	EntityStore
	LedgerStore
	TickerSnapshots() SnapshotRepository[TickerCurrencySnapshot]
	BrokerAccountSnapshots() SnapshotRepository[BrokerFinancialSnapshot]
	BrokerSnapshots() SnapshotRepository[BrokerFinancialSnapshot]
	BankAccountSnapshots() SnapshotRepository[BankAccountSnapshot]
	BankSnapshots() SnapshotRepository[BankSnapshot]
	Close() error
}
