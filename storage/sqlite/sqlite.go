// Package sqlite implements binnaculum.Store on a SQLite database.
//
// Reference entities have their own tables. Ledger records and snapshots are
// stored as json documents next to the columns they are looked up by.
package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/etnz/binnaculum"
	"github.com/etnz/binnaculum/common"
	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is a binnaculum.Store backed by SQLite.
type Store struct {
	db  *sql.DB
	log *common.Logger

	tickerSnapshots      *Repository[binnaculum.TickerCurrencySnapshot]
	accountSnapshots     *Repository[binnaculum.BrokerFinancialSnapshot]
	brokerSnapshots      *Repository[binnaculum.BrokerFinancialSnapshot]
	bankAccountSnapshots *Repository[binnaculum.BankAccountSnapshot]
	bankSnapshots        *Repository[binnaculum.BankSnapshot]
}

var _ binnaculum.Store = (*Store)(nil)

// Open opens the database at path, creating it if needed, and applies the
// pending migrations.
func Open(path string, log *common.Logger) (*Store, error) {
	log = common.OrSilent(log)
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	// a single connection serializes writers, SQLite would lock otherwise.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	if err := migrateUp(db, log); err != nil {
		db.Close()
		return nil, err
	}
	log.Debug().Str("path", path).Msg("database opened")
	return &Store{
		db:                   db,
		log:                  log,
		tickerSnapshots:      newRepository[binnaculum.TickerCurrencySnapshot](db, "ticker"),
		accountSnapshots:     newRepository[binnaculum.BrokerFinancialSnapshot](db, "broker_account"),
		brokerSnapshots:      newRepository[binnaculum.BrokerFinancialSnapshot](db, "broker"),
		bankAccountSnapshots: newRepository[binnaculum.BankAccountSnapshot](db, "bank_account"),
		bankSnapshots:        newRepository[binnaculum.BankSnapshot](db, "bank"),
	}, nil
}

func migrateUp(db *sql.DB, log *common.Logger) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("reading migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("creating migration: %w", err)
	}
	// m is not closed: closing it would close db.
	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		log.Debug().Msg("no database migration to apply")
	case err != nil:
		return fmt.Errorf("applying migrations: %w", err)
	default:
		log.Info().Msg("database migrations applied")
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

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

// stamp returns t, or now when t is not set.
func stamp(t binnaculum.DateTime) binnaculum.DateTime {
	if t.IsZero() {
		return binnaculum.Now()
	}
	return t
}

// notFound turns sql.ErrNoRows into a LookupError.
func notFound(err error, kind string, id int) error {
	if errors.Is(err, sql.ErrNoRows) {
		return &binnaculum.LookupError{Kind: kind, ID: id}
	}
	return err
}
