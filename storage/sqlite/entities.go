package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/etnz/binnaculum"
)

// scanner is a *sql.Row or *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// collect scans every row with scan.
func collect[T any](rows *sql.Rows, err error, scan func(scanner) (T, error)) ([]T, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []T
	for rows.Next() {
		it, err := scan(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, it)
	}
	return res, rows.Err()
}

// timestamp parses a created_at column.
func timestamp(dst *binnaculum.DateTime, src string) error {
	t, err := binnaculum.ParseDateTime(src)
	if err != nil {
		return err
	}
	*dst = t
	return nil
}

func scanCurrency(r scanner) (binnaculum.Currency, error) {
	var c binnaculum.Currency
	err := r.Scan(&c.ID, &c.Code, &c.Name)
	return c, err
}

// UpsertCurrency creates the currency of code unless it exists. It relies on
// the unique code column, concurrent callers get the same currency.
func (s *Store) UpsertCurrency(ctx context.Context, code string) (binnaculum.Currency, bool, error) {
	code = strings.ToUpper(code)
	res, err := s.db.ExecContext(ctx, `INSERT INTO currencies (code) VALUES (?) ON CONFLICT(code) DO NOTHING`, code)
	if err != nil {
		return binnaculum.Currency{}, false, fmt.Errorf("upserting currency %s: %w", code, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return binnaculum.Currency{}, false, err
	}
	c, err := s.CurrencyByCode(ctx, code)
	return c, n > 0, err
}

func (s *Store) Currency(ctx context.Context, id int) (binnaculum.Currency, error) {
	c, err := scanCurrency(s.db.QueryRowContext(ctx, `SELECT id, code, name FROM currencies WHERE id = ?`, id))
	return c, notFound(err, "currency", id)
}

func (s *Store) CurrencyByCode(ctx context.Context, code string) (binnaculum.Currency, error) {
	c, err := scanCurrency(s.db.QueryRowContext(ctx, `SELECT id, code, name FROM currencies WHERE code = ?`, strings.ToUpper(code)))
	if errors.Is(err, sql.ErrNoRows) {
		return c, fmt.Errorf("currency %s: %w", code, binnaculum.ErrNotFound)
	}
	return c, err
}

func (s *Store) Currencies(ctx context.Context) ([]binnaculum.Currency, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, code, name FROM currencies ORDER BY id`)
	return collect(rows, err, scanCurrency)
}

const tickerColumns = `id, symbol, name, currency_id, created_at`

func scanTicker(r scanner) (binnaculum.Ticker, error) {
	var t binnaculum.Ticker
	var created string
	if err := r.Scan(&t.ID, &t.Symbol, &t.Name, &t.CurrencyID, &created); err != nil {
		return t, err
	}
	return t, timestamp(&t.CreatedAt, created)
}

// UpsertTicker creates the ticker of symbol unless it exists, like UpsertCurrency.
func (s *Store) UpsertTicker(ctx context.Context, symbol string, currencyID int) (binnaculum.Ticker, bool, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO tickers (symbol, currency_id, created_at) VALUES (?, ?, ?) ON CONFLICT(symbol) DO NOTHING`,
		symbol, currencyID, binnaculum.Now().String())
	if err != nil {
		return binnaculum.Ticker{}, false, fmt.Errorf("upserting ticker %s: %w", symbol, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return binnaculum.Ticker{}, false, err
	}
	t, err := scanTicker(s.db.QueryRowContext(ctx, `SELECT `+tickerColumns+` FROM tickers WHERE symbol = ?`, symbol))
	return t, n > 0, err
}

func (s *Store) Ticker(ctx context.Context, id int) (binnaculum.Ticker, error) {
	t, err := scanTicker(s.db.QueryRowContext(ctx, `SELECT `+tickerColumns+` FROM tickers WHERE id = ?`, id))
	return t, notFound(err, "ticker", id)
}

func (s *Store) Tickers(ctx context.Context) ([]binnaculum.Ticker, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+tickerColumns+` FROM tickers ORDER BY id`)
	return collect(rows, err, scanTicker)
}

func scanBroker(r scanner) (binnaculum.Broker, error) {
	var b binnaculum.Broker
	var created string
	if err := r.Scan(&b.ID, &b.Name, &created); err != nil {
		return b, err
	}
	return b, timestamp(&b.CreatedAt, created)
}

func (s *Store) SaveBroker(ctx context.Context, b binnaculum.Broker) (binnaculum.Broker, error) {
	b.CreatedAt = stamp(b.CreatedAt)
	if b.ID != 0 {
		_, err := s.db.ExecContext(ctx, `UPDATE brokers SET name = ?, created_at = ? WHERE id = ?`, b.Name, b.CreatedAt.String(), b.ID)
		return b, err
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO brokers (name, created_at) VALUES (?, ?)`, b.Name, b.CreatedAt.String())
	if err != nil {
		return b, fmt.Errorf("saving broker %s: %w", b.Name, err)
	}
	id, err := res.LastInsertId()
	b.ID = int(id)
	return b, err
}

func (s *Store) Broker(ctx context.Context, id int) (binnaculum.Broker, error) {
	b, err := scanBroker(s.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM brokers WHERE id = ?`, id))
	return b, notFound(err, "broker", id)
}

func (s *Store) Brokers(ctx context.Context) ([]binnaculum.Broker, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM brokers ORDER BY id`)
	return collect(rows, err, scanBroker)
}

const brokerAccountColumns = `id, broker_id, account_number, currency_id, created_at`

func scanBrokerAccount(r scanner) (binnaculum.BrokerAccount, error) {
	var a binnaculum.BrokerAccount
	var created string
	if err := r.Scan(&a.ID, &a.BrokerID, &a.AccountNumber, &a.CurrencyID, &created); err != nil {
		return a, err
	}
	return a, timestamp(&a.CreatedAt, created)
}

func (s *Store) SaveBrokerAccount(ctx context.Context, a binnaculum.BrokerAccount) (binnaculum.BrokerAccount, error) {
	if _, err := s.Broker(ctx, a.BrokerID); err != nil {
		return a, err
	}
	a.CreatedAt = stamp(a.CreatedAt)
	if a.ID != 0 {
		_, err := s.db.ExecContext(ctx, `UPDATE broker_accounts SET broker_id = ?, account_number = ?, currency_id = ?, created_at = ? WHERE id = ?`,
			a.BrokerID, a.AccountNumber, a.CurrencyID, a.CreatedAt.String(), a.ID)
		return a, err
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO broker_accounts (broker_id, account_number, currency_id, created_at) VALUES (?, ?, ?, ?)`,
		a.BrokerID, a.AccountNumber, a.CurrencyID, a.CreatedAt.String())
	if err != nil {
		return a, fmt.Errorf("saving broker account %s: %w", a.AccountNumber, err)
	}
	id, err := res.LastInsertId()
	a.ID = int(id)
	return a, err
}

func (s *Store) BrokerAccount(ctx context.Context, id int) (binnaculum.BrokerAccount, error) {
	a, err := scanBrokerAccount(s.db.QueryRowContext(ctx, `SELECT `+brokerAccountColumns+` FROM broker_accounts WHERE id = ?`, id))
	return a, notFound(err, "broker account", id)
}

func (s *Store) BrokerAccounts(ctx context.Context) ([]binnaculum.BrokerAccount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+brokerAccountColumns+` FROM broker_accounts ORDER BY id`)
	return collect(rows, err, scanBrokerAccount)
}

func (s *Store) BrokerAccountsByBroker(ctx context.Context, brokerID int) ([]binnaculum.BrokerAccount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+brokerAccountColumns+` FROM broker_accounts WHERE broker_id = ? ORDER BY id`, brokerID)
	return collect(rows, err, scanBrokerAccount)
}

func scanBank(r scanner) (binnaculum.Bank, error) {
	var b binnaculum.Bank
	var created string
	if err := r.Scan(&b.ID, &b.Name, &created); err != nil {
		return b, err
	}
	return b, timestamp(&b.CreatedAt, created)
}

func (s *Store) SaveBank(ctx context.Context, b binnaculum.Bank) (binnaculum.Bank, error) {
	b.CreatedAt = stamp(b.CreatedAt)
	if b.ID != 0 {
		_, err := s.db.ExecContext(ctx, `UPDATE banks SET name = ?, created_at = ? WHERE id = ?`, b.Name, b.CreatedAt.String(), b.ID)
		return b, err
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO banks (name, created_at) VALUES (?, ?)`, b.Name, b.CreatedAt.String())
	if err != nil {
		return b, fmt.Errorf("saving bank %s: %w", b.Name, err)
	}
	id, err := res.LastInsertId()
	b.ID = int(id)
	return b, err
}

func (s *Store) Bank(ctx context.Context, id int) (binnaculum.Bank, error) {
	b, err := scanBank(s.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM banks WHERE id = ?`, id))
	return b, notFound(err, "bank", id)
}

func (s *Store) Banks(ctx context.Context) ([]binnaculum.Bank, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM banks ORDER BY id`)
	return collect(rows, err, scanBank)
}

const bankAccountColumns = `id, bank_id, name, currency_id, created_at`

func scanBankAccount(r scanner) (binnaculum.BankAccount, error) {
	var a binnaculum.BankAccount
	var created string
	if err := r.Scan(&a.ID, &a.BankID, &a.Name, &a.CurrencyID, &created); err != nil {
		return a, err
	}
	return a, timestamp(&a.CreatedAt, created)
}

func (s *Store) SaveBankAccount(ctx context.Context, a binnaculum.BankAccount) (binnaculum.BankAccount, error) {
	if _, err := s.Bank(ctx, a.BankID); err != nil {
		return a, err
	}
	a.CreatedAt = stamp(a.CreatedAt)
	if a.ID != 0 {
		_, err := s.db.ExecContext(ctx, `UPDATE bank_accounts SET bank_id = ?, name = ?, currency_id = ?, created_at = ? WHERE id = ?`,
			a.BankID, a.Name, a.CurrencyID, a.CreatedAt.String(), a.ID)
		return a, err
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO bank_accounts (bank_id, name, currency_id, created_at) VALUES (?, ?, ?, ?)`,
		a.BankID, a.Name, a.CurrencyID, a.CreatedAt.String())
	if err != nil {
		return a, fmt.Errorf("saving bank account %s: %w", a.Name, err)
	}
	id, err := res.LastInsertId()
	a.ID = int(id)
	return a, err
}

func (s *Store) BankAccount(ctx context.Context, id int) (binnaculum.BankAccount, error) {
	a, err := scanBankAccount(s.db.QueryRowContext(ctx, `SELECT `+bankAccountColumns+` FROM bank_accounts WHERE id = ?`, id))
	return a, notFound(err, "bank account", id)
}

func (s *Store) BankAccounts(ctx context.Context) ([]binnaculum.BankAccount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+bankAccountColumns+` FROM bank_accounts ORDER BY id`)
	return collect(rows, err, scanBankAccount)
}

func (s *Store) BankAccountsByBank(ctx context.Context, bankID int) ([]binnaculum.BankAccount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+bankAccountColumns+` FROM bank_accounts WHERE bank_id = ? ORDER BY id`, bankID)
	return collect(rows, err, scanBankAccount)
}
