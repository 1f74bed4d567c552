package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/etnz/binnaculum"
)

// kinds of the rows of the movements table.
const (
	kindBrokerMovement = "broker_movement"
	kindTrade          = "trade"
	kindOptionTrade    = "option_trade"
	kindDividend       = "dividend"
	kindDividendTax    = "dividend_tax"
)

// row is the indexed part of a movement.
type row struct {
	kind                          string
	accountID, tickerID, currency int
	ts                            binnaculum.DateTime
}

func insertMovement(ctx context.Context, tx *sql.Tx, r row, v any) (int, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO movements (kind, broker_account_id, ticker_id, currency_id, time_stamp, data) VALUES (?, ?, ?, ?, ?, ?)`,
		r.kind, r.accountID, r.tickerID, r.currency, r.ts.String(), string(data))
	if err != nil {
		return 0, fmt.Errorf("inserting %s: %w", r.kind, err)
	}
	id, err := res.LastInsertId()
	return int(id), err
}

// SaveMovements stores the bundle in a single transaction. Nothing is saved
// when ctx is cancelled before the commit.
func (s *Store) SaveMovements(ctx context.Context, m binnaculum.Movements) (binnaculum.Movements, error) {
	for _, id := range m.BrokerAccountIDs() {
		if _, err := s.BrokerAccount(ctx, id); err != nil {
			return binnaculum.Movements{}, err
		}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return binnaculum.Movements{}, err
	}
	defer tx.Rollback()

	var saved binnaculum.Movements
	for _, x := range m.BrokerMovements {
		if x.ID, err = insertMovement(ctx, tx, row{kindBrokerMovement, x.BrokerAccountID, x.TickerID, x.CurrencyID, x.TimeStamp}, x); err != nil {
			return binnaculum.Movements{}, err
		}
		saved.BrokerMovements = append(saved.BrokerMovements, x)
	}
	for _, x := range m.Trades {
		if x.ID, err = insertMovement(ctx, tx, row{kindTrade, x.BrokerAccountID, x.TickerID, x.CurrencyID, x.TimeStamp}, x); err != nil {
			return binnaculum.Movements{}, err
		}
		saved.Trades = append(saved.Trades, x)
	}
	for _, x := range m.OptionTrades {
		if x.ID, err = insertMovement(ctx, tx, row{kindOptionTrade, x.BrokerAccountID, x.TickerID, x.CurrencyID, x.TimeStamp}, x); err != nil {
			return binnaculum.Movements{}, err
		}
		saved.OptionTrades = append(saved.OptionTrades, x)
	}
	for _, x := range m.Dividends {
		if x.ID, err = insertMovement(ctx, tx, row{kindDividend, x.BrokerAccountID, x.TickerID, x.CurrencyID, x.TimeStamp}, x); err != nil {
			return binnaculum.Movements{}, err
		}
		saved.Dividends = append(saved.Dividends, x)
	}
	for _, x := range m.DividendTaxes {
		if x.ID, err = insertMovement(ctx, tx, row{kindDividendTax, x.BrokerAccountID, x.TickerID, x.CurrencyID, x.TimeStamp}, x); err != nil {
			return binnaculum.Movements{}, err
		}
		saved.DividendTaxes = append(saved.DividendTaxes, x)
	}
	if err := tx.Commit(); err != nil {
		return binnaculum.Movements{}, fmt.Errorf("saving movements: %w", err)
	}
	s.log.Debug().Int("records", saved.Len()).Msg("movements saved")
	return saved, nil
}

// decode unmarshals data into v and sets its id.
func decode[T any](data string, id int, v *T, setID func(*T, int)) error {
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("decoding record %d: %w", id, err)
	}
	setID(v, id)
	return nil
}

// add decodes one row of the movements table into m.
func add(m *binnaculum.Movements, kind string, id int, data string) error {
	switch kind {
	case kindBrokerMovement:
		var x binnaculum.BrokerMovement
		if err := decode(data, id, &x, func(x *binnaculum.BrokerMovement, id int) { x.ID = id }); err != nil {
			return err
		}
		m.BrokerMovements = append(m.BrokerMovements, x)
	case kindTrade:
		var x binnaculum.Trade
		if err := decode(data, id, &x, func(x *binnaculum.Trade, id int) { x.ID = id }); err != nil {
			return err
		}
		m.Trades = append(m.Trades, x)
	case kindOptionTrade:
		var x binnaculum.OptionTrade
		if err := decode(data, id, &x, func(x *binnaculum.OptionTrade, id int) { x.ID = id }); err != nil {
			return err
		}
		m.OptionTrades = append(m.OptionTrades, x)
	case kindDividend:
		var x binnaculum.Dividend
		if err := decode(data, id, &x, func(x *binnaculum.Dividend, id int) { x.ID = id }); err != nil {
			return err
		}
		m.Dividends = append(m.Dividends, x)
	case kindDividendTax:
		var x binnaculum.DividendTax
		if err := decode(data, id, &x, func(x *binnaculum.DividendTax, id int) { x.ID = id }); err != nil {
			return err
		}
		m.DividendTaxes = append(m.DividendTaxes, x)
	default:
		return fmt.Errorf("unknown movement kind %q in record %d", kind, id)
	}
	return nil
}

func (s *Store) Movements(ctx context.Context, f binnaculum.MovementFilter) (binnaculum.Movements, error) {
	var m binnaculum.Movements
	rows, err := s.db.QueryContext(ctx, `SELECT id, kind, data FROM movements
		WHERE (? = 0 OR broker_account_id = ?) AND (? = 0 OR ticker_id = ?) ORDER BY id`,
		f.BrokerAccountID, f.BrokerAccountID, f.TickerID, f.TickerID)
	if err != nil {
		return m, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int
		var kind, data string
		if err := rows.Scan(&id, &kind, &data); err != nil {
			return m, err
		}
		if err := add(&m, kind, id, data); err != nil {
			return m, err
		}
	}
	return m, rows.Err()
}

func (s *Store) LinkOptionTrades(ctx context.Context, links []binnaculum.OptionLink) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, l := range links {
		var data string
		err := tx.QueryRowContext(ctx, `SELECT data FROM movements WHERE id = ? AND kind = ?`, l.OpenID, kindOptionTrade).Scan(&data)
		if err != nil {
			return notFound(err, "option trade", l.OpenID)
		}
		var o binnaculum.OptionTrade
		if err := json.Unmarshal([]byte(data), &o); err != nil {
			return fmt.Errorf("decoding option trade %d: %w", l.OpenID, err)
		}
		o.ID, o.IsOpen, o.ClosedWith = l.OpenID, false, l.CloseID
		updated, err := json.Marshal(o)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE movements SET data = ? WHERE id = ?`, string(updated), l.OpenID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) SaveBankMovement(ctx context.Context, m binnaculum.BankAccountMovement) (binnaculum.BankAccountMovement, error) {
	if _, err := s.BankAccount(ctx, m.BankAccountID); err != nil {
		return m, err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return m, err
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO bank_movements (bank_account_id, currency_id, time_stamp, data) VALUES (?, ?, ?, ?)`,
		m.BankAccountID, m.CurrencyID, m.TimeStamp.String(), string(data))
	if err != nil {
		return m, fmt.Errorf("saving bank movement: %w", err)
	}
	id, err := res.LastInsertId()
	m.ID = int(id)
	return m, err
}

func (s *Store) BankMovements(ctx context.Context, bankAccountID int) ([]binnaculum.BankAccountMovement, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, data FROM bank_movements WHERE bank_account_id = ? ORDER BY id`, bankAccountID)
	return collect(rows, err, func(r scanner) (binnaculum.BankAccountMovement, error) {
		var m binnaculum.BankAccountMovement
		var id int
		var data string
		if err := r.Scan(&id, &data); err != nil {
			return m, err
		}
		err := decode(data, id, &m, func(m *binnaculum.BankAccountMovement, id int) { m.ID = id })
		return m, err
	})
}

func (s *Store) SaveTickerSplit(ctx context.Context, split binnaculum.TickerSplit) (binnaculum.TickerSplit, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO ticker_splits (ticker_id, date, factor) VALUES (?, ?, ?)`,
		split.TickerID, split.Date.String(), split.Factor.String())
	if err != nil {
		return split, fmt.Errorf("saving split of ticker %d: %w", split.TickerID, err)
	}
	id, err := res.LastInsertId()
	split.ID = int(id)
	return split, err
}

func (s *Store) TickerSplits(ctx context.Context, tickerID int) ([]binnaculum.TickerSplit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, ticker_id, date, factor FROM ticker_splits WHERE ticker_id = ? ORDER BY date, id`, tickerID)
	return collect(rows, err, func(r scanner) (binnaculum.TickerSplit, error) {
		var split binnaculum.TickerSplit
		var date, factor string
		if err := r.Scan(&split.ID, &split.TickerID, &date, &factor); err != nil {
			return split, err
		}
		d, err := binnaculum.ParseDate(date)
		if err != nil {
			return split, err
		}
		f, err := binnaculum.ParseQuantity(factor)
		if err != nil {
			return split, fmt.Errorf("split %d factor: %w", split.ID, err)
		}
		split.Date, split.Factor = d, f
		return split, nil
	})
}

// SaveTickerPrice keeps one price per ticker and day, the last one saved.
func (s *Store) SaveTickerPrice(ctx context.Context, p binnaculum.TickerPrice) (binnaculum.TickerPrice, error) {
	price, err := json.Marshal(p.Price)
	if err != nil {
		return p, err
	}
	err = s.db.QueryRowContext(ctx, `INSERT INTO ticker_prices (ticker_id, date, currency_id, price) VALUES (?, ?, ?, ?)
		ON CONFLICT(ticker_id, date) DO UPDATE SET currency_id = excluded.currency_id, price = excluded.price
		RETURNING id`, p.TickerID, p.Date.String(), p.CurrencyID, string(price)).Scan(&p.ID)
	if err != nil {
		return p, fmt.Errorf("saving price of ticker %d: %w", p.TickerID, err)
	}
	return p, nil
}

func (s *Store) LatestTickerPrice(ctx context.Context, tickerID int, on binnaculum.Date) (binnaculum.TickerPrice, error) {
	var p binnaculum.TickerPrice
	var date, price string
	err := s.db.QueryRowContext(ctx, `SELECT id, ticker_id, date, currency_id, price FROM ticker_prices
		WHERE ticker_id = ? AND date <= ? ORDER BY date DESC LIMIT 1`, tickerID, on.String()).
		Scan(&p.ID, &p.TickerID, &date, &p.CurrencyID, &price)
	if errors.Is(err, sql.ErrNoRows) {
		return p, binnaculum.ErrNotFound
	}
	if err != nil {
		return p, err
	}
	if p.Date, err = binnaculum.ParseDate(date); err != nil {
		return p, err
	}
	if err := json.Unmarshal([]byte(price), &p.Price); err != nil {
		return p, fmt.Errorf("price %d: %w", p.ID, err)
	}
	return p, nil
}
