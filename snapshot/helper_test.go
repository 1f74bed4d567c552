package snapshot

import (
	"context"
	"testing"

	"github.com/etnz/binnaculum"
	"github.com/etnz/binnaculum/storage/memory"
)

func usd(v float64) binnaculum.Money { return binnaculum.M(v, "USD") }

func at(s string) binnaculum.DateTime { return binnaculum.MustParseDateTime(s) }

// fixture is a memory store with one broker account in USD and two tickers.
type fixture struct {
	store   *memory.Store
	service *Service
	usd     int
	broker  int
	account int
	sofi    int
	pltr    int
	ctx     context.Context
	t       *testing.T
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	f := &fixture{store: store, service: NewService(store, "USD", 2, nil), ctx: ctx, t: t}

	c, _, err := store.UpsertCurrency(ctx, "USD")
	if err != nil {
		t.Fatalf("UpsertCurrency() error = %v", err)
	}
	f.usd = c.ID
	b, err := store.SaveBroker(ctx, binnaculum.Broker{Name: "Tastytrade", CreatedAt: at("2024-01-01T00:00:00")})
	if err != nil {
		t.Fatalf("SaveBroker() error = %v", err)
	}
	f.broker = b.ID
	a, err := store.SaveBrokerAccount(ctx, binnaculum.BrokerAccount{BrokerID: b.ID, AccountNumber: "5WT00001", CurrencyID: c.ID, CreatedAt: at("2024-01-01T00:00:00")})
	if err != nil {
		t.Fatalf("SaveBrokerAccount() error = %v", err)
	}
	f.account = a.ID
	sofi, _, err := store.UpsertTicker(ctx, "SOFI", c.ID)
	if err != nil {
		t.Fatalf("UpsertTicker() error = %v", err)
	}
	f.sofi = sofi.ID
	pltr, _, err := store.UpsertTicker(ctx, "PLTR", c.ID)
	if err != nil {
		t.Fatalf("UpsertTicker() error = %v", err)
	}
	f.pltr = pltr.ID
	return f
}

// save stores the movements and refreshes the snapshots, like an import does.
func (f *fixture) save(m binnaculum.Movements) {
	f.t.Helper()
	saved, err := f.store.SaveMovements(f.ctx, m)
	if err != nil {
		f.t.Fatalf("SaveMovements() error = %v", err)
	}
	if err := f.service.Refresh(f.ctx, saved); err != nil {
		f.t.Fatalf("Refresh() error = %v", err)
	}
}

func (f *fixture) deposit(ts string, amount float64) binnaculum.BrokerMovement {
	return binnaculum.BrokerMovement{TimeStamp: at(ts), Amount: usd(amount), CurrencyID: f.usd, BrokerAccountID: f.account,
		Commissions: usd(0), Fees: usd(0), MovementType: binnaculum.Deposit}
}

func (f *fixture) trade(ts string, ticker int, code binnaculum.TradeCode, qty, price, commissions float64) binnaculum.Trade {
	return binnaculum.Trade{TimeStamp: at(ts), TickerID: ticker, BrokerAccountID: f.account, CurrencyID: f.usd,
		Quantity: binnaculum.Q(qty), Price: usd(price), Commissions: usd(commissions), Fees: usd(0),
		TradeCode: code, TradeType: binnaculum.TradeTypeOf(code)}
}

func (f *fixture) option(ts string, code binnaculum.TradeCode, expiration string, premium float64) binnaculum.OptionTrade {
	p := usd(premium)
	return binnaculum.OptionTrade{TimeStamp: at(ts), ExpirationDate: at(expiration + "T00:00:00"), Premium: p,
		NetPremium: binnaculum.NetPremium(code, p, usd(0), usd(0)), TickerID: f.sofi, BrokerAccountID: f.account,
		CurrencyID: f.usd, OptionType: binnaculum.Put, Code: code, Strike: usd(7), Commissions: usd(0), Fees: usd(0),
		IsOpen: code.IsOpening(), Multiplier: binnaculum.Q(100), Quantity: 1}
}

func (f *fixture) dividend(ts string, amount float64) binnaculum.Dividend {
	return binnaculum.Dividend{TimeStamp: at(ts), Amount: usd(amount), TickerID: f.sofi, CurrencyID: f.usd, BrokerAccountID: f.account}
}

func (f *fixture) tax(ts string, amount float64) binnaculum.DividendTax {
	return binnaculum.DividendTax{TimeStamp: at(ts), Amount: usd(amount), TickerID: f.sofi, CurrencyID: f.usd, BrokerAccountID: f.account}
}

func (f *fixture) key(id int) binnaculum.SnapshotKey {
	return binnaculum.SnapshotKey{EntityID: id, CurrencyID: f.usd}
}

// on returns the snapshot of key on day.
func on[S binnaculum.Snapshot](t *testing.T, repo binnaculum.SnapshotRepository[S], key binnaculum.SnapshotKey, day string) S {
	t.Helper()
	s, err := repo.ByKeyAndDate(context.Background(), key, binnaculum.MustParseDate(day))
	if err != nil {
		t.Fatalf("no snapshot of %v on %s: %v", key, day, err)
	}
	return s
}
