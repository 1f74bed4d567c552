package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/etnz/binnaculum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Upserts(t *testing.T) {
	ctx := context.Background()
	s := New()

	usd, created, err := s.UpsertCurrency(ctx, "usd")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "USD", usd.Code)

	again, created, err := s.UpsertCurrency(ctx, "USD")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, usd.ID, again.ID)

	byCode, err := s.CurrencyByCode(ctx, "Usd")
	require.NoError(t, err)
	assert.Equal(t, usd, byCode)

	_, err = s.CurrencyByCode(ctx, "EUR")
	assert.ErrorIs(t, err, binnaculum.ErrNotFound)
}

func TestStore_UpsertTickerConcurrent(t *testing.T) {
	ctx := context.Background()
	s := New()
	var wg sync.WaitGroup
	ids := make([]int, 8)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tk, _, err := s.UpsertTicker(ctx, "SOFI", 1)
			assert.NoError(t, err)
			ids[i] = tk.ID
		}()
	}
	wg.Wait()
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	tickers, err := s.Tickers(ctx)
	require.NoError(t, err)
	assert.Len(t, tickers, 1)
}

func TestStore_Accounts(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.SaveBrokerAccount(ctx, binnaculum.BrokerAccount{BrokerID: 42})
	var lookup *binnaculum.LookupError
	require.ErrorAs(t, err, &lookup)
	assert.Equal(t, "broker", lookup.Kind)
	assert.ErrorIs(t, err, binnaculum.ErrNotFound)

	b, err := s.SaveBroker(ctx, binnaculum.Broker{Name: "Tastytrade"})
	require.NoError(t, err)
	assert.False(t, b.CreatedAt.IsZero())
	a, err := s.SaveBrokerAccount(ctx, binnaculum.BrokerAccount{BrokerID: b.ID, AccountNumber: "5WT00001"})
	require.NoError(t, err)

	accounts, err := s.BrokerAccountsByBroker(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []binnaculum.BrokerAccount{a}, accounts)

	bank, err := s.SaveBank(ctx, binnaculum.Bank{Name: "Savings bank"})
	require.NoError(t, err)
	ba, err := s.SaveBankAccount(ctx, binnaculum.BankAccount{BankID: bank.ID, Name: "Savings"})
	require.NoError(t, err)
	got, err := s.BankAccount(ctx, ba.ID)
	require.NoError(t, err)
	assert.Equal(t, ba, got)
}

func TestStore_Movements(t *testing.T) {
	ctx := context.Background()
	s := New()
	b, err := s.SaveBroker(ctx, binnaculum.Broker{Name: "Tastytrade"})
	require.NoError(t, err)
	a, err := s.SaveBrokerAccount(ctx, binnaculum.BrokerAccount{BrokerID: b.ID})
	require.NoError(t, err)

	ts := binnaculum.MustParseDateTime("2024-04-25T15:00:00")
	saved, err := s.SaveMovements(ctx, binnaculum.Movements{
		BrokerMovements: []binnaculum.BrokerMovement{{TimeStamp: ts, BrokerAccountID: a.ID, MovementType: binnaculum.Deposit}},
		OptionTrades: []binnaculum.OptionTrade{
			{TimeStamp: ts, BrokerAccountID: a.ID, TickerID: 7, Code: binnaculum.SellToOpen, IsOpen: true},
			{TimeStamp: ts, BrokerAccountID: a.ID, TickerID: 7, Code: binnaculum.BuyToClose},
		},
	})
	require.NoError(t, err)
	require.Len(t, saved.OptionTrades, 2)
	assert.NotZero(t, saved.BrokerMovements[0].ID)

	_, err = s.SaveMovements(ctx, binnaculum.Movements{
		Trades: []binnaculum.Trade{{TimeStamp: ts, BrokerAccountID: 99}},
	})
	assert.ErrorIs(t, err, binnaculum.ErrNotFound)

	byTicker, err := s.Movements(ctx, binnaculum.MovementFilter{TickerID: 7})
	require.NoError(t, err)
	assert.Len(t, byTicker.OptionTrades, 2)

	opening, closing := saved.OptionTrades[0], saved.OptionTrades[1]
	require.NoError(t, s.LinkOptionTrades(ctx, []binnaculum.OptionLink{{OpenID: opening.ID, CloseID: closing.ID}}))
	all, err := s.Movements(ctx, binnaculum.MovementFilter{BrokerAccountID: a.ID})
	require.NoError(t, err)
	assert.False(t, all.OptionTrades[0].IsOpen)
	assert.Equal(t, closing.ID, all.OptionTrades[0].ClosedWith)

	assert.Error(t, s.LinkOptionTrades(ctx, []binnaculum.OptionLink{{OpenID: 1234, CloseID: closing.ID}}))
}

func TestStore_Prices(t *testing.T) {
	ctx := context.Background()
	s := New()
	d := binnaculum.MustParseDate
	for _, p := range []binnaculum.TickerPrice{
		{TickerID: 1, Date: d("2024-05-01"), Price: binnaculum.M(10, "USD")},
		{TickerID: 1, Date: d("2024-05-03"), Price: binnaculum.M(12, "USD")},
		{TickerID: 1, Date: d("2024-05-03"), Price: binnaculum.M(13, "USD")},
		{TickerID: 2, Date: d("2024-05-02"), Price: binnaculum.M(99, "USD")},
	} {
		_, err := s.SaveTickerPrice(ctx, p)
		require.NoError(t, err)
	}

	p, err := s.LatestTickerPrice(ctx, 1, d("2024-05-02"))
	require.NoError(t, err)
	assert.True(t, p.Price.Equal(binnaculum.M(10, "USD")))

	p, err = s.LatestTickerPrice(ctx, 1, d("2024-06-01"))
	require.NoError(t, err)
	assert.True(t, p.Price.Equal(binnaculum.M(13, "USD")), "the last saved price of a day wins")

	_, err = s.LatestTickerPrice(ctx, 1, d("2024-04-30"))
	assert.ErrorIs(t, err, binnaculum.ErrNotFound)
}
