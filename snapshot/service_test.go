package snapshot

import (
	"testing"

	"github.com/etnz/binnaculum"
	"github.com/etnz/binnaculum/overview"
)

func TestService_Overviews(t *testing.T) {
	f := newFixture(t)
	board, err := f.service.Overviews(f.ctx)
	if err != nil {
		t.Fatalf("Overviews() error = %v", err)
	}
	if items := board.Brokers.Items(); len(items) != 1 || items[0].Kind != overview.KindEmpty {
		t.Errorf("Brokers = %+v before any snapshot, want one placeholder", items)
	}

	history(f, 0, 1, 2)
	board, err = f.service.Overviews(f.ctx)
	if err != nil {
		t.Fatalf("Overviews() error = %v", err)
	}
	accounts := board.BrokerAccounts.Items()
	if len(accounts) != 1 || accounts[0].Kind != overview.KindBrokerAccount {
		t.Fatalf("BrokerAccounts = %+v, want one broker account", accounts)
	}
	if got, want := accounts[0].BrokerAccount.Snapshot.Date, binnaculum.MustParseDate("2024-03-10"); got != want {
		t.Errorf("broker account overview date = %v, want %v", got, want)
	}
	if items := board.Banks.Items(); len(items) != 1 || items[0].Kind != overview.KindEmpty {
		t.Errorf("Banks = %+v without bank, want one placeholder", items)
	}
}

func TestService_RecalculateEverything(t *testing.T) {
	f := newFixture(t)
	history(f, 0, 1, 2)
	want, err := f.store.BrokerAccountSnapshots().All(f.ctx, f.key(f.account))
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}

	results, err := f.service.RecalculateEverything(f.ctx, binnaculum.Date{})
	if err != nil {
		t.Fatalf("RecalculateEverything() error = %v", err)
	}
	if got, want := len(results), 4; got != want {
		t.Errorf("len(results) = %d, want %d", got, want)
	}
	got, err := f.store.BrokerAccountSnapshots().All(f.ctx, f.key(f.account))
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("%d snapshots after recalculation, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("snapshot %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestService_RefreshPrices(t *testing.T) {
	f := newFixture(t)
	history(f, 0)
	day := binnaculum.MustParseDate("2024-03-04")
	if _, err := f.store.SaveTickerPrice(f.ctx, binnaculum.TickerPrice{Date: day, TickerID: f.sofi, CurrencyID: f.usd, Price: usd(9)}); err != nil {
		t.Fatalf("SaveTickerPrice() error = %v", err)
	}
	if err := f.service.RefreshPrices(f.ctx, day, []int{f.sofi}); err != nil {
		t.Fatalf("RefreshPrices() error = %v", err)
	}
	if got, want := on(t, f.store.TickerSnapshots(), f.key(f.sofi), "2024-03-04").LatestPrice, usd(9); !got.Equal(want) {
		t.Errorf("LatestPrice = %v, want %v", got, want)
	}
	if got, want := on(t, f.store.BrokerAccountSnapshots(), f.key(f.account), "2024-03-04").MarketValue, usd(90); !got.Equal(want) {
		t.Errorf("MarketValue = %v, want %v", got, want)
	}
}

func TestService_RefreshSplits(t *testing.T) {
	f := newFixture(t)
	history(f, 0)
	day := binnaculum.MustParseDate("2024-03-06")
	split, err := f.store.SaveTickerSplit(f.ctx, binnaculum.TickerSplit{Date: day, TickerID: f.sofi, Factor: binnaculum.Q(2)})
	if err != nil {
		t.Fatalf("SaveTickerSplit() error = %v", err)
	}
	if _, err := f.store.SaveTickerPrice(f.ctx, binnaculum.TickerPrice{Date: day, TickerID: f.sofi, CurrencyID: f.usd, Price: usd(4.5)}); err != nil {
		t.Fatalf("SaveTickerPrice() error = %v", err)
	}
	if err := f.service.RefreshSplits(f.ctx, []binnaculum.TickerSplit{split}); err != nil {
		t.Fatalf("RefreshSplits() error = %v", err)
	}

	if got, want := on(t, f.store.TickerSnapshots(), f.key(f.sofi), "2024-03-01").TotalShares, binnaculum.Q(10); !got.Equal(want) {
		t.Errorf("TotalShares before split = %v, want %v", got, want)
	}
	if got, want := on(t, f.store.TickerSnapshots(), f.key(f.sofi), "2024-03-06").TotalShares, binnaculum.Q(20); !got.Equal(want) {
		t.Errorf("TotalShares after split = %v, want %v", got, want)
	}
	if got, want := on(t, f.store.BrokerAccountSnapshots(), f.key(f.account), "2024-03-06").MarketValue, usd(90); !got.Equal(want) {
		t.Errorf("MarketValue = %v, want %v", got, want)
	}
	if _, err := f.store.BrokerSnapshots().ByKeyAndDate(f.ctx, f.key(f.broker), day); err != nil {
		t.Errorf("no broker snapshot on the split day: %v", err)
	}
}
