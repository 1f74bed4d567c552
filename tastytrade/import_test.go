package tastytrade

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/etnz/binnaculum"
	"github.com/etnz/binnaculum/storage/memory"
)

type recordingUpdater struct {
	calls  []binnaculum.Movements
	splits [][]binnaculum.TickerSplit
}

func (u *recordingUpdater) Refresh(ctx context.Context, saved binnaculum.Movements) error {
	u.calls = append(u.calls, saved)
	return nil
}

func (u *recordingUpdater) RefreshSplits(ctx context.Context, splits []binnaculum.TickerSplit) error {
	u.splits = append(u.splits, splits)
	return nil
}

func newImporter(t *testing.T) (*Importer, *recordingUpdater, int) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	usd, _, err := store.UpsertCurrency(ctx, "USD")
	if err != nil {
		t.Fatalf("UpsertCurrency() error = %v", err)
	}
	broker, err := store.SaveBroker(ctx, binnaculum.Broker{Name: "Tastytrade"})
	if err != nil {
		t.Fatalf("SaveBroker() error = %v", err)
	}
	account, err := store.SaveBrokerAccount(ctx, binnaculum.BrokerAccount{BrokerID: broker.ID, AccountNumber: "5WT00001", CurrencyID: usd.ID})
	if err != nil {
		t.Fatalf("SaveBrokerAccount() error = %v", err)
	}
	updater := &recordingUpdater{}
	return &Importer{Store: store, Updater: updater}, updater, account.ID
}

func source(name string, rows ...string) Source {
	return Reader(name, strings.NewReader(header+"\n"+strings.Join(rows, "\n")))
}

func TestImport(t *testing.T) {
	im, updater, accountID := newImporter(t)
	res, err := im.Import(context.Background(), accountID, "session-1",
		source("april.csv", depositRow, adjustmentRow, sellToOpenRow),
		source("may.csv", dividendRow, taxRow, futureRow),
	)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.SessionID != "session-1" {
		t.Errorf("SessionID = %q, want session-1", res.SessionID)
	}
	if got, want := len(res.Files), 2; got != want {
		t.Fatalf("len(Files) = %d, want %d", got, want)
	}
	if !res.Files[0].Success || res.Files[1].Success {
		t.Errorf("file success = %v, %v, want true, false", res.Files[0].Success, res.Files[1].Success)
	}
	if res.Success {
		t.Error("Success = true with an unsupported row")
	}
	for _, c := range []struct {
		name      string
		got, want int
	}{
		{"TotalRecords", res.TotalRecords, 6},
		{"ProcessedRecords", res.ProcessedRecords, 5},
		{"SkippedRecords", res.SkippedRecords, 1},
		{"Errors", len(res.Errors), 1},
		{"BrokerMovementsCreated", res.BrokerMovementsCreated, 2},
		{"OptionTradesCreated", res.OptionTradesCreated, 1},
		{"StockTradesCreated", res.StockTradesCreated, 0},
		{"DividendsCreated", res.DividendsCreated, 1},
		{"DividendTaxesCreated", res.DividendTaxesCreated, 1},
	} {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}
	if got, want := res.NewTickers, []string{"SOFI", "O"}; !slices.Equal(got, want) {
		t.Errorf("NewTickers = %v, want %v", got, want)
	}

	if got, want := len(updater.calls), 2; got != want {
		t.Fatalf("Refresh() called %d times, want %d", got, want)
	}
	if id := updater.calls[0].OptionTrades[0].ID; id == 0 {
		t.Error("Refresh() received records without ids")
	}

	stored, err := im.Store.Movements(context.Background(), binnaculum.MovementFilter{BrokerAccountID: accountID})
	if err != nil {
		t.Fatalf("Movements() error = %v", err)
	}
	if got, want := stored.Len(), 5; got != want {
		t.Errorf("stored records = %d, want %d", got, want)
	}
}

func TestImport_Split(t *testing.T) {
	im, updater, accountID := newImporter(t)
	ctx := context.Background()
	for range 2 {
		if _, err := im.Import(ctx, accountID, "", source("june.csv", sofiSplitCloseRow, sofiSplitOpenRow)); err != nil {
			t.Fatalf("Import() error = %v", err)
		}
	}
	tickers, err := im.Store.Tickers(ctx)
	if err != nil || len(tickers) != 1 {
		t.Fatalf("Tickers() = %v, %v, want SOFI only", tickers, err)
	}
	splits, err := im.Store.TickerSplits(ctx, tickers[0].ID)
	if err != nil {
		t.Fatalf("TickerSplits() error = %v", err)
	}
	if got, want := len(splits), 1; got != want {
		t.Fatalf("stored splits = %d, want %d", got, want)
	}
	if got, want := splits[0].Factor, binnaculum.Q(2); !got.Equal(want) {
		t.Errorf("Factor = %v, want %v", got, want)
	}
	// the second import finds the split already stored.
	if got, want := len(updater.splits), 1; got != want {
		t.Errorf("RefreshSplits() called %d times, want %d", got, want)
	}
	if len(updater.calls) != 0 {
		t.Errorf("Refresh() called without movements")
	}
}

func TestImport_NewSession(t *testing.T) {
	im, _, accountID := newImporter(t)
	res, err := im.Import(context.Background(), accountID, "", source("april.csv", depositRow))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.SessionID == "" {
		t.Error("SessionID is empty")
	}
	if !res.Success {
		t.Errorf("Success = false, errors %v", res.Errors)
	}
}

func TestImport_MissingAccount(t *testing.T) {
	im, updater, _ := newImporter(t)
	res, err := im.Import(context.Background(), 404, "", source("april.csv", depositRow))
	if !errors.Is(err, binnaculum.ErrNotFound) {
		t.Errorf("Import() error = %v, want ErrNotFound", err)
	}
	if res.Success {
		t.Error("Success = true for a missing account")
	}
	if len(updater.calls) != 0 {
		t.Error("Refresh() called for a missing account")
	}
}

func TestImport_BadFile(t *testing.T) {
	im, _, accountID := newImporter(t)
	res, err := im.Import(context.Background(), accountID, "",
		Reader("bad.csv", strings.NewReader("Date,Value\n2024-04-22T22:00:00+0000,1\n")),
		source("april.csv", depositRow),
	)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Files[0].Success || len(res.Files[0].Errors) == 0 {
		t.Errorf("Files[0] = %+v, want a failed file", res.Files[0])
	}
	if !res.Files[1].Success || res.BrokerMovementsCreated != 1 {
		t.Errorf("Files[1] = %+v, want the deposit imported", res.Files[1])
	}
}

func TestImport_Cancelled(t *testing.T) {
	im, updater, accountID := newImporter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := im.Import(ctx, accountID, "", source("april.csv", depositRow))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Import() error = %v, want context.Canceled", err)
	}
	if res.Success || res.BrokerMovementsCreated != 0 {
		t.Errorf("result = %+v, want a failed empty import", res)
	}
	if len(updater.calls) != 0 {
		t.Error("Refresh() called after cancellation")
	}
}
