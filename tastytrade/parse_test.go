package tastytrade

import (
	"errors"
	"strings"
	"testing"

	"github.com/etnz/binnaculum"
	"github.com/shopspring/decimal"
)

func TestParse(t *testing.T) {
	txs := parse(t, sellToOpenRow, depositRow)
	if got, want := len(txs), 2; got != want {
		t.Fatalf("len(Parse()) = %d, want %d", got, want)
	}
	tx := txs[0]
	if got, want := tx.Kind, Kind(TradeAction{Action: binnaculum.SellToOpen}); got != want {
		t.Errorf("Kind = %#v, want %#v", got, want)
	}
	if tx.Instrument != EquityOption {
		t.Errorf("Instrument = %v, want %v", tx.Instrument, EquityOption)
	}
	if !tx.Commissions.Equal(decimal.NewFromInt(-1)) || !tx.Fees.Equal(decimal.RequireFromString("-0.14")) {
		t.Errorf("Commissions, Fees = %v, %v, want -1, -0.14", tx.Commissions, tx.Fees)
	}
	if got, want := tx.Date, binnaculum.MustParseDateTime("2024-04-25T15:30:52"); !got.Equal(want) {
		t.Errorf("Date = %v, want %v", got, want)
	}
	if got, want := tx.Expiration, binnaculum.MustParseDate("2024-05-03"); got != want {
		t.Errorf("Expiration = %v, want %v", got, want)
	}
	if tx.OptionType != binnaculum.Put {
		t.Errorf("OptionType = %v, want put", tx.OptionType)
	}
	if tx.Line != 2 || tx.SourceFile != "test.csv" || tx.RawLine != sellToOpenRow {
		t.Errorf("diagnostics = %d %q, want line 2 of test.csv", tx.Line, tx.SourceFile)
	}
	if got, want := txs[1].Kind, Kind(MoneyMovement{SubType: Deposit}); got != want {
		t.Errorf("Kind = %#v, want %#v", got, want)
	}
	// "--" reads as zero.
	if !txs[1].AveragePrice.IsZero() {
		t.Errorf("AveragePrice = %v, want 0", txs[1].AveragePrice)
	}
}

func TestParse_MalformedRow(t *testing.T) {
	bad := strings.Replace(depositRow, "2024-04-27T15:02:14+0000", "yesterday", 1)
	input := "\ufeff" + header + "\n" + depositRow + "\n" + bad + "\n\n" + sellToOpenRow + "\n"
	txs, errs, err := Parse(strings.NewReader(input), "history.csv")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got, want := len(txs), 2; got != want {
		t.Errorf("len(transactions) = %d, want %d", got, want)
	}
	if got, want := len(errs), 1; got != want {
		t.Fatalf("len(errors) = %d, want %d", got, want)
	}
	if got, want := errs[0].Line, 3; got != want {
		t.Errorf("Line = %d, want %d", got, want)
	}
	if got, want := errs[0].Error(), `history.csv:3: invalid date "yesterday"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if got, want := txs[1].Line, 5; got != want {
		t.Errorf("Line of the last transaction = %d, want %d", got, want)
	}
}

func TestParse_MultilineField(t *testing.T) {
	note := strings.Replace(depositRow, "ACH DEPOSIT", "\"ACH DEPOSIT\nfrom savings\"", 1)
	input := header + "\n" + note + "\n" + sellToOpenRow + "\n"
	txs := must(t, input)
	if got, want := len(txs), 2; got != want {
		t.Fatalf("len(Parse()) = %d, want %d", got, want)
	}
	if got, want := txs[0].Description, "ACH DEPOSIT\nfrom savings"; got != want {
		t.Errorf("Description = %q, want %q", got, want)
	}
	if got, want := txs[0].RawLine, note; got != want {
		t.Errorf("RawLine = %q, want %q", got, want)
	}
	// the option row starts after the two lines of the deposit.
	if got, want := txs[1].Line, 4; got != want {
		t.Errorf("Line = %d, want %d", got, want)
	}
	if got, want := txs[1].Kind, Kind(TradeAction{Action: binnaculum.SellToOpen}); got != want {
		t.Errorf("Kind = %#v, want %#v", got, want)
	}
}

func TestParse_ColumnOrder(t *testing.T) {
	input := "Currency,Value,Sub Type,Type,Date\n" +
		"USD,-0.02,Balance Adjustment,Money Movement,2024-04-22T22:00:00+0000\n"
	txs := must(t, input)
	if got, want := len(txs), 1; got != want {
		t.Fatalf("len(Parse()) = %d, want %d", got, want)
	}
	if !txs[0].Value.Equal(decimal.RequireFromString("-0.02")) {
		t.Errorf("Value = %v, want -0.02", txs[0].Value)
	}
	if got, want := txs[0].Kind, Kind(MoneyMovement{SubType: BalanceAdjustment}); got != want {
		t.Errorf("Kind = %#v, want %#v", got, want)
	}
}

func TestParse_DefaultCurrency(t *testing.T) {
	txs := must(t, "Date,Type,Sub Type,Value\n2024-04-22T22:00:00+0000,Money Movement,Deposit,\"1,000.00\"\n")
	if txs[0].Currency != "USD" {
		t.Errorf("Currency = %q, want USD", txs[0].Currency)
	}
	if !txs[0].Value.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Value = %v, want 1000", txs[0].Value)
	}
}

func TestParse_Unsupported(t *testing.T) {
	txs := must(t, "Date,Type,Sub Type,Value\n2024-04-22T22:00:00+0000,Money Movement,Mark to Market,1.00\n")
	if got, want := txs[0].Kind, Kind(Unsupported{Type: "Money Movement", SubType: "Mark to Market"}); got != want {
		t.Errorf("Kind = %#v, want %#v", got, want)
	}
}

func TestParse_MissingColumn(t *testing.T) {
	_, _, err := Parse(strings.NewReader("Date,Type,Value\n2024-04-22T22:00:00+0000,Money Movement,1.00\n"), "short.csv")
	if err == nil {
		t.Fatal("Parse() expected an error for a missing Sub Type column")
	}
	if !strings.Contains(err.Error(), "Sub Type") {
		t.Errorf("Parse() error = %v, want it to name the missing column", err)
	}

	_, _, err = Parse(strings.NewReader(""), "empty.csv")
	if err == nil {
		t.Error("Parse() expected an error for an empty file")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestParse_ReadError(t *testing.T) {
	if _, _, err := Parse(failingReader{}, "broken.csv"); err == nil {
		t.Error("Parse() expected the read error")
	}
}

func must(t *testing.T, input string) []Transaction {
	t.Helper()
	txs, errs, err := Parse(strings.NewReader(input), "test.csv")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(errs) > 0 {
		t.Fatalf("Parse() row errors = %v", errs)
	}
	return txs
}
