package tastytrade

import (
	"context"
	"strings"
	"testing"

	"github.com/etnz/binnaculum"
)

const header = "Date,Type,Sub Type,Action,Symbol,Instrument Type,Description,Value,Quantity,Average Price,Commissions,Fees,Multiplier,Root Symbol,Underlying Symbol,Expiration Date,Strike Price,Call or Put,Order #,Currency"

// parse is a helper for test to read transactions from csv rows, header excluded.
func parse(t *testing.T, rows ...string) []Transaction {
	t.Helper()
	txs, errs, err := Parse(strings.NewReader(header+"\n"+strings.Join(rows, "\n")), "test.csv")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(errs) > 0 {
		t.Fatalf("Parse() row errors = %v", errs)
	}
	return txs
}

// fakeResolver creates currencies and tickers on first use.
type fakeResolver struct {
	currencies map[string]binnaculum.Currency
	tickers    map[string]binnaculum.Ticker
	nextID     int
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		currencies: make(map[string]binnaculum.Currency),
		tickers:    make(map[string]binnaculum.Ticker),
	}
}

func (r *fakeResolver) Currency(ctx context.Context, code string) (binnaculum.Currency, error) {
	c, ok := r.currencies[code]
	if !ok {
		r.nextID++
		c = binnaculum.Currency{ID: r.nextID, Code: code}
		r.currencies[code] = c
	}
	return c, nil
}

func (r *fakeResolver) Ticker(ctx context.Context, symbol string, currencyID int) (binnaculum.Ticker, bool, error) {
	t, ok := r.tickers[symbol]
	if !ok {
		r.nextID++
		t = binnaculum.Ticker{ID: r.nextID, Symbol: symbol, CurrencyID: currencyID}
		r.tickers[symbol] = t
	}
	return t, !ok, nil
}

var fixedNow = binnaculum.MustParseDateTime("2024-06-01T09:00:00")

func newConverter() *Converter {
	return &Converter{
		Resolver: newFakeResolver(),
		Now:      func() binnaculum.DateTime { return fixedNow },
	}
}

// Rows used across tests.
const (
	depositRow    = "2024-04-27T15:02:14+0000,Money Movement,Deposit,,,,ACH DEPOSIT,10.00,0,--,0.00,0.00,,,,,,,,USD"
	adjustmentRow = "2024-04-22T22:00:00+0000,Money Movement,Balance Adjustment,,,,Regulatory fee adjustment,-0.02,0,--,0.00,0.00,,,,,,,,USD"
	sellToOpenRow = "2024-04-25T15:30:52+0000,Trade,Sell to Open,SELL_TO_OPEN,SOFI  240503P00007000,Equity Option,Sold 1 SOFI 05/03/24 Put 7.00 @ 0.35,35.00,1,35.00,-1.00,-0.14,100,SOFI,SOFI,5/03/24,7,PUT,320734834,USD"
	dividendRow   = "2024-05-15T20:00:00+0000,Money Movement,Dividend,,O,Equity,REALTY INCOME CORP,50.00,0,--,0.00,0.00,,,,,,,,USD"
	taxRow        = "2024-05-15T20:00:00+0000,Money Movement,Dividend,,O,Equity,REALTY INCOME CORP NON-RES TAX,-7.00,0,--,0.00,0.00,,,,,,,,USD"
	acatRow       = "2024-03-04T10:00:00+0000,Receive Deliver,ACAT,BUY_TO_OPEN,AAPL,Equity,ACAT transfer,0.00,25,--,0.00,0.00,1,,,,,,,USD"
	expirationRow = "2024-05-03T21:00:00+0000,Receive Deliver,Expiration,BUY_TO_CLOSE,SOFI  240503P00007000,Equity Option,Removal of option due to expiration,0.00,1,0.00,--,0.00,100,SOFI,SOFI,5/03/24,7,PUT,,USD"
	futureRow     = "2024-05-06T14:00:00+0000,Trade,Buy to Open,BUY_TO_OPEN,/MESM4,Future,Bought 1 /MESM4,0.00,1,5200.00,-0.75,-0.62,5,/MES,,6/21/24,,,320734900,USD"
	multiRow      = "2024-05-07T15:00:00+0000,Trade,Sell to Open,SELL_TO_OPEN,PLTR  240531C00022000,Equity Option,Sold 3 PLTR 05/31/24 Call 22.00 @ 0.35,105.00,3,35.00,-3.00,-0.42,100,PLTR,PLTR,5/31/24,22,CALL,320735001,USD"
	stockBuyRow   = "2024-05-08T15:00:00+0000,Trade,Buy to Open,BUY_TO_OPEN,SOFI,Equity,Bought 100 SOFI @ 7.20,-720.00,100,-7.20,-1.00,-0.08,1,,,,,,320735100,USD"
)
