package tastytrade

import (
	"context"
	"strings"
	"testing"

	"github.com/etnz/binnaculum"
	"github.com/shopspring/decimal"
)

const (
	sofiSplitCloseRow   = "2024-06-10T12:00:00+0000,Receive Deliver,Forward Split,SELL_TO_CLOSE,SOFI,Equity,Forward split: Close 100 SOFI,0.00,100,--,0.00,0.00,1,,,,,,,USD"
	sofiSplitOpenRow    = "2024-06-10T12:00:00+0000,Receive Deliver,Forward Split,BUY_TO_OPEN,SOFI,Equity,Forward split: Open 200 SOFI,0.00,200,--,0.00,0.00,1,,,,,,,USD"
	pltrReverseCloseRow = "2024-06-12T12:00:00+0000,Receive Deliver,Reverse Split,SELL_TO_CLOSE,PLTR,Equity,Reverse split: Close 200 PLTR,0.00,200,--,0.00,0.00,1,,,,,,,USD"
	pltrReverseOpenRow  = "2024-06-12T12:00:00+0000,Receive Deliver,Reverse Split,BUY_TO_OPEN,PLTR,Equity,Reverse split: Open 20 PLTR,0.00,20,--,0.00,0.00,1,,,,,,,USD"
)

func TestDetectSplits(t *testing.T) {
	splits, unpaired := DetectSplits(parse(t, pltrReverseOpenRow, sofiSplitOpenRow, stockBuyRow, sofiSplitCloseRow, pltrReverseCloseRow))
	if len(unpaired) != 0 {
		t.Errorf("unpaired = %v, want none", unpaired)
	}
	if got, want := len(splits), 2; got != want {
		t.Fatalf("len(DetectSplits()) = %d, want %d", got, want)
	}
	for i, c := range []struct {
		symbol string
		date   string
		factor decimal.Decimal
	}{
		{"SOFI", "2024-06-10", decimal.NewFromInt(2)},
		{"PLTR", "2024-06-12", decimal.RequireFromString("0.1")},
	} {
		s := splits[i]
		if s.Symbol != c.symbol || s.Date != binnaculum.MustParseDate(c.date) {
			t.Errorf("splits[%d] = %s on %s, want %s on %s", i, s.Symbol, s.Date, c.symbol, c.date)
		}
		if !s.Factor().Equal(c.factor) {
			t.Errorf("splits[%d].Factor() = %v, want %v", i, s.Factor(), c.factor)
		}
	}
}

func TestDetectSplits_Unpaired(t *testing.T) {
	splits, unpaired := DetectSplits(parse(t, sofiSplitCloseRow))
	if len(splits) != 0 {
		t.Errorf("DetectSplits() = %v, want none", splits)
	}
	if got, want := len(unpaired), 1; got != want {
		t.Errorf("len(unpaired) = %d, want %d", got, want)
	}
}

func TestConvert_Split(t *testing.T) {
	res, err := newConverter().Convert(context.Background(), parse(t, stockBuyRow, sofiSplitCloseRow, sofiSplitOpenRow), 1)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if len(res.Errors) > 0 || len(res.Warnings) > 0 {
		t.Fatalf("Convert() errors = %v, warnings = %v", res.Errors, res.Warnings)
	}
	if got, want := res.Processed, 3; got != want {
		t.Errorf("Processed = %d, want %d", got, want)
	}
	if got, want := len(res.Splits), 1; got != want {
		t.Fatalf("Splits = %d, want %d", got, want)
	}
	sp := res.Splits[0]
	if got, want := sp.Factor, binnaculum.Q(2); !got.Equal(want) {
		t.Errorf("Factor = %v, want %v", got, want)
	}
	if got, want := sp.TickerID, res.Movements.Trades[0].TickerID; got != want {
		t.Errorf("TickerID = %d, want the ticker of the trade %d", got, want)
	}

	h := binnaculum.Holdings(res.Movements.Trades, nil, res.Splits, binnaculum.MustParseDate("2024-06-10"))[sp.TickerID]
	if got, want := h.Shares, binnaculum.Q(200); !got.Equal(want) {
		t.Errorf("Shares after split = %v, want %v", got, want)
	}
}

func TestConvert_UnpairedSplit(t *testing.T) {
	res, err := newConverter().Convert(context.Background(), parse(t, stockBuyRow, sofiSplitOpenRow), 1)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if len(res.Splits) != 0 {
		t.Errorf("Splits = %v, want none", res.Splits)
	}
	if got, want := len(res.Warnings), 1; got != want {
		t.Fatalf("Warnings = %v, want %d", res.Warnings, want)
	}
	if !strings.Contains(res.Warnings[0], "shares are not adjusted") {
		t.Errorf("Warnings[0] = %q, want an unpaired split warning", res.Warnings[0])
	}
}
