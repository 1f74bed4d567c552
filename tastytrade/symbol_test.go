package tastytrade

import (
	"errors"
	"testing"

	"github.com/etnz/binnaculum"
	"github.com/shopspring/decimal"
)

func TestParseOptionSymbol(t *testing.T) {
	got, err := ParseOptionSymbol("PLTR  240531C00022000")
	if err != nil {
		t.Fatalf("ParseOptionSymbol() error = %v", err)
	}
	if got.Ticker != "PLTR" {
		t.Errorf("Ticker = %q, want %q", got.Ticker, "PLTR")
	}
	if want := binnaculum.MustParseDate("2024-05-31"); got.Expiration != want {
		t.Errorf("Expiration = %v, want %v", got.Expiration, want)
	}
	if got.Type != binnaculum.Call {
		t.Errorf("Type = %v, want call", got.Type)
	}
	if want := decimal.NewFromInt(22); !got.Strike.Equal(want) {
		t.Errorf("Strike = %v, want %v", got.Strike, want)
	}
	if got, want := got.String(), "PLTR  240531C00022000"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestParseOptionSymbol_Variants(t *testing.T) {
	tests := []struct {
		in     string
		ticker string
		typ    binnaculum.OptionType
		strike string
	}{
		{"SOFI  240621P00007500", "SOFI", binnaculum.Put, "7.5"},
		{"GOOGL 250117C00180000", "GOOGL", binnaculum.Call, "180"},
		{"F     241115P00010500", "F", binnaculum.Put, "10.5"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOptionSymbol(tt.in)
			if err != nil {
				t.Fatalf("ParseOptionSymbol() error = %v", err)
			}
			if got.Ticker != tt.ticker || got.Type != tt.typ || got.Strike.String() != tt.strike {
				t.Errorf("ParseOptionSymbol() = %+v, want %s %v %s", got, tt.ticker, tt.typ, tt.strike)
			}
			if got.String() != tt.in {
				t.Errorf("String() = %q, want %q", got.String(), tt.in)
			}
		})
	}
}

func TestParseOptionSymbol_Errors(t *testing.T) {
	for _, in := range []string{
		"",
		"PLTR",
		"PLTR  240531X00022000",
		"PLTR  241331C00022000",
		"PLTR  240231C00022000",
		"PLTR  240531C0002200",
		"TOOLONGT240531C00022000",
	} {
		_, err := ParseOptionSymbol(in)
		var ferr *FormatError
		if !errors.As(err, &ferr) {
			t.Errorf("ParseOptionSymbol(%q) error = %v, want a FormatError", in, err)
		}
		if IsOptionSymbol(in) {
			t.Errorf("IsOptionSymbol(%q) = true", in)
		}
	}
}

func TestOptionTicker(t *testing.T) {
	got, err := OptionTicker("SPY   240503P00500000")
	if err != nil || got != "SPY" {
		t.Errorf("OptionTicker() = %q, %v, want SPY", got, err)
	}
}

func TestParseOptionSymbols(t *testing.T) {
	symbols, errs := ParseOptionSymbols([]string{
		"PLTR  240531C00022000",
		"garbage",
		"SOFI  240621P00007500",
	})
	if got, want := len(symbols), 2; got != want {
		t.Errorf("len(symbols) = %d, want %d", got, want)
	}
	if got, want := len(errs), 1; got != want {
		t.Fatalf("len(errs) = %d, want %d", got, want)
	}
	if got, want := errs[0][:7], "line 2:"; got != want {
		t.Errorf("errs[0] = %q, want prefix %q", errs[0], want)
	}
}
