package tastytrade

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/etnz/binnaculum"
	"github.com/shopspring/decimal"
)

// OptionSymbol is a decoded OCC option symbol like "PLTR  240531C00022000":
// a ticker padded to six characters, the expiration as YYMMDD, C or P, and
// the strike in thousandths on eight digits.
type OptionSymbol struct {
	Ticker     string
	Expiration binnaculum.Date
	Type       binnaculum.OptionType
	Strike     decimal.Decimal
}

// FormatError reports a string that is not a valid option symbol.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid option symbol %q: %s", e.Input, e.Reason)
}

var optionSymbolRE = regexp.MustCompile(`^([A-Z0-9./]{1,6})\s*(\d{2})(\d{2})(\d{2})([CP])(\d{8})$`)

var thousand = decimal.NewFromInt(1000)

// ParseOptionSymbol decodes an option symbol.
func ParseOptionSymbol(s string) (OptionSymbol, error) {
	m := optionSymbolRE.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return OptionSymbol{}, &FormatError{Input: s, Reason: "does not match TICKER YYMMDD[C|P]STRIKE"}
	}
	yy, _ := strconv.Atoi(m[2])
	mm, _ := strconv.Atoi(m[3])
	dd, _ := strconv.Atoi(m[4])
	if mm < 1 || mm > 12 {
		return OptionSymbol{}, &FormatError{Input: s, Reason: fmt.Sprintf("month %d out of range", mm)}
	}
	exp := binnaculum.NewDate(2000+yy, time.Month(mm), dd)
	if exp.Day() != dd {
		return OptionSymbol{}, &FormatError{Input: s, Reason: fmt.Sprintf("day %d out of range", dd)}
	}
	strike, err := decimal.NewFromString(m[6])
	if err != nil {
		return OptionSymbol{}, &FormatError{Input: s, Reason: err.Error()}
	}
	typ := binnaculum.Call
	if m[5] == "P" {
		typ = binnaculum.Put
	}
	return OptionSymbol{
		Ticker:     m[1],
		Expiration: exp,
		Type:       typ,
		Strike:     strike.Div(thousand),
	}, nil
}

// IsOptionSymbol reports whether s is a valid option symbol.
func IsOptionSymbol(s string) bool {
	_, err := ParseOptionSymbol(s)
	return err == nil
}

// OptionTicker returns the underlying ticker of an option symbol.
func OptionTicker(s string) (string, error) {
	o, err := ParseOptionSymbol(s)
	if err != nil {
		return "", err
	}
	return o.Ticker, nil
}

// String formats the symbol back to its fixed width representation.
func (o OptionSymbol) String() string {
	right := "C"
	if o.Type == binnaculum.Put {
		right = "P"
	}
	return fmt.Sprintf("%-6s%02d%02d%02d%s%08d",
		o.Ticker, o.Expiration.Year()%100, int(o.Expiration.Month()), o.Expiration.Day(),
		right, o.Strike.Mul(thousand).Round(0).IntPart())
}

// ParseOptionSymbols parses every line. Failures are returned as messages
// prefixed by their line number and do not stop the batch.
func ParseOptionSymbols(lines []string) ([]OptionSymbol, []string) {
	var symbols []OptionSymbol
	var errs []string
	for i, line := range lines {
		o, err := ParseOptionSymbol(line)
		if err != nil {
			errs = append(errs, fmt.Sprintf("line %d: %v", i+1, err))
			continue
		}
		symbols = append(symbols, o)
	}
	return symbols, errs
}
