package binnaculum

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Percent is a ratio in percent: 12.5 means 12.5%.
type Percent float64

var hundred = decimal.NewFromInt(100)

// Ratio returns part over total in percent, and zero when total is zero.
func Ratio(part, total decimal.Decimal) Percent {
	if total.IsZero() {
		return 0
	}
	return Percent(part.Div(total).Mul(hundred).InexactFloat64())
}

// Equal compares percents up to 1e-4, weights and performances are computed
// through floats.
func (p Percent) Equal(q Percent) bool { return math.Abs(float64(p-q)) < 0.0001 }

func (p Percent) String() string { return fmt.Sprintf("%.2f%%", float64(p)) }

// SignedString is like String with an explicit sign. 0 is represented as a "-".
func (p Percent) SignedString() string {
	res := fmt.Sprintf("%+.2f%%", float64(p))
	if res == "+0.00%" || res == "-0.00%" {
		return "-"
	}
	return res
}

// MarshalJSON writes the percent rounded to 4 decimals.
func (p Percent) MarshalJSON() ([]byte, error) {
	f := float64(p)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("invalid percent %v", f)
	}
	return []byte(decimal.NewFromFloat(f).Round(4).String()), nil
}
