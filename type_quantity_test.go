package binnaculum

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in   string
		want Quantity
	}{
		{"10", Q(10)},
		{"1,000.5", Q(1000.5)},
		{" -3 ", Q(-3)},
		{"--", Q(0)},
		{"", Q(0)},
	}
	for _, tt := range tests {
		got, err := ParseQuantity(tt.in)
		if err != nil {
			t.Errorf("ParseQuantity(%q) error = %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseQuantity(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseQuantity("ten"); err == nil {
		t.Errorf("ParseQuantity(%q) error = nil, want an error", "ten")
	}
}

func TestRatio(t *testing.T) {
	if got, want := Ratio(decimal.NewFromInt(1), decimal.NewFromInt(3)), Percent(33.3333); !got.Equal(want) {
		t.Errorf("Ratio(1, 3) = %v, want %v", got, want)
	}
	if got := Ratio(decimal.NewFromInt(1), decimal.Zero); got != 0 {
		t.Errorf("Ratio(1, 0) = %v, want 0", got)
	}
	if got, want := Percent(0.0001).SignedString(), "-"; got != want {
		t.Errorf("SignedString() = %q, want %q", got, want)
	}
}

func TestPercent_JSON(t *testing.T) {
	data, err := json.Marshal(Ratio(decimal.NewFromInt(1), decimal.NewFromInt(3)))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if got, want := string(data), "33.3333"; got != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
	var p Percent
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !p.Equal(33.3333) {
		t.Errorf("Unmarshal() = %v, want 33.3333", p)
	}
}
