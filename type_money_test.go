package binnaculum

import (
	"encoding/json"
	"testing"
)

func TestMoney_JSON(t *testing.T) {
	// per-contract premiums are fractional, all digits must survive storage.
	m := USD(35).Div(Q(3))
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var got Money
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal(%s) error = %v", data, err)
	}
	if !got.Equal(m) {
		t.Errorf("Unmarshal(Marshal(%v)) = %v", m, got)
	}
}

func TestMoney_CurrencyMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Add() of USD and EUR did not panic")
		}
	}()
	USD(1).Add(EUR(1))
}

func TestMoney_WeakCurrency(t *testing.T) {
	var zero Money
	if got, want := zero.Add(USD(2)), USD(2); !got.Equal(want) {
		t.Errorf("zero.Add() = %v, want %v", got, want)
	}
	if got, want := USD(2).Sub(zero), USD(2); !got.Equal(want) {
		t.Errorf("Sub(zero) = %v, want %v", got, want)
	}
}

func TestMoney_Rounded(t *testing.T) {
	if got, want := USD(11.666666).Rounded(), USD(11.67); !got.Equal(want) {
		t.Errorf("Rounded() = %v, want %v", got, want)
	}
	if got, want := USD(-0.02).Abs(), USD(0.02); !got.Equal(want) {
		t.Errorf("Abs() = %v, want %v", got, want)
	}
}
