package binnaculum

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores when a referenced record does not exist.
var ErrNotFound = errors.New("not found")

// LookupError reports that an entity expected to exist is missing. It is
// fatal for the calculation of that entity: continuing would silently break
// its cumulative balance chain.
type LookupError struct {
	Kind string // "broker account", "ticker", ...
	ID   int
}

func (e *LookupError) Error() string { return fmt.Sprintf("%s %d not found", e.Kind, e.ID) }

func (e *LookupError) Unwrap() error { return ErrNotFound }

// Currency is a currency known to the application, identified by its ISO code.
type Currency struct {
	ID   int    `json:"id"`
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
}

// Ticker is a tradable instrument. Option contracts reference their underlying ticker.
type Ticker struct {
	ID         int      `json:"id"`
	Symbol     string   `json:"symbol"`
	Name       string   `json:"name,omitempty"`
	CurrencyID int      `json:"currencyId"`
	CreatedAt  DateTime `json:"createdAt"`
}

type Broker struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	CreatedAt DateTime `json:"createdAt"`
}

// BrokerAccount is an account held at a broker. CurrencyID is its home
// currency, used when the account has no movement yet.
type BrokerAccount struct {
	ID            int      `json:"id"`
	BrokerID      int      `json:"brokerId"`
	AccountNumber string   `json:"accountNumber"`
	CurrencyID    int      `json:"currencyId"`
	CreatedAt     DateTime `json:"createdAt"`
}

type Bank struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	CreatedAt DateTime `json:"createdAt"`
}

type BankAccount struct {
	ID         int      `json:"id"`
	BankID     int      `json:"bankId"`
	Name       string   `json:"name"`
	CurrencyID int      `json:"currencyId"`
	CreatedAt  DateTime `json:"createdAt"`
}
