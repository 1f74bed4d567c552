// Package tastytrade converts Tastytrade transaction history exports into
// binnaculum movement records.
//
// The conversion runs in three steps: Parse reads the CSV rows into
// Transaction values, DetectStrikeAdjustments finds corporate actions that
// changed option strikes, and a Converter maps the transactions to domain
// records. An Importer chains them for a set of files and persists the result.
package tastytrade

import (
	"github.com/etnz/binnaculum"
	"github.com/shopspring/decimal"
)

// InstrumentType is the "Instrument Type" column.
type InstrumentType int

const (
	NoInstrument InstrumentType = iota
	Equity
	EquityOption
	Future
	FutureOption
	Cryptocurrency
)

var instrumentTypes = map[string]InstrumentType{
	"":               NoInstrument,
	"Equity":         Equity,
	"Equity Option":  EquityOption,
	"Future":         Future,
	"Future Option":  FutureOption,
	"Cryptocurrency": Cryptocurrency,
}

func (i InstrumentType) String() string {
	for k, v := range instrumentTypes {
		if v == i && k != "" {
			return k
		}
	}
	return "none"
}

// IsOption reports whether the instrument is an equity or future option.
func (i InstrumentType) IsOption() bool { return i == EquityOption || i == FutureOption }

// Kind is the closed set of transaction shapes: MoneyMovement, TradeAction,
// ReceiveDeliver or Unsupported.
type Kind interface {
	kind() string
}

// MoneyMovementType is the "Sub Type" of a Money Movement row.
type MoneyMovementType int

const (
	Deposit MoneyMovementType = iota
	Withdrawal
	BalanceAdjustment
	CreditInterest
	DebitInterest
	Dividend
	Fee
	Transfer
	Lending
)

var moneyMovementTypes = map[string]MoneyMovementType{
	"Deposit":                   Deposit,
	"Withdrawal":                Withdrawal,
	"Balance Adjustment":        BalanceAdjustment,
	"Credit Interest":           CreditInterest,
	"Debit Interest":            DebitInterest,
	"Dividend":                  Dividend,
	"Fee":                       Fee,
	"Transfer":                  Transfer,
	"Fully Paid Enhanced Yield": Lending,
	"Stock Lending Income":      Lending,
}

// ReceiveDeliverType is the "Sub Type" of a Receive Deliver row.
type ReceiveDeliverType int

const (
	Expiration ReceiveDeliverType = iota
	Assignment
	Exercise
	CashSettledAssignment
	ACAT
	SpecialDividend
	ForwardSplit
	ReverseSplit
	SymbolChange
)

var receiveDeliverTypes = map[string]ReceiveDeliverType{
	"Expiration":              Expiration,
	"Assignment":              Assignment,
	"Exercise":                Exercise,
	"Cash Settled Assignment": CashSettledAssignment,
	"ACAT":                    ACAT,
	"Special Dividend":        SpecialDividend,
	"Forward Split":           ForwardSplit,
	"Reverse Split":           ReverseSplit,
	"Symbol Change":           SymbolChange,
}

// MoneyMovement is a cash row: deposit, interest, dividend, fee...
type MoneyMovement struct {
	SubType MoneyMovementType
}

// TradeAction is an order execution.
type TradeAction struct {
	Action binnaculum.TradeCode
}

// ReceiveDeliver is a position change not initiated by an order.
// HasAction is false for rows without an Action column value.
type ReceiveDeliver struct {
	SubType   ReceiveDeliverType
	Action    binnaculum.TradeCode
	HasAction bool
}

// Unsupported is any row shape no rule exists for.
type Unsupported struct {
	Type    string
	SubType string
}

func (MoneyMovement) kind() string  { return "Money Movement" }
func (TradeAction) kind() string    { return "Trade" }
func (ReceiveDeliver) kind() string { return "Receive Deliver" }
func (u Unsupported) kind() string  { return u.Type }

// Transaction is one row of a Tastytrade export.
//
// Amounts keep the statement signs: Value is positive when cash is received,
// Commissions and Fees are negative when paid.
type Transaction struct {
	Date         binnaculum.DateTime
	Kind         Kind
	Symbol       string
	Instrument   InstrumentType
	Description  string
	Value        decimal.Decimal
	Quantity     decimal.Decimal
	AveragePrice decimal.Decimal
	Commissions  decimal.Decimal
	Fees         decimal.Decimal
	Multiplier   decimal.Decimal
	RootSymbol   string
	Underlying   string
	Expiration   binnaculum.Date
	Strike       decimal.Decimal
	OptionType   binnaculum.OptionType
	Order        string
	Currency     string

	// Diagnostics
	Line       int
	RawLine    string
	SourceFile string
}

// UnderlyingSymbol returns the ticker the transaction is about: the
// underlying of an option, or the symbol of an equity.
func (t Transaction) UnderlyingSymbol() string {
	switch {
	case t.Underlying != "":
		return t.Underlying
	case t.Instrument.IsOption() && t.RootSymbol != "":
		return t.RootSymbol
	case t.Instrument.IsOption():
		if ticker, err := OptionTicker(t.Symbol); err == nil {
			return ticker
		}
	}
	return t.Symbol
}

// option returns the contract details of an option row, read from the
// dedicated columns, or decoded from the symbol when they are missing.
func (t Transaction) option() (OptionSymbol, error) {
	if !t.Expiration.IsZero() && !t.Strike.IsZero() {
		return OptionSymbol{Ticker: t.UnderlyingSymbol(), Expiration: t.Expiration, Type: t.OptionType, Strike: t.Strike}, nil
	}
	return ParseOptionSymbol(t.Symbol)
}
