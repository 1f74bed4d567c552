package binnaculum

import (
	"fmt"
	"slices"
)

// BrokerMovementType is the kind of a cash movement in a broker account.
type BrokerMovementType int

const (
	Deposit BrokerMovementType = iota
	Withdrawal
	Fee
	InterestsGained
	InterestsPaid
	Lending
	ACATMoneyTransferSent
	ACATMoneyTransferReceived
	ACATSecuritiesTransferSent
	ACATSecuritiesTransferReceived
	Conversion
)

var brokerMovementTypeNames = []string{
	"deposit", "withdrawal", "fee", "interests-gained", "interests-paid", "lending",
	"acat-money-sent", "acat-money-received", "acat-securities-sent", "acat-securities-received",
	"conversion",
}

func (t BrokerMovementType) String() string { return enumString(brokerMovementTypeNames, int(t)) }

// ParseBrokerMovementType parses the String representation of a BrokerMovementType.
func ParseBrokerMovementType(s string) (BrokerMovementType, error) {
	i, err := enumParse(brokerMovementTypeNames, "broker movement type", s)
	return BrokerMovementType(i), err
}

// TradeCode is the open/close direction of a stock or option trade.
type TradeCode int

const (
	BuyToOpen TradeCode = iota
	SellToOpen
	BuyToClose
	SellToClose
)

var tradeCodeNames = []string{"buy-to-open", "sell-to-open", "buy-to-close", "sell-to-close"}

func (c TradeCode) String() string { return enumString(tradeCodeNames, int(c)) }

// ParseTradeCode parses the String representation of a TradeCode.
func ParseTradeCode(s string) (TradeCode, error) {
	i, err := enumParse(tradeCodeNames, "trade code", s)
	return TradeCode(i), err
}

// IsOpening reports whether the code opens a position.
func (c TradeCode) IsOpening() bool { return c == BuyToOpen || c == SellToOpen }

// IsBuy reports whether the code is a purchase (cash goes out).
func (c TradeCode) IsBuy() bool { return c == BuyToOpen || c == BuyToClose }

// NetPosition is the signed effect of the code on a contract count. Closing
// trades cancel their opening side: BuyToOpen:+1, SellToClose:-1,
// SellToOpen:-1, BuyToClose:+1.
func (c TradeCode) NetPosition() int {
	switch c {
	case BuyToOpen, BuyToClose:
		return 1
	default:
		return -1
	}
}

// TradeType is the side of a position.
type TradeType int

const (
	Long TradeType = iota
	Short
)

var tradeTypeNames = []string{"long", "short"}

func (t TradeType) String() string { return enumString(tradeTypeNames, int(t)) }

// ParseTradeType parses the String representation of a TradeType.
func ParseTradeType(s string) (TradeType, error) {
	i, err := enumParse(tradeTypeNames, "trade type", s)
	return TradeType(i), err
}

// TradeTypeOf returns the side a code operates on: BuyToOpen and SellToClose
// are Long, SellToOpen and BuyToClose are Short.
func TradeTypeOf(c TradeCode) TradeType {
	if c == BuyToOpen || c == SellToClose {
		return Long
	}
	return Short
}

// OptionType is the right of an option contract.
type OptionType int

const (
	Call OptionType = iota
	Put
)

var optionTypeNames = []string{"call", "put"}

func (t OptionType) String() string { return enumString(optionTypeNames, int(t)) }

// ParseOptionType parses the String representation of an OptionType.
func ParseOptionType(s string) (OptionType, error) {
	i, err := enumParse(optionTypeNames, "option type", s)
	return OptionType(i), err
}

// BankAccountMovementType is the kind of a bank account movement.
type BankAccountMovementType int

const (
	// Balance is a signed deposit (positive) or withdrawal (negative).
	Balance BankAccountMovementType = iota
	Interest
	BankFee
)

var bankAccountMovementTypeNames = []string{"balance", "interest", "fee"}

func (t BankAccountMovementType) String() string {
	return enumString(bankAccountMovementTypeNames, int(t))
}

// ParseBankAccountMovementType parses the String representation of a BankAccountMovementType.
func ParseBankAccountMovementType(s string) (BankAccountMovementType, error) {
	i, err := enumParse(bankAccountMovementTypeNames, "bank movement type", s)
	return BankAccountMovementType(i), err
}

func enumString(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return "unknown"
	}
	return names[i]
}

func enumParse(names []string, what, s string) (int, error) {
	if i := slices.Index(names, s); i >= 0 {
		return i, nil
	}
	return 0, fmt.Errorf("unknown %s: %q", what, s)
}

// BrokerMovement is a cash movement in a broker account.
type BrokerMovement struct {
	ID              int                `json:"id"`
	TimeStamp       DateTime           `json:"timeStamp"`
	Amount          Money              `json:"amount"`
	CurrencyID      int                `json:"currencyId"`
	BrokerAccountID int                `json:"brokerAccountId"`
	Commissions     Money              `json:"commissions"`
	Fees            Money              `json:"fees"`
	MovementType    BrokerMovementType `json:"movementType"`
	Notes           string             `json:"notes,omitempty"`
	// Conversion only: the debited side.
	FromCurrencyID int   `json:"fromCurrencyId,omitempty"`
	AmountChanged  Money `json:"amountChanged"`
	// ACAT securities transfers only.
	TickerID int      `json:"tickerId,omitempty"`
	Quantity Quantity `json:"quantity"`
}

// CashEffect returns the signed effect of the movement on the cash balance in
// currencyID. Movements in other currencies have no effect.
func (m BrokerMovement) CashEffect(currencyID int) Money {
	var effect Money
	if m.MovementType == Conversion && m.FromCurrencyID == currencyID && m.FromCurrencyID != m.CurrencyID {
		return m.AmountChanged.Abs().Neg()
	}
	if m.CurrencyID != currencyID {
		return effect
	}
	switch m.MovementType {
	case Deposit, InterestsGained, Lending, ACATMoneyTransferReceived, Conversion:
		effect = m.Amount
	case Withdrawal, InterestsPaid, ACATMoneyTransferSent:
		effect = m.Amount.Abs().Neg()
	case Fee:
		effect = m.Amount.Abs().Neg()
	}
	return effect.Sub(m.Commissions).Sub(m.Fees)
}

// Trade is a stock trade.
type Trade struct {
	ID              int       `json:"id"`
	TimeStamp       DateTime  `json:"timeStamp"`
	TickerID        int       `json:"tickerId"`
	BrokerAccountID int       `json:"brokerAccountId"`
	CurrencyID      int       `json:"currencyId"`
	Quantity        Quantity  `json:"quantity"`
	Price           Money     `json:"price"`
	Commissions     Money     `json:"commissions"`
	Fees            Money     `json:"fees"`
	TradeCode       TradeCode `json:"tradeCode"`
	TradeType       TradeType `json:"tradeType"`
	Notes           string    `json:"notes,omitempty"`
}

// Gross returns price times quantity.
func (t Trade) Gross() Money { return t.Price.Mul(t.Quantity.Abs()) }

// CashEffect is the signed cash flow of the trade, costs included.
func (t Trade) CashEffect() Money {
	costs := t.Commissions.Add(t.Fees)
	if t.TradeCode.IsBuy() {
		return t.Gross().Add(costs).Neg()
	}
	return t.Gross().Sub(costs)
}

// OptionTrade is a single option contract trade: one record is one contract.
type OptionTrade struct {
	ID              int        `json:"id"`
	TimeStamp       DateTime   `json:"timeStamp"`
	ExpirationDate  DateTime   `json:"expirationDate"`
	Premium         Money      `json:"premium"`
	NetPremium      Money      `json:"netPremium"`
	TickerID        int        `json:"tickerId"`
	BrokerAccountID int        `json:"brokerAccountId"`
	CurrencyID      int        `json:"currencyId"`
	OptionType      OptionType `json:"optionType"`
	Code            TradeCode  `json:"code"`
	Strike          Money      `json:"strike"`
	Commissions     Money      `json:"commissions"`
	Fees            Money      `json:"fees"`
	IsOpen          bool       `json:"isOpen"`
	ClosedWith      int        `json:"closedWith,omitempty"`
	Multiplier      Quantity   `json:"multiplier"`
	Quantity        int        `json:"quantity"`
	Notes           string     `json:"notes,omitempty"`
	UpdatedAt       DateTime   `json:"updatedAt,omitzero"`
}

// Contract identifies the option series the trade belongs to.
func (o OptionTrade) Contract() OptionContract {
	return OptionContract{
		TickerID:   o.TickerID,
		Strike:     o.Strike.Decimal().String(),
		Expiration: o.ExpirationDate.Date(),
		OptionType: o.OptionType,
	}
}

// OptionContract is the (ticker, strike, expiration, type) group key.
type OptionContract struct {
	TickerID   int
	Strike     string // normalized decimal string, comparable
	Expiration Date
	OptionType OptionType
}

// NetPremium computes the net premium of a trade: selling nets the premium
// minus the costs, buying is a debit increased by the costs.
func NetPremium(code TradeCode, premium, commissions, fees Money) Money {
	costs := commissions.Abs().Add(fees.Abs())
	if code.IsBuy() {
		return premium.Abs().Add(costs).Neg()
	}
	return premium.Abs().Sub(costs)
}

type Dividend struct {
	ID              int      `json:"id"`
	TimeStamp       DateTime `json:"timeStamp"`
	Amount          Money    `json:"amount"`
	TickerID        int      `json:"tickerId"`
	CurrencyID      int      `json:"currencyId"`
	BrokerAccountID int      `json:"brokerAccountId"`
}

// DividendTax is a withholding on a dividend. Amount is positive.
type DividendTax struct {
	ID              int      `json:"id"`
	TimeStamp       DateTime `json:"timeStamp"`
	Amount          Money    `json:"amount"`
	TickerID        int      `json:"tickerId"`
	CurrencyID      int      `json:"currencyId"`
	BrokerAccountID int      `json:"brokerAccountId"`
}

type BankAccountMovement struct {
	ID            int                     `json:"id"`
	TimeStamp     DateTime                `json:"timeStamp"`
	Amount        Money                   `json:"amount"`
	BankAccountID int                     `json:"bankAccountId"`
	CurrencyID    int                     `json:"currencyId"`
	MovementType  BankAccountMovementType `json:"movementType"`
}

// TickerSplit multiplies the share count of a ticker by Factor on Date.
type TickerSplit struct {
	ID       int      `json:"id"`
	Date     Date     `json:"date"`
	TickerID int      `json:"tickerId"`
	Factor   Quantity `json:"factor"`
}

type TickerPrice struct {
	ID         int   `json:"id"`
	Date       Date  `json:"date"`
	TickerID   int   `json:"tickerId"`
	CurrencyID int   `json:"currencyId"`
	Price      Money `json:"price"`
}

// Movements is a bundle of broker account records. It is the output of a
// statement conversion and the unit of work of the storage layer.
type Movements struct {
	BrokerMovements []BrokerMovement `json:"brokerMovements,omitempty"`
	Trades          []Trade          `json:"trades,omitempty"`
	OptionTrades    []OptionTrade    `json:"optionTrades,omitempty"`
	Dividends       []Dividend       `json:"dividends,omitempty"`
	DividendTaxes   []DividendTax    `json:"dividendTaxes,omitempty"`
}

// Len returns the total number of records.
func (m Movements) Len() int {
	return len(m.BrokerMovements) + len(m.Trades) + len(m.OptionTrades) + len(m.Dividends) + len(m.DividendTaxes)
}

// Append adds all records of o.
func (m *Movements) Append(o Movements) {
	m.BrokerMovements = append(m.BrokerMovements, o.BrokerMovements...)
	m.Trades = append(m.Trades, o.Trades...)
	m.OptionTrades = append(m.OptionTrades, o.OptionTrades...)
	m.Dividends = append(m.Dividends, o.Dividends...)
	m.DividendTaxes = append(m.DividendTaxes, o.DividendTaxes...)
}

// Filter returns the records accepted by the given predicates on broker
// account and ticker ids. A nil predicate accepts everything.
func (m Movements) Filter(account, ticker func(int) bool) Movements {
	ok := func(f func(int) bool, id int) bool { return f == nil || f(id) }
	var r Movements
	for _, x := range m.BrokerMovements {
		if ok(account, x.BrokerAccountID) && ok(ticker, x.TickerID) {
			r.BrokerMovements = append(r.BrokerMovements, x)
		}
	}
	for _, x := range m.Trades {
		if ok(account, x.BrokerAccountID) && ok(ticker, x.TickerID) {
			r.Trades = append(r.Trades, x)
		}
	}
	for _, x := range m.OptionTrades {
		if ok(account, x.BrokerAccountID) && ok(ticker, x.TickerID) {
			r.OptionTrades = append(r.OptionTrades, x)
		}
	}
	for _, x := range m.Dividends {
		if ok(account, x.BrokerAccountID) && ok(ticker, x.TickerID) {
			r.Dividends = append(r.Dividends, x)
		}
	}
	for _, x := range m.DividendTaxes {
		if ok(account, x.BrokerAccountID) && ok(ticker, x.TickerID) {
			r.DividendTaxes = append(r.DividendTaxes, x)
		}
	}
	return r
}

// Through returns the records dated on or before the given day.
func (m Movements) Through(on Date) Movements {
	return m.between(Date{}, on)
}

// Between returns the records dated strictly after from and on or before to.
// A zero from means since inception.
func (m Movements) Between(from, to Date) Movements {
	return m.between(from, to)
}

func (m Movements) between(from, to Date) Movements {
	in := func(ts DateTime) bool {
		d := ts.Date()
		return (from.IsZero() || d.After(from)) && !d.After(to)
	}
	var r Movements
	for _, x := range m.BrokerMovements {
		if in(x.TimeStamp) {
			r.BrokerMovements = append(r.BrokerMovements, x)
		}
	}
	for _, x := range m.Trades {
		if in(x.TimeStamp) {
			r.Trades = append(r.Trades, x)
		}
	}
	for _, x := range m.OptionTrades {
		if in(x.TimeStamp) {
			r.OptionTrades = append(r.OptionTrades, x)
		}
	}
	for _, x := range m.Dividends {
		if in(x.TimeStamp) {
			r.Dividends = append(r.Dividends, x)
		}
	}
	for _, x := range m.DividendTaxes {
		if in(x.TimeStamp) {
			r.DividendTaxes = append(r.DividendTaxes, x)
		}
	}
	return r
}

// Dates returns the distinct days of all records, ascending.
func (m Movements) Dates() []Date {
	seen := make(map[Date]struct{})
	add := func(ts DateTime) { seen[ts.Date()] = struct{}{} }
	for _, x := range m.BrokerMovements {
		add(x.TimeStamp)
	}
	for _, x := range m.Trades {
		add(x.TimeStamp)
	}
	for _, x := range m.OptionTrades {
		add(x.TimeStamp)
	}
	for _, x := range m.Dividends {
		add(x.TimeStamp)
	}
	for _, x := range m.DividendTaxes {
		add(x.TimeStamp)
	}
	dates := make([]Date, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	slices.SortFunc(dates, Date.Compare)
	return dates
}

// Earliest returns the first day with a record, false when empty.
func (m Movements) Earliest() (Date, bool) {
	dates := m.Dates()
	if len(dates) == 0 {
		return Date{}, false
	}
	return dates[0], true
}

// CurrencyIDs returns the distinct currencies referenced, in order of first appearance.
// A conversion references both its currencies.
func (m Movements) CurrencyIDs() []int {
	var ids []int
	add := func(id int) {
		if id != 0 && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	for _, x := range m.BrokerMovements {
		add(x.CurrencyID)
		if x.MovementType == Conversion {
			add(x.FromCurrencyID)
		}
	}
	for _, x := range m.Trades {
		add(x.CurrencyID)
	}
	for _, x := range m.OptionTrades {
		add(x.CurrencyID)
	}
	for _, x := range m.Dividends {
		add(x.CurrencyID)
	}
	for _, x := range m.DividendTaxes {
		add(x.CurrencyID)
	}
	return ids
}

// TickerIDs returns the distinct tickers referenced, ascending.
func (m Movements) TickerIDs() []int {
	var ids []int
	add := func(id int) {
		if id != 0 && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	for _, x := range m.BrokerMovements {
		add(x.TickerID)
	}
	for _, x := range m.Trades {
		add(x.TickerID)
	}
	for _, x := range m.OptionTrades {
		add(x.TickerID)
	}
	for _, x := range m.Dividends {
		add(x.TickerID)
	}
	for _, x := range m.DividendTaxes {
		add(x.TickerID)
	}
	slices.Sort(ids)
	return ids
}

// BrokerAccountIDs returns the distinct broker accounts referenced, ascending.
func (m Movements) BrokerAccountIDs() []int {
	var ids []int
	add := func(id int) {
		if id != 0 && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	for _, x := range m.BrokerMovements {
		add(x.BrokerAccountID)
	}
	for _, x := range m.Trades {
		add(x.BrokerAccountID)
	}
	for _, x := range m.OptionTrades {
		add(x.BrokerAccountID)
	}
	for _, x := range m.Dividends {
		add(x.BrokerAccountID)
	}
	for _, x := range m.DividendTaxes {
		add(x.BrokerAccountID)
	}
	slices.Sort(ids)
	return ids
}
