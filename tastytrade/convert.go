package tastytrade

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/etnz/binnaculum"
	"github.com/etnz/binnaculum/common"
	"github.com/shopspring/decimal"
)

// UnsupportedError reports a transaction shape no conversion rule exists for.
type UnsupportedError struct {
	Kind       Kind
	Instrument InstrumentType
}

func (e *UnsupportedError) Error() string {
	switch k := e.Kind.(type) {
	case Unsupported:
		return fmt.Sprintf("unsupported transaction %q/%q", k.Type, k.SubType)
	default:
		return fmt.Sprintf("unsupported %s transaction on %s", k.kind(), e.Instrument)
	}
}

// ValidationError reports a transaction with invalid values. It is dropped.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// errInformational marks rows that carry no movement, like option expirations.
var errInformational = errors.New("informational")

// defaultMultiplier is the contract size of equity options.
var defaultMultiplier = decimal.NewFromInt(100)

// Conversion is the result of converting a list of transactions.
type Conversion struct {
	Movements         binnaculum.Movements
	Splits            []binnaculum.TickerSplit
	TotalTransactions int
	Processed         int
	Skipped           int
	Errors            []string
	Warnings          []string
	NewTickers        []string
}

// Converter maps Tastytrade transactions to binnaculum movement records.
type Converter struct {
	Resolver Resolver
	Logger   *common.Logger
	// Now stamps adjusted option trades. Defaults to binnaculum.Now.
	Now func() binnaculum.DateTime
}

func (c *Converter) now() binnaculum.DateTime {
	if c.Now == nil {
		return binnaculum.Now()
	}
	return c.Now()
}

// Convert sorts the transactions chronologically and converts them for the
// given broker account.
//
// Rows that cannot be converted are reported in the result and skipped. The
// only error returned is the context one: a cancelled conversion returns
// nothing.
func (c *Converter) Convert(ctx context.Context, txs []Transaction, brokerAccountID int) (Conversion, error) {
	log := common.OrSilent(c.Logger)
	sorted := slices.Clone(txs)
	slices.SortStableFunc(sorted, func(a, b Transaction) int { return a.Date.Compare(b.Date) })

	adjustments := DetectStrikeAdjustments(sorted)
	for _, a := range adjustments {
		log.Info().Str("underlying", a.Underlying).Str("from", a.OriginalStrike.String()).
			Str("to", a.AdjustedStrike.String()).Msg("strike adjustment detected")
	}

	var res Conversion
	for _, tx := range sorted {
		if err := ctx.Err(); err != nil {
			return Conversion{}, err
		}
		res.TotalTransactions++
		m, err := c.convert(ctx, tx, brokerAccountID, adjustments, &res)

		var unsupported *UnsupportedError
		var invalid *ValidationError
		switch {
		case err == nil, errors.Is(err, errInformational):
			res.Processed++
			res.Movements.Append(m)
		case errors.As(err, &unsupported):
			res.Skipped++
			res.Errors = append(res.Errors, lineMessage(tx, err))
			log.Warn().Str("file", tx.SourceFile).Int("line", tx.Line).Err(err).Msg("skipping transaction")
		case errors.As(err, &invalid):
			res.Skipped++
			res.Warnings = append(res.Warnings, lineMessage(tx, err))
			log.Warn().Str("file", tx.SourceFile).Int("line", tx.Line).Err(err).Msg("dropping invalid transaction")
		default:
			res.Skipped++
			res.Errors = append(res.Errors, lineMessage(tx, err))
			log.Error().Str("file", tx.SourceFile).Int("line", tx.Line).Err(err).Msg("cannot convert transaction")
		}
	}

	splits, unpaired := DetectSplits(sorted)
	for _, tx := range unpaired {
		res.Warnings = append(res.Warnings, lineMessage(tx, splitWarning(tx)))
	}
	for _, sp := range splits {
		if err := ctx.Err(); err != nil {
			return Conversion{}, err
		}
		cur, err := c.Resolver.Currency(ctx, sp.Currency)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("split of %s on %s: %v", sp.Symbol, sp.Date, err))
			continue
		}
		tickerID, err := c.ticker(ctx, sp.Symbol, cur.ID, &res)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("split of %s on %s: %v", sp.Symbol, sp.Date, err))
			continue
		}
		log.Info().Str("symbol", sp.Symbol).Str("factor", sp.Factor().String()).Msg("split detected")
		res.Splits = append(res.Splits, binnaculum.TickerSplit{Date: sp.Date, TickerID: tickerID, Factor: binnaculum.Q(sp.Factor())})
	}
	return res, nil
}

func lineMessage(tx Transaction, err error) string {
	if tx.SourceFile != "" {
		return fmt.Sprintf("%s:%d: %v", tx.SourceFile, tx.Line, err)
	}
	return fmt.Sprintf("line %d: %v", tx.Line, err)
}

func (c *Converter) convert(ctx context.Context, tx Transaction, accountID int, adjustments []StrikeAdjustment, res *Conversion) (binnaculum.Movements, error) {
	switch k := tx.Kind.(type) {
	case MoneyMovement:
		return c.moneyMovement(ctx, tx, k, accountID, res)
	case TradeAction:
		return c.trade(ctx, tx, k.Action, accountID, adjustments, res)
	case ReceiveDeliver:
		return c.receiveDeliver(ctx, tx, k, accountID, res)
	case Unsupported:
		return binnaculum.Movements{}, &UnsupportedError{Kind: k, Instrument: tx.Instrument}
	default:
		return binnaculum.Movements{}, &UnsupportedError{Kind: Unsupported{Type: fmt.Sprint(k)}, Instrument: tx.Instrument}
	}
}

// ticker resolves the ticker and remembers it when created.
func (c *Converter) ticker(ctx context.Context, symbol string, currencyID int, res *Conversion) (int, error) {
	if symbol == "" {
		return 0, &ValidationError{Message: "missing symbol"}
	}
	t, created, err := c.Resolver.Ticker(ctx, symbol, currencyID)
	if err != nil {
		return 0, err
	}
	if created && !slices.Contains(res.NewTickers, t.Symbol) {
		res.NewTickers = append(res.NewTickers, t.Symbol)
	}
	return t.ID, nil
}

func (c *Converter) moneyMovement(ctx context.Context, tx Transaction, k MoneyMovement, accountID int, res *Conversion) (binnaculum.Movements, error) {
	var m binnaculum.Movements
	cur, err := c.Resolver.Currency(ctx, tx.Currency)
	if err != nil {
		return m, err
	}
	money := func(d decimal.Decimal) binnaculum.Money { return binnaculum.M(d, tx.Currency) }
	value := tx.Value

	if k.SubType == Dividend {
		if value.IsZero() {
			return m, &ValidationError{Message: "zero dividend"}
		}
		tickerID, err := c.ticker(ctx, tx.UnderlyingSymbol(), cur.ID, res)
		if err != nil {
			return m, err
		}
		if value.IsPositive() {
			m.Dividends = append(m.Dividends, binnaculum.Dividend{
				TimeStamp: tx.Date, Amount: money(value), TickerID: tickerID, CurrencyID: cur.ID, BrokerAccountID: accountID,
			})
		} else {
			m.DividendTaxes = append(m.DividendTaxes, binnaculum.DividendTax{
				TimeStamp: tx.Date, Amount: money(value.Abs()), TickerID: tickerID, CurrencyID: cur.ID, BrokerAccountID: accountID,
			})
		}
		return m, nil
	}

	bm := binnaculum.BrokerMovement{
		TimeStamp:       tx.Date,
		Amount:          money(value.Abs()),
		CurrencyID:      cur.ID,
		BrokerAccountID: accountID,
		Commissions:     money(tx.Commissions.Abs()),
		Fees:            money(tx.Fees.Abs()),
		Notes:           tx.Description,
	}
	switch k.SubType {
	case Deposit:
		bm.MovementType = binnaculum.Deposit
	case Withdrawal:
		bm.MovementType = binnaculum.Withdrawal
	case BalanceAdjustment, Fee:
		// a debit is a fee paid, a credit a refund.
		bm.MovementType = binnaculum.Fee
		bm.Amount = money(decimal.Zero)
		bm.Fees = money(value.Neg())
	case CreditInterest:
		bm.MovementType = binnaculum.InterestsGained
	case DebitInterest:
		bm.MovementType = binnaculum.InterestsPaid
	case Lending:
		bm.MovementType = binnaculum.Lending
		bm.Amount = money(value)
	case Transfer:
		bm.MovementType = binnaculum.ACATMoneyTransferReceived
		if value.IsNegative() {
			bm.MovementType = binnaculum.ACATMoneyTransferSent
		}
	default:
		return m, &UnsupportedError{Kind: k, Instrument: tx.Instrument}
	}
	m.BrokerMovements = append(m.BrokerMovements, bm)
	return m, nil
}

func (c *Converter) trade(ctx context.Context, tx Transaction, code binnaculum.TradeCode, accountID int, adjustments []StrikeAdjustment, res *Conversion) (binnaculum.Movements, error) {
	var m binnaculum.Movements
	switch {
	case tx.Instrument.IsOption():
		cur, err := c.Resolver.Currency(ctx, tx.Currency)
		if err != nil {
			return m, err
		}
		tickerID, err := c.ticker(ctx, tx.UnderlyingSymbol(), cur.ID, res)
		if err != nil {
			return m, err
		}
		m.OptionTrades, err = c.expandOption(tx, code, tickerID, cur.ID, accountID, adjustmentsFor(adjustments, tx.UnderlyingSymbol()))
		return m, err
	case tx.Instrument == Equity:
		quantity := tx.Quantity.Abs()
		if !quantity.IsPositive() {
			return m, &ValidationError{Message: fmt.Sprintf("invalid trade quantity %s", tx.Quantity)}
		}
		cur, err := c.Resolver.Currency(ctx, tx.Currency)
		if err != nil {
			return m, err
		}
		tickerID, err := c.ticker(ctx, tx.Symbol, cur.ID, res)
		if err != nil {
			return m, err
		}
		price := tx.AveragePrice.Abs()
		if price.IsZero() {
			price = tx.Value.Abs().Div(quantity)
		}
		m.Trades = append(m.Trades, binnaculum.Trade{
			TimeStamp:       tx.Date,
			TickerID:        tickerID,
			BrokerAccountID: accountID,
			CurrencyID:      cur.ID,
			Quantity:        binnaculum.Q(quantity),
			Price:           binnaculum.M(price, tx.Currency),
			Commissions:     binnaculum.M(tx.Commissions.Abs(), tx.Currency),
			Fees:            binnaculum.M(tx.Fees.Abs(), tx.Currency),
			TradeCode:       code,
			TradeType:       binnaculum.TradeTypeOf(code),
			Notes:           tx.Description,
		})
		return m, nil
	default:
		return m, &UnsupportedError{Kind: TradeAction{Action: code}, Instrument: tx.Instrument}
	}
}

// expandOption turns an option trade of N contracts into N single contract
// records. Premium, commissions and fees are split evenly.
func (c *Converter) expandOption(tx Transaction, code binnaculum.TradeCode, tickerID, currencyID, accountID int, adjustments []StrikeAdjustment) ([]binnaculum.OptionTrade, error) {
	quantity := tx.Quantity.Abs()
	if !quantity.IsPositive() || !quantity.IsInteger() {
		return nil, &ValidationError{Message: fmt.Sprintf("invalid option quantity %s", tx.Quantity)}
	}
	contract, err := tx.option()
	if err != nil {
		return nil, err
	}
	money := func(d decimal.Decimal) binnaculum.Money { return binnaculum.M(d, tx.Currency) }

	n := quantity.IntPart()
	premium := money(tx.Value.Abs().Div(quantity))
	commissions := money(tx.Commissions.Abs().Div(quantity))
	fees := money(tx.Fees.Abs().Div(quantity))
	multiplier := tx.Multiplier
	if multiplier.IsZero() {
		multiplier = defaultMultiplier
	}

	now := c.now()
	trades := make([]binnaculum.OptionTrade, 0, n)
	for range n {
		o := binnaculum.OptionTrade{
			TimeStamp:       tx.Date,
			ExpirationDate:  contract.Expiration.EndOfDay(),
			Premium:         premium,
			NetPremium:      binnaculum.NetPremium(code, premium, commissions, fees),
			TickerID:        tickerID,
			BrokerAccountID: accountID,
			CurrencyID:      currencyID,
			OptionType:      contract.Type,
			Code:            code,
			Strike:          money(contract.Strike),
			Commissions:     commissions,
			Fees:            fees,
			IsOpen:          code.IsOpening(),
			Multiplier:      binnaculum.Q(multiplier),
			Quantity:        1,
			Notes:           tx.Description,
		}
		o, _ = AdjustStrike(o, adjustments, now)
		trades = append(trades, o)
	}
	return trades, nil
}

func (c *Converter) receiveDeliver(ctx context.Context, tx Transaction, k ReceiveDeliver, accountID int, res *Conversion) (binnaculum.Movements, error) {
	var m binnaculum.Movements
	switch k.SubType {
	case ACAT:
		if tx.Instrument != Equity {
			return m, &UnsupportedError{Kind: k, Instrument: tx.Instrument}
		}
		quantity := tx.Quantity.Abs()
		if !quantity.IsPositive() {
			return m, &ValidationError{Message: fmt.Sprintf("invalid transfer quantity %s", tx.Quantity)}
		}
		cur, err := c.Resolver.Currency(ctx, tx.Currency)
		if err != nil {
			return m, err
		}
		tickerID, err := c.ticker(ctx, tx.Symbol, cur.ID, res)
		if err != nil {
			return m, err
		}
		// received shares are a cost free long position.
		m.Trades = append(m.Trades, binnaculum.Trade{
			TimeStamp:       tx.Date,
			TickerID:        tickerID,
			BrokerAccountID: accountID,
			CurrencyID:      cur.ID,
			Quantity:        binnaculum.Q(quantity),
			Price:           binnaculum.M(0, tx.Currency),
			Commissions:     binnaculum.M(0, tx.Currency),
			Fees:            binnaculum.M(0, tx.Currency),
			TradeCode:       binnaculum.BuyToOpen,
			TradeType:       binnaculum.Long,
			Notes:           tx.Description,
		})
		return m, nil
	case Expiration, Assignment, Exercise, CashSettledAssignment, SpecialDividend, ForwardSplit, ReverseSplit, SymbolChange:
		return m, errInformational
	default:
		return m, &UnsupportedError{Kind: k, Instrument: tx.Instrument}
	}
}
