package tastytrade

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/etnz/binnaculum"
	"github.com/shopspring/decimal"
)

// ParseError reports a malformed row. The row is skipped, the file goes on.
type ParseError struct {
	Line       int
	Message    string
	RawLine    string
	SourceFile string
}

func (e ParseError) Error() string {
	if e.SourceFile != "" {
		return fmt.Sprintf("%s:%d: %s", e.SourceFile, e.Line, e.Message)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// column names of the export.
const (
	colDate         = "Date"
	colType         = "Type"
	colSubType      = "Sub Type"
	colAction       = "Action"
	colSymbol       = "Symbol"
	colInstrument   = "Instrument Type"
	colDescription  = "Description"
	colValue        = "Value"
	colQuantity     = "Quantity"
	colAveragePrice = "Average Price"
	colCommissions  = "Commissions"
	colFees         = "Fees"
	colMultiplier   = "Multiplier"
	colRootSymbol   = "Root Symbol"
	colUnderlying   = "Underlying Symbol"
	colExpiration   = "Expiration Date"
	colStrike       = "Strike Price"
	colCallOrPut    = "Call or Put"
	colOrder        = "Order #"
	colCurrency     = "Currency"
)

var requiredColumns = []string{colDate, colType, colSubType, colValue}

var dateFormats = []string{
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
	binnaculum.DateTimeFormat,
}

var expirationFormats = []string{"1/2/06", "2006-01-02"}

var actions = map[string]binnaculum.TradeCode{
	"BUY_TO_OPEN":   binnaculum.BuyToOpen,
	"SELL_TO_OPEN":  binnaculum.SellToOpen,
	"BUY_TO_CLOSE":  binnaculum.BuyToClose,
	"SELL_TO_CLOSE": binnaculum.SellToClose,
	"Buy to Open":   binnaculum.BuyToOpen,
	"Sell to Open":  binnaculum.SellToOpen,
	"Buy to Close":  binnaculum.BuyToClose,
	"Sell to Close": binnaculum.SellToClose,
}

// row gives access to the fields of a record by column name.
type row struct {
	header map[string]int
	fields []string
}

func (r row) get(col string) string {
	i, ok := r.header[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

// decimal parses a numeric field. Empty and "--" mean zero.
func (r row) decimal(col string) (decimal.Decimal, error) {
	q, err := binnaculum.ParseQuantity(r.get(col))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", col, err)
	}
	return q.Decimal(), nil
}

func parseDate(s string) (binnaculum.DateTime, error) {
	for _, f := range dateFormats {
		if t, err := time.Parse(f, s); err == nil {
			return binnaculum.NewDateTime(t), nil
		}
	}
	return binnaculum.DateTime{}, fmt.Errorf("invalid date %q", s)
}

func parseExpiration(s string) (binnaculum.Date, error) {
	if s == "" || s == "--" {
		return binnaculum.Date{}, nil
	}
	for _, f := range expirationFormats {
		if t, err := time.Parse(f, s); err == nil {
			return binnaculum.NewDate(t.Date()), nil
		}
	}
	return binnaculum.Date{}, fmt.Errorf("invalid expiration date %q", s)
}

// parseKind maps the Type, Sub Type and Action columns to a Kind.
func parseKind(typ, subType, action string) Kind {
	switch typ {
	case "Money Movement":
		if st, ok := moneyMovementTypes[subType]; ok {
			return MoneyMovement{SubType: st}
		}
	case "Trade":
		code, ok := actions[action]
		if !ok {
			code, ok = actions[subType]
		}
		if ok {
			return TradeAction{Action: code}
		}
	case "Receive Deliver":
		if st, ok := receiveDeliverTypes[subType]; ok {
			code, hasAction := actions[action]
			return ReceiveDeliver{SubType: st, Action: code, HasAction: hasAction}
		}
	}
	return Unsupported{Type: typ, SubType: subType}
}

// Parse reads a Tastytrade transaction history export. Columns are matched by
// name from the header row. Quoted fields may span several lines, a row is
// numbered after the line it starts on. Rows that cannot be read are returned
// as ParseErrors. An error is returned only when the header itself is unusable.
func Parse(r io.Reader, sourceFile string) ([]Transaction, []ParseError, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", sourceFile, err)
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var header map[string]int
	var txs []Transaction
	var errs []ParseError
	var offset int64
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		raw := strings.Trim(string(data[offset:cr.InputOffset()]), "\r\n")
		offset = cr.InputOffset()
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return txs, errs, fmt.Errorf("%s: %w", sourceFile, err)
			}
			if header == nil {
				return nil, nil, fmt.Errorf("%s: invalid header: %w", sourceFile, err)
			}
			errs = append(errs, ParseError{Line: perr.StartLine, Message: perr.Err.Error(), RawLine: raw, SourceFile: sourceFile})
			continue
		}
		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			continue
		}
		line, _ := cr.FieldPos(0)
		if header == nil {
			header, err = parseHeader(fields)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: %w", sourceFile, err)
			}
			continue
		}
		tx, err := parseRow(row{header: header, fields: fields})
		if err != nil {
			errs = append(errs, ParseError{Line: line, Message: err.Error(), RawLine: raw, SourceFile: sourceFile})
			continue
		}
		tx.Line, tx.RawLine, tx.SourceFile = line, raw, sourceFile
		txs = append(txs, tx)
	}
	if header == nil {
		return nil, nil, fmt.Errorf("%s: missing header", sourceFile)
	}
	return txs, errs, nil
}

func parseHeader(fields []string) (map[string]int, error) {
	header := make(map[string]int, len(fields))
	for i, f := range fields {
		header[strings.TrimSpace(f)] = i
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := header[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns %s", strings.Join(missing, ", "))
	}
	return header, nil
}

func parseRow(r row) (Transaction, error) {
	var tx Transaction
	var err error
	if tx.Date, err = parseDate(r.get(colDate)); err != nil {
		return tx, err
	}
	tx.Kind = parseKind(r.get(colType), r.get(colSubType), r.get(colAction))
	tx.Symbol = r.get(colSymbol)
	tx.Instrument = instrumentTypes[r.get(colInstrument)]
	tx.Description = r.get(colDescription)
	tx.RootSymbol = r.get(colRootSymbol)
	tx.Underlying = r.get(colUnderlying)
	tx.Order = r.get(colOrder)

	for _, f := range []struct {
		col string
		dst *decimal.Decimal
	}{
		{colValue, &tx.Value},
		{colQuantity, &tx.Quantity},
		{colAveragePrice, &tx.AveragePrice},
		{colCommissions, &tx.Commissions},
		{colFees, &tx.Fees},
		{colMultiplier, &tx.Multiplier},
		{colStrike, &tx.Strike},
	} {
		if *f.dst, err = r.decimal(f.col); err != nil {
			return tx, err
		}
	}
	if tx.Expiration, err = parseExpiration(r.get(colExpiration)); err != nil {
		return tx, err
	}
	switch strings.ToUpper(r.get(colCallOrPut)) {
	case "PUT", "P":
		tx.OptionType = binnaculum.Put
	default:
		tx.OptionType = binnaculum.Call
	}
	tx.Currency = strings.ToUpper(r.get(colCurrency))
	if tx.Currency == "" {
		tx.Currency = "USD"
	}
	return tx, nil
}
