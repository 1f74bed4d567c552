package renderer

import (
	"strings"
	"testing"
	"time"

	"github.com/etnz/binnaculum"
	"github.com/etnz/binnaculum/overview"
	"github.com/etnz/binnaculum/tastytrade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// outline is what the tests check of a rendered document.
type outline struct {
	headings []string
	tables   int
	items    int
}

func parse(t *testing.T, md string) outline {
	t.Helper()
	require.NotContains(t, md, "error ", "rendering failed")
	src := []byte(md)
	root := goldmark.New(goldmark.WithExtensions(extension.Table)).Parser().Parse(text.NewReader(src))

	var o outline
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindHeading:
			var b strings.Builder
			for i := 0; i < n.Lines().Len(); i++ {
				line := n.Lines().At(i)
				b.Write(line.Value(src))
			}
			o.headings = append(o.headings, b.String())
		case east.KindTable:
			o.tables++
		case ast.KindListItem:
			o.items++
		}
		return ast.WalkContinue, nil
	})
	require.NoError(t, err)
	return o
}

func TestRenderImport(t *testing.T) {
	r := tastytrade.ImportResult{
		SessionID:              "c0ffee",
		BrokerAccountID:        1,
		Success:                false,
		ProcessedRecords:       3,
		SkippedRecords:         1,
		TotalRecords:           4,
		Elapsed:                1500 * time.Millisecond,
		Errors:                 []string{"test.csv:5: invalid value"},
		Warnings:               []string{"futures are not supported"},
		BrokerMovementsCreated: 1,
		OptionTradesCreated:    2,
		NewTickers:             []string{"SOFI", "PLTR"},
		Files: []tastytrade.FileResult{
			{File: "test.csv", Transactions: 4, Processed: 3, Skipped: 1},
		},
	}
	md := RenderImport(r)
	o := parse(t, md)
	assert.Equal(t, []string{"Import c0ffee", "Created", "Files", "Errors", "Warnings"}, o.headings)
	assert.Equal(t, 3, o.tables)
	assert.Equal(t, 2, o.items)
	assert.Contains(t, md, "New tickers: SOFI, PLTR")
	assert.Contains(t, md, "| Status | failed |")
}

func TestRenderImport_Clean(t *testing.T) {
	o := parse(t, RenderImport(tastytrade.ImportResult{SessionID: "s", Success: true}))
	assert.Equal(t, []string{"Import s", "Created"}, o.headings)
	assert.Equal(t, 0, o.items)
}

func TestRenderOverview(t *testing.T) {
	day := binnaculum.MustParseDate("2024-03-10")
	usd := func(v float64) binnaculum.Money { return binnaculum.M(v, "USD") }
	broker := binnaculum.Broker{ID: 1, Name: "Tastytrade"}
	snap := binnaculum.BrokerFinancialSnapshot{
		Date: day, BrokerID: 1, CurrencyID: 1, Deposited: usd(1000), Invested: usd(75.5), MarketValue: usd(80),
		Realized: usd(3.5), NetCashFlow: usd(967), OpenTrades: true,
	}
	account := snap
	account.BrokerAccountID = 2

	var b overview.Board
	overview.Merge(&b.Brokers, overview.OfBroker(broker, snap))
	overview.Merge(&b.BrokerAccounts, overview.OfBrokerAccount(binnaculum.BrokerAccount{ID: 2, BrokerID: 1, AccountNumber: "5WT00001"}, account))
	overview.Merge(&b.Banks, overview.Empty())

	md := RenderOverview(BoardSnapshots(&b))
	o := parse(t, md)
	assert.Equal(t, []string{"Overview", "Brokers", "Accounts", "Banks"}, o.headings)
	assert.Equal(t, 2, o.tables)
	assert.Contains(t, md, "| Tastytrade | 2024-03-10 | $1,000.00 |")
	assert.Contains(t, md, "5WT00001")
	assert.Contains(t, md, "No bank snapshot yet.")
}
