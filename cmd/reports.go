package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/etnz/binnaculum"
	"github.com/etnz/binnaculum/renderer"
	"github.com/google/subcommands"
)

type overviewCmd struct{}

func (*overviewCmd) Name() string     { return "overview" }
func (*overviewCmd) Synopsis() string { return "display the latest snapshots of brokers and banks" }
func (*overviewCmd) Usage() string {
	return `bnc overview

  Displays the latest snapshot of every broker, broker account, bank and bank
  account, in each of their currencies.
`
}

func (c *overviewCmd) SetFlags(f *flag.FlagSet) {}

func (c *overviewCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app) error {
		board, err := a.service.Overviews(ctx)
		if err != nil {
			return err
		}
		printMarkdown(renderer.RenderOverview(renderer.BoardSnapshots(board)))
		return nil
	})
}

type tickersCmd struct{}

func (*tickersCmd) Name() string     { return "tickers" }
func (*tickersCmd) Synopsis() string { return "display the latest snapshot of every ticker" }
func (*tickersCmd) Usage() string {
	return `bnc tickers
`
}

func (c *tickersCmd) SetFlags(f *flag.FlagSet) {}

func (c *tickersCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app) error {
		tickers, err := a.store.Tickers(ctx)
		if err != nil {
			return err
		}
		var b strings.Builder
		b.WriteString("# Tickers\n\n")
		b.WriteString("| Ticker | Date | Shares | Cost basis | Price | Realized | Unrealized | Incomes | Performance | Weight |\n")
		b.WriteString("|---|---|---:|---:|---:|---:|---:|---:|---:|---:|\n")
		for _, t := range tickers {
			keys, err := a.store.TickerSnapshots().Keys(ctx, t.ID)
			if err != nil {
				return err
			}
			for _, k := range keys {
				s, err := a.store.TickerSnapshots().Latest(ctx, k)
				if errors.Is(err, binnaculum.ErrNotFound) {
					continue
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
					t.Symbol, s.Date, s.TotalShares, s.CostBasis, s.LatestPrice, s.Realized.SignedString(),
					s.Unrealized().SignedString(), s.TotalIncomes, s.Performance().SignedString(), s.Weight)
			}
		}
		printMarkdown(b.String())
		return nil
	})
}
