package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/binnaculum"
	"github.com/etnz/binnaculum/quote"
	"github.com/google/subcommands"
)

type pricesCmd struct {
	date string
}

func (*pricesCmd) Name() string     { return "prices" }
func (*pricesCmd) Synopsis() string { return "fetch the latest prices of every ticker" }
func (*pricesCmd) Usage() string {
	return `bnc prices [-d <date>]

  Fetches the latest price of every ticker from the configured quote service,
  stores it as the price on the given day, and revalues the snapshots.
`
}

func (c *pricesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Day of the prices (defaults to today)")
}

func (c *pricesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	day, err := parseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, a *app) error {
		updated, err := quote.New(a.config.Quotes, a.log).Update(ctx, a.store, day)
		if err != nil {
			// tickers without quote keep their previous price.
			a.log.Warn().Err(err).Msg("some prices were not updated")
		}
		fmt.Printf("%d prices updated on %s\n", len(updated), day)
		return a.service.RefreshPrices(ctx, day, updated)
	})
}

type recalcCmd struct {
	from string
}

func (*recalcCmd) Name() string     { return "recalc" }
func (*recalcCmd) Synopsis() string { return "recompute every snapshot" }
func (*recalcCmd) Usage() string {
	return `bnc recalc [-from <date>]

  Recomputes the snapshots of every ticker, broker account, broker, bank
  account and bank from the given day on, the whole history by default.
`
}

func (c *recalcCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "First day to recompute (defaults to the whole history)")
}

func (c *recalcCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var from binnaculum.Date
	if c.from != "" {
		var err error
		if from, err = binnaculum.ParseDate(c.from); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	return run(ctx, func(ctx context.Context, a *app) error {
		results, err := a.service.RecalculateEverything(ctx, from)
		for _, r := range results {
			if r.Err != nil {
				fmt.Fprintf(os.Stderr, "%s %d: %v\n", r.Kind, r.EntityID, r.Err)
			}
		}
		fmt.Printf("%d entities recalculated\n", len(results))
		return err
	})
}
