package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/binnaculum"
	"github.com/etnz/binnaculum/renderer"
	"github.com/etnz/binnaculum/snapshot"
	"github.com/etnz/binnaculum/storage/memory"
	"github.com/etnz/binnaculum/tastytrade"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type bankMovementCmd struct {
	account int
	kind    string
	amount  string
	date    string
}

func (*bankMovementCmd) Name() string     { return "bank-movement" }
func (*bankMovementCmd) Synopsis() string { return "record a bank account movement" }
func (*bankMovementCmd) Usage() string {
	return `bnc bank-movement -account <id> -type <balance|interest|fee> -amount <amount> [-d <date>]

  Records a movement in a bank account and updates the bank snapshots.
  A balance movement is a signed change of the balance.
`
}

func (c *bankMovementCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.account, "account", 0, "Id of the bank account")
	f.StringVar(&c.kind, "type", "balance", "Type of movement: balance, interest or fee")
	f.StringVar(&c.amount, "amount", "", "Amount in the account currency")
	f.StringVar(&c.date, "d", "", "Day of the movement (defaults to today)")
}

func (c *bankMovementCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	kind, err := binnaculum.ParseBankAccountMovementType(c.kind)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	amount, err := decimal.NewFromString(c.amount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing amount: %v\n", err)
		return subcommands.ExitUsageError
	}
	day, err := parseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, a *app) error {
		acc, err := a.store.BankAccount(ctx, c.account)
		if err != nil {
			return err
		}
		cur, err := a.store.Currency(ctx, acc.CurrencyID)
		if err != nil {
			return err
		}
		_, err = a.store.SaveBankMovement(ctx, binnaculum.BankAccountMovement{
			TimeStamp:     day.StartOfDay(),
			Amount:        binnaculum.M(amount, cur.Code),
			BankAccountID: acc.ID,
			CurrencyID:    cur.ID,
			MovementType:  kind,
		})
		if err != nil {
			return err
		}
		return a.service.RefreshBankAccount(ctx, acc.ID, day)
	})
}

type importCmd struct {
	account int
	session string
	dryRun  bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import Tastytrade transaction history files" }
func (*importCmd) Usage() string {
	return `bnc import -account <id> [-session <id>] [-dry-run] <file.csv>...

  Imports Tastytrade transaction history exports into a broker account, one
  file after the other, and updates the snapshots.

  With -dry-run the files are imported in memory and only the summary is shown.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.account, "account", 0, "Id of the broker account")
	f.StringVar(&c.session, "session", "", "Import session id (defaults to a new one)")
	f.BoolVar(&c.dryRun, "dry-run", false, "Import in memory without saving anything")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.account == 0 || f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: -account and at least one file are required")
		return subcommands.ExitUsageError
	}
	var sources []tastytrade.Source
	for _, path := range f.Args() {
		sources = append(sources, tastytrade.File(path))
	}
	return run(ctx, func(ctx context.Context, a *app) error {
		im := &tastytrade.Importer{Store: a.store, Updater: a.service, Logger: a.log}
		account := c.account
		if c.dryRun {
			store, id, err := dryRun(ctx, a.store, c.account)
			if err != nil {
				return err
			}
			im.Store, account = store, id
			im.Updater = snapshot.NewService(store, a.config.DefaultCurrency, a.config.Snapshots.Workers, a.log)
		}
		res, err := im.Import(ctx, account, c.session, sources...)
		printMarkdown(renderer.RenderImport(res))
		return err
	})
}

// dryRun returns a memory store holding a copy of the broker account, and the
// id of the copy.
func dryRun(ctx context.Context, store binnaculum.Store, accountID int) (*memory.Store, int, error) {
	acc, err := store.BrokerAccount(ctx, accountID)
	if err != nil {
		return nil, 0, err
	}
	broker, err := store.Broker(ctx, acc.BrokerID)
	if err != nil {
		return nil, 0, err
	}
	mem := memory.New()
	broker.ID = 0
	broker, err = mem.SaveBroker(ctx, broker)
	if err != nil {
		return nil, 0, err
	}
	if acc.CurrencyID != 0 {
		cur, err := store.Currency(ctx, acc.CurrencyID)
		if err != nil {
			return nil, 0, err
		}
		if cur, _, err = mem.UpsertCurrency(ctx, cur.Code); err != nil {
			return nil, 0, err
		}
		acc.CurrencyID = cur.ID
	}
	acc.ID, acc.BrokerID = 0, broker.ID
	acc, err = mem.SaveBrokerAccount(ctx, acc)
	return mem, acc.ID, err
}
