package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/binnaculum"
	"github.com/google/subcommands"
)

type addBrokerCmd struct {
	name string
}

func (*addBrokerCmd) Name() string     { return "add-broker" }
func (*addBrokerCmd) Synopsis() string { return "declare a broker" }
func (*addBrokerCmd) Usage() string {
	return `bnc add-broker -name <name>

  Declares a broker. Accounts are then added to it with add-account.
`
}

func (c *addBrokerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Name of the broker")
}

func (c *addBrokerCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.name == "" {
		fmt.Fprintln(os.Stderr, "Error: -name is required")
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, a *app) error {
		b, err := a.store.SaveBroker(ctx, binnaculum.Broker{Name: c.name})
		if err != nil {
			return err
		}
		fmt.Printf("broker %q created with id %d\n", b.Name, b.ID)
		return nil
	})
}

type addAccountCmd struct {
	broker   int
	number   string
	currency string
}

func (*addAccountCmd) Name() string     { return "add-account" }
func (*addAccountCmd) Synopsis() string { return "declare a broker account" }
func (*addAccountCmd) Usage() string {
	return `bnc add-account -broker <id> -number <account number> [-currency <code>]

  Declares an account at a broker. The currency is the home currency of the
  account, it defaults to the configured default currency.
`
}

func (c *addAccountCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.broker, "broker", 0, "Id of the broker")
	f.StringVar(&c.number, "number", "", "Account number")
	f.StringVar(&c.currency, "currency", "", "Home currency of the account")
}

func (c *addAccountCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.broker == 0 || c.number == "" {
		fmt.Fprintln(os.Stderr, "Error: -broker and -number are required")
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, a *app) error {
		cur, err := a.currency(ctx, c.currency)
		if err != nil {
			return err
		}
		acc, err := a.store.SaveBrokerAccount(ctx, binnaculum.BrokerAccount{BrokerID: c.broker, AccountNumber: c.number, CurrencyID: cur.ID})
		if err != nil {
			return err
		}
		fmt.Printf("account %q created with id %d\n", acc.AccountNumber, acc.ID)
		_, err = a.service.Accounts.SetupInitial(ctx, acc.ID)
		return err
	})
}

type addBankCmd struct {
	name string
}

func (*addBankCmd) Name() string     { return "add-bank" }
func (*addBankCmd) Synopsis() string { return "declare a bank" }
func (*addBankCmd) Usage() string {
	return `bnc add-bank -name <name>
`
}

func (c *addBankCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Name of the bank")
}

func (c *addBankCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.name == "" {
		fmt.Fprintln(os.Stderr, "Error: -name is required")
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, a *app) error {
		b, err := a.store.SaveBank(ctx, binnaculum.Bank{Name: c.name})
		if err != nil {
			return err
		}
		fmt.Printf("bank %q created with id %d\n", b.Name, b.ID)
		return nil
	})
}

type addBankAccountCmd struct {
	bank     int
	name     string
	currency string
}

func (*addBankAccountCmd) Name() string     { return "add-bank-account" }
func (*addBankAccountCmd) Synopsis() string { return "declare a bank account" }
func (*addBankAccountCmd) Usage() string {
	return `bnc add-bank-account -bank <id> -name <name> [-currency <code>]
`
}

func (c *addBankAccountCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.bank, "bank", 0, "Id of the bank")
	f.StringVar(&c.name, "name", "", "Name of the account")
	f.StringVar(&c.currency, "currency", "", "Currency of the account")
}

func (c *addBankAccountCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.bank == 0 || c.name == "" {
		fmt.Fprintln(os.Stderr, "Error: -bank and -name are required")
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, a *app) error {
		cur, err := a.currency(ctx, c.currency)
		if err != nil {
			return err
		}
		acc, err := a.store.SaveBankAccount(ctx, binnaculum.BankAccount{BankID: c.bank, Name: c.name, CurrencyID: cur.ID})
		if err != nil {
			return err
		}
		fmt.Printf("bank account %q created with id %d\n", acc.Name, acc.ID)
		_, err = a.service.BankAccounts.SetupInitial(ctx, acc.ID)
		return err
	})
}

// currency returns the currency of code, or of the default currency, creating it if needed.
func (a *app) currency(ctx context.Context, code string) (binnaculum.Currency, error) {
	if code == "" {
		code = a.config.DefaultCurrency
	}
	c, _, err := a.store.UpsertCurrency(ctx, strings.ToUpper(code))
	return c, err
}
