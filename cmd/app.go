// Package cmd implements the bnc commands: managing brokers and banks,
// importing broker statements and reporting their snapshots.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/etnz/binnaculum"
	"github.com/etnz/binnaculum/common"
	"github.com/etnz/binnaculum/snapshot"
	"github.com/etnz/binnaculum/storage/memory"
	"github.com/etnz/binnaculum/storage/sqlite"
	"github.com/google/subcommands"
)

// Command is a subcommand and the group it is listed in.
type Command struct {
	subcommands.Command
	Group string
}

// Commands lists every bnc subcommand.
var Commands = []Command{
	{&addBrokerCmd{}, "entities"},
	{&addAccountCmd{}, "entities"},
	{&addBankCmd{}, "entities"},
	{&addBankAccountCmd{}, "entities"},
	{&bankMovementCmd{}, "movements"},
	{&importCmd{}, "movements"},
	{&overviewCmd{}, "reports"},
	{&tickersCmd{}, "reports"},
	{&pricesCmd{}, "snapshots"},
	{&recalcCmd{}, "snapshots"},
}

// Register the subcommands.
func Register(c *subcommands.Commander) {
	for _, cmd := range Commands {
		c.Register(cmd.Command, cmd.Group)
	}
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	configPath = flag.String("config", "binnaculum.toml", "Path to the configuration file")
	rawOutput  = flag.Bool("raw", false, "Print reports as raw markdown")
)

// app holds what every command needs: configuration, logger, store and snapshots.
type app struct {
	config  *common.Config
	log     *common.Logger
	store   binnaculum.Store
	service *snapshot.Service
}

// open loads the configuration and opens the configured store.
func open() (*app, error) {
	config, err := common.LoadConfig(*configPath)
	if err != nil {
		return nil, err
	}
	log := common.NewLogger(config.Logging.Level, config.Logging.Format)

	var store binnaculum.Store
	switch config.Storage.Driver {
	case "memory":
		store = memory.New()
	default:
		store, err = sqlite.Open(config.Storage.Path, log)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", config.Storage.Path, err)
		}
	}
	return &app{
		config:  config,
		log:     log,
		store:   store,
		service: snapshot.NewService(store, config.DefaultCurrency, config.Snapshots.Workers, log),
	}, nil
}

func (a *app) Close() error {
	if c, ok := a.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// run opens the app, runs fn and closes the app. Errors are printed on stderr.
func run(ctx context.Context, fn func(context.Context, *app) error) subcommands.ExitStatus {
	a, err := open()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()
	if err := fn(ctx, a); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// parseDate parses a date flag, empty meaning today.
func parseDate(s string) (binnaculum.Date, error) {
	if s == "" {
		return binnaculum.Today(), nil
	}
	return binnaculum.ParseDate(s)
}
