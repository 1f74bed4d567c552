package cmd

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/etnz/binnaculum"
	"github.com/etnz/binnaculum/storage/sqlite"
	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statement = `Date,Type,Sub Type,Action,Symbol,Instrument Type,Description,Value,Quantity,Average Price,Commissions,Fees,Multiplier,Root Symbol,Underlying Symbol,Expiration Date,Strike Price,Call or Put,Order #,Currency
2024-04-27T15:02:14+0000,Money Movement,Deposit,,,,ACH DEPOSIT,10.00,0,--,0.00,0.00,,,,,,,,USD
2024-04-25T15:30:52+0000,Trade,Sell to Open,SELL_TO_OPEN,SOFI  240503P00007000,Equity Option,Sold 1 SOFI 05/03/24 Put 7.00 @ 0.35,35.00,1,35.00,-1.00,-0.14,100,SOFI,SOFI,5/03/24,7,PUT,320734834,USD
`

// setup points the commands to a fresh sqlite database and returns its path.
func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	db := filepath.Join(dir, "bnc.db")
	config := filepath.Join(dir, "binnaculum.toml")
	content := "default_currency = \"USD\"\n\n[storage]\ndriver = \"sqlite\"\npath = \"" + filepath.ToSlash(db) + "\"\n\n[logging]\nlevel = \"error\"\n"
	require.NoError(t, os.WriteFile(config, []byte(content), 0o644))

	oldConfig, oldRaw := *configPath, *rawOutput
	*configPath, *rawOutput = config, true
	t.Cleanup(func() { *configPath, *rawOutput = oldConfig, oldRaw })
	return db
}

// bnc runs a command line as the bnc binary would.
func bnc(t *testing.T, line ...string) subcommands.ExitStatus {
	t.Helper()
	fs := flag.NewFlagSet("bnc", flag.ContinueOnError)
	commander := subcommands.NewCommander(fs, "bnc")
	Register(commander)
	require.NoError(t, fs.Parse(line))
	return commander.Execute(context.Background())
}

func TestImport(t *testing.T) {
	db := setup(t)
	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "history.csv")
	require.NoError(t, os.WriteFile(file, []byte(statement), 0o644))

	require.Equal(t, subcommands.ExitSuccess, bnc(t, "add-broker", "-name", "Tastytrade"))
	require.Equal(t, subcommands.ExitSuccess, bnc(t, "add-account", "-broker", "1", "-number", "5WT00001"))
	assert.Equal(t, subcommands.ExitUsageError, bnc(t, "import", "-account", "1"))

	require.Equal(t, subcommands.ExitSuccess, bnc(t, "import", "-account", "1", "-dry-run", file))
	count := func() int {
		s, err := sqlite.Open(db, nil)
		require.NoError(t, err)
		defer s.Close()
		m, err := s.Movements(ctx, binnaculum.MovementFilter{BrokerAccountID: 1})
		require.NoError(t, err)
		return m.Len()
	}
	assert.Equal(t, 0, count(), "dry run must not save")

	require.Equal(t, subcommands.ExitSuccess, bnc(t, "import", "-account", "1", file))
	assert.Equal(t, 2, count())

	s, err := sqlite.Open(db, nil)
	require.NoError(t, err)
	defer s.Close()
	snap, err := s.BrokerAccountSnapshots().ByKeyAndDate(ctx, binnaculum.SnapshotKey{EntityID: 1, CurrencyID: 1}, binnaculum.MustParseDate("2024-04-27"))
	require.NoError(t, err)
	assert.True(t, snap.Deposited.Equal(binnaculum.M(10, "USD")), "got %v", snap.Deposited)

	assert.Equal(t, subcommands.ExitSuccess, bnc(t, "overview"))
	assert.Equal(t, subcommands.ExitSuccess, bnc(t, "tickers"))
	assert.Equal(t, subcommands.ExitSuccess, bnc(t, "recalc"))
}

func TestBankMovement(t *testing.T) {
	db := setup(t)
	require.Equal(t, subcommands.ExitSuccess, bnc(t, "add-bank", "-name", "Revolut"))
	require.Equal(t, subcommands.ExitSuccess, bnc(t, "add-bank-account", "-bank", "1", "-name", "Savings", "-currency", "eur"))
	assert.Equal(t, subcommands.ExitUsageError, bnc(t, "bank-movement", "-account", "1", "-type", "gift", "-amount", "1"))
	require.Equal(t, subcommands.ExitSuccess, bnc(t, "bank-movement", "-account", "1", "-amount", "100", "-d", "2025-01-05"))
	require.Equal(t, subcommands.ExitSuccess, bnc(t, "bank-movement", "-account", "1", "-type", "interest", "-amount", "2", "-d", "2025-01-10"))

	s, err := sqlite.Open(db, nil)
	require.NoError(t, err)
	defer s.Close()
	snap, err := s.BankAccountSnapshots().ByKeyAndDate(context.Background(), binnaculum.SnapshotKey{EntityID: 1, CurrencyID: 1}, binnaculum.MustParseDate("2025-01-10"))
	require.NoError(t, err)
	assert.True(t, snap.Balance.Equal(binnaculum.M(102, "EUR")), "got %v", snap.Balance)
}

func TestCompletion(t *testing.T) {
	c := Completion()
	for _, cmd := range Commands {
		sub, ok := c.Sub[cmd.Name()]
		if assert.True(t, ok, "no completion for %s", cmd.Name()) && strings.HasPrefix(cmd.Name(), "add-") {
			assert.NotEmpty(t, sub.Flags, "no flag completion for %s", cmd.Name())
		}
	}
	assert.NotNil(t, c.Sub["import"].Args)
	assert.Contains(t, c.Sub["import"].Flags, "dry-run")
}

func TestRunExtension_NotFound(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	found, code := RunExtension("nothing", nil)
	assert.False(t, found)
	assert.Equal(t, 0, code)
}
