package sqlite

import (
	"context"
	"testing"

	"github.com/etnz/binnaculum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(date string, balance float64) binnaculum.BankAccountSnapshot {
	return binnaculum.BankAccountSnapshot{
		Date: binnaculum.MustParseDate(date), BankAccountID: 1, CurrencyID: 1,
		Balance: usd(balance), InterestEarned: usd(0), FeesPaid: usd(0),
	}
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	r := open(t).BankAccountSnapshots()
	key := binnaculum.SnapshotKey{EntityID: 1, CurrencyID: 1}

	_, err := r.Latest(ctx, key)
	assert.ErrorIs(t, err, binnaculum.ErrNotFound)

	for _, s := range []binnaculum.BankAccountSnapshot{snap("2025-01-10", 30), snap("2025-01-01", 10), snap("2025-01-05", 20)} {
		require.NoError(t, r.Save(ctx, s))
	}
	all, err := r.All(ctx, key)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2025-01-01", all[0].Date.String())
	assert.NotZero(t, all[0].ID)

	latest, err := r.Latest(ctx, key)
	require.NoError(t, err)
	assert.True(t, latest.Equal(snap("2025-01-10", 30)))

	before, err := r.Before(ctx, key, binnaculum.MustParseDate("2025-01-05"))
	require.NoError(t, err)
	assert.True(t, before.Equal(snap("2025-01-01", 10)))
	_, err = r.Before(ctx, key, binnaculum.MustParseDate("2025-01-01"))
	assert.ErrorIs(t, err, binnaculum.ErrNotFound)

	after, err := r.After(ctx, key, binnaculum.MustParseDate("2025-01-01"))
	require.NoError(t, err)
	assert.Len(t, after, 2)
	after, err = r.After(ctx, key, binnaculum.Date{})
	require.NoError(t, err)
	assert.Len(t, after, 3)

	require.NoError(t, r.Save(ctx, snap("2025-01-05", 25)))
	got, err := r.ByKeyAndDate(ctx, key, binnaculum.MustParseDate("2025-01-05"))
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(usd(25)))

	inserted, err := r.InsertIfNotExists(ctx, snap("2025-01-05", 99))
	require.NoError(t, err)
	assert.False(t, inserted)
	inserted, err = r.InsertIfNotExists(ctx, snap("2025-01-07", 99))
	require.NoError(t, err)
	assert.True(t, inserted)

	keys, err := r.Keys(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []binnaculum.SnapshotKey{key}, keys)
	keys, err = r.Keys(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestRepository_KindsAreSeparate(t *testing.T) {
	ctx := context.Background()
	s := open(t)
	account := binnaculum.BrokerFinancialSnapshot{Date: binnaculum.MustParseDate("2025-01-01"), BrokerID: 1, BrokerAccountID: 1, CurrencyID: 1, Deposited: usd(10)}
	require.NoError(t, s.BrokerAccountSnapshots().Save(ctx, account))

	_, err := s.BrokerSnapshots().Latest(ctx, binnaculum.SnapshotKey{EntityID: 1, CurrencyID: 1})
	assert.ErrorIs(t, err, binnaculum.ErrNotFound)
	got, err := s.BrokerAccountSnapshots().Latest(ctx, binnaculum.SnapshotKey{EntityID: 1, CurrencyID: 1})
	require.NoError(t, err)
	assert.True(t, got.Equal(account))
}
