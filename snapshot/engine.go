// Package snapshot computes and maintains the daily snapshots of tickers,
// broker accounts, brokers, bank accounts and banks.
//
// Snapshots are cumulative: each one is the previous snapshot of the same
// entity and currency plus the movements dated after it, up to and including
// its own day. Inserting a movement in the past therefore invalidates every
// later snapshot, and a cascade recomputes them in chronological order.
package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/etnz/binnaculum"
	"github.com/etnz/binnaculum/common"
)

// calculator computes the snapshots of one kind of entity.
type calculator[S binnaculum.Snapshot] interface {
	// created returns the day the entity was created. It fails with a
	// binnaculum.LookupError when the entity does not exist.
	created(ctx context.Context, entityID int) (binnaculum.Date, error)
	// currencies returns the currencies relevant to the entity, ascending.
	currencies(ctx context.Context, entityID int) ([]int, error)
	// days returns the days with activity for the entity, ascending.
	days(ctx context.Context, entityID int) ([]binnaculum.Date, error)
	// compute returns the snapshot of key on day. Cumulative values start
	// from prev when it is not nil, from zero otherwise.
	compute(ctx context.Context, key binnaculum.SnapshotKey, day binnaculum.Date, prev *S) (S, error)
}

// engine maintains the snapshots of one kind of entity in a repository.
type engine[S binnaculum.Snapshot] struct {
	kind string
	repo binnaculum.SnapshotRepository[S]
	calc calculator[S]
	log  *common.Logger
}

func newEngine[S binnaculum.Snapshot](kind string, repo binnaculum.SnapshotRepository[S], calc calculator[S], log *common.Logger) *engine[S] {
	return &engine[S]{kind: kind, repo: repo, calc: calc, log: common.OrSilent(log)}
}

// check fails when the entity does not exist. Computing snapshots for a
// missing entity would silently break the cumulative chain.
func (e *engine[S]) check(ctx context.Context, entityID int) (binnaculum.Date, error) {
	day, err := e.calc.created(ctx, entityID)
	if err != nil {
		e.log.Error().Str("kind", e.kind).Int("id", entityID).Err(err).Msg("cannot calculate snapshots")
		return binnaculum.Date{}, fmt.Errorf("%s snapshots: %w", e.kind, err)
	}
	return day, nil
}

// previous returns the nearest snapshot strictly before day, nil when there is none.
func (e *engine[S]) previous(ctx context.Context, key binnaculum.SnapshotKey, day binnaculum.Date) (*S, error) {
	p, err := e.repo.Before(ctx, key, day)
	if errors.Is(err, binnaculum.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (e *engine[S]) save(ctx context.Context, key binnaculum.SnapshotKey, day binnaculum.Date, prev *S) (S, error) {
	s, err := e.calc.compute(ctx, key, day, prev)
	if err != nil {
		return s, fmt.Errorf("%s %d snapshot on %s: %w", e.kind, key.EntityID, day, err)
	}
	if err := e.repo.Save(ctx, s); err != nil {
		return s, fmt.Errorf("saving %s %d snapshot on %s: %w", e.kind, key.EntityID, day, err)
	}
	e.log.Debug().Str("kind", e.kind).Int("id", key.EntityID).Int("currency", key.CurrencyID).
		Stringer("date", day).Msg("snapshot computed")
	return s, nil
}

func (e *engine[S]) keys(ctx context.Context, entityID int) ([]binnaculum.SnapshotKey, error) {
	currencies, err := e.calc.currencies(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("%s %d currencies: %w", e.kind, entityID, err)
	}
	keys := make([]binnaculum.SnapshotKey, 0, len(currencies))
	for _, c := range currencies {
		keys = append(keys, binnaculum.SnapshotKey{EntityID: entityID, CurrencyID: c})
	}
	return keys, nil
}

// SetupInitial creates the first snapshots of an entity without any: one per
// relevant currency, on the day the entity was created. It does nothing for
// an entity that already has snapshots.
func (e *engine[S]) SetupInitial(ctx context.Context, entityID int) ([]S, error) {
	day, err := e.check(ctx, entityID)
	if err != nil {
		return nil, err
	}
	existing, err := e.repo.Keys(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, nil
	}
	keys, err := e.keys(ctx, entityID)
	if err != nil {
		return nil, err
	}
	var res []S
	for _, key := range keys {
		s, err := e.calc.compute(ctx, key, day, nil)
		if err != nil {
			return res, fmt.Errorf("%s %d initial snapshot: %w", e.kind, entityID, err)
		}
		inserted, err := e.repo.InsertIfNotExists(ctx, s)
		if err != nil {
			return res, fmt.Errorf("saving %s %d initial snapshot: %w", e.kind, entityID, err)
		}
		if inserted {
			res = append(res, s)
		}
	}
	return res, nil
}

// OneDayUpdate recomputes the snapshots of the entity on day, one per
// relevant currency, starting from the nearest previous snapshots.
func (e *engine[S]) OneDayUpdate(ctx context.Context, entityID int, day binnaculum.Date) ([]S, error) {
	if _, err := e.check(ctx, entityID); err != nil {
		return nil, err
	}
	keys, err := e.keys(ctx, entityID)
	if err != nil {
		return nil, err
	}
	res := make([]S, 0, len(keys))
	for _, key := range keys {
		prev, err := e.previous(ctx, key, day)
		if err != nil {
			return res, err
		}
		s, err := e.save(ctx, key, day, prev)
		if err != nil {
			return res, err
		}
		res = append(res, s)
	}
	return res, nil
}

// OneDayWithPrevious recomputes the snapshot of key on day when its previous
// snapshot is already at hand.
func (e *engine[S]) OneDayWithPrevious(ctx context.Context, key binnaculum.SnapshotKey, day binnaculum.Date, prev S) (S, error) {
	if prev.SnapshotKey() != key || !prev.SnapshotDate().Before(day) {
		var zero S
		return zero, fmt.Errorf("%s snapshot %v on %s does not precede %s", e.kind, prev.SnapshotKey(), prev.SnapshotDate(), day)
	}
	return e.save(ctx, key, day, &prev)
}

// CascadeUpdate recomputes every existing snapshot of the entity dated
// strictly after from, in chronological order, each one from the one before.
func (e *engine[S]) CascadeUpdate(ctx context.Context, entityID int, from binnaculum.Date) ([]S, error) {
	if _, err := e.check(ctx, entityID); err != nil {
		return nil, err
	}
	keys, err := e.repo.Keys(ctx, entityID)
	if err != nil {
		return nil, err
	}
	var res []S
	for _, key := range keys {
		after, err := e.repo.After(ctx, key, from)
		if err != nil {
			return res, err
		}
		if len(after) == 0 {
			continue
		}
		prev, err := e.previous(ctx, key, after[0].SnapshotDate())
		if err != nil {
			return res, err
		}
		for _, old := range after {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			s, err := e.save(ctx, key, old.SnapshotDate(), prev)
			if err != nil {
				return res, err
			}
			res = append(res, s)
			prev = &s
		}
	}
	return res, nil
}

// Update brings the snapshots of the entity up to date after movements on
// the given days.
func (e *engine[S]) Update(ctx context.Context, entityID int, days []binnaculum.Date) error {
	if _, err := e.SetupInitial(ctx, entityID); err != nil {
		return err
	}
	days = sortedDays(days)
	for _, d := range days {
		if _, err := e.OneDayUpdate(ctx, entityID, d); err != nil {
			return err
		}
	}
	if len(days) == 0 {
		return nil
	}
	_, err := e.CascadeUpdate(ctx, entityID, days[0])
	return err
}

// Recalculate recomputes the snapshots of the entity from the given day on,
// adding one for every day with activity. A zero from recomputes everything.
func (e *engine[S]) Recalculate(ctx context.Context, entityID int, from binnaculum.Date) error {
	if _, err := e.SetupInitial(ctx, entityID); err != nil {
		return err
	}
	days, err := e.calc.days(ctx, entityID)
	if err != nil {
		return err
	}
	for _, d := range days {
		if d.Before(from) {
			continue
		}
		if _, err := e.OneDayUpdate(ctx, entityID, d); err != nil {
			return err
		}
	}
	cascade := binnaculum.Date{}
	if !from.IsZero() {
		cascade = from.Add(-1)
	}
	_, err = e.CascadeUpdate(ctx, entityID, cascade)
	return err
}
