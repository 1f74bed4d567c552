package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/etnz/binnaculum"
)

// Repository is an in-memory binnaculum.SnapshotRepository. Snapshots of a
// key are kept sorted by date.
type Repository[S binnaculum.Snapshot] struct {
	mu    sync.RWMutex
	items map[binnaculum.SnapshotKey][]S
}

func NewRepository[S binnaculum.Snapshot]() *Repository[S] {
	return &Repository[S]{items: make(map[binnaculum.SnapshotKey][]S)}
}

func byDate[S binnaculum.Snapshot](a, b S) int { return a.SnapshotDate().Compare(b.SnapshotDate()) }

func (r *Repository[S]) Latest(ctx context.Context, key binnaculum.SnapshotKey) (S, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := r.items[key]
	if len(items) == 0 {
		var zero S
		return zero, binnaculum.ErrNotFound
	}
	return items[len(items)-1], nil
}

func (r *Repository[S]) ByKeyAndDate(ctx context.Context, key binnaculum.SnapshotKey, on binnaculum.Date) (S, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.items[key] {
		if s.SnapshotDate() == on {
			return s, nil
		}
	}
	var zero S
	return zero, binnaculum.ErrNotFound
}

func (r *Repository[S]) Before(ctx context.Context, key binnaculum.SnapshotKey, on binnaculum.Date) (S, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := r.items[key]
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].SnapshotDate().Before(on) {
			return items[i], nil
		}
	}
	var zero S
	return zero, binnaculum.ErrNotFound
}

func (r *Repository[S]) After(ctx context.Context, key binnaculum.SnapshotKey, on binnaculum.Date) ([]S, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var res []S
	for _, s := range r.items[key] {
		if s.SnapshotDate().After(on) {
			res = append(res, s)
		}
	}
	return res, nil
}

func (r *Repository[S]) All(ctx context.Context, key binnaculum.SnapshotKey) ([]S, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.items[key]), nil
}

func (r *Repository[S]) Keys(ctx context.Context, entityID int) ([]binnaculum.SnapshotKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var keys []binnaculum.SnapshotKey
	for k, items := range r.items {
		if k.EntityID == entityID && len(items) > 0 {
			keys = append(keys, k)
		}
	}
	slices.SortFunc(keys, func(a, b binnaculum.SnapshotKey) int { return a.CurrencyID - b.CurrencyID })
	return keys, nil
}

func (r *Repository[S]) Save(ctx context.Context, s S) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := s.SnapshotKey()
	items := r.items[key]
	if i := slices.IndexFunc(items, func(x S) bool { return x.SnapshotDate() == s.SnapshotDate() }); i >= 0 {
		items[i] = s
		return nil
	}
	items = append(items, s)
	slices.SortStableFunc(items, byDate[S])
	r.items[key] = items
	return nil
}

func (r *Repository[S]) InsertIfNotExists(ctx context.Context, s S) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := s.SnapshotKey()
	items := r.items[key]
	if slices.ContainsFunc(items, func(x S) bool { return x.SnapshotDate() == s.SnapshotDate() }) {
		return false, nil
	}
	items = append(items, s)
	slices.SortStableFunc(items, byDate[S])
	r.items[key] = items
	return true, nil
}
