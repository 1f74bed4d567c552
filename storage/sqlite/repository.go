package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/etnz/binnaculum"
)

// Repository stores one kind of snapshot in the snapshots table.
type Repository[S binnaculum.Snapshot] struct {
	db   *sql.DB
	kind string
}

func newRepository[S binnaculum.Snapshot](db *sql.DB, kind string) *Repository[S] {
	return &Repository[S]{db: db, kind: kind}
}

// decodeSnapshot unmarshals a stored snapshot. The row id is not part of the
// stored document.
func decodeSnapshot[S binnaculum.Snapshot](id int, data string) (S, error) {
	var s S
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return s, fmt.Errorf("decoding snapshot %d: %w", id, err)
	}
	if err := json.Unmarshal(fmt.Appendf(nil, `{"id":%d}`, id), &s); err != nil {
		return s, fmt.Errorf("decoding snapshot %d: %w", id, err)
	}
	return s, nil
}

func (r *Repository[S]) scan(row scanner) (S, error) {
	var id int
	var data string
	if err := row.Scan(&id, &data); err != nil {
		var zero S
		return zero, err
	}
	return decodeSnapshot[S](id, data)
}

// one returns the single snapshot selected by the query condition.
func (r *Repository[S]) one(ctx context.Context, key binnaculum.SnapshotKey, cond string, args ...any) (S, error) {
	args = append([]any{r.kind, key.EntityID, key.CurrencyID}, args...)
	s, err := r.scan(r.db.QueryRowContext(ctx, `SELECT id, data FROM snapshots
		WHERE kind = ? AND entity_id = ? AND currency_id = ? `+cond, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return s, binnaculum.ErrNotFound
	}
	return s, err
}

func (r *Repository[S]) many(ctx context.Context, key binnaculum.SnapshotKey, cond string, args ...any) ([]S, error) {
	args = append([]any{r.kind, key.EntityID, key.CurrencyID}, args...)
	rows, err := r.db.QueryContext(ctx, `SELECT id, data FROM snapshots
		WHERE kind = ? AND entity_id = ? AND currency_id = ? `+cond, args...)
	return collect(rows, err, r.scan)
}

func (r *Repository[S]) Latest(ctx context.Context, key binnaculum.SnapshotKey) (S, error) {
	return r.one(ctx, key, `ORDER BY date DESC LIMIT 1`)
}

func (r *Repository[S]) ByKeyAndDate(ctx context.Context, key binnaculum.SnapshotKey, on binnaculum.Date) (S, error) {
	return r.one(ctx, key, `AND date = ?`, on.String())
}

func (r *Repository[S]) Before(ctx context.Context, key binnaculum.SnapshotKey, on binnaculum.Date) (S, error) {
	return r.one(ctx, key, `AND date < ? ORDER BY date DESC LIMIT 1`, on.String())
}

func (r *Repository[S]) After(ctx context.Context, key binnaculum.SnapshotKey, on binnaculum.Date) ([]S, error) {
	return r.many(ctx, key, `AND date > ? ORDER BY date`, on.String())
}

func (r *Repository[S]) All(ctx context.Context, key binnaculum.SnapshotKey) ([]S, error) {
	return r.many(ctx, key, `ORDER BY date`)
}

func (r *Repository[S]) Keys(ctx context.Context, entityID int) ([]binnaculum.SnapshotKey, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT currency_id FROM snapshots WHERE kind = ? AND entity_id = ? ORDER BY currency_id`, r.kind, entityID)
	return collect(rows, err, func(row scanner) (binnaculum.SnapshotKey, error) {
		k := binnaculum.SnapshotKey{EntityID: entityID}
		err := row.Scan(&k.CurrencyID)
		return k, err
	})
}

func (r *Repository[S]) args(s S) ([]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	key := s.SnapshotKey()
	return []any{r.kind, key.EntityID, key.CurrencyID, s.SnapshotDate().String(), string(data)}, nil
}

func (r *Repository[S]) Save(ctx context.Context, s S) error {
	args, err := r.args(s)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO snapshots (kind, entity_id, currency_id, date, data) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(kind, entity_id, currency_id, date) DO UPDATE SET data = excluded.data`, args...)
	if err != nil {
		return fmt.Errorf("saving %s snapshot: %w", r.kind, err)
	}
	return nil
}

func (r *Repository[S]) InsertIfNotExists(ctx context.Context, s S) (bool, error) {
	args, err := r.args(s)
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO snapshots (kind, entity_id, currency_id, date, data) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(kind, entity_id, currency_id, date) DO NOTHING`, args...)
	if err != nil {
		return false, fmt.Errorf("inserting %s snapshot: %w", r.kind, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
