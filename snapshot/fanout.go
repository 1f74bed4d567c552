package snapshot

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of the recalculation of one entity.
type Result struct {
	Kind     string
	EntityID int
	Err      error
}

// RecalculateAll runs fn for every entity concurrently, at most workers at a
// time, and returns one Result per entity in the order of ids. The failure of
// one entity does not stop the others. A non positive workers means no limit.
func RecalculateAll(ctx context.Context, workers int, ids []int, fn func(ctx context.Context, id int) error) []Result {
	results := make([]Result, len(ids))
	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, id := range ids {
		g.Go(func() error {
			results[i] = Result{EntityID: id, Err: fn(ctx, id)}
			return nil
		})
	}
	g.Wait()
	return results
}
