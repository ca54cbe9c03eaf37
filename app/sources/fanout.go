package sources

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/lysyi3m/live-feed/app/feed"
)

type query func(ctx context.Context) ([]feed.Item, error)

// fanOut runs the queries concurrently and concatenates their items in query
// order. A failing query is skipped; an error is returned only when every
// query failed.
func fanOut(ctx context.Context, source string, queries []query) ([]feed.Item, error) {
	if len(queries) == 0 {
		return nil, nil
	}

	results := make([][]feed.Item, len(queries))
	errs := make([]error, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			items, err := q(gctx)
			if err != nil {
				slog.Debug("Source query failed", "source", source, "error", err)
				errs[i] = err
				return nil
			}
			results[i] = items
			return nil
		})
	}
	_ = g.Wait()

	var items []feed.Item
	failed := 0
	for i := range queries {
		if errs[i] != nil {
			failed++
			continue
		}
		items = append(items, results[i]...)
	}

	if failed == len(queries) {
		return nil, errors.Join(errs...)
	}
	return items, nil
}
