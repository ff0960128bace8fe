package concurrent

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Map applies fn to every element of in, running at most workers calls at
// once (workers <= 0 means one goroutine per element). Results keep the input
// order. The first error cancels ctx for the remaining calls and is returned.
func Map[T any, R any](ctx context.Context, in []T, workers int, fn func(context.Context, T) (R, error)) ([]R, error) {
	out := make([]R, len(in))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for idx, val := range in {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := fn(gctx, val)
			if err != nil {
				return err
			}
			out[idx] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ForEach runs action for every element concurrently and waits. Errors are ignored.
func ForEach[T any](in []T, action func(T)) {
	var wg sync.WaitGroup
	wg.Add(len(in))
	for _, v := range in {
		go func() {
			defer wg.Done()
			action(v)
		}()
	}
	wg.Wait()
}
