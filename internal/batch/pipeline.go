package batch

import "context"

// Sequential feeds items to step one at a time, in order. Item i+1 is not started
// until item i has returned. The first error stops the pipeline; it returns the
// number of items that completed.
func Sequential[T any](ctx context.Context, items []T, step func(ctx context.Context, i int, item T) error) (int, error) {
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := step(ctx, i, item); err != nil {
			return i, err
		}
	}
	return len(items), nil
}
