// Package deadline bounds a blocking call by a timeout, returning as soon as
// either the call or the timer settles.
package deadline

import (
	"context"
	"time"
)

// Run calls fn with a context limited to d. If fn has not returned when the
// limit passes, Run returns context.DeadlineExceeded without waiting for fn;
// fn must honor its context to release resources.
func Run[T any](ctx context.Context, d time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if d <= 0 {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type outcome struct {
		val T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn(ctx)
		done <- outcome{v, err}
	}()

	select {
	case out := <-done:
		return out.val, out.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
