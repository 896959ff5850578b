package repository

import (
	"context"
	"errors"
	"time"
)

// Backoff bounds the retry loop used for reads.
type Backoff struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

// ReadBackoff applies to every read.  Writes never go through retryRead.
var ReadBackoff = Backoff{Attempts: 3, Initial: 50 * time.Millisecond, Max: 200 * time.Millisecond}

// retryRead runs read until it succeeds, fails with a non-transient error,
// runs out of attempts or ctx is done.
func retryRead[T any](ctx context.Context, read func(context.Context) (T, error)) (T, error) {
	delay := ReadBackoff.Initial
	var (
		out T
		err error
	)
	for attempt := 1; ; attempt++ {
		out, err = read(ctx)
		err = translate(err)
		if err == nil || !errors.Is(err, ErrTransient) || attempt >= ReadBackoff.Attempts {
			return out, err
		}
		select {
		case <-ctx.Done():
			return out, err
		case <-time.After(delay):
		}
		delay *= 2
		if delay > ReadBackoff.Max {
			delay = ReadBackoff.Max
		}
	}
}
