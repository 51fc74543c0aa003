package fn

import (
	"context"
	"math/rand"
	"time"
)

// RetryOpts configures Retry.
type RetryOpts struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Jitter      bool
	// OnRetry is called after a failed attempt that will be retried.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultRetry suits dependencies that come up shortly after the service,
// such as a Neo4j or NATS container starting alongside it.
var DefaultRetry = RetryOpts{
	MaxAttempts: 5,
	InitialWait: time.Second,
	MaxWait:     15 * time.Second,
	Jitter:      true,
}

// Retry calls f until it succeeds, MaxAttempts is reached or ctx ends. The
// wait doubles after every failure, capped at MaxWait.
func Retry[T any](ctx context.Context, opts RetryOpts, f func(context.Context) Result[T]) Result[T] {
	var result Result[T]
	wait := opts.InitialWait

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		result = f(ctx)
		if result.IsOk() || attempt == opts.MaxAttempts {
			return result
		}
		if ctx.Err() != nil {
			return Err[T](ctx.Err())
		}

		sleep := wait
		if opts.Jitter {
			sleep = time.Duration(float64(wait) * (0.5 + rand.Float64()))
		}
		sleep = min(sleep, opts.MaxWait)
		if opts.OnRetry != nil {
			opts.OnRetry(attempt, result.Err(), sleep)
		}

		select {
		case <-ctx.Done():
			return Err[T](ctx.Err())
		case <-time.After(sleep):
		}
		wait = min(wait*2, opts.MaxWait)
	}
	return result
}
