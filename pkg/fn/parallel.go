package fn

import (
	"context"
	"sync"
)

// ParMap applies f to every item with at most workers goroutines and keeps
// the input order. workers <= 0 means one goroutine per item.
func ParMap[T, U any](items []T, workers int, f func(T) U) []U {
	out := make([]U, len(items))
	if len(items) == 0 {
		return out
	}
	if workers <= 0 {
		workers = len(items)
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i, v := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer func() { <-sem; wg.Done() }()
			out[i] = f(v)
		}()
	}
	wg.Wait()
	return out
}

// ParMapResult is ParMap for fallible work. Items not yet started when ctx
// ends fail with ctx.Err() instead of running.
func ParMapResult[T, U any](ctx context.Context, items []T, workers int, f func(context.Context, T) Result[U]) []Result[U] {
	return ParMap(items, workers, func(v T) Result[U] {
		if err := ctx.Err(); err != nil {
			return Err[U](err)
		}
		return f(ctx, v)
	})
}
