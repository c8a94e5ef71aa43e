// Package workerpool runs bounded concurrent work.
package workerpool

import (
	"context"
	"sync"
)

// Map applies fn to every item using workerCount workers and returns the
// results in input order. The first error cancels the remaining work and is
// returned without partial results.
func Map[T, R any](
	ctx context.Context,
	workerCount int,
	items []T,
	fn func(context.Context, T) (R, error),
) ([]R, error) {
	if workerCount < 1 {
		workerCount = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]R, len(items))
	positions := make(chan int, workerCount)
	errs := make(chan error, 1)

	wg := sync.WaitGroup{}
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case pos, ok := <-positions:
					if !ok {
						return
					}
					r, err := fn(ctx, items[pos])
					if err != nil {
						select {
						case errs <- err:
						default:
						}
						cancel()
						return
					}
					results[pos] = r
				}
			}
		}()
	}

	go func() {
		defer close(positions)
		for pos := range items {
			select {
			case <-ctx.Done():
				return
			case positions <- pos:
			}
		}
	}()

	wg.Wait()
	close(errs)

	if err := <-errs; err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
