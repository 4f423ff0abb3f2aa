package syncer

import (
	"context"
	"sync"
)

// fetchAllByID executes fetch concurrently across ids using a bounded worker
// pool. Results keep the order of ids. The first error cancels the rest.
func fetchAllByID[T any](
	ctx context.Context,
	ids []string,
	workers int,
	fetch func(context.Context, string) (T, error),
) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > len(ids) {
		workers = len(ids)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type job struct {
		index int
		id    string
	}
	jobs := make(chan job)
	out := make([]T, len(ids))

	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if ctx.Err() != nil {
					return
				}
				v, err := fetch(ctx, j.id)
				if err != nil {
					once.Do(func() {
						firstErr = err
						cancel()
					})
					return
				}
				out[j.index] = v
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, id := range ids {
			select {
			case <-ctx.Done():
				return
			case jobs <- job{index: i, id: id}:
			}
		}
	}()

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	// Parent cancelled before every id was fetched.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
