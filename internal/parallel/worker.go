// Package parallel provides the worker pool the batch executor uses to
// evaluate independent record batches concurrently.
//
// Work items are fanned out to a fixed number of goroutines and the
// results are fanned back in by index, so output order always matches
// input order regardless of scheduling.
package parallel

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// WorkerPool manages a pool of goroutines for parallel processing
type WorkerPool struct {
	numWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWorkerPool creates a new worker pool. A non-positive size means one
// worker per CPU.
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		numWorkers: numWorkers,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Size returns the number of workers
func (wp *WorkerPool) Size() int { return wp.numWorkers }

// ProcessIndexed runs worker on every item and returns the results in input
// order. A failing item cancels the items not yet started. The error
// reported is the lowest-indexed one that is not a cancellation, returned
// together with every result produced so far so the caller can release them.
func ProcessIndexed[T, R any](
	ctx context.Context,
	wp *WorkerPool,
	items []T,
	worker func(context.Context, int, T) (R, error),
) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if err := wp.ctx.Err(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(wp.ctx, cancel)
	defer stop()

	itemCh := make(chan indexedItem[T])
	resultCh := make(chan indexedResult[R], len(items))

	workers := min(wp.numWorkers, len(items))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range itemCh {
				result, err := worker(ctx, item.index, item.value)
				resultCh <- indexedResult[R]{index: item.index, result: result, err: err}
			}
		}()
	}

	go func() {
		defer close(itemCh)
		for i, item := range items {
			select {
			case <-ctx.Done():
				return
			case itemCh <- indexedItem[T]{index: i, value: item}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]R, len(items))
	var first *indexedResult[R]
	for r := range resultCh {
		results[r.index] = r.result
		if r.err != nil {
			cancel()
			if first == nil || r.precedes(first) {
				first = &r
			}
		}
	}
	if first != nil {
		return results, first.err
	}
	return results, ctx.Err()
}

// Close cancels any work still queued on the pool
func (wp *WorkerPool) Close() {
	wp.cancel()
}

// indexedItem holds an item with its index
type indexedItem[T any] struct {
	index int
	value T
}

// indexedResult holds a result with its index
type indexedResult[R any] struct {
	index  int
	result R
	err    error
}

// precedes orders failures: real errors before cancellations, then by index.
func (r indexedResult[R]) precedes(o *indexedResult[R]) bool {
	rc, oc := errors.Is(r.err, context.Canceled), errors.Is(o.err, context.Canceled)
	if rc != oc {
		return oc
	}
	return r.index < o.index
}
