package parallel_test

import (
	"context"
	"errors"
	"runtime"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paveg/kairos/internal/parallel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkerPool(t *testing.T) {
	pool := parallel.NewWorkerPool(0)
	defer pool.Close()
	assert.Equal(t, runtime.NumCPU(), pool.Size())

	pool2 := parallel.NewWorkerPool(4)
	defer pool2.Close()
	assert.Equal(t, 4, pool2.Size())

	pool3 := parallel.NewWorkerPool(-1)
	defer pool3.Close()
	assert.Equal(t, runtime.NumCPU(), pool3.Size())
}

func TestProcessIndexed(t *testing.T) {
	pool := parallel.NewWorkerPool(2)
	defer pool.Close()

	input := []string{"a", "b", "c", "d"}
	results, err := parallel.ProcessIndexed(context.Background(), pool, input,
		func(_ context.Context, index int, value string) (string, error) {
			return value + strconv.Itoa(index), nil
		})

	require.NoError(t, err)
	assert.Equal(t, []string{"a0", "b1", "c2", "d3"}, results)
}

func TestProcessIndexedEmpty(t *testing.T) {
	pool := parallel.NewWorkerPool(2)
	defer pool.Close()

	results, err := parallel.ProcessIndexed(context.Background(), pool, []string{},
		func(_ context.Context, _ int, value string) (string, error) { return value, nil })

	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestProcessIndexedConcurrency(t *testing.T) {
	pool := parallel.NewWorkerPool(4)
	defer pool.Close()

	var concurrentCount, maxConcurrent int64
	input := make([]int, 20)
	for i := range input {
		input[i] = i
	}

	results, err := parallel.ProcessIndexed(context.Background(), pool, input,
		func(_ context.Context, _ int, x int) (int, error) {
			current := atomic.AddInt64(&concurrentCount, 1)
			for {
				maxVal := atomic.LoadInt64(&maxConcurrent)
				if current <= maxVal || atomic.CompareAndSwapInt64(&maxConcurrent, maxVal, current) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt64(&concurrentCount, -1)
			return x * 2, nil
		})

	require.NoError(t, err)
	assert.Len(t, results, 20)
	assert.Equal(t, 38, results[19])
	assert.Greater(t, maxConcurrent, int64(1), "Expected some concurrent execution")
}

func TestProcessIndexedFirstErrorWins(t *testing.T) {
	pool := parallel.NewWorkerPool(1)
	defer pool.Close()

	errBoom := errors.New("boom")
	input := []int{0, 1, 2, 3, 4, 5}

	results, err := parallel.ProcessIndexed(context.Background(), pool, input,
		func(ctx context.Context, i int, x int) (int, error) {
			switch {
			case i == 2:
				return 0, errBoom
			case i > 2:
				<-ctx.Done()
				return 0, ctx.Err()
			}
			return x + 10, nil
		})

	require.ErrorIs(t, err, errBoom)
	require.Len(t, results, len(input))
	assert.Equal(t, []int{10, 11}, results[:2], "results finished before the failure are kept")
}

func TestProcessIndexedCanceledContext(t *testing.T) {
	pool := parallel.NewWorkerPool(2)
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := parallel.ProcessIndexed(ctx, pool, []int{1, 2, 3},
		func(ctx context.Context, _ int, x int) (int, error) { return x, ctx.Err() })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorkerPoolClose(t *testing.T) {
	pool := parallel.NewWorkerPool(2)

	results, err := parallel.ProcessIndexed(context.Background(), pool, []int{1, 2, 3},
		func(_ context.Context, _ int, x int) (int, error) { return x, nil })
	require.NoError(t, err)
	assert.Len(t, results, 3)

	pool.Close()
	assert.NotPanics(t, func() {
		pool.Close()
	})

	_, err = parallel.ProcessIndexed(context.Background(), pool, []int{1},
		func(ctx context.Context, _ int, x int) (int, error) { return x, ctx.Err() })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLargeDataset(t *testing.T) {
	pool := parallel.NewWorkerPool(runtime.NumCPU())
	defer pool.Close()

	size := 1000
	input := make([]int, size)
	for i := range size {
		input[i] = i
	}

	results, err := parallel.ProcessIndexed(context.Background(), pool, input,
		func(_ context.Context, _ int, x int) (int, error) { return x*x + x + 1, nil })

	require.NoError(t, err)
	require.Len(t, results, size)
	assert.Equal(t, 1, results[0])
	assert.Equal(t, 3, results[1])
	assert.Equal(t, 999*999+999+1, results[999])
}
