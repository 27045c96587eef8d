package pipeline

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunPool_PreservesOrder(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	pool := NewPool(2)

	results := RunPool(context.Background(), pool, items, func(_ context.Context, n int) int {
		return n * n
	})

	assert.Equal(t, []int{1, 4, 9, 16, 25}, results)
}

func TestRunPool_BoundsConcurrency(t *testing.T) {
	items := make([]int, 20)
	pool := NewPool(3)

	var inFlight, maxSeen int32
	RunPool(context.Background(), pool, items, func(_ context.Context, _ int) int {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			seen := atomic.LoadInt32(&maxSeen)
			if cur <= seen || atomic.CompareAndSwapInt32(&maxSeen, seen, cur) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return 0
	})

	assert.LessOrEqual(t, int(maxSeen), 3)
}

func TestRunPool_StopsOnCanceledContext(t *testing.T) {
	items := make([]int, 10)
	pool := NewPool(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := RunPool(ctx, pool, items, func(_ context.Context, _ int) int { return 1 })
	assert.Len(t, results, len(items))
}

func TestNewPool_ZeroWorkersDefaultsToOne(t *testing.T) {
	pool := NewPool(0)
	assert.Equal(t, 1, pool.workers)
}
