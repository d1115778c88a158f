package connpool_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/rincon/pkg/connpool"
)

func waitForWaiting(t *testing.T, p *connpool.Pool, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return p.Stats().Waiting == n },
		2*time.Second, time.Millisecond, "expected %d waiters", n)
}

func TestPool_AllCallersCompleteUnderContention(t *testing.T) {
	pool := connpool.New(2, 0)
	defer pool.Close()

	const n = 50
	var (
		wg      sync.WaitGroup
		active  atomic.Int64
		maxSeen atomic.Int64
		done    atomic.Int64
	)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			err := pool.Do(context.Background(), func(context.Context) error {
				cur := active.Add(1)
				for {
					prev := maxSeen.Load()
					if cur <= prev || maxSeen.CompareAndSwap(prev, cur) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				active.Add(-1)
				return nil
			})
			if err == nil {
				done.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(n), done.Load())
	assert.LessOrEqual(t, maxSeen.Load(), int64(2))
	assert.Equal(t, connpool.Stats{Size: 2}, pool.Stats())
}

func TestPool_FIFOOrder(t *testing.T) {
	pool := connpool.New(1, 0)
	defer pool.Close()

	release, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rel, err := pool.Acquire(context.Background())
			if err != nil {
				return
			}
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			rel()
		}(i)
		waitForWaiting(t, pool, i+1)
	}

	release()
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestPool_QueueLimit(t *testing.T) {
	pool := connpool.New(1, 1)
	defer pool.Close()

	release, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	got := make(chan error, 1)
	go func() {
		rel, err := pool.Acquire(context.Background())
		if err == nil {
			rel()
		}
		got <- err
	}()
	waitForWaiting(t, pool, 1)

	_, err = pool.Acquire(context.Background())
	assert.ErrorIs(t, err, connpool.ErrQueueFull)

	release()
	assert.NoError(t, <-got)
}

func TestPool_ContextCancelLeavesQueue(t *testing.T) {
	pool := connpool.New(1, 0)
	defer pool.Close()

	release, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = pool.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, pool.Stats().Waiting)

	release()
	assert.Equal(t, 0, pool.Stats().InUse)
}

func TestPool_ReleaseIsIdempotent(t *testing.T) {
	pool := connpool.New(1, 0)

	release, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	release()
	release()

	assert.Equal(t, 0, pool.Stats().InUse)
}

func TestPool_Closed(t *testing.T) {
	pool := connpool.New(1, 0)
	pool.Close()
	pool.Close()

	_, err := pool.Acquire(context.Background())
	assert.ErrorIs(t, err, connpool.ErrPoolClosed)
}
