package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGetDel(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "k", map[string]int{"stock": 5}, 0))

	var got map[string]int
	require.True(t, m.Get(ctx, "k", &got))
	assert.Equal(t, 5, got["stock"])

	require.NoError(t, m.Del(ctx, "k", "missing"))
	assert.False(t, m.Get(ctx, "k", &got))
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "k", "v", 30*time.Millisecond))
	require.NoError(t, m.Set(ctx, "keep", "v", 0))

	var s string
	assert.True(t, m.Get(ctx, "k", &s))

	require.Eventually(t, func() bool { return !m.Get(ctx, "k", &s) }, 2*time.Second, 5*time.Millisecond)
	assert.True(t, m.Get(ctx, "keep", &s))
	assert.Equal(t, 1, m.Len())
}

func TestMemory_ConcurrentRefreshSurvivesExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		require.NoError(t, m.Set(ctx, "k", i, time.Millisecond))
		time.Sleep(2 * time.Millisecond)

		wg.Add(2)
		go func() {
			defer wg.Done()
			var n int
			m.Get(ctx, "k", &n)
		}()
		go func() {
			defer wg.Done()
			_ = m.Set(ctx, "k", 99, time.Hour)
		}()
		wg.Wait()

		var n int
		require.True(t, m.Get(ctx, "k", &n), "fresh value evicted on round %d", i)
		require.Equal(t, 99, n)
	}
}

func TestMemory_DecodeMismatchIsMiss(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "k", "text", 0))

	var n int
	assert.False(t, m.Get(ctx, "k", &n))
}
