// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestGetOrComputeCachesWithinTTL(t *testing.T) {
	clock := newFakeClock()
	c := New()
	c.now = clock.now

	var calls int32
	fn := func() (any, error) {
		atomic.AddInt32(&calls, 1)
		return "value", nil
	}

	v, err := c.GetOrCompute("k", time.Hour, fn)
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	v, err = c.GetOrCompute("k", time.Hour, fn)
	require.NoError(t, err)
	assert.Equal(t, "value", v)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "second call within TTL must not recompute")
}

func TestGetOrComputeRecomputesAfterExpiry(t *testing.T) {
	clock := newFakeClock()
	c := New()
	c.now = clock.now

	var calls int32
	fn := func() (any, error) {
		return atomic.AddInt32(&calls, 1), nil
	}

	v, err := c.GetOrCompute("k", time.Hour, fn)
	require.NoError(t, err)
	assert.Equal(t, int32(1), v)

	clock.advance(time.Hour + time.Second)

	v, err = c.GetOrCompute("k", time.Hour, fn)
	require.NoError(t, err)
	assert.Equal(t, int32(2), v, "expired entry must be recomputed")
}

func TestGetOrComputeDoesNotCacheFailures(t *testing.T) {
	c := New()

	var calls int32
	fn := func() (any, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, fmt.Errorf("transient")
		}
		return "ok", nil
	}

	_, err := c.GetOrCompute("k", time.Hour, fn)
	require.Error(t, err)

	v, err := c.GetOrCompute("k", time.Hour, fn)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetOrComputeDistinctKeysIndependent(t *testing.T) {
	c := New()

	var calls int32
	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("k%d", i)
		_, err := c.GetOrCompute(key, time.Hour, func() (any, error) {
			return atomic.AddInt32(&calls, 1), nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
	assert.Equal(t, 5, c.Len())
}

func TestGetOrComputeCollapsesInFlightCalls(t *testing.T) {
	c := New()

	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	fn := func() (any, error) {
		atomic.AddInt32(&calls, 1)
		close(started)
		<-release
		return "shared", nil
	}

	var wg sync.WaitGroup
	results := make([]any, 10)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = c.GetOrCompute("k", time.Hour, fn)
	}()
	<-started

	for i := 1; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.GetOrCompute("k", time.Hour, func() (any, error) {
				atomic.AddInt32(&calls, 1)
				return "should not run", nil
			})
		}(i)
	}

	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "in-flight callers must share one computation")
	for i, v := range results {
		assert.Equal(t, "shared", v, "caller %d", i)
	}
}

func TestBust(t *testing.T) {
	c := New()

	var calls int32
	fn := func() (any, error) {
		return atomic.AddInt32(&calls, 1), nil
	}

	_, err := c.GetOrCompute("k", time.Hour, fn)
	require.NoError(t, err)

	c.Bust("k")

	v, err := c.GetOrCompute("k", time.Hour, fn)
	require.NoError(t, err)
	assert.Equal(t, int32(2), v)
}
