package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// go-cache runs a background janitor per instance; its goroutine is
	// reclaimed by the finalizer, not by test teardown.
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"))
}

func TestStore_SetGet(t *testing.T) {
	s := New()

	_, ok := s.Get("missing")
	assert.False(t, ok)

	s.Set("k", 42, time.Minute)
	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	s.Delete("k")
	_, ok = s.Get("k")
	assert.False(t, ok)
}

func TestStore_TTLExpiry(t *testing.T) {
	s := New()
	s.Set("k", "v", 10*time.Millisecond)

	_, ok := s.Get("k")
	require.True(t, ok)

	time.Sleep(30 * time.Millisecond)
	_, ok = s.Get("k")
	assert.False(t, ok)
}

func TestGetOrCompute_CachesResult(t *testing.T) {
	s := New()
	var calls atomic.Int32

	producer := func() (any, error) {
		calls.Add(1)
		return "computed", nil
	}

	v, err := s.GetOrCompute("k", time.Minute, producer)
	require.NoError(t, err)
	assert.Equal(t, "computed", v)

	v, err = s.GetOrCompute("k", time.Minute, producer)
	require.NoError(t, err)
	assert.Equal(t, "computed", v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetOrCompute_ErrorNotCached(t *testing.T) {
	s := New()
	var calls atomic.Int32
	boom := errors.New("producer failed")

	_, err := s.GetOrCompute("k", time.Minute, func() (any, error) {
		calls.Add(1)
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	v, err := s.GetOrCompute("k", time.Minute, func() (any, error) {
		calls.Add(1)
		return "recovered", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", v)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetOrCompute_SingleFlight(t *testing.T) {
	s := New()
	var calls atomic.Int32
	gate := make(chan struct{})

	producer := func() (any, error) {
		calls.Add(1)
		<-gate
		return "shared", nil
	}

	const workers = 16
	var wg sync.WaitGroup
	results := make([]any, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := s.GetOrCompute("hot", time.Minute, producer)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	// Let every worker reach the flight before the producer completes.
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, "shared", v)
	}
}

func TestGetOrCompute_DistinctKeysDoNotShare(t *testing.T) {
	s := New()
	var calls atomic.Int32

	for _, key := range []string{"a", "b", "c"} {
		v, err := s.GetOrCompute(key, time.Minute, func() (any, error) {
			calls.Add(1)
			return key, nil
		})
		require.NoError(t, err)
		assert.Equal(t, key, v)
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestStore_Flush(t *testing.T) {
	s := New()
	s.Set("a", 1, time.Minute)
	s.Set("b", 2, time.Minute)
	require.Equal(t, 2, s.ItemCount())

	s.Flush()
	assert.Zero(t, s.ItemCount())
}
