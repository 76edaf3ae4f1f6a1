package clientcache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateBuildsOnce(t *testing.T) {
	cache := New[string]()
	built := 0

	for range 3 {
		v, err := cache.GetOrCreate("key", func() (string, error) {
			built++
			return "client", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "client", v)
	}

	assert.Equal(t, 1, built)
	assert.Equal(t, 1, cache.Len())
}

func TestGetOrCreateConcurrent(t *testing.T) {
	cache := New[int]()
	var built atomic.Int32

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := cache.GetOrCreate("key", func() (int, error) {
				built.Add(1)
				return 42, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, 42, v)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), built.Load())
}

func TestGetOrCreateErrorIsNotCached(t *testing.T) {
	cache := New[string]()

	_, err := cache.GetOrCreate("key", func() (string, error) {
		return "", errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len())

	v, err := cache.GetOrCreate("key", func() (string, error) {
		return "client", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "client", v)
}

func TestDelete(t *testing.T) {
	cache := New[string]()

	_, err := cache.GetOrCreate("key", func() (string, error) { return "v1", nil })
	require.NoError(t, err)
	cache.Delete("key")

	v, err := cache.GetOrCreate("key", func() (string, error) { return "v2", nil })
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
}
