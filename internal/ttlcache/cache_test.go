// ABOUTME: Tests for the expiring key-value store backing sessions and tokens.
// ABOUTME: Validates TTL expiration, one-shot consumption, sweeping, and concurrency safety.

package ttlcache

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_Get_Missing(t *testing.T) {
	cache := New[string](5*time.Minute, time.Minute)
	defer cache.Close()

	_, ok := cache.Get("never-set")
	assert.False(t, ok)
}

func TestCache_SetGet(t *testing.T) {
	cache := New[string](5*time.Minute, time.Minute)
	defer cache.Close()

	cache.Set("session-1", "payload")

	got, ok := cache.Get("session-1")
	assert.True(t, ok)
	assert.Equal(t, "payload", got)
}

func TestCache_Set_Overwrites(t *testing.T) {
	cache := New[int](5*time.Minute, time.Minute)
	defer cache.Close()

	cache.Set("k", 1)
	cache.Set("k", 2)

	got, ok := cache.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestCache_Get_Expired(t *testing.T) {
	cache := New[string](10*time.Millisecond, time.Minute)
	defer cache.Close()

	cache.Set("short-lived", "v")
	time.Sleep(20 * time.Millisecond)

	_, ok := cache.Get("short-lived")
	assert.False(t, ok)
}

func TestCache_Delete(t *testing.T) {
	cache := New[string](5*time.Minute, time.Minute)
	defer cache.Close()

	cache.Set("k", "v")
	cache.Delete("k")

	_, ok := cache.Get("k")
	assert.False(t, ok)
}

func TestCache_Delete_AbsentIsNoop(t *testing.T) {
	cache := New[string](5*time.Minute, time.Minute)
	defer cache.Close()

	// Must not panic or error.
	cache.Delete("never-existed")
}

func TestCache_GetAndDelete(t *testing.T) {
	cache := New[string](5*time.Minute, time.Minute)
	defer cache.Close()

	cache.Set("one-shot", "v")

	got, ok := cache.GetAndDelete("one-shot")
	assert.True(t, ok)
	assert.Equal(t, "v", got)

	_, ok = cache.GetAndDelete("one-shot")
	assert.False(t, ok)
}

func TestCache_GetAndDelete_Expired(t *testing.T) {
	cache := New[string](10*time.Millisecond, time.Minute)
	defer cache.Close()

	cache.Set("k", "v")
	time.Sleep(20 * time.Millisecond)

	_, ok := cache.GetAndDelete("k")
	assert.False(t, ok)
}

func TestCache_GetAndDelete_SingleWinner(t *testing.T) {
	cache := New[string](5*time.Minute, time.Minute)
	defer cache.Close()

	cache.Set("contested", "v")

	var wins atomic.Int64
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := cache.GetAndDelete("contested"); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins.Load())
}

func TestCache_Sweep_ReclaimsExpired(t *testing.T) {
	cache := New[string](10*time.Millisecond, 20*time.Millisecond)
	defer cache.Close()

	for i := range 10 {
		cache.Set(fmt.Sprintf("key-%d", i), "v")
	}
	assert.Equal(t, 10, cache.Len())

	// Wait past TTL plus a sweep cycle; entries must be reclaimed without
	// any Get ever touching them.
	assert.Eventually(t, func() bool {
		return cache.Len() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	cache := New[int](5*time.Minute, time.Minute)
	defer cache.Close()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i%5)
			for range 100 {
				cache.Set(key, i)
				cache.Get(key)
				cache.Delete(key)
			}
		}()
	}
	wg.Wait()
}

func TestCache_Close_Idempotent(t *testing.T) {
	cache := New[string](time.Minute, time.Minute)
	cache.Close()
	cache.Close()
}
