package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestResultCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewResultCache[string](2, time.Hour)

	c.Set("A", "a")
	c.Set("B", "b")
	if _, ok := c.Get("A"); !ok {
		t.Fatalf("expected hit for A")
	}
	c.Set("C", "c")

	if _, ok := c.Get("B"); ok {
		t.Fatalf("expected B to be evicted")
	}
	if v, ok := c.Get("A"); !ok || v != "a" {
		t.Fatalf("Get(A) = %q, %v", v, ok)
	}
	if v, ok := c.Get("C"); !ok || v != "c" {
		t.Fatalf("Get(C) = %q, %v", v, ok)
	}

	st := c.Stats()
	if st.Size != 2 || st.MaxSize != 2 {
		t.Fatalf("unexpected size stats: %+v", st)
	}
	if st.Hits != 3 || st.Misses != 1 {
		t.Fatalf("hits=%d misses=%d, want 3/1", st.Hits, st.Misses)
	}
	if st.HitRate != 75 {
		t.Fatalf("hit rate = %v, want 75", st.HitRate)
	}
}

func TestResultCacheOverwriteRefreshesRecency(t *testing.T) {
	c := NewResultCache[int](2, time.Hour)
	c.Set("A", 1)
	c.Set("B", 2)
	c.Set("A", 10)
	c.Set("C", 3)

	if _, ok := c.Get("B"); ok {
		t.Fatalf("B should have been evicted after A was refreshed")
	}
	if v, _ := c.Get("A"); v != 10 {
		t.Fatalf("Get(A) = %d, want 10", v)
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
}

func TestResultCacheExpiry(t *testing.T) {
	clock := newFakeClock()
	c := NewResultCache[string](4, 10*time.Second, WithClock(clock.Now))

	c.Set("k", "v")
	clock.Advance(10 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("entry aged exactly ttl should still be valid")
	}

	clock.Advance(time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("entry older than ttl should have expired")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should be removed, Len() = %d", c.Len())
	}
	st := c.Stats()
	if st.Hits != 1 || st.Misses != 1 {
		t.Fatalf("hits=%d misses=%d, want 1/1", st.Hits, st.Misses)
	}
}

func TestResultCacheSetRestartsTTL(t *testing.T) {
	clock := newFakeClock()
	c := NewResultCache[string](4, 10*time.Second, WithClock(clock.Now))

	c.Set("k", "v1")
	clock.Advance(8 * time.Second)
	c.Set("k", "v2")
	clock.Advance(8 * time.Second)

	if v, ok := c.Get("k"); !ok || v != "v2" {
		t.Fatalf("Get(k) = %q, %v, want v2", v, ok)
	}
}

func TestResultCacheDeleteAndClear(t *testing.T) {
	c := NewResultCache[string](4, time.Hour)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Delete("a")
	c.Delete("missing")

	if _, ok := c.Get("a"); ok {
		t.Fatalf("deleted key still present")
	}
	c.Get("b")

	c.Clear()
	st := c.Stats()
	if st.Size != 0 || st.Hits != 0 || st.Misses != 0 || st.HitRate != 0 {
		t.Fatalf("Clear() left state behind: %+v", st)
	}
}

func TestResultCacheHitRateRounding(t *testing.T) {
	c := NewResultCache[int](4, time.Hour)
	c.Set("a", 1)
	c.Get("a")
	c.Get("x")
	c.Get("y")

	if got := c.Stats().HitRate; got != 33.33 {
		t.Fatalf("hit rate = %v, want 33.33", got)
	}
	if got := c.Stats().TTL; got != 3600 {
		t.Fatalf("ttl = %v, want 3600", got)
	}
}

func TestResultCacheConcurrentAccess(t *testing.T) {
	c := NewResultCache[int](16, time.Hour)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*7+i)%40)
				c.Set(key, i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()

	st := c.Stats()
	if st.Size > 16 {
		t.Fatalf("size %d exceeds capacity", st.Size)
	}
	if st.Hits+st.Misses != 8*200 {
		t.Fatalf("lookups = %d, want %d", st.Hits+st.Misses, 8*200)
	}
}
