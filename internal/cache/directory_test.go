package cache

import (
	"testing"
	"time"
)

func TestDirectoryCacheLifecycle(t *testing.T) {
	clock := newFakeClock()
	c := NewDirectoryCache(24*time.Hour, WithClock(clock.Now))

	if _, ok := c.Get(); ok {
		t.Fatalf("empty cache should miss")
	}

	c.Set([]string{"eng_Latn", "fra_Latn"})
	clock.Advance(24 * time.Hour)

	got, ok := c.Get()
	if !ok || len(got) != 2 {
		t.Fatalf("Get() = %v, %v", got, ok)
	}
	got[0] = "changed"
	if again, _ := c.Get(); again[0] != "eng_Latn" {
		t.Fatalf("cache shared its slice with the caller")
	}

	clock.Advance(time.Second)
	if _, ok := c.Get(); ok {
		t.Fatalf("stale listing should be dropped")
	}
}

func TestDirectoryCacheClear(t *testing.T) {
	c := NewDirectoryCache(time.Hour)
	c.Set([]string{"a"})
	c.Clear()
	if _, ok := c.Get(); ok {
		t.Fatalf("cleared cache should miss")
	}
}
