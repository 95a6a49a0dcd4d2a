package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestLRUCache_GetSet(t *testing.T) {
	c := NewLRUCache[string](3, time.Minute)

	c.Set("a", "alpha")

	got, ok := c.Get("a")
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if got != "alpha" {
		t.Errorf("Get() = %v, want alpha", got)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("Get() ok = true for missing key, want false")
	}
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)

	// Touch "a" so "b" becomes the eviction candidate
	if _, ok := c.Get("a"); !ok {
		t.Fatal("Get(a) ok = false, want true")
	}

	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("Get(b) ok = true after eviction, want false")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("Get(a) ok = false, want true")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("Get(c) ok = false, want true")
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUCache_TTLExpiry(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)

	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("Get() ok = true after TTL expiry, want false")
	}
}

func TestLRUCache_CleanExpired(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)

	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("key%d", i), i)
	}
	time.Sleep(20 * time.Millisecond)

	removed := c.CleanExpired()
	if removed != 5 {
		t.Errorf("CleanExpired() = %d, want 5", removed)
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d after cleanup, want 0", c.Size())
	}
}

func TestLRUCache_Delete(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)

	c.Set("a", 1)
	c.Delete("a")

	if _, ok := c.Get("a"); ok {
		t.Error("Get() ok = true after Delete, want false")
	}
}
