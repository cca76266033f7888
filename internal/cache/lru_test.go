package cache

import "testing"

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3) // evicts "a"

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected a to be evicted")
	}
	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Fatalf("expected b=2, got %v %v", v, ok)
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Fatalf("expected c=3, got %v %v", v, ok)
	}
}

func TestLRUGetPromotes(t *testing.T) {
	c := New(2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a")      // promote a, b is now LRU
	c.Put("c", 3)   // evicts b, not a

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be evicted after promotion of a")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a to survive eviction")
	}
}

func TestLRUPutUpdatesExisting(t *testing.T) {
	c := New(2)
	c.Put("a", 1)
	c.Put("a", 2)

	v, ok := c.Get("a")
	if !ok || v != 2 {
		t.Fatalf("expected updated value 2, got %v %v", v, ok)
	}
	if c.Stats().Size != 1 {
		t.Fatalf("expected size 1 after update, got %d", c.Stats().Size)
	}
}

func TestLRUStatsHitRate(t *testing.T) {
	c := New(2)
	c.Put("a", 1)
	c.Get("a")
	c.Get("missing")

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Fatalf("expected 1 hit 1 miss, got %+v", stats)
	}
	if stats.HitRate != 0.5 {
		t.Fatalf("expected hit rate 0.5, got %f", stats.HitRate)
	}
}

func TestLRUClear(t *testing.T) {
	c := New(2)
	c.Put("a", 1)
	c.Clear()

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected cache to be empty after Clear")
	}
	if c.Stats().Size != 0 {
		t.Fatalf("expected size 0 after Clear")
	}
}
