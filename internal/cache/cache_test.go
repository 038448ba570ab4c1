package cache

import (
	"testing"
	"time"

	"tally/internal/core"
)

func TestLRUGetSet(t *testing.T) {
	c := NewLRU[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %d, %v; want 1, true", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatal("Get(missing) should report a miss")
	}
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // touch a so b becomes the eviction candidate
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should have survived the eviction")
	}
	if c.Size() != 2 {
		t.Fatalf("Size = %d, want 2", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRU[int](10, 10*time.Millisecond)

	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Fatal("expired entry should not be returned")
	}
	c.Set("b", 2)
	c.Set("c", 3)
	time.Sleep(20 * time.Millisecond)
	if removed := c.CleanExpired(); removed != 2 {
		t.Fatalf("CleanExpired removed %d, want 2", removed)
	}
}

func TestRecordsCacheInvalidate(t *testing.T) {
	c := NewRecordsCache(10, time.Minute)

	records := []core.Transaction{{ID: "rec-1", Title: "Groceries"}}
	c.Set("owner-1", records)

	if got, ok := c.Get("owner-1"); !ok || len(got) != 1 {
		t.Fatalf("Get after Set = %v, %v", got, ok)
	}

	c.Invalidate("owner-1")
	if _, ok := c.Get("owner-1"); ok {
		t.Fatal("Get after Invalidate should miss")
	}
}
