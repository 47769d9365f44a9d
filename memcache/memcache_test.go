package memcache

import (
	"testing"
)

func stringSize(key string, value any) int64 {
	return int64(len(value.(string)))
}

func TestBasicPutGetRemove(t *testing.T) {
	var evicted []string
	c := New(1024, 10, stringSize, func(key string, value any) {
		evicted = append(evicted, key)
	})

	c.Put("a", "aaa")
	v, ok := c.Get("a")
	if !ok || v.(string) != "aaa" {
		t.Fatalf("Get(a): got %v, %v", v, ok)
	}

	c.Remove("a")
	if _, ok := c.Get("a"); ok {
		t.Fatalf("Get(a): expected miss after Remove")
	}
	if len(evicted) != 1 || evicted[0] != "a" {
		t.Fatalf("expected onEvict(a) once, got %v", evicted)
	}

	// Removing an already-absent key is a no-op.
	c.Remove("a")
	if len(evicted) != 1 {
		t.Fatalf("expected no further eviction, got %v", evicted)
	}
}

func TestPutOverwriteCallsEvictOnce(t *testing.T) {
	var evicted []string
	c := New(1024, 10, stringSize, func(key string, value any) {
		evicted = append(evicted, value.(string))
	})

	c.Put("k", "v1")
	c.Put("k", "v2")

	v, ok := c.Get("k")
	if !ok || v.(string) != "v2" {
		t.Fatalf("Get(k): got %v, %v", v, ok)
	}
	if len(evicted) != 1 || evicted[0] != "v1" {
		t.Fatalf("expected onEvict(v1) exactly once, got %v", evicted)
	}
}

// TestEvictionScenario reproduces spec scenario 1: max_size=5120,
// max_items=3, size_of=len(value). After Put(a), Put(b), Put(c), Get(a),
// Put(d): a survives (promoted before d's insertion), b is evicted as LRU,
// item_count stays at 3.
func TestEvictionScenario(t *testing.T) {
	var evicted []string
	c := New(5120, 3, stringSize, func(key string, value any) {
		evicted = append(evicted, key)
	})

	c.Put("a", "aaaaaaaaa")
	c.Put("b", "bbbbbbbbb")
	c.Put("c", "ccccccccc")
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("Get(a): expected hit before Put(d)")
	}
	c.Put("d", "ddddddddd")

	if _, ok := c.Get("a"); !ok {
		t.Fatalf("Get(a): expected hit, a should have survived eviction")
	}
	if _, ok := c.Get("b"); ok {
		t.Fatalf("Get(b): expected miss, b should have been evicted as LRU")
	}

	found := false
	for _, k := range evicted {
		if k == "b" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected onEvict(b, ...) to have run, evicted=%v", evicted)
	}

	if c.ItemCount() != 3 {
		t.Fatalf("ItemCount: expected 3, got %d", c.ItemCount())
	}
}

func TestMaxItemsOne(t *testing.T) {
	var evicted []string
	c := New(1<<20, 1, stringSize, func(key string, value any) {
		evicted = append(evicted, key)
	})

	c.Put("a", "x")
	c.Put("b", "y")

	if _, ok := c.Get("a"); ok {
		t.Fatalf("Get(a): expected miss, max_items=1 should evict every prior key")
	}
	if c.ItemCount() != 1 {
		t.Fatalf("ItemCount: expected 1, got %d", c.ItemCount())
	}
	if len(evicted) != 1 || evicted[0] != "a" {
		t.Fatalf("expected onEvict(a) once, got %v", evicted)
	}
}

func TestSizeOfZeroUsesItemCountBoundOnly(t *testing.T) {
	zeroSize := func(key string, value any) int64 { return 0 }

	c := New(100, 2, zeroSize, func(key string, value any) {})

	c.Put("a", "huge-value-doesnt-matter")
	c.Put("b", "another-huge-value")
	c.Put("c", "yet-another")

	if c.ItemCount() != 2 {
		t.Fatalf("ItemCount: expected 2 (count bound only), got %d", c.ItemCount())
	}
	if c.CurrentCacheSize() != 0 {
		t.Fatalf("CurrentCacheSize: expected 0, got %d", c.CurrentCacheSize())
	}
}

func TestEvictAll(t *testing.T) {
	var evicted []string
	c := New(1<<20, 10, stringSize, func(key string, value any) {
		evicted = append(evicted, key)
	})

	c.Put("a", "a")
	c.Put("b", "b")
	c.Put("c", "c")

	c.EvictAll()

	if c.ItemCount() != 0 {
		t.Fatalf("ItemCount: expected 0 after EvictAll, got %d", c.ItemCount())
	}
	if c.CurrentCacheSize() != 0 {
		t.Fatalf("CurrentCacheSize: expected 0 after EvictAll, got %d", c.CurrentCacheSize())
	}
	if len(evicted) != 3 {
		t.Fatalf("expected 3 evictions, got %d: %v", len(evicted), evicted)
	}
}

func TestPromoteDoesNotDisturbOtherOrder(t *testing.T) {
	var evicted []string
	c := New(1<<20, 3, stringSize, func(key string, value any) {
		evicted = append(evicted, key)
	})

	c.Put("a", "a")
	c.Put("b", "b")
	c.Put("c", "c")

	// Promote b to MRU; relative order of a and c must be unaffected.
	c.Get("b")

	c.Put("d", "d") // forces eviction of the LRU entry, which is now "a".

	if _, ok := c.Get("a"); ok {
		t.Fatalf("Get(a): expected miss, a should be LRU after promoting b")
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatalf("Get(c): expected hit, c should still be present")
	}
}
