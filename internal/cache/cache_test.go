package cache

import "testing"

func TestGetMissThenPutThenHit(t *testing.T) {
	c := New()
	if c.Contains("username") {
		t.Fatal("new cache should not contain anything")
	}
	c.Put("username", "alice")
	v, ok := c.Get("username")
	if !ok || v != "alice" {
		t.Errorf("Get(username) = (%q, %v), want (alice, true)", v, ok)
	}
}

func TestLRUEvictionOrder(t *testing.T) {
	c := New()
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		c.Put(k, k+"-value")
	}
	if c.Len() != Capacity {
		t.Fatalf("Len() = %d, want %d", c.Len(), Capacity)
	}
	if c.Contains("a") {
		t.Error("a should have been evicted as least-recently-used")
	}
	for _, k := range []string{"b", "c", "d", "e"} {
		if !c.Contains(k) {
			t.Errorf("expected %q to still be cached", k)
		}
	}
}

func TestContainsThenGetCountsAsHit(t *testing.T) {
	c := New()
	c.Put("a", "1")
	c.Put("b", "2")
	c.Put("c", "3")
	c.Put("d", "4")

	// touch "a" via contains+get so it becomes most-recent
	if !c.Contains("a") {
		t.Fatal("expected a to be present")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a to be present")
	}

	c.Put("e", "5") // should evict "b", the new least-recently-used
	if c.Contains("b") {
		t.Error("b should have been evicted")
	}
	if !c.Contains("a") {
		t.Error("a should have survived because it was recently observed")
	}
}

func TestRemoveInvalidatesEntry(t *testing.T) {
	c := New()
	c.Put("k", "v1")
	c.Remove("k")
	if c.Contains("k") {
		t.Error("removed key should not be observed via the cache")
	}
}

func TestPutThenGetIsAPlainHit(t *testing.T) {
	// Cache.Put installs an ordinary entry: a Get right after it is a
	// plain hit with the stored value.
	c := New()
	c.Put("k", "v1")
	v, ok := c.Get("k")
	if !ok || v != "v1" {
		t.Errorf("Get after Put = (%q, %v), want (v1, true)", v, ok)
	}
}
