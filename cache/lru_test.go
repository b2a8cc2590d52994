package cache_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/eak1mov/go-mapview/cache"
)

func TestLRUBasics(t *testing.T) {
	c := cache.NewLRU[string, int](2, nil)

	c.Put("a", 1)
	c.Put("b", 2)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %v, %v", v, ok)
	}
	if !c.Contains("b") {
		t.Errorf("Contains(b) = false")
	}
	if c.Contains("c") {
		t.Errorf("Contains(c) = true")
	}
	if got, want := c.Len(), 2; got != want {
		t.Errorf("Len = %v, want %v", got, want)
	}
}

func TestLRUEviction(t *testing.T) {
	var evicted []string
	c := cache.NewLRU[string, int](2, func(key string, _ int) {
		evicted = append(evicted, key)
	})

	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a") // refreshes a, so b is now the oldest
	c.Put("c", 3)

	if got, want := evicted, []string{"b"}; !cmp.Equal(got, want) {
		t.Errorf("evicted = %v, want %v", got, want)
	}
	if c.Contains("b") {
		t.Errorf("Contains(b) = true after eviction")
	}
	if !c.Contains("a") || !c.Contains("c") {
		t.Errorf("survivors missing")
	}
}

func TestLRUContainsDoesNotRefresh(t *testing.T) {
	var evicted []string
	c := cache.NewLRU[string, int](2, func(key string, _ int) {
		evicted = append(evicted, key)
	})

	c.Put("a", 1)
	c.Put("b", 2)
	c.Contains("a") // no recency effect
	c.Put("c", 3)

	if got, want := evicted, []string{"a"}; !cmp.Equal(got, want) {
		t.Errorf("evicted = %v, want %v", got, want)
	}
}

func TestLRUReplace(t *testing.T) {
	c := cache.NewLRU[string, int](2, nil)

	c.Put("a", 1)
	c.Put("a", 2)

	if got, want := c.Len(), 1; got != want {
		t.Errorf("Len = %v, want %v", got, want)
	}
	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("Get(a) = %v, want 2", v)
	}
}

func TestLRUClear(t *testing.T) {
	var evicted int
	c := cache.NewLRU[string, int](4, func(string, int) { evicted++ })

	c.Put("a", 1)
	c.Put("b", 2)
	c.Remove("a")
	c.Clear()

	if got, want := evicted, 2; got != want {
		t.Errorf("evicted = %v, want %v", got, want)
	}
	if got, want := c.Len(), 0; got != want {
		t.Errorf("Len = %v, want %v", got, want)
	}
}
