package cache_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/eak1mov/go-mapview/cache"
	"github.com/eak1mov/go-mapview/job"
	"github.com/eak1mov/go-mapview/tile"
)

func testJob(x, y uint32, zoom byte) job.Job {
	return job.Job{
		Tile:   tile.ID{X: x, Y: y, Zoom: zoom},
		Params: job.RenderParams{Theme: "default", TextScale: 1},
	}
}

func TestMemoryCache(t *testing.T) {
	c := cache.NewMemory(4)
	j := testJob(1, 2, 3)

	if c.Contains(j) {
		t.Errorf("Contains on empty cache = true")
	}

	c.Put(j, []byte("tile"))
	if !c.Contains(j) {
		t.Errorf("Contains after Put = false")
	}
	if data, ok := c.Get(j); !ok || !cmp.Equal(data, []byte("tile")) {
		t.Errorf("Get = %q, %v", data, ok)
	}

	// Replacing an entry keeps a single slot occupied.
	c.Put(j, []byte("tile2"))
	if data, _ := c.Get(j); !cmp.Equal(data, []byte("tile2")) {
		t.Errorf("Get after replace = %q", data)
	}

	c.Destroy()
	if c.Contains(j) {
		t.Errorf("Contains after Destroy = true")
	}
}

func TestMemoryCacheEviction(t *testing.T) {
	const capacity = 8
	c := cache.NewMemory(capacity)

	for i := range uint32(capacity + 1) {
		c.Put(testJob(i, 0, 10), fmt.Appendf(nil, "tile-%d", i))
	}

	if c.Contains(testJob(0, 0, 10)) {
		t.Errorf("oldest entry still present after overflow")
	}
	for i := uint32(1); i <= capacity; i++ {
		if !c.Contains(testJob(i, 0, 10)) {
			t.Errorf("entry %d missing", i)
		}
	}
}
