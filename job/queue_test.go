package job_test

import (
	"testing"
	"time"

	"github.com/eak1mov/go-mapview/job"
	"github.com/eak1mov/go-mapview/tile"
)

func queueJob(x, y uint32, zoom byte) job.Job {
	return job.Job{Tile: tile.ID{X: x, Y: y, Zoom: zoom}}
}

func TestAddJobDeduplicates(t *testing.T) {
	q := job.NewQueue()
	j := queueJob(1, 1, 4)

	if !q.AddJob(j) {
		t.Errorf("first AddJob = false")
	}
	if q.AddJob(j) {
		t.Errorf("duplicate AddJob = true")
	}
	if got, want := q.Len(), 1; got != want {
		t.Errorf("Len = %v, want %v", got, want)
	}

	// Once removed, the same job may be queued again.
	if _, ok := q.RemoveNext(); !ok {
		t.Fatalf("RemoveNext = false")
	}
	if !q.AddJob(j) {
		t.Errorf("AddJob after removal = false")
	}
}

func TestRemoveNextOrdering(t *testing.T) {
	q := job.NewQueue()

	// Viewport centered on tile (0,0) at zoom 4.
	center := tile.ID{X: 0, Y: 0, Zoom: 4}.Center()
	q.RequestSchedule(job.Viewport{Center: center, Zoom: 4})

	far := queueJob(15, 15, 4)
	near := queueJob(0, 0, 4)
	mid := queueJob(4, 4, 4)
	q.AddJob(far)
	q.AddJob(near)
	q.AddJob(mid)

	for _, want := range []job.Job{near, mid, far} {
		got, ok := q.RemoveNext()
		if !ok {
			t.Fatalf("RemoveNext = false")
		}
		if got != want {
			t.Errorf("RemoveNext = %v, want %v", got.Tile, want.Tile)
		}
	}
}

func TestRequestScheduleReorders(t *testing.T) {
	q := job.NewQueue()
	q.RequestSchedule(job.Viewport{Center: tile.ID{X: 0, Y: 0, Zoom: 4}.Center(), Zoom: 4})

	a := queueJob(0, 0, 4)
	b := queueJob(15, 15, 4)
	q.AddJob(a)
	q.AddJob(b)

	// Moving the viewport to the far corner flips the order.
	q.RequestSchedule(job.Viewport{Center: tile.ID{X: 15, Y: 15, Zoom: 4}.Center(), Zoom: 4})

	if got, _ := q.RemoveNext(); got != b {
		t.Errorf("RemoveNext after reschedule = %v, want %v", got.Tile, b.Tile)
	}
}

func TestClear(t *testing.T) {
	q := job.NewQueue()
	q.AddJob(queueJob(1, 1, 2))
	q.AddJob(queueJob(2, 1, 2))

	q.Clear()
	if got, want := q.Len(), 0; got != want {
		t.Errorf("Len after Clear = %v, want %v", got, want)
	}

	// Cleared jobs are no longer deduplicated.
	if !q.AddJob(queueJob(1, 1, 2)) {
		t.Errorf("AddJob after Clear = false")
	}
}

func TestWake(t *testing.T) {
	q := job.NewQueue()

	done := make(chan bool, 1)
	go func() {
		_, ok := q.RemoveNext()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	q.Wake()

	select {
	case ok := <-done:
		if ok {
			t.Errorf("woken RemoveNext delivered a job")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("RemoveNext still blocked after Wake")
	}
}

func TestInterrupt(t *testing.T) {
	q := job.NewQueue()

	done := make(chan bool, 1)
	go func() {
		_, ok := q.RemoveNext()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	q.Interrupt()

	select {
	case ok := <-done:
		if ok {
			t.Errorf("interrupted RemoveNext delivered a job")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("RemoveNext still blocked after Interrupt")
	}

	// The shutdown is permanent.
	if q.AddJob(queueJob(1, 1, 1)) {
		t.Errorf("AddJob after Interrupt = true")
	}
	if _, ok := q.RemoveNext(); ok {
		t.Errorf("RemoveNext after Interrupt = true")
	}
}

func TestKeyStability(t *testing.T) {
	a := job.Job{Tile: tile.ID{X: 1, Y: 2, Zoom: 3}, Params: job.RenderParams{Theme: "day", TextScale: 1}}
	b := a
	if a.Key() != b.Key() {
		t.Errorf("equal jobs hash differently")
	}

	for _, other := range []job.Job{
		{Tile: tile.ID{X: 2, Y: 2, Zoom: 3}, Params: a.Params},
		{Tile: a.Tile, Params: job.RenderParams{Theme: "night", TextScale: 1}},
		{Tile: a.Tile, Params: job.RenderParams{Theme: "day", TextScale: 2}},
		{Tile: a.Tile, Params: a.Params, Debug: true},
	} {
		if a.Key() == other.Key() {
			t.Errorf("distinct jobs %+v and %+v share a key", a, other)
		}
	}
}
