package job

import (
	"math"
	"slices"
	"sync"

	"github.com/eak1mov/go-mapview/tile"
)

// Viewport is a snapshot of what the viewer currently shows. The queue uses
// it to keep the closest tiles at the front.
type Viewport struct {
	Center tile.GeoPoint
	Zoom   byte
}

// Queue is a thread-safe, priority-ordered container of pending jobs.
// Producers add jobs and reschedule on viewport changes; a single worker
// blocks in RemoveNext. Jobs closest to the viewport center come out first.
type Queue struct {
	mu          sync.Mutex
	cond        *sync.Cond
	jobs        []Job
	present     map[Job]struct{}
	viewport    Viewport
	sorted      bool
	woken       bool
	interrupted bool
}

func NewQueue() *Queue {
	q := &Queue{
		present: make(map[Job]struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// AddJob inserts a job unless an equal one is already pending. It reports
// whether the job was newly added.
func (q *Queue) AddJob(j Job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.interrupted {
		return false
	}
	if _, ok := q.present[j]; ok {
		return false
	}
	q.present[j] = struct{}{}
	q.jobs = append(q.jobs, j)
	q.sorted = false
	q.cond.Broadcast()
	return true
}

// RequestSchedule records the latest viewport snapshot and marks all pending
// jobs for re-prioritization. The reorder itself happens lazily on the next
// RemoveNext, so rescheduling is cheap even under a burst of viewport
// changes.
func (q *Queue) RequestSchedule(viewport Viewport) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.viewport = viewport
	q.sorted = false
}

// RemoveNext blocks until a job is available and returns the one closest to
// the current viewport. It returns ok == false when the queue has been
// interrupted or woken without work.
func (q *Queue) RemoveNext() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.jobs) == 0 && !q.interrupted {
		if q.woken {
			q.woken = false
			return Job{}, false
		}
		q.cond.Wait()
	}
	if q.interrupted {
		return Job{}, false
	}
	q.woken = false

	if !q.sorted {
		q.sortLocked()
	}

	j := q.jobs[0]
	q.jobs = slices.Delete(q.jobs, 0, 1)
	delete(q.present, j)
	return j, true
}

// Clear drops all pending jobs. Safe to call while a worker is blocked in
// RemoveNext.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.jobs = q.jobs[:0]
	clear(q.present)
	q.sorted = true
}

// Wake unblocks one pending RemoveNext without delivering a job. The worker
// uses this to observe a pause request while the queue is empty.
func (q *Queue) Wake() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.woken = true
	q.cond.Broadcast()
}

// Interrupt permanently shuts the queue down; every blocked and future
// RemoveNext returns ok == false.
func (q *Queue) Interrupt() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.interrupted = true
	q.cond.Broadcast()
}

// Len returns the number of pending jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

func (q *Queue) sortLocked() {
	viewport := q.viewport
	priorities := make(map[Job]priority, len(q.jobs))
	for _, j := range q.jobs {
		priorities[j] = priorityFor(j, viewport)
	}
	slices.SortStableFunc(q.jobs, func(a, b Job) int {
		return priorities[a].compare(priorities[b])
	})
	q.sorted = true
}

// priority orders jobs by distance from the viewport center, with closer
// zoom levels winning ties and the Hilbert code as a deterministic final
// tie-break.
type priority struct {
	distance    float64
	zoomDiff    int
	hilbertCode uint64
}

func priorityFor(j Job, viewport Viewport) priority {
	zoom := j.Tile.Zoom
	centerX := tile.LongitudeToPixelX(tile.E6ToDegrees(viewport.Center.LongitudeE6), zoom)
	centerY := tile.LatitudeToPixelY(tile.E6ToDegrees(viewport.Center.LatitudeE6), zoom)

	tileCenterX := float64(j.Tile.PixelX()) + tile.Size/2
	tileCenterY := float64(j.Tile.PixelY()) + tile.Size/2

	zoomDiff := int(zoom) - int(viewport.Zoom)
	if zoomDiff < 0 {
		zoomDiff = -zoomDiff
	}

	return priority{
		distance:    math.Hypot(tileCenterX-centerX, tileCenterY-centerY),
		zoomDiff:    zoomDiff,
		hilbertCode: tile.Code(j.Tile),
	}
}

func (p priority) compare(o priority) int {
	switch {
	case p.distance < o.distance:
		return -1
	case p.distance > o.distance:
		return 1
	case p.zoomDiff != o.zoomDiff:
		return p.zoomDiff - o.zoomDiff
	case p.hilbertCode < o.hilbertCode:
		return -1
	case p.hilbertCode > o.hilbertCode:
		return 1
	default:
		return 0
	}
}
