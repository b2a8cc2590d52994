// Package worker runs the single background thread that turns queued tile
// jobs into cached images.
package worker

import (
	"sync"

	"go.uber.org/zap"

	"github.com/eak1mov/go-mapview/cache"
	"github.com/eak1mov/go-mapview/job"
)

// Renderer produces a tile image for a job. It is the external collaborator
// that decodes geometry and draws pixels; the worker never draws itself.
type Renderer interface {
	RenderTile(j job.Job) ([]byte, error)
}

// RenderFunc adapts a function to the Renderer interface.
type RenderFunc func(j job.Job) ([]byte, error)

func (f RenderFunc) RenderTile(j job.Job) ([]byte, error) {
	return f(j)
}

// Listener is notified whenever a tile becomes available in the caches, so
// the viewer can repaint.
type Listener interface {
	TileRendered(j job.Job)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(j job.Job)

func (f ListenerFunc) TileRendered(j job.Job) {
	f(j)
}

type workerConfig struct {
	Logger *zap.Logger
}

type Option func(*workerConfig)

func WithLogger(logger *zap.Logger) Option {
	return func(c *workerConfig) { c.Logger = logger }
}

// Worker drains the job queue on its own goroutine. For each job it checks
// both cache tiers again (a race may have filled them while the job was
// queued), produces the image on a miss, installs it into both tiers and
// notifies the listener.
//
// Pausing is cooperative: a pause request is observed between jobs, never
// mid-production, and AwaitPausing returns only once the worker is truly
// idle. Callers use the protocol Pause, AwaitPausing, exclusive mutation
// (swap the map file, clear the queue), Proceed.
type Worker struct {
	queue      *job.Queue
	memCache   cache.Cache
	diskCache  cache.Cache
	renderer   Renderer
	listener   Listener
	logger     *zap.Logger

	mu             sync.Mutex
	cond           *sync.Cond
	pauseRequested bool
	paused         bool
	stopped        bool
	done           chan struct{}
}

func New(queue *job.Queue, memCache, diskCache cache.Cache, renderer Renderer, listener Listener, opts ...Option) *Worker {
	config := workerConfig{Logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&config)
	}

	w := &Worker{
		queue:     queue,
		memCache:  memCache,
		diskCache: diskCache,
		renderer:  renderer,
		listener:  listener,
		logger:    config.Logger,
		done:      make(chan struct{}),
	}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// Start launches the worker goroutine.
func (w *Worker) Start() {
	go w.run()
}

// Pause asks the worker to stop between jobs. It returns immediately; use
// AwaitPausing to block until the worker is idle.
func (w *Worker) Pause() {
	w.mu.Lock()
	w.pauseRequested = true
	w.mu.Unlock()

	// Wake the worker if it is blocked waiting for a job.
	w.queue.Wake()
}

// Proceed resumes a paused worker.
func (w *Worker) Proceed() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pauseRequested = false
	w.cond.Broadcast()
}

// AwaitPausing blocks until the worker has acknowledged a pause request and
// is idle, or has stopped.
func (w *Worker) AwaitPausing() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for !w.paused && !w.stopped {
		w.cond.Wait()
	}
}

// Interrupt terminates the worker loop. The shutdown is expected and not
// reported as an error.
func (w *Worker) Interrupt() {
	w.mu.Lock()
	w.stopped = true
	w.cond.Broadcast()
	w.mu.Unlock()

	w.queue.Interrupt()
}

// Join blocks until the worker goroutine has exited.
func (w *Worker) Join() {
	<-w.done
}

func (w *Worker) run() {
	defer close(w.done)

	for {
		w.mu.Lock()
		for w.pauseRequested && !w.stopped {
			if !w.paused {
				w.paused = true
				w.logger.Debug("worker paused")
				w.cond.Broadcast()
			}
			w.cond.Wait()
		}
		w.paused = false
		stopped := w.stopped
		w.mu.Unlock()

		if stopped {
			w.logger.Debug("worker stopped")
			return
		}

		j, ok := w.queue.RemoveNext()
		if !ok {
			// Interrupted or woken for a pause request; the top of the
			// loop sorts out which.
			w.mu.Lock()
			stopped = w.stopped
			w.mu.Unlock()
			if stopped {
				w.logger.Debug("worker stopped")
				return
			}
			continue
		}

		if w.pausePending() {
			// A pause arrived while we waited for this job. Hand it back
			// untouched and acknowledge the pause first; if the caller is
			// about to swap files it will clear the queue anyway.
			w.queue.AddJob(j)
			continue
		}

		w.process(j)
	}
}

func (w *Worker) pausePending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pauseRequested
}

func (w *Worker) process(j job.Job) {
	if w.memCache.Contains(j) || w.diskCache.Contains(j) {
		w.listener.TileRendered(j)
		return
	}

	data, err := w.renderer.RenderTile(j)
	if err != nil {
		w.logger.Warn("tile production failed",
			zap.Uint32("x", j.Tile.X),
			zap.Uint32("y", j.Tile.Y),
			zap.Uint8("zoom", j.Tile.Zoom),
			zap.Error(err))
		return
	}

	w.memCache.Put(j, data)
	w.diskCache.Put(j, data)
	w.listener.TileRendered(j)
}
