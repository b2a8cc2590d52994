// Package cache provides the bounded tile stores of the render pipeline:
// a shared LRU eviction core with an in-memory and a filesystem-backed
// implementation.
package cache

import "github.com/eak1mov/go-mapview/job"

// Cache is a bounded job-to-image store. Implementations own the stored
// bytes; callers receive views that remain valid until eviction. All methods
// are safe for concurrent use.
type Cache interface {
	// Contains reports whether an image for the job is present without
	// touching its recency.
	Contains(j job.Job) bool

	// Get returns the image for the job and marks the entry as recently
	// used. A missing or unreadable entry reports ok == false.
	Get(j job.Job) ([]byte, bool)

	// Put stores the image for the job, replacing any previous entry and
	// evicting the least-recently-used one when the cache is full.
	Put(j job.Job, data []byte)

	// Destroy releases all resources held by the cache. The cache must not
	// be used afterwards.
	Destroy()
}
