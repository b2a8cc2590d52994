package cache

import (
	"sync"

	"go.uber.org/zap"

	"github.com/eak1mov/go-mapview/job"
)

// Memory is the in-memory cache tier. Hits return the stored bytes without
// copying, so they are cheap enough to sit on the repaint path.
type Memory struct {
	mu     sync.Mutex
	lru    *LRU[job.Job, []byte]
	logger *zap.Logger
}

type memoryConfig struct {
	Logger *zap.Logger
}

type MemoryOption func(*memoryConfig)

func WithMemoryLogger(logger *zap.Logger) MemoryOption {
	return func(c *memoryConfig) { c.Logger = logger }
}

// NewMemory creates an in-memory cache holding at most capacity tiles.
func NewMemory(capacity int, opts ...MemoryOption) *Memory {
	config := memoryConfig{Logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&config)
	}

	return &Memory{
		lru:    NewLRU[job.Job, []byte](capacity, nil),
		logger: config.Logger,
	}
}

func (c *Memory) Contains(j job.Job) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Contains(j)
}

func (c *Memory) Get(j job.Job) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Get(j)
}

func (c *Memory) Put(j job.Job, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Put(j, data)
}

func (c *Memory) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Clear()
	c.logger.Debug("memory cache destroyed")
}
