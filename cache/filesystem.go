package cache

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/eak1mov/go-mapview/job"
)

// Entry files start with a fixed magic, the compression byte and a checksum
// of the uncompressed payload. A file failing any of these checks is
// treated as a miss and removed, never surfaced as an error.
const (
	entryMagic      = "MVC1"
	entryHeaderSize = len(entryMagic) + 1 + 8
)

// FileSystem is the persistent cache tier. Each entry lives in its own file
// named by the job's stable hash; an in-memory index tracks which jobs are
// present and drives LRU eviction.
type FileSystem struct {
	mu        sync.Mutex
	dir       string
	codec     Compression
	lru       *LRU[job.Job, string]
	logger    *zap.Logger
	removeErr error
}

type fileSystemConfig struct {
	Compression Compression
	Logger      *zap.Logger
}

type FileSystemOption func(*fileSystemConfig)

// WithCompression selects the codec for entry payloads on disk.
func WithCompression(compression Compression) FileSystemOption {
	return func(c *fileSystemConfig) { c.Compression = compression }
}

func WithFileSystemLogger(logger *zap.Logger) FileSystemOption {
	return func(c *fileSystemConfig) { c.Logger = logger }
}

// NewFileSystem creates a filesystem cache storing at most capacity tiles
// under dir. The directory is created if needed.
func NewFileSystem(dir string, capacity int, opts ...FileSystemOption) (*FileSystem, error) {
	config := fileSystemConfig{
		Compression: CompressionNone,
		Logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&config)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	c := &FileSystem{
		dir:    dir,
		codec:  config.Compression,
		logger: config.Logger,
	}
	c.lru = NewLRU[job.Job, string](capacity, c.removeEntryFile)
	return c, nil
}

func (c *FileSystem) Contains(j job.Job) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Contains(j)
}

func (c *FileSystem) Get(j job.Job) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	path, ok := c.lru.Get(j)
	if !ok {
		return nil, false
	}

	data, err := c.readEntry(path)
	if err != nil {
		// Self-heal: drop the bad entry and report a miss so the pipeline
		// re-requests production.
		c.logger.Warn("dropping unreadable cache entry",
			zap.String("path", path), zap.Error(err))
		c.lru.Remove(j)
		c.flushRemoveErr()
		return nil, false
	}
	return data, true
}

func (c *FileSystem) Put(j job.Job, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := filepath.Join(c.dir, fmt.Sprintf("%016x.tile", j.Key()))
	if err := c.writeEntry(path, data); err != nil {
		c.logger.Warn("failed to write cache entry",
			zap.String("path", path), zap.Error(err))
		return
	}
	c.lru.Put(j, path)
	c.flushRemoveErr()
}

// Destroy removes every entry file this cache created and, if it ends up
// empty, its directory. Files outside the cache directory are never touched.
func (c *FileSystem) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Clear()
	if err := os.Remove(c.dir); err != nil && !os.IsNotExist(err) {
		c.logger.Debug("cache directory not removed", zap.Error(err))
	}
	c.flushRemoveErr()
	c.logger.Debug("filesystem cache destroyed", zap.String("dir", c.dir))
}

func (c *FileSystem) removeEntryFile(_ job.Job, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		c.removeErr = multierr.Append(c.removeErr, err)
	}
}

func (c *FileSystem) flushRemoveErr() {
	if c.removeErr != nil {
		c.logger.Warn("failed to remove evicted cache entries", zap.Error(c.removeErr))
		c.removeErr = nil
	}
}

func (c *FileSystem) writeEntry(path string, data []byte) error {
	payload, err := Compress(data, c.codec)
	if err != nil {
		return err
	}

	buf := make([]byte, 0, entryHeaderSize+len(payload))
	buf = append(buf, entryMagic...)
	buf = append(buf, byte(c.codec))
	buf = binary.BigEndian.AppendUint64(buf, xxhash.Sum64(data))
	buf = append(buf, payload...)

	// Write to a temporary name first so a crash never leaves a torn entry
	// under the final name.
	tmpPath := path + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmpPath, buf, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

func (c *FileSystem) readEntry(path string) ([]byte, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(buf) < entryHeaderSize || string(buf[:len(entryMagic)]) != entryMagic {
		return nil, fmt.Errorf("malformed cache entry")
	}

	codec := Compression(buf[len(entryMagic)])
	checksum := binary.BigEndian.Uint64(buf[len(entryMagic)+1 : entryHeaderSize])

	data, err := Decompress(buf[entryHeaderSize:], codec)
	if err != nil {
		return nil, err
	}
	if xxhash.Sum64(data) != checksum {
		return nil, fmt.Errorf("cache entry checksum mismatch")
	}
	return data, nil
}
