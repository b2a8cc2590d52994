package mapfile

import (
	"fmt"
	"io"
	"sync"

	"github.com/eak1mov/go-mapview/cache"
	"github.com/eak1mov/go-mapview/mapfile/spec"
)

const (
	indexEntriesPerSegment = 128
	indexSegmentSize       = indexEntriesPerSegment * spec.BytesPerIndexEntry
)

type indexSegmentKey struct {
	subFile       *spec.SubFileParameter
	segmentNumber int64
}

// indexCache keeps recently used segments of the block index in memory, so
// repeated lookups in the same map region avoid re-reading the file.
type indexCache struct {
	mu  sync.Mutex
	src io.ReaderAt
	lru *cache.LRU[indexSegmentKey, []byte]
}

func newIndexCache(src io.ReaderAt, capacity int) *indexCache {
	return &indexCache{
		src: src,
		lru: cache.NewLRU[indexSegmentKey, []byte](capacity, nil),
	}
}

// IndexEntry returns the raw 5-byte index entry for the given block number.
func (c *indexCache) IndexEntry(subFile *spec.SubFileParameter, blockNumber int64) (uint64, error) {
	if blockNumber < 0 || blockNumber >= subFile.NumberOfBlocks {
		return 0, fmt.Errorf("%w: block number %d out of range", spec.ErrFormat, blockNumber)
	}

	key := indexSegmentKey{subFile: subFile, segmentNumber: blockNumber / indexEntriesPerSegment}

	c.mu.Lock()
	defer c.mu.Unlock()

	segment, ok := c.lru.Get(key)
	if !ok {
		segmentStart := subFile.IndexStartAddress + key.segmentNumber*indexSegmentSize
		segmentEnd := min(segmentStart+indexSegmentSize, subFile.IndexEndAddress)

		segment = make([]byte, segmentEnd-segmentStart)
		if _, err := c.src.ReadAt(segment, segmentStart); err != nil {
			return 0, fmt.Errorf("reading index segment at offset %d: %w", segmentStart, err)
		}
		c.lru.Put(key, segment)
	}

	pos := (blockNumber % indexEntriesPerSegment) * spec.BytesPerIndexEntry
	if int(pos)+spec.BytesPerIndexEntry > len(segment) {
		return 0, fmt.Errorf("%w: truncated index segment", spec.ErrFormat)
	}

	var entry uint64
	for _, b := range segment[pos : pos+spec.BytesPerIndexEntry] {
		entry = entry<<8 | uint64(b)
	}
	return entry, nil
}
