// Package mapfile reads and writes indexed binary map files. A Reader is a
// session over one open file: it validates the header once, then serves
// random-access tile block lookups through the per-sub-file spatial index.
package mapfile

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/eak1mov/go-mapview/mapfile/spec"
	"github.com/eak1mov/go-mapview/tile"
)

// ErrNoFileOpen is returned by operations on a closed Reader.
var ErrNoFileOpen = errors.New("no map file is open")

// DefaultIndexCacheCapacity is the number of index segments kept in memory.
const DefaultIndexCacheCapacity = 64

// Block is one entry of a sub-file's spatial grid: the raw bytes of all
// geometry for one base-zoom tile, plus the water flag from its index entry.
// Decoding the geometry itself is the renderer's concern.
type Block struct {
	X     int64
	Y     int64
	Water bool
	Data  []byte
}

type readerConfig struct {
	IndexCacheCapacity int
	Logger             *zap.Logger
}

type ReaderOption func(*readerConfig)

func WithIndexCacheCapacity(capacity int) ReaderOption {
	return func(c *readerConfig) { c.IndexCacheCapacity = capacity }
}

func WithReaderLogger(logger *zap.Logger) ReaderOption {
	return func(c *readerConfig) { c.Logger = logger }
}

// Reader is an open map file session. The header state and index tables are
// owned by the session and released atomically by Close.
type Reader struct {
	mu         sync.Mutex
	file       *os.File
	fileSize   int64
	header     *spec.Header
	indexCache *indexCache
	logger     *zap.Logger
}

// NewReader opens and validates a map file. A validation failure closes the
// file again and leaves no partial state behind.
func NewReader(filePath string, opts ...ReaderOption) (*Reader, error) {
	config := readerConfig{
		IndexCacheCapacity: DefaultIndexCacheCapacity,
		Logger:             zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&config)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	header, err := spec.ReadHeader(spec.NewReadBuffer(file), stat.Size())
	if err != nil {
		file.Close()
		return nil, err
	}

	config.Logger.Debug("map file opened",
		zap.String("path", filePath),
		zap.Int64("size", stat.Size()),
		zap.Uint8("sub_files", header.Info().NumberOfSubFiles))

	return &Reader{
		file:       file,
		fileSize:   stat.Size(),
		header:     header,
		indexCache: newIndexCache(file, config.IndexCacheCapacity),
		logger:     config.Logger,
	}, nil
}

// Close releases the file handle and invalidates the header state. It is
// safe to call more than once.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	r.header = nil
	r.indexCache = nil
	return err
}

// Info returns the metadata of the open file, or nil after Close.
func (r *Reader) Info() *spec.MapFileInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.header == nil {
		return nil
	}
	return r.header.Info()
}

// QueryZoomLevel clamps a zoom level to the interval covered by the file.
func (r *Reader) QueryZoomLevel(zoomLevel byte) (byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.header == nil {
		return 0, ErrNoFileOpen
	}
	return r.header.QueryZoomLevel(zoomLevel), nil
}

// SubFileParameter returns the sub-file serving the given zoom level after
// clamping.
func (r *Reader) SubFileParameter(zoomLevel byte) (*spec.SubFileParameter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.header == nil {
		return nil, ErrNoFileOpen
	}
	return r.header.SubFileParameter(r.header.QueryZoomLevel(zoomLevel)), nil
}

// ReadBlocks returns the blocks covering the given tile from the sub-file
// serving the tile's (clamped) zoom level. Tiles outside the file's
// bounding box yield an empty slice.
func (r *Reader) ReadBlocks(t tile.ID) ([]Block, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.header == nil {
		return nil, ErrNoFileOpen
	}

	subFile := r.header.SubFileParameter(r.header.QueryZoomLevel(t.Zoom))
	if subFile == nil {
		return nil, fmt.Errorf("no sub-file for zoom level %d", t.Zoom)
	}

	fromX, fromY := int64(t.X), int64(t.Y)
	toX, toY := int64(t.X), int64(t.Y)
	if t.Zoom < subFile.BaseZoomLevel {
		// The tile spans several blocks of the finer base grid.
		diff := subFile.BaseZoomLevel - t.Zoom
		fromX, fromY = fromX<<diff, fromY<<diff
		toX, toY = ((toX+1)<<diff)-1, ((toY+1)<<diff)-1
	} else if t.Zoom > subFile.BaseZoomLevel {
		diff := t.Zoom - subFile.BaseZoomLevel
		fromX, fromY = fromX>>diff, fromY>>diff
		toX, toY = toX>>diff, toY>>diff
	}

	fromX = max(fromX, subFile.BoundaryTileLeft)
	fromY = max(fromY, subFile.BoundaryTileTop)
	toX = min(toX, subFile.BoundaryTileRight)
	toY = min(toY, subFile.BoundaryTileBottom)

	var blocks []Block
	for blockY := fromY; blockY <= toY; blockY++ {
		for blockX := fromX; blockX <= toX; blockX++ {
			block, err := r.readBlock(subFile, blockX, blockY)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, block)
		}
	}
	return blocks, nil
}

// VisitBlocks calls the visitor for every block of the sub-file serving the
// given zoom level, in row-major grid order.
func (r *Reader) VisitBlocks(zoomLevel byte, visitor func(Block) error) error {
	subFile, err := r.SubFileParameter(zoomLevel)
	if err != nil {
		return err
	}
	if subFile == nil {
		return fmt.Errorf("no sub-file for zoom level %d", zoomLevel)
	}

	for blockY := subFile.BoundaryTileTop; blockY <= subFile.BoundaryTileBottom; blockY++ {
		for blockX := subFile.BoundaryTileLeft; blockX <= subFile.BoundaryTileRight; blockX++ {
			r.mu.Lock()
			if r.header == nil {
				r.mu.Unlock()
				return ErrNoFileOpen
			}
			block, err := r.readBlock(subFile, blockX, blockY)
			r.mu.Unlock()
			if err != nil {
				return err
			}
			if err := visitor(block); err != nil {
				return err
			}
		}
	}
	return nil
}

var errVisitCancelled = errors.New("visit cancelled")

// Blocks returns an iterator over all blocks of the sub-file serving the
// given zoom level. Iteration panics on unrecoverable read errors.
func (r *Reader) Blocks(zoomLevel byte) iter.Seq[Block] {
	return func(yield func(Block) bool) {
		err := r.VisitBlocks(zoomLevel, func(block Block) error {
			if !yield(block) {
				return errVisitCancelled
			}
			return nil
		})
		if err != nil && err != errVisitCancelled {
			panic(err)
		}
	}
}

func (r *Reader) readBlock(subFile *spec.SubFileParameter, blockX, blockY int64) (Block, error) {
	blockNumber := subFile.BlockNumber(blockX, blockY)

	entry, err := r.indexCache.IndexEntry(subFile, blockNumber)
	if err != nil {
		return Block{}, err
	}

	blockOffset := spec.IndexEntryOffset(entry)
	if blockOffset > subFile.SubFileSize {
		return Block{}, fmt.Errorf("%w: block offset %d beyond sub-file size %d",
			spec.ErrFormat, blockOffset, subFile.SubFileSize)
	}

	blockSize := subFile.SubFileSize - blockOffset
	if blockNumber+1 < subFile.NumberOfBlocks {
		nextEntry, err := r.indexCache.IndexEntry(subFile, blockNumber+1)
		if err != nil {
			return Block{}, err
		}
		nextOffset := spec.IndexEntryOffset(nextEntry)
		if nextOffset < blockOffset {
			return Block{}, fmt.Errorf("%w: block index offsets not monotonic", spec.ErrFormat)
		}
		blockSize = nextOffset - blockOffset
	}

	block := Block{X: blockX, Y: blockY, Water: spec.IndexEntryWater(entry)}
	if blockSize == 0 {
		return block, nil
	}
	if blockSize > spec.MaxBufferSize {
		return Block{}, fmt.Errorf("%w: block size %d too large", spec.ErrFormat, blockSize)
	}

	block.Data = make([]byte, blockSize)
	if _, err := r.file.ReadAt(block.Data, subFile.StartAddress+blockOffset); err != nil {
		return Block{}, fmt.Errorf("reading block (%d,%d): %w", blockX, blockY, err)
	}
	return block, nil
}
