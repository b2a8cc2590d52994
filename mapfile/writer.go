package mapfile

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/eak1mov/go-mapview/mapfile/spec"
	"github.com/eak1mov/go-mapview/tile"
)

// indexSignature precedes the block index of every sub-file in debug files.
const indexSignature = "+++IndexStart+++"

// SubFileConfig describes one sub-file to be written: the zoom interval it
// serves and the base zoom level its block grid is structured at.
type SubFileConfig struct {
	BaseZoomLevel byte
	ZoomLevelMin  byte
	ZoomLevelMax  byte
}

type writerConfig struct {
	BoundingBox        tile.BoundingBox
	MapDate            int64
	LanguagePreference string
	Comment            string
	StartPosition      *tile.GeoPoint
	PoiTags            []string
	WayTags            []string
	DebugInfo          bool
	SubFiles           []SubFileConfig
	Logger             *zap.Logger
}

type WriterOption func(*writerConfig)

func WithBoundingBox(boundingBox tile.BoundingBox) WriterOption {
	return func(c *writerConfig) { c.BoundingBox = boundingBox }
}

func WithMapDate(mapDate int64) WriterOption {
	return func(c *writerConfig) { c.MapDate = mapDate }
}

func WithLanguagePreference(language string) WriterOption {
	return func(c *writerConfig) { c.LanguagePreference = language }
}

func WithComment(comment string) WriterOption {
	return func(c *writerConfig) { c.Comment = comment }
}

func WithStartPosition(position tile.GeoPoint) WriterOption {
	return func(c *writerConfig) { c.StartPosition = &position }
}

func WithPoiTags(tags ...string) WriterOption {
	return func(c *writerConfig) { c.PoiTags = tags }
}

func WithWayTags(tags ...string) WriterOption {
	return func(c *writerConfig) { c.WayTags = tags }
}

// WithDebugInfo adds the debug signatures that development tools expect in
// front of each sub-file's block index.
func WithDebugInfo() WriterOption {
	return func(c *writerConfig) { c.DebugInfo = true }
}

func WithSubFiles(subFiles ...SubFileConfig) WriterOption {
	return func(c *writerConfig) { c.SubFiles = subFiles }
}

func WithWriterLogger(logger *zap.Logger) WriterOption {
	return func(c *writerConfig) { c.Logger = logger }
}

type subFileBuilder struct {
	config         SubFileConfig
	boundaryLeft   int64
	boundaryTop    int64
	boundaryRight  int64
	boundaryBottom int64
	blocksWidth    int64
	numberOfBlocks int64
	blockData      map[int64][]byte
	waterBlocks    map[int64]bool
}

// Writer builds a complete, valid map file: header, sub-file table and one
// block index plus block data region per sub-file. It is the symmetric
// counterpart of Reader and backs both tests and the create command.
type Writer struct {
	filePath string
	config   writerConfig
	subFiles []*subFileBuilder
}

// NewWriter prepares a map file writer. Without options it describes an
// empty map: a zero bounding box and a single sub-file spanning zoom 0.
func NewWriter(filePath string, opts ...WriterOption) (*Writer, error) {
	config := writerConfig{
		MapDate:  time.Now().UnixMilli(),
		SubFiles: []SubFileConfig{{}},
		Logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&config)
	}

	if len(config.SubFiles) < 1 || len(config.SubFiles) > 127 {
		return nil, fmt.Errorf("invalid number of sub-files: %d", len(config.SubFiles))
	}
	if config.MapDate < spec.MapDateMin {
		return nil, fmt.Errorf("map date %d before minimum %d", config.MapDate, spec.MapDateMin)
	}

	w := &Writer{filePath: filePath, config: config}
	for _, subFileConfig := range config.SubFiles {
		if subFileConfig.ZoomLevelMin > subFileConfig.ZoomLevelMax ||
			subFileConfig.ZoomLevelMax > spec.ZoomLevelMax ||
			subFileConfig.BaseZoomLevel > spec.BaseZoomLevelMax {
			return nil, fmt.Errorf("invalid sub-file zoom configuration: %+v", subFileConfig)
		}

		b := &subFileBuilder{
			config:      subFileConfig,
			blockData:   make(map[int64][]byte),
			waterBlocks: make(map[int64]bool),
		}
		baseZoom := subFileConfig.BaseZoomLevel
		b.boundaryLeft = tile.LongitudeToTileX(tile.E6ToDegrees(config.BoundingBox.MinLongitudeE6), baseZoom)
		b.boundaryTop = tile.LatitudeToTileY(tile.E6ToDegrees(config.BoundingBox.MaxLatitudeE6), baseZoom)
		b.boundaryRight = tile.LongitudeToTileX(tile.E6ToDegrees(config.BoundingBox.MaxLongitudeE6), baseZoom)
		b.boundaryBottom = tile.LatitudeToTileY(tile.E6ToDegrees(config.BoundingBox.MinLatitudeE6), baseZoom)
		b.blocksWidth = b.boundaryRight - b.boundaryLeft + 1
		b.numberOfBlocks = b.blocksWidth * (b.boundaryBottom - b.boundaryTop + 1)

		w.subFiles = append(w.subFiles, b)
	}
	return w, nil
}

// SetBlockData stores the raw geometry bytes for one block of a sub-file's
// base-zoom grid.
func (w *Writer) SetBlockData(subFile int, blockX, blockY int64, data []byte) error {
	b, err := w.blockTarget(subFile, blockX, blockY)
	if err != nil {
		return err
	}
	b.blockData[b.blockNumber(blockX, blockY)] = data
	return nil
}

// SetWaterBlock marks one block of a sub-file's base-zoom grid as pure
// water.
func (w *Writer) SetWaterBlock(subFile int, blockX, blockY int64) error {
	b, err := w.blockTarget(subFile, blockX, blockY)
	if err != nil {
		return err
	}
	b.waterBlocks[b.blockNumber(blockX, blockY)] = true
	return nil
}

func (w *Writer) blockTarget(subFile int, blockX, blockY int64) (*subFileBuilder, error) {
	if subFile < 0 || subFile >= len(w.subFiles) {
		return nil, fmt.Errorf("sub-file %d out of range", subFile)
	}
	b := w.subFiles[subFile]
	if blockX < b.boundaryLeft || blockX > b.boundaryRight ||
		blockY < b.boundaryTop || blockY > b.boundaryBottom {
		return nil, fmt.Errorf("block (%d,%d) outside sub-file grid", blockX, blockY)
	}
	return b, nil
}

func (b *subFileBuilder) blockNumber(blockX, blockY int64) int64 {
	return (blockY-b.boundaryTop)*b.blocksWidth + (blockX - b.boundaryLeft)
}

// Finalize lays out the file and writes it to disk. The header's declared
// file size and the sub-file start addresses are computed from the layout,
// so the produced file always passes validation.
func (w *Writer) Finalize() error {
	logger := w.config.Logger

	logger.Debug("mapfile: building sub-files")
	payloads := make([][]byte, len(w.subFiles))
	for i, b := range w.subFiles {
		payloads[i] = b.build(w.config.DebugInfo)
	}

	// The header body's length does not depend on the address values, so a
	// first pass with placeholders fixes the layout.
	body := w.buildHeaderBody(make([]int64, len(w.subFiles)), payloads, 0)
	headerLength := int64(len(spec.MagicByte)) + 4 + int64(len(body))

	startAddresses := make([]int64, len(w.subFiles))
	fileSize := headerLength
	for i, payload := range payloads {
		startAddresses[i] = fileSize
		fileSize += int64(len(payload))
	}

	logger.Debug("mapfile: writing header", zap.Int64("file_size", fileSize))
	body = w.buildHeaderBody(startAddresses, payloads, fileSize)

	buf := make([]byte, 0, fileSize)
	buf = append(buf, spec.MagicByte...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(body)))
	buf = append(buf, body...)
	for _, payload := range payloads {
		buf = append(buf, payload...)
	}

	logger.Debug("mapfile: done", zap.String("path", w.filePath))
	return os.WriteFile(w.filePath, buf, 0o644)
}

func (b *subFileBuilder) build(debugInfo bool) []byte {
	var buf []byte
	if debugInfo {
		buf = append(buf, indexSignature...)
	}

	dataOffset := int64(len(buf)) + b.numberOfBlocks*spec.BytesPerIndexEntry
	offsets := make([]int64, b.numberOfBlocks)
	for n := range offsets {
		offsets[n] = dataOffset
		dataOffset += int64(len(b.blockData[int64(n)]))
	}

	for n, offset := range offsets {
		buf = spec.AppendIndexEntry(buf, offset, b.waterBlocks[int64(n)])
	}
	for n := range offsets {
		buf = append(buf, b.blockData[int64(n)]...)
	}
	return buf
}

func (w *Writer) buildHeaderBody(startAddresses []int64, payloads [][]byte, fileSize int64) []byte {
	config := &w.config

	var buf []byte
	buf = binary.BigEndian.AppendUint32(buf, spec.SupportedFileVersion)
	buf = binary.BigEndian.AppendUint64(buf, uint64(fileSize))
	buf = binary.BigEndian.AppendUint64(buf, uint64(config.MapDate))
	buf = binary.BigEndian.AppendUint32(buf, uint32(config.BoundingBox.MinLatitudeE6))
	buf = binary.BigEndian.AppendUint32(buf, uint32(config.BoundingBox.MinLongitudeE6))
	buf = binary.BigEndian.AppendUint32(buf, uint32(config.BoundingBox.MaxLatitudeE6))
	buf = binary.BigEndian.AppendUint32(buf, uint32(config.BoundingBox.MaxLongitudeE6))
	buf = binary.BigEndian.AppendUint16(buf, tile.Size)
	buf = spec.AppendString(buf, spec.MercatorProjection)
	buf = spec.AppendString(buf, config.LanguagePreference)

	var metaFlags byte
	if config.DebugInfo {
		metaFlags |= 0x80
	}
	if config.StartPosition != nil {
		metaFlags |= 0x40
	}
	buf = append(buf, metaFlags)

	if config.StartPosition != nil {
		buf = binary.BigEndian.AppendUint32(buf, uint32(config.StartPosition.LatitudeE6))
		buf = binary.BigEndian.AppendUint32(buf, uint32(config.StartPosition.LongitudeE6))
	}

	buf = binary.BigEndian.AppendUint16(buf, uint16(len(config.PoiTags)))
	for _, tag := range config.PoiTags {
		buf = spec.AppendString(buf, tag)
	}
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(config.WayTags)))
	for _, tag := range config.WayTags {
		buf = spec.AppendString(buf, tag)
	}

	buf = append(buf, byte(len(w.subFiles)))
	for i, b := range w.subFiles {
		buf = append(buf, b.config.BaseZoomLevel, b.config.ZoomLevelMin, b.config.ZoomLevelMax)
		buf = binary.BigEndian.AppendUint64(buf, uint64(startAddresses[i]))
		buf = binary.BigEndian.AppendUint64(buf, uint64(len(payloads[i])))
	}

	buf = spec.AppendString(buf, config.Comment)
	return buf
}
