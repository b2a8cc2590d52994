package spec

import (
	"github.com/eak1mov/go-mapview/tile"
)

const (
	// BytesPerIndexEntry is the width of one block index record.
	BytesPerIndexEntry = 5

	// BitmaskIndexWater marks a block that is entirely covered by water.
	BitmaskIndexWater = 0x8000000000

	// BitmaskIndexOffset extracts the block offset from an index entry.
	BitmaskIndexOffset = 0x7fffffffff
)

// SubFileParameter describes one sub-file: a self-contained region of the
// map file holding all geometry for a contiguous zoom interval, indexed at
// its base zoom level. The tile boundary fields are derived once from the
// file's bounding box so that block lookups are pure arithmetic.
type SubFileParameter struct {
	StartAddress      int64
	IndexStartAddress int64
	SubFileSize       int64
	BaseZoomLevel     byte
	ZoomLevelMin      byte
	ZoomLevelMax      byte

	BoundaryTileLeft   int64
	BoundaryTileTop    int64
	BoundaryTileRight  int64
	BoundaryTileBottom int64

	BlocksWidth     int64
	BlocksHeight    int64
	NumberOfBlocks  int64
	IndexEndAddress int64
}

// NewSubFileParameter derives the block grid of a sub-file from its raw
// header fields and the file's bounding box.
func NewSubFileParameter(startAddress, indexStartAddress, subFileSize int64,
	baseZoomLevel, zoomLevelMin, zoomLevelMax byte, boundingBox tile.BoundingBox) *SubFileParameter {
	p := &SubFileParameter{
		StartAddress:      startAddress,
		IndexStartAddress: indexStartAddress,
		SubFileSize:       subFileSize,
		BaseZoomLevel:     baseZoomLevel,
		ZoomLevelMin:      zoomLevelMin,
		ZoomLevelMax:      zoomLevelMax,
	}

	p.BoundaryTileLeft = tile.LongitudeToTileX(tile.E6ToDegrees(boundingBox.MinLongitudeE6), baseZoomLevel)
	p.BoundaryTileTop = tile.LatitudeToTileY(tile.E6ToDegrees(boundingBox.MaxLatitudeE6), baseZoomLevel)
	p.BoundaryTileRight = tile.LongitudeToTileX(tile.E6ToDegrees(boundingBox.MaxLongitudeE6), baseZoomLevel)
	p.BoundaryTileBottom = tile.LatitudeToTileY(tile.E6ToDegrees(boundingBox.MinLatitudeE6), baseZoomLevel)

	p.BlocksWidth = p.BoundaryTileRight - p.BoundaryTileLeft + 1
	p.BlocksHeight = p.BoundaryTileBottom - p.BoundaryTileTop + 1
	p.NumberOfBlocks = p.BlocksWidth * p.BlocksHeight
	p.IndexEndAddress = p.IndexStartAddress + p.NumberOfBlocks*BytesPerIndexEntry

	return p
}

// BlockNumber returns the row-major index of a block within the sub-file's
// block grid.
func (p *SubFileParameter) BlockNumber(blockX, blockY int64) int64 {
	return (blockY-p.BoundaryTileTop)*p.BlocksWidth + (blockX - p.BoundaryTileLeft)
}

// ContainsBlock reports whether the block coordinates lie inside the
// sub-file's block grid.
func (p *SubFileParameter) ContainsBlock(blockX, blockY int64) bool {
	return blockX >= p.BoundaryTileLeft && blockX <= p.BoundaryTileRight &&
		blockY >= p.BoundaryTileTop && blockY <= p.BoundaryTileBottom
}
