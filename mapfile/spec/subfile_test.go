package spec_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eak1mov/go-mapview/mapfile/spec"
	"github.com/eak1mov/go-mapview/tile"
)

func TestSubFileParameterGrid(t *testing.T) {
	boundingBox := tile.BoundingBox{
		MinLatitudeE6:  tile.DegreesToE6(tile.LatitudeMin),
		MinLongitudeE6: tile.DegreesToE6(tile.LongitudeMin),
		MaxLatitudeE6:  tile.DegreesToE6(tile.LatitudeMax),
		MaxLongitudeE6: tile.DegreesToE6(tile.LongitudeMax),
	}
	p := spec.NewSubFileParameter(100, 100, 1000, 1, 0, 3, boundingBox)

	require.Equal(t, int64(0), p.BoundaryTileLeft)
	require.Equal(t, int64(0), p.BoundaryTileTop)
	require.Equal(t, int64(1), p.BoundaryTileRight)
	require.Equal(t, int64(1), p.BoundaryTileBottom)
	require.Equal(t, int64(2), p.BlocksWidth)
	require.Equal(t, int64(4), p.NumberOfBlocks)
	require.Equal(t, int64(100+4*spec.BytesPerIndexEntry), p.IndexEndAddress)

	require.Equal(t, int64(0), p.BlockNumber(0, 0))
	require.Equal(t, int64(1), p.BlockNumber(1, 0))
	require.Equal(t, int64(2), p.BlockNumber(0, 1))
	require.Equal(t, int64(3), p.BlockNumber(1, 1))

	require.True(t, p.ContainsBlock(1, 1))
	require.False(t, p.ContainsBlock(2, 0))
	require.False(t, p.ContainsBlock(-1, 0))
}

func TestIndexEntryRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		offset int64
		water  bool
	}{
		{0, false},
		{1, true},
		{spec.BitmaskIndexOffset, false},
		{spec.BitmaskIndexOffset, true},
	} {
		buf := spec.AppendIndexEntry(nil, tc.offset, tc.water)
		require.Len(t, buf, spec.BytesPerIndexEntry)

		var entry uint64
		for _, b := range buf {
			entry = entry<<8 | uint64(b)
		}
		require.Equal(t, tc.offset, spec.IndexEntryOffset(entry))
		require.Equal(t, tc.water, spec.IndexEntryWater(entry))
	}
}
