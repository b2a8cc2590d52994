package mapfile_test

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/eak1mov/go-mapview/mapfile"
	"github.com/eak1mov/go-mapview/mapfile/spec"
	"github.com/eak1mov/go-mapview/tile"
)

const testMapDate = 1324124730145

func TestWriterReader(t *testing.T) {
	for _, tc := range []struct {
		name      string
		debugInfo bool
	}{
		{name: "plain", debugInfo: false},
		{name: "debug", debugInfo: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			boundingBox := tile.BoundingBox{
				MinLatitudeE6:  -50000000,
				MinLongitudeE6: -100000000,
				MaxLatitudeE6:  50000000,
				MaxLongitudeE6: 100000000,
			}
			startPosition := tile.GeoPoint{LatitudeE6: 10000000, LongitudeE6: 20000000}

			opts := []mapfile.WriterOption{
				mapfile.WithBoundingBox(boundingBox),
				mapfile.WithMapDate(testMapDate),
				mapfile.WithComment("generated for tests"),
				mapfile.WithLanguagePreference("en"),
				mapfile.WithStartPosition(startPosition),
				mapfile.WithPoiTags("amenity=cafe"),
				mapfile.WithWayTags("highway=primary", "waterway=river"),
				mapfile.WithSubFiles(mapfile.SubFileConfig{
					BaseZoomLevel: 2,
					ZoomLevelMin:  0,
					ZoomLevelMax:  10,
				}),
			}
			if tc.debugInfo {
				opts = append(opts, mapfile.WithDebugInfo())
			}

			filePath := filepath.Join(t.TempDir(), "test.map")
			writer, err := mapfile.NewWriter(filePath, opts...)
			if err != nil {
				t.Fatalf("NewWriter failed: %v", err)
			}

			// The bounding box covers blocks x 0..3, y 1..2 at base zoom 2.
			blockData := map[[2]int64][]byte{
				{1, 1}: fmt.Appendf(nil, "block-1-1"),
				{2, 1}: fmt.Appendf(nil, "block-2-1"),
				{3, 2}: fmt.Appendf(nil, "block-3-2"),
			}
			for block, data := range blockData {
				if err := writer.SetBlockData(0, block[0], block[1], data); err != nil {
					t.Fatalf("SetBlockData(%v) failed: %v", block, err)
				}
			}
			if err := writer.SetWaterBlock(0, 1, 2); err != nil {
				t.Fatalf("SetWaterBlock failed: %v", err)
			}

			if err := writer.Finalize(); err != nil {
				t.Fatalf("Finalize failed: %v", err)
			}

			reader, err := mapfile.NewReader(filePath)
			if err != nil {
				t.Fatalf("NewReader failed: %v", err)
			}
			defer reader.Close()

			info := reader.Info()
			want := spec.MapFileInfo{
				BoundingBox:        boundingBox,
				Comment:            "generated for tests",
				DebugFile:          tc.debugInfo,
				FileSize:           info.FileSize,
				FileVersion:        3,
				LanguagePreference: "en",
				MapCenter:          boundingBox.Center(),
				MapDate:            testMapDate,
				NumberOfSubFiles:   1,
				PoiTags:            []tile.Tag{{Key: "amenity", Value: "cafe"}},
				ProjectionName:     "Mercator",
				StartPosition:      &startPosition,
				TilePixelSize:      256,
				WayTags: []tile.Tag{
					{Key: "highway", Value: "primary"},
					{Key: "waterway", Value: "river"},
				},
			}
			if diff := cmp.Diff(want, *info); diff != "" {
				t.Errorf("Info mismatch (-want+got):\n%v", diff)
			}

			// A populated block.
			blocks, err := reader.ReadBlocks(tile.ID{X: 1, Y: 1, Zoom: 2})
			if err != nil {
				t.Fatalf("ReadBlocks failed: %v", err)
			}
			if len(blocks) != 1 {
				t.Fatalf("ReadBlocks returned %d blocks, want 1", len(blocks))
			}
			if got, want := blocks[0].Data, blockData[[2]int64{1, 1}]; !cmp.Equal(got, want) {
				t.Errorf("block data = %q, want %q", got, want)
			}
			if blocks[0].Water {
				t.Errorf("block (1,1) unexpectedly marked as water")
			}

			// A water block carries no data.
			blocks, err = reader.ReadBlocks(tile.ID{X: 1, Y: 2, Zoom: 2})
			if err != nil {
				t.Fatalf("ReadBlocks failed: %v", err)
			}
			if len(blocks) != 1 || !blocks[0].Water || len(blocks[0].Data) != 0 {
				t.Errorf("water block mismatch: %+v", blocks)
			}

			// A coarser tile covers several blocks of the base grid.
			blocks, err = reader.ReadBlocks(tile.ID{X: 0, Y: 0, Zoom: 1})
			if err != nil {
				t.Fatalf("ReadBlocks failed: %v", err)
			}
			if len(blocks) != 2 {
				t.Errorf("ReadBlocks at zoom 1 returned %d blocks, want 2", len(blocks))
			}

			// A finer tile maps back to its base grid block.
			blocks, err = reader.ReadBlocks(tile.ID{X: 4, Y: 2, Zoom: 3})
			if err != nil {
				t.Fatalf("ReadBlocks failed: %v", err)
			}
			if len(blocks) != 1 || !cmp.Equal(blocks[0].Data, blockData[[2]int64{2, 1}]) {
				t.Errorf("zoom 3 lookup mismatch: %+v", blocks)
			}

			// Tiles outside the bounding box yield nothing.
			blocks, err = reader.ReadBlocks(tile.ID{X: 0, Y: 0, Zoom: 2})
			if err != nil {
				t.Fatalf("ReadBlocks failed: %v", err)
			}
			if len(blocks) != 0 {
				t.Errorf("out-of-bounds lookup returned %d blocks", len(blocks))
			}

			// The iterator walks the full grid in row-major order.
			var count, withData int
			for block := range reader.Blocks(2) {
				count++
				if len(block.Data) > 0 {
					withData++
				}
			}
			if count != 8 || withData != len(blockData) {
				t.Errorf("Blocks visited %d blocks (%d with data), want 8 (%d)", count, withData, len(blockData))
			}

			zoomLevel, err := reader.QueryZoomLevel(15)
			if err != nil {
				t.Fatalf("QueryZoomLevel failed: %v", err)
			}
			if zoomLevel != 10 {
				t.Errorf("QueryZoomLevel(15) = %d, want 10", zoomLevel)
			}
		})
	}
}

func TestReaderClosed(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "test.map")
	writer, err := mapfile.NewWriter(filePath)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	if err := writer.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	reader, err := mapfile.NewReader(filePath)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	if err := reader.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := reader.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	if reader.Info() != nil {
		t.Errorf("Info after Close is not nil")
	}
	if _, err := reader.ReadBlocks(tile.ID{Zoom: 0}); !errors.Is(err, mapfile.ErrNoFileOpen) {
		t.Errorf("ReadBlocks after Close: %v", err)
	}
}

func TestLargeBlockIndex(t *testing.T) {
	// A world-spanning sub-file at base zoom 4 has 256 blocks, so its index
	// spans more than one cached segment.
	boundingBox := tile.BoundingBox{
		MinLatitudeE6:  tile.DegreesToE6(tile.LatitudeMin),
		MinLongitudeE6: tile.DegreesToE6(tile.LongitudeMin),
		MaxLatitudeE6:  tile.DegreesToE6(tile.LatitudeMax),
		MaxLongitudeE6: tile.DegreesToE6(tile.LongitudeMax),
	}

	filePath := filepath.Join(t.TempDir(), "world.map")
	writer, err := mapfile.NewWriter(filePath,
		mapfile.WithBoundingBox(boundingBox),
		mapfile.WithSubFiles(mapfile.SubFileConfig{BaseZoomLevel: 4, ZoomLevelMin: 0, ZoomLevelMax: 8}),
	)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	want := map[tile.ID][]byte{
		{X: 0, Y: 0, Zoom: 4}:   fmt.Appendf(nil, "first"),
		{X: 9, Y: 7, Zoom: 4}:   fmt.Appendf(nil, "middle"),
		{X: 15, Y: 15, Zoom: 4}: fmt.Appendf(nil, "last"),
	}
	for id, data := range want {
		if err := writer.SetBlockData(0, int64(id.X), int64(id.Y), data); err != nil {
			t.Fatalf("SetBlockData(%v) failed: %v", id, err)
		}
	}
	if err := writer.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	reader, err := mapfile.NewReader(filePath, mapfile.WithIndexCacheCapacity(1))
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	for id, data := range want {
		blocks, err := reader.ReadBlocks(id)
		if err != nil {
			t.Fatalf("ReadBlocks(%v) failed: %v", id, err)
		}
		if len(blocks) != 1 || !cmp.Equal(blocks[0].Data, data) {
			t.Errorf("ReadBlocks(%v) mismatch: %+v", id, blocks)
		}
	}
}

func writeGarbage(filePath string) error {
	return os.WriteFile(filePath, bytes.Repeat([]byte{'x'}, 128), 0o644)
}

func TestReaderRejectsGarbage(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "garbage.map")
	if err := writeGarbage(filePath); err != nil {
		t.Fatalf("writing test file: %v", err)
	}
	if _, err := mapfile.NewReader(filePath); !errors.Is(err, spec.ErrFormat) {
		t.Errorf("NewReader on garbage: %v", err)
	}
}
