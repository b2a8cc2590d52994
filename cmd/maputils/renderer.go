package main

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/eak1mov/go-mapview/job"
	"github.com/eak1mov/go-mapview/mapfile"
	"github.com/eak1mov/go-mapview/tile"
)

var (
	colorEmpty = color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
	colorWater = color.RGBA{R: 0x99, G: 0xcc, B: 0xff, A: 0xff}
	colorLand  = color.RGBA{R: 0xcc, G: 0xe5, B: 0x99, A: 0xff}
	colorError = color.RGBA{R: 0xe5, G: 0x99, B: 0x99, A: 0xff}
)

// blockRenderer produces flat diagnostic tiles from the map file's block
// index: water blocks in blue, blocks with geometry in green. A real map
// viewer would plug in a vector rasterizer here instead.
type blockRenderer struct {
	reader *mapfile.Reader
}

func (r *blockRenderer) RenderTile(j job.Job) ([]byte, error) {
	fill := colorEmpty
	blocks, err := r.reader.ReadBlocks(j.Tile)
	if err != nil {
		// Unreadable regions are painted instead of aborting the batch.
		fill = colorError
		blocks = nil
	}

	water := len(blocks) > 0
	for _, block := range blocks {
		if len(block.Data) > 0 {
			fill = colorLand
		}
		if !block.Water {
			water = false
		}
	}
	if water {
		fill = colorWater
	}

	img := image.NewRGBA(image.Rect(0, 0, tile.Size, tile.Size))
	draw.Draw(img, img.Bounds(), image.NewUniform(fill), image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
