// Package job defines the unit of rendering work and the priority queue
// that feeds the tile worker.
package job

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/eak1mov/go-mapview/tile"
)

// RenderMode selects the tile production backend. The set is closed and
// chosen once at configuration time.
type RenderMode uint8

const (
	// CanvasRenderer draws tiles from the map file's vector geometry.
	CanvasRenderer RenderMode = iota
)

func (m RenderMode) String() string {
	switch m {
	case CanvasRenderer:
		return "canvas"
	default:
		return "unknown"
	}
}

// RenderParams are the rendering settings that influence a tile's pixels.
// Two jobs with equal parameters produce identical images.
type RenderParams struct {
	Theme     string
	TextScale float32
}

// Job identifies one unit of rendering work: a tile plus the configuration
// needed to produce its image. Jobs are immutable values; structural
// equality makes a Job usable directly as a cache key.
type Job struct {
	Tile   tile.ID
	Mode   RenderMode
	Params RenderParams
	Debug  bool
}

// Key returns a stable 64-bit hash of the job, used by the filesystem cache
// tier to name entry files.
func (j Job) Key() uint64 {
	var buf [23]byte
	binary.BigEndian.PutUint32(buf[0:], j.Tile.X)
	binary.BigEndian.PutUint32(buf[4:], j.Tile.Y)
	buf[8] = j.Tile.Zoom
	buf[9] = byte(j.Mode)
	binary.BigEndian.PutUint32(buf[10:], math.Float32bits(j.Params.TextScale))
	if j.Debug {
		buf[14] = 1
	}
	binary.BigEndian.PutUint64(buf[15:], xxhash.Sum64String(j.Params.Theme))

	return xxhash.Sum64(buf[:])
}
