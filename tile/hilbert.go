package tile

import (
	"math/bits"

	"github.com/google/hilbert"
)

// Code maps a tile to its position on the Hilbert curve of its zoom level,
// offset so that codes are unique across zoom levels. Tiles that are close
// on the curve are close on the map, which makes the code a good ordering
// key for deterministic scheduling and locality-preserving exports.
func Code(t ID) uint64 {
	h, _ := hilbert.NewHilbert(1 << t.Zoom)
	d, _ := h.MapInverse(int(t.X), int(t.Y))

	tilesBefore := (uint64(1)<<(2*t.Zoom) - 1) / 3
	return tilesBefore + uint64(d)
}

// DecodeCode is the inverse of Code.
func DecodeCode(code uint64) ID {
	z := (bits.Len64(3*code+1) - 1) / 2
	tilesBefore := (uint64(1)<<(2*z) - 1) / 3

	h, _ := hilbert.NewHilbert(1 << z)
	x, y, _ := h.Map(int(code - tilesBefore))

	return ID{X: uint32(x), Y: uint32(y), Zoom: byte(z)}
}
