// Package tile provides tile coordinates, geographic types and Mercator
// projection math shared by the map-file reader and the render pipeline.
package tile

// Size is the width and height of a map tile in pixels.
const Size = 256

// ID represents tile coordinates in the XYZ scheme (Tiled web map).
type ID struct {
	X    uint32
	Y    uint32
	Zoom byte
}

func (t ID) Valid() bool {
	return t.Zoom < 32 && t.X < (1<<t.Zoom) && t.Y < (1<<t.Zoom)
}

// PixelX returns the absolute pixel X coordinate of the tile's left edge
// on the world map at the tile's zoom level.
func (t ID) PixelX() int64 {
	return int64(t.X) * Size
}

// PixelY returns the absolute pixel Y coordinate of the tile's top edge
// on the world map at the tile's zoom level.
func (t ID) PixelY() int64 {
	return int64(t.Y) * Size
}

// BoundingBox returns the geographic area covered by the tile.
func (t ID) BoundingBox() BoundingBox {
	return BoundingBox{
		MinLatitudeE6:  DegreesToE6(TileYToLatitude(int64(t.Y)+1, t.Zoom)),
		MinLongitudeE6: DegreesToE6(TileXToLongitude(int64(t.X), t.Zoom)),
		MaxLatitudeE6:  DegreesToE6(TileYToLatitude(int64(t.Y), t.Zoom)),
		MaxLongitudeE6: DegreesToE6(TileXToLongitude(int64(t.X)+1, t.Zoom)),
	}
}

// Center returns the geographic point at the middle of the tile.
func (t ID) Center() GeoPoint {
	return t.BoundingBox().Center()
}
