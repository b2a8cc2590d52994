package tile

import "math"

// Limits of the Web Mercator projection.
const (
	LatitudeMax  = 85.05113
	LatitudeMin  = -85.05113
	LongitudeMax = 180
	LongitudeMin = -180
)

// LatitudeToPixelY projects a latitude in degrees to the absolute pixel Y
// coordinate at the given zoom level.
func LatitudeToPixelY(latitude float64, zoom byte) float64 {
	sinLatitude := math.Sin(latitude * (math.Pi / 180))
	return (0.5 - math.Log((1+sinLatitude)/(1-sinLatitude))/(4*math.Pi)) * float64(int64(Size)<<zoom)
}

// LongitudeToPixelX projects a longitude in degrees to the absolute pixel X
// coordinate at the given zoom level.
func LongitudeToPixelX(longitude float64, zoom byte) float64 {
	return (longitude + 180) / 360 * float64(int64(Size)<<zoom)
}

// PixelYToLatitude is the inverse of LatitudeToPixelY.
func PixelYToLatitude(pixelY float64, zoom byte) float64 {
	y := 0.5 - (pixelY / float64(int64(Size)<<zoom))
	return 90 - 360*math.Atan(math.Exp(-y*(2*math.Pi)))/math.Pi
}

// PixelXToLongitude is the inverse of LongitudeToPixelX.
func PixelXToLongitude(pixelX float64, zoom byte) float64 {
	return 360 * ((pixelX / float64(int64(Size)<<zoom)) - 0.5)
}

// LatitudeToTileY returns the Y number of the tile containing the latitude.
// The result is clamped to the valid tile range of the zoom level.
func LatitudeToTileY(latitude float64, zoom byte) int64 {
	return pixelToTile(LatitudeToPixelY(latitude, zoom), zoom)
}

// LongitudeToTileX returns the X number of the tile containing the longitude.
// The result is clamped to the valid tile range of the zoom level.
func LongitudeToTileX(longitude float64, zoom byte) int64 {
	return pixelToTile(LongitudeToPixelX(longitude, zoom), zoom)
}

// TileYToLatitude returns the latitude of the tile row's northern edge.
func TileYToLatitude(tileY int64, zoom byte) float64 {
	return PixelYToLatitude(float64(tileY*Size), zoom)
}

// TileXToLongitude returns the longitude of the tile column's western edge.
func TileXToLongitude(tileX int64, zoom byte) float64 {
	return PixelXToLongitude(float64(tileX*Size), zoom)
}

// LimitLatitude clamps a latitude to the Mercator projection range.
func LimitLatitude(latitude float64) float64 {
	return math.Max(math.Min(latitude, LatitudeMax), LatitudeMin)
}

// LimitLongitude clamps a longitude to the Mercator projection range.
func LimitLongitude(longitude float64) float64 {
	return math.Max(math.Min(longitude, LongitudeMax), LongitudeMin)
}

func pixelToTile(pixel float64, zoom byte) int64 {
	maxTile := float64(int64(1)<<zoom) - 1
	return int64(math.Min(math.Max(pixel/Size, 0), maxTile))
}
