package tile

import (
	"fmt"
	"strings"
)

const conversionFactor = 1000000

// GeoPoint is a geographic coordinate pair in microdegrees.
// The integer representation avoids floating-point drift when points are
// persisted and compared.
type GeoPoint struct {
	LatitudeE6  int32
	LongitudeE6 int32
}

func (p GeoPoint) Latitude() float64 {
	return float64(p.LatitudeE6) / conversionFactor
}

func (p GeoPoint) Longitude() float64 {
	return float64(p.LongitudeE6) / conversionFactor
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("(%d,%d)", p.LatitudeE6, p.LongitudeE6)
}

// DegreesToE6 converts a coordinate from degrees to microdegrees.
func DegreesToE6(degrees float64) int32 {
	return int32(degrees * conversionFactor)
}

// E6ToDegrees converts a coordinate from microdegrees to degrees.
func E6ToDegrees(e6 int32) float64 {
	return float64(e6) / conversionFactor
}

// BoundingBox is an immutable geographic rectangle in microdegrees.
type BoundingBox struct {
	MinLatitudeE6  int32
	MinLongitudeE6 int32
	MaxLatitudeE6  int32
	MaxLongitudeE6 int32
}

func (b BoundingBox) Contains(p GeoPoint) bool {
	return b.MinLatitudeE6 <= p.LatitudeE6 && p.LatitudeE6 <= b.MaxLatitudeE6 &&
		b.MinLongitudeE6 <= p.LongitudeE6 && p.LongitudeE6 <= b.MaxLongitudeE6
}

// Center returns the point in the middle of the bounding box.
func (b BoundingBox) Center() GeoPoint {
	return GeoPoint{
		LatitudeE6:  b.MinLatitudeE6 + (b.MaxLatitudeE6-b.MinLatitudeE6)/2,
		LongitudeE6: b.MinLongitudeE6 + (b.MaxLongitudeE6-b.MinLongitudeE6)/2,
	}
}

// Tag is a key-value pair from the map file's tag vocabulary.
type Tag struct {
	Key   string
	Value string
}

// NewTag parses a "key=value" string. A string without a separator becomes
// a tag with an empty value.
func NewTag(s string) Tag {
	key, value, _ := strings.Cut(s, "=")
	return Tag{Key: key, Value: value}
}

func (t Tag) String() string {
	return t.Key + "=" + t.Value
}
