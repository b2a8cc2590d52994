package tile_test

import (
	"math"
	"testing"

	"github.com/eak1mov/go-mapview/tile"
)

func TestValid(t *testing.T) {
	for _, tc := range []struct {
		tileID tile.ID
		want   bool
	}{
		{tile.ID{X: 0, Y: 0, Zoom: 0}, true},
		{tile.ID{X: 1, Y: 0, Zoom: 0}, false},
		{tile.ID{X: 3, Y: 3, Zoom: 2}, true},
		{tile.ID{X: 4, Y: 3, Zoom: 2}, false},
		{tile.ID{X: 0, Y: 0, Zoom: 32}, false},
	} {
		if got := tc.tileID.Valid(); got != tc.want {
			t.Errorf("Valid(%v) = %v, want %v", tc.tileID, got, tc.want)
		}
	}
}

func TestBoundingBox(t *testing.T) {
	// The single zoom-0 tile covers the whole projected world.
	box := tile.ID{X: 0, Y: 0, Zoom: 0}.BoundingBox()
	if got, want := box.MinLongitudeE6, tile.DegreesToE6(tile.LongitudeMin); got != want {
		t.Errorf("MinLongitudeE6 = %v, want %v", got, want)
	}
	if got, want := box.MaxLongitudeE6, tile.DegreesToE6(tile.LongitudeMax); got != want {
		t.Errorf("MaxLongitudeE6 = %v, want %v", got, want)
	}
	if got := tile.E6ToDegrees(box.MaxLatitudeE6); math.Abs(got-tile.LatitudeMax) > 1e-4 {
		t.Errorf("MaxLatitudeE6 = %v degrees, want about %v", got, tile.LatitudeMax)
	}
	if got := tile.E6ToDegrees(box.MinLatitudeE6); math.Abs(got-tile.LatitudeMin) > 1e-4 {
		t.Errorf("MinLatitudeE6 = %v degrees, want about %v", got, tile.LatitudeMin)
	}

	center := tile.ID{X: 1, Y: 1, Zoom: 1}.BoundingBox()
	if !(center.MaxLatitudeE6 == 0 && center.MinLongitudeE6 == 0) {
		t.Errorf("bottom-right zoom-1 tile should touch the origin, got %+v", center)
	}
	if !center.Contains(tile.GeoPoint{LatitudeE6: -45000000, LongitudeE6: 90000000}) {
		t.Errorf("Contains(-45,90) = false")
	}
}

func TestCenter(t *testing.T) {
	got := tile.ID{X: 0, Y: 0, Zoom: 1}.Center()
	if got.LongitudeE6 != -90000000 {
		t.Errorf("Center().LongitudeE6 = %v, want -90000000", got.LongitudeE6)
	}
	if got.LatitudeE6 <= 0 {
		t.Errorf("Center().LatitudeE6 = %v, want > 0", got.LatitudeE6)
	}
}

func TestTag(t *testing.T) {
	if got, want := tile.NewTag("highway=primary"), (tile.Tag{Key: "highway", Value: "primary"}); got != want {
		t.Errorf("NewTag = %v, want %v", got, want)
	}
	if got, want := tile.NewTag("oneway"), (tile.Tag{Key: "oneway"}); got != want {
		t.Errorf("NewTag = %v, want %v", got, want)
	}
	if got, want := (tile.Tag{Key: "name", Value: "Oslo"}).String(), "name=Oslo"; got != want {
		t.Errorf("String = %q, want %q", got, want)
	}
}
