package spec

import (
	"fmt"

	"github.com/eak1mov/go-mapview/tile"
)

const (
	// MagicByte opens every valid binary map file.
	MagicByte = "mapsforge binary OSM"

	// SupportedFileVersion is the only format version this package reads.
	SupportedFileVersion = 3

	// HeaderSizeMin and HeaderSizeMax bound the declared remaining header
	// length.
	HeaderSizeMin = 70
	HeaderSizeMax = 1000000

	// MapDateMin is the earliest plausible map date (2008-01-10 in Unix
	// milliseconds); older values indicate a corrupt header.
	MapDateMin = 1200000000000

	// BaseZoomLevelMax is the largest valid base zoom level of a sub-file.
	BaseZoomLevelMax = 20

	// ZoomLevelMax is the largest valid zoom level served by a sub-file.
	ZoomLevelMax = 22

	// IndexSignatureLength is the length of the debug signature preceding
	// the block index of each sub-file in debug files.
	IndexSignatureLength = 16

	// MercatorProjection is the only projection name this package accepts.
	MercatorProjection = "Mercator"

	latitudeMinE6  = -90000000
	latitudeMaxE6  = 90000000
	longitudeMinE6 = -180000000
	longitudeMaxE6 = 180000000

	bitmaskDebug         = 0x80
	bitmaskStartPosition = 0x40
)

// MapFileInfo is the immutable metadata of an open map file. It is built
// only after the complete header has been validated.
type MapFileInfo struct {
	BoundingBox        tile.BoundingBox
	Comment            string
	DebugFile          bool
	FileSize           int64
	FileVersion        int32
	LanguagePreference string
	MapCenter          tile.GeoPoint
	MapDate            int64
	NumberOfSubFiles   byte
	PoiTags            []tile.Tag
	ProjectionName     string
	StartPosition      *tile.GeoPoint
	TilePixelSize      int32
	WayTags            []tile.Tag
}

// Header holds the parsed file preamble: the MapFileInfo plus the dense
// zoom level to sub-file lookup table.
type Header struct {
	info              MapFileInfo
	subFileParameters []*SubFileParameter
	zoomLevelMinimum  byte
	zoomLevelMaximum  byte
}

// Info returns the metadata of the map file. The returned value must be
// treated as read-only.
func (h *Header) Info() *MapFileInfo {
	return &h.info
}

// QueryZoomLevel clamps a requested zoom level to the interval covered by
// the file's sub-files. Rendering outside the data's range silently uses
// the nearest available sub-file instead of failing.
func (h *Header) QueryZoomLevel(zoomLevel byte) byte {
	if zoomLevel > h.zoomLevelMaximum {
		return h.zoomLevelMaximum
	}
	if zoomLevel < h.zoomLevelMinimum {
		return h.zoomLevelMinimum
	}
	return zoomLevel
}

// SubFileParameter returns the sub-file serving the given query zoom level,
// or nil if the zoom level is outside the table. Zoom levels produced by
// QueryZoomLevel always have a sub-file.
func (h *Header) SubFileParameter(queryZoomLevel byte) *SubFileParameter {
	if int(queryZoomLevel) >= len(h.subFileParameters) {
		return nil
	}
	return h.subFileParameters[queryZoomLevel]
}

// ZoomLevelMinimum returns the lowest zoom level covered by any sub-file.
func (h *Header) ZoomLevelMinimum() byte { return h.zoomLevelMinimum }

// ZoomLevelMaximum returns the highest zoom level covered by any sub-file.
func (h *Header) ZoomLevelMaximum() byte { return h.zoomLevelMaximum }

// ReadHeader reads and validates the header block from the map file. The
// validation order is fixed by the format; the first failure is returned
// verbatim and no partial state is retained.
func ReadHeader(rb *ReadBuffer, fileSize int64) (*Header, error) {
	if err := readMagicByte(rb); err != nil {
		return nil, err
	}
	if err := readRemainingHeader(rb); err != nil {
		return nil, err
	}

	h := &Header{}
	info := &h.info

	if err := readFileVersion(rb, info); err != nil {
		return nil, err
	}
	if err := readFileSize(rb, fileSize, info); err != nil {
		return nil, err
	}
	if err := readMapDate(rb, info); err != nil {
		return nil, err
	}
	if err := readBoundingBox(rb, info); err != nil {
		return nil, err
	}
	if err := readTilePixelSize(rb, info); err != nil {
		return nil, err
	}
	if err := readProjectionName(rb, info); err != nil {
		return nil, err
	}

	info.LanguagePreference, _ = rb.ReadString()

	metaFlags, err := rb.ReadInt8()
	if err != nil {
		return nil, err
	}
	info.DebugFile = byte(metaFlags)&bitmaskDebug != 0
	hasStartPosition := byte(metaFlags)&bitmaskStartPosition != 0

	if hasStartPosition {
		if err := readMapStartPosition(rb, info); err != nil {
			return nil, err
		}
	}
	if info.PoiTags, err = readTags(rb, "POI"); err != nil {
		return nil, err
	}
	if info.WayTags, err = readTags(rb, "way"); err != nil {
		return nil, err
	}
	if err := readSubFileParameters(rb, fileSize, h); err != nil {
		return nil, err
	}

	info.Comment, _ = rb.ReadString()
	info.MapCenter = info.BoundingBox.Center()

	return h, nil
}

func readMagicByte(rb *ReadBuffer) error {
	if err := rb.ReadFromFile(len(MagicByte) + 4); err != nil {
		return fmt.Errorf("reading magic byte: %w", err)
	}
	magic, err := rb.ReadFixedString(len(MagicByte))
	if err != nil {
		return err
	}
	if magic != MagicByte {
		return fmt.Errorf("%w: %q", ErrInvalidMagicByte, magic)
	}
	return nil
}

func readRemainingHeader(rb *ReadBuffer) error {
	remainingHeaderSize, err := rb.ReadInt32()
	if err != nil {
		return err
	}
	if remainingHeaderSize < HeaderSizeMin || remainingHeaderSize > HeaderSizeMax {
		return fmt.Errorf("%w: %d", ErrInvalidHeaderSize, remainingHeaderSize)
	}
	if err := rb.ReadFromFile(int(remainingHeaderSize)); err != nil {
		return fmt.Errorf("reading header data: %w", err)
	}
	return nil
}

func readFileVersion(rb *ReadBuffer, info *MapFileInfo) error {
	fileVersion, err := rb.ReadInt32()
	if err != nil {
		return err
	}
	if fileVersion != SupportedFileVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, fileVersion)
	}
	info.FileVersion = fileVersion
	return nil
}

func readFileSize(rb *ReadBuffer, fileSize int64, info *MapFileInfo) error {
	headerFileSize, err := rb.ReadInt64()
	if err != nil {
		return err
	}
	if headerFileSize != fileSize {
		return fmt.Errorf("%w: header declares %d, file has %d bytes", ErrSizeMismatch, headerFileSize, fileSize)
	}
	info.FileSize = fileSize
	return nil
}

func readMapDate(rb *ReadBuffer, info *MapFileInfo) error {
	mapDate, err := rb.ReadInt64()
	if err != nil {
		return err
	}
	if mapDate < MapDateMin {
		return fmt.Errorf("%w: %d", ErrInvalidDate, mapDate)
	}
	info.MapDate = mapDate
	return nil
}

func readCoordinate(rb *ReadBuffer, name string, min, max int32) (int32, error) {
	value, err := rb.ReadInt32()
	if err != nil {
		return 0, err
	}
	if value < min || value > max {
		return 0, fmt.Errorf("%w: invalid %s: %d", ErrInvalidBoundingBox, name, value)
	}
	return value, nil
}

func readBoundingBox(rb *ReadBuffer, info *MapFileInfo) error {
	minLatitude, err := readCoordinate(rb, "minimum latitude", latitudeMinE6, latitudeMaxE6)
	if err != nil {
		return err
	}
	minLongitude, err := readCoordinate(rb, "minimum longitude", longitudeMinE6, longitudeMaxE6)
	if err != nil {
		return err
	}
	maxLatitude, err := readCoordinate(rb, "maximum latitude", latitudeMinE6, latitudeMaxE6)
	if err != nil {
		return err
	}
	maxLongitude, err := readCoordinate(rb, "maximum longitude", longitudeMinE6, longitudeMaxE6)
	if err != nil {
		return err
	}
	if minLatitude > maxLatitude {
		return fmt.Errorf("%w: invalid latitude range: %d %d", ErrInvalidBoundingBox, minLatitude, maxLatitude)
	}
	if minLongitude > maxLongitude {
		return fmt.Errorf("%w: invalid longitude range: %d %d", ErrInvalidBoundingBox, minLongitude, maxLongitude)
	}
	info.BoundingBox = tile.BoundingBox{
		MinLatitudeE6:  minLatitude,
		MinLongitudeE6: minLongitude,
		MaxLatitudeE6:  maxLatitude,
		MaxLongitudeE6: maxLongitude,
	}
	return nil
}

func readTilePixelSize(rb *ReadBuffer, info *MapFileInfo) error {
	tilePixelSize, err := rb.ReadInt16()
	if err != nil {
		return err
	}
	if tilePixelSize != tile.Size {
		return fmt.Errorf("%w: %d", ErrUnsupportedTileSize, tilePixelSize)
	}
	info.TilePixelSize = int32(tilePixelSize)
	return nil
}

func readProjectionName(rb *ReadBuffer, info *MapFileInfo) error {
	projectionName, _ := rb.ReadString()
	if projectionName != MercatorProjection {
		return fmt.Errorf("%w: %q", ErrUnsupportedProjection, projectionName)
	}
	info.ProjectionName = projectionName
	return nil
}

func readMapStartPosition(rb *ReadBuffer, info *MapFileInfo) error {
	startLatitude, err := readCoordinate(rb, "map start latitude", latitudeMinE6, latitudeMaxE6)
	if err != nil {
		return err
	}
	startLongitude, err := readCoordinate(rb, "map start longitude", longitudeMinE6, longitudeMaxE6)
	if err != nil {
		return err
	}
	info.StartPosition = &tile.GeoPoint{LatitudeE6: startLatitude, LongitudeE6: startLongitude}
	return nil
}

func readTags(rb *ReadBuffer, kind string) ([]tile.Tag, error) {
	numberOfTags, err := rb.ReadInt16()
	if err != nil {
		return nil, err
	}
	if numberOfTags < 0 {
		return nil, fmt.Errorf("%w: invalid number of %s tags: %d", ErrInvalidTag, kind, numberOfTags)
	}
	tags := make([]tile.Tag, numberOfTags)
	for i := range tags {
		tag, ok := rb.ReadString()
		if !ok {
			return nil, fmt.Errorf("%w: %s tag must not be empty: %d", ErrInvalidTag, kind, i)
		}
		tags[i] = tile.NewTag(tag)
	}
	return tags, nil
}

func readSubFileParameters(rb *ReadBuffer, fileSize int64, h *Header) error {
	info := &h.info

	numberOfSubFiles, err := rb.ReadInt8()
	if err != nil {
		return err
	}
	if numberOfSubFiles < 1 {
		return fmt.Errorf("%w: %d", ErrNoSubFiles, numberOfSubFiles)
	}
	info.NumberOfSubFiles = byte(numberOfSubFiles)

	subFiles := make([]*SubFileParameter, numberOfSubFiles)
	h.zoomLevelMinimum = ZoomLevelMax
	h.zoomLevelMaximum = 0

	for i := range subFiles {
		baseZoomLevel, err := rb.ReadInt8()
		if err != nil {
			return err
		}
		if baseZoomLevel < 0 || baseZoomLevel > BaseZoomLevelMax {
			return fmt.Errorf("%w: invalid base zoom level: %d", ErrInvalidSubFile, baseZoomLevel)
		}

		zoomLevelMin, err := rb.ReadInt8()
		if err != nil {
			return err
		}
		if zoomLevelMin < 0 || zoomLevelMin > ZoomLevelMax {
			return fmt.Errorf("%w: invalid minimum zoom level: %d", ErrInvalidSubFile, zoomLevelMin)
		}

		zoomLevelMax, err := rb.ReadInt8()
		if err != nil {
			return err
		}
		if zoomLevelMax < 0 || zoomLevelMax > ZoomLevelMax {
			return fmt.Errorf("%w: invalid maximum zoom level: %d", ErrInvalidSubFile, zoomLevelMax)
		}
		if zoomLevelMin > zoomLevelMax {
			return fmt.Errorf("%w: invalid zoom level range: %d %d", ErrInvalidSubFile, zoomLevelMin, zoomLevelMax)
		}

		startAddress, err := rb.ReadInt64()
		if err != nil {
			return err
		}
		if startAddress < HeaderSizeMin || startAddress >= fileSize {
			return fmt.Errorf("%w: invalid start address: %d", ErrInvalidSubFile, startAddress)
		}

		indexStartAddress := startAddress
		if info.DebugFile {
			// The block index is preceded by a fixed debug signature.
			indexStartAddress += IndexSignatureLength
		}

		subFileSize, err := rb.ReadInt64()
		if err != nil {
			return err
		}
		if subFileSize < 1 {
			return fmt.Errorf("%w: invalid sub-file size: %d", ErrInvalidSubFile, subFileSize)
		}

		subFiles[i] = NewSubFileParameter(startAddress, indexStartAddress, subFileSize,
			byte(baseZoomLevel), byte(zoomLevelMin), byte(zoomLevelMax), info.BoundingBox)

		if h.zoomLevelMinimum > subFiles[i].ZoomLevelMin {
			h.zoomLevelMinimum = subFiles[i].ZoomLevelMin
		}
		if h.zoomLevelMaximum < subFiles[i].ZoomLevelMax {
			h.zoomLevelMaximum = subFiles[i].ZoomLevelMax
		}
	}

	// Dense lookup table indexed by zoom level. When sub-files overlap,
	// the one parsed last wins.
	h.subFileParameters = make([]*SubFileParameter, h.zoomLevelMaximum+1)
	for _, subFile := range subFiles {
		for zoomLevel := subFile.ZoomLevelMin; zoomLevel <= subFile.ZoomLevelMax; zoomLevel++ {
			h.subFileParameters[zoomLevel] = subFile
		}
	}

	return nil
}
