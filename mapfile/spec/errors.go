package spec

import (
	"errors"
	"fmt"
)

// ErrFormat is the base error for all map file validation failures.
// Every specific format error below wraps it, so callers can match the
// whole class with errors.Is(err, ErrFormat).
var ErrFormat = errors.New("invalid map file")

var (
	ErrInvalidMagicByte      = fmt.Errorf("%w: invalid magic byte", ErrFormat)
	ErrInvalidHeaderSize     = fmt.Errorf("%w: invalid remaining header size", ErrFormat)
	ErrUnsupportedVersion    = fmt.Errorf("%w: unsupported file version", ErrFormat)
	ErrSizeMismatch          = fmt.Errorf("%w: invalid file size", ErrFormat)
	ErrInvalidDate           = fmt.Errorf("%w: invalid map date", ErrFormat)
	ErrInvalidBoundingBox    = fmt.Errorf("%w: invalid bounding box", ErrFormat)
	ErrUnsupportedTileSize   = fmt.Errorf("%w: unsupported tile pixel size", ErrFormat)
	ErrUnsupportedProjection = fmt.Errorf("%w: unsupported projection", ErrFormat)
	ErrInvalidTag            = fmt.Errorf("%w: invalid tag", ErrFormat)
	ErrNoSubFiles            = fmt.Errorf("%w: invalid number of sub-files", ErrFormat)
	ErrInvalidSubFile        = fmt.Errorf("%w: invalid sub-file parameters", ErrFormat)
	ErrBufferUnderflow       = fmt.Errorf("%w: read past end of buffer", ErrFormat)
	ErrVarintOverflow        = fmt.Errorf("%w: variable-length integer exceeds 32 bits", ErrFormat)
)
