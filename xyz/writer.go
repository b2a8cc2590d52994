package xyz

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/eak1mov/go-mapview/tile"
)

// Writer implements the tile.Writer interface for tiles in XYZ format.
type Writer struct {
	filePattern string
	logger      *zap.Logger
	tilesCount  int
}

type writerConfig struct {
	Logger *zap.Logger
}

type WriterOption func(*writerConfig)

func WithLogger(logger *zap.Logger) WriterOption {
	return func(c *writerConfig) { c.Logger = logger }
}

// NewWriter creates a new Writer for the given file pattern
// (e.g. "/home/user/tiles/{z}/{x}/{y}.png").
func NewWriter(filePattern string, opts ...WriterOption) (*Writer, error) {
	config := writerConfig{
		Logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&config)
	}

	if err := validatePattern(filePattern); err != nil {
		return nil, err
	}
	return &Writer{filePattern: filePattern, logger: config.Logger}, nil
}

func (w *Writer) WriteTile(tileID tile.ID, tileData []byte) error {
	filePath := formatPattern(w.filePattern, tileID)

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filePath, tileData, 0o644); err != nil {
		return err
	}

	w.tilesCount++
	return nil
}

func (w *Writer) Finalize() error {
	w.logger.Debug("mapview: tileset written",
		zap.String("pattern", w.filePattern),
		zap.Int("tiles", w.tilesCount))
	return nil
}
