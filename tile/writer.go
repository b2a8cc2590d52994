package tile

// Writer defines an interface for writing rendered tiles to a tileset.
type Writer interface {
	// WriteTile writes a single tile image to the tileset.
	WriteTile(tileID ID, tileData []byte) error

	// Finalize completes the writing process: flushes buffers and writes
	// indices. It must be called before discarding the Writer.
	Finalize() error
}
