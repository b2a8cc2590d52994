package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/subcommands"

	"github.com/eak1mov/go-mapview/mapfile"
	"github.com/eak1mov/go-mapview/tile"
)

type infoCmd struct {
	inputPath string
}

func (c *infoCmd) Name() string     { return "info" }
func (c *infoCmd) Synopsis() string { return "print map file metadata" }
func (c *infoCmd) Usage() string {
	return "maputils info -i <path>\n"
}
func (c *infoCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input map file path")
}

func (c *infoCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	reader, err := mapfile.NewReader(c.inputPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer reader.Close()

	info := reader.Info()
	fmt.Printf("file version:  %d\n", info.FileVersion)
	fmt.Printf("file size:     %d\n", info.FileSize)
	fmt.Printf("map date:      %s\n", time.UnixMilli(info.MapDate).UTC().Format(time.RFC3339))
	fmt.Printf("bounding box:  %.6f,%.6f %.6f,%.6f\n",
		tile.E6ToDegrees(info.BoundingBox.MinLatitudeE6),
		tile.E6ToDegrees(info.BoundingBox.MinLongitudeE6),
		tile.E6ToDegrees(info.BoundingBox.MaxLatitudeE6),
		tile.E6ToDegrees(info.BoundingBox.MaxLongitudeE6))
	fmt.Printf("projection:    %s\n", info.ProjectionName)
	fmt.Printf("tile size:     %d\n", info.TilePixelSize)
	if info.LanguagePreference != "" {
		fmt.Printf("language:      %s\n", info.LanguagePreference)
	}
	if info.StartPosition != nil {
		fmt.Printf("start:         %s\n", info.StartPosition)
	}
	if info.DebugFile {
		fmt.Printf("debug:         true\n")
	}
	if info.Comment != "" {
		fmt.Printf("comment:       %s\n", info.Comment)
	}
	fmt.Printf("poi tags:      %d\n", len(info.PoiTags))
	fmt.Printf("way tags:      %d\n", len(info.WayTags))

	fmt.Printf("sub-files:     %d\n", info.NumberOfSubFiles)
	seen := make(map[int64]bool)
	for zoomLevel := byte(0); zoomLevel <= 22; zoomLevel++ {
		subFile, err := reader.SubFileParameter(zoomLevel)
		if err != nil || subFile == nil || seen[subFile.StartAddress] {
			continue
		}
		seen[subFile.StartAddress] = true
		fmt.Printf("  zoom %d..%d (base %d): %d blocks, %d bytes\n",
			subFile.ZoomLevelMin, subFile.ZoomLevelMax, subFile.BaseZoomLevel,
			subFile.NumberOfBlocks, subFile.SubFileSize)
	}

	return subcommands.ExitSuccess
}
