package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/google/subcommands"

	"github.com/eak1mov/go-mapview/mapfile"
	"github.com/eak1mov/go-mapview/tile"
)

type createCmd struct {
	outputPath string
	bounds     string
	subFiles   string
	comment    string
	language   string
	start      string
	debugInfo  bool
	allWater   bool
}

func (c *createCmd) Name() string     { return "create" }
func (c *createCmd) Synopsis() string { return "create an empty map file" }
func (c *createCmd) Usage() string {
	return "maputils create -o <path> -b <minLat,minLon,maxLat,maxLon> [-z <min:base:max,...>]\n"
}
func (c *createCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.outputPath, "o", "", "Output map file path")
	f.StringVar(&c.bounds, "b", "", "Bounding box (minLat,minLon,maxLat,maxLon)")
	f.StringVar(&c.subFiles, "z", "0:8:11,12:14:21", "Sub-file zoom intervals (min:base:max,...)")
	f.StringVar(&c.comment, "c", "", "Comment")
	f.StringVar(&c.language, "l", "", "Language preference")
	f.StringVar(&c.start, "s", "", "Start position (lat,lon)")
	f.BoolVar(&c.debugInfo, "debug", false, "Write debug signatures")
	f.BoolVar(&c.allWater, "water", false, "Mark every block as water")
}

func parseBounds(s string) (tile.BoundingBox, error) {
	var coords [4]float64
	if _, err := fmt.Sscanf(s, "%f,%f,%f,%f", &coords[0], &coords[1], &coords[2], &coords[3]); err != nil {
		return tile.BoundingBox{}, fmt.Errorf("invalid bounding box %q: %w", s, err)
	}
	return tile.BoundingBox{
		MinLatitudeE6:  tile.DegreesToE6(coords[0]),
		MinLongitudeE6: tile.DegreesToE6(coords[1]),
		MaxLatitudeE6:  tile.DegreesToE6(coords[2]),
		MaxLongitudeE6: tile.DegreesToE6(coords[3]),
	}, nil
}

func parseSubFiles(s string) ([]mapfile.SubFileConfig, error) {
	var configs []mapfile.SubFileConfig
	for _, part := range strings.Split(s, ",") {
		var config mapfile.SubFileConfig
		if _, err := fmt.Sscanf(part, "%d:%d:%d",
			&config.ZoomLevelMin, &config.BaseZoomLevel, &config.ZoomLevelMax); err != nil {
			return nil, fmt.Errorf("invalid sub-file interval %q: %w", part, err)
		}
		configs = append(configs, config)
	}
	return configs, nil
}

func (c *createCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	boundingBox, err := parseBounds(c.bounds)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	subFileConfigs, err := parseSubFiles(c.subFiles)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	opts := []mapfile.WriterOption{
		mapfile.WithBoundingBox(boundingBox),
		mapfile.WithSubFiles(subFileConfigs...),
		mapfile.WithComment(c.comment),
		mapfile.WithLanguagePreference(c.language),
	}
	if c.debugInfo {
		opts = append(opts, mapfile.WithDebugInfo())
	}
	if c.start != "" {
		var lat, lon float64
		if _, err := fmt.Sscanf(c.start, "%f,%f", &lat, &lon); err != nil {
			log.Printf("invalid start position %q: %v", c.start, err)
			return subcommands.ExitFailure
		}
		opts = append(opts, mapfile.WithStartPosition(tile.GeoPoint{
			LatitudeE6:  tile.DegreesToE6(lat),
			LongitudeE6: tile.DegreesToE6(lon),
		}))
	}

	writer, err := mapfile.NewWriter(c.outputPath, opts...)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	if c.allWater {
		for i, config := range subFileConfigs {
			left := tile.LongitudeToTileX(tile.E6ToDegrees(boundingBox.MinLongitudeE6), config.BaseZoomLevel)
			top := tile.LatitudeToTileY(tile.E6ToDegrees(boundingBox.MaxLatitudeE6), config.BaseZoomLevel)
			right := tile.LongitudeToTileX(tile.E6ToDegrees(boundingBox.MaxLongitudeE6), config.BaseZoomLevel)
			bottom := tile.LatitudeToTileY(tile.E6ToDegrees(boundingBox.MinLatitudeE6), config.BaseZoomLevel)

			for blockY := top; blockY <= bottom; blockY++ {
				for blockX := left; blockX <= right; blockX++ {
					if err := writer.SetWaterBlock(i, blockX, blockY); err != nil {
						log.Println(err)
						return subcommands.ExitFailure
					}
				}
			}
		}
	}

	if err := writer.Finalize(); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}
