package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"slices"
	"sync/atomic"

	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eak1mov/go-mapview/cache"
	"github.com/eak1mov/go-mapview/job"
	"github.com/eak1mov/go-mapview/mapfile"
	"github.com/eak1mov/go-mapview/mb"
	"github.com/eak1mov/go-mapview/tile"
	"github.com/eak1mov/go-mapview/worker"
	"github.com/eak1mov/go-mapview/xyz"
)

type renderCmd struct {
	inputPath    string
	outputPath   string
	outputFormat string
	zoomMin      uint
	zoomMax      uint
	cacheDir     string
	compression  string
	memCapacity  int
	workers      int
	verbose      bool
}

func (c *renderCmd) Name() string     { return "render" }
func (c *renderCmd) Synopsis() string { return "pre-render tiles from a map file into a tileset" }
func (c *renderCmd) Usage() string {
	return "maputils render -i <path> -o <path> [-zmin <zoom> -zmax <zoom> -of <format>]\n"
}
func (c *renderCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input map file path")
	f.StringVar(&c.outputPath, "o", "", "Output path")
	f.StringVar(&c.outputFormat, "of", "", "Output format (mbtiles, xyz)")
	f.UintVar(&c.zoomMin, "zmin", 0, "Minimum zoom level")
	f.UintVar(&c.zoomMax, "zmax", 10, "Maximum zoom level")
	f.StringVar(&c.cacheDir, "cache", "", "Tile cache directory (temporary if empty)")
	f.StringVar(&c.compression, "compress", "none", "Cache compression (none, gzip, zstd, lz4)")
	f.IntVar(&c.memCapacity, "mem", 256, "Memory cache capacity in tiles")
	f.IntVar(&c.workers, "j", 1, "Number of worker goroutines")
	f.BoolVar(&c.verbose, "v", false, "Verbose logging")
}

func parseCompression(s string) (cache.Compression, error) {
	switch s {
	case "none", "":
		return cache.CompressionNone, nil
	case "gzip":
		return cache.CompressionGzip, nil
	case "zstd":
		return cache.CompressionZstd, nil
	case "lz4":
		return cache.CompressionLz4, nil
	default:
		return 0, fmt.Errorf("invalid compression: %q", s)
	}
}

// collectJobs lists the tiles covering the bounding box at every requested
// zoom level, ordered along the Hilbert curve so neighbouring tiles are
// produced close together.
func collectJobs(boundingBox tile.BoundingBox, zoomMin, zoomMax byte) []job.Job {
	var jobs []job.Job
	for zoom := zoomMin; zoom <= zoomMax; zoom++ {
		left := tile.LongitudeToTileX(tile.E6ToDegrees(boundingBox.MinLongitudeE6), zoom)
		top := tile.LatitudeToTileY(tile.E6ToDegrees(boundingBox.MaxLatitudeE6), zoom)
		right := tile.LongitudeToTileX(tile.E6ToDegrees(boundingBox.MaxLongitudeE6), zoom)
		bottom := tile.LatitudeToTileY(tile.E6ToDegrees(boundingBox.MinLatitudeE6), zoom)

		for y := top; y <= bottom; y++ {
			for x := left; x <= right; x++ {
				jobs = append(jobs, job.Job{
					Tile:   tile.ID{X: uint32(x), Y: uint32(y), Zoom: zoom},
					Mode:   job.CanvasRenderer,
					Params: job.RenderParams{TextScale: 1},
				})
			}
		}
	}

	slices.SortFunc(jobs, func(a, b job.Job) int {
		codeA, codeB := tile.Code(a.Tile), tile.Code(b.Tile)
		switch {
		case codeA < codeB:
			return -1
		case codeA > codeB:
			return 1
		default:
			return 0
		}
	})
	return jobs
}

func (c *renderCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	logger := zap.NewNop()
	if c.verbose {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			log.Println(err)
			return subcommands.ExitFailure
		}
		defer logger.Sync()
	}

	compression, err := parseCompression(c.compression)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	reader, err := mapfile.NewReader(c.inputPath, mapfile.WithReaderLogger(logger))
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer reader.Close()

	var writer tile.Writer
	switch deduceFormat(c.outputFormat, c.outputPath) {
	case "mbtiles":
		writer, err = mb.NewWriter(c.outputPath, mb.WithLogger(logger), mb.WithMetadata(map[string]string{
			"name":   c.inputPath,
			"format": "png",
		}))
	case "xyz":
		writer, err = xyz.NewWriter(c.outputPath)
	default:
		log.Printf("invalid output format: %q", c.outputFormat)
		return subcommands.ExitFailure
	}
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	if closer, ok := writer.(io.Closer); ok {
		defer closer.Close()
	}

	cacheDir := c.cacheDir
	if cacheDir == "" {
		cacheDir, err = os.MkdirTemp("", "maputils-cache-")
		if err != nil {
			log.Println(err)
			return subcommands.ExitFailure
		}
	}

	memCache := cache.NewMemory(c.memCapacity, cache.WithMemoryLogger(logger))
	diskCache, err := cache.NewFileSystem(cacheDir, 1<<20,
		cache.WithCompression(compression),
		cache.WithFileSystemLogger(logger))
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	if c.cacheDir == "" {
		defer diskCache.Destroy()
	}

	info := reader.Info()
	jobs := collectJobs(info.BoundingBox, byte(c.zoomMin), byte(c.zoomMax))
	if len(jobs) == 0 {
		return subcommands.ExitSuccess
	}

	bar := progressbar.NewOptions(len(jobs), progressbar.OptionShowIts(), progressbar.OptionShowCount())

	var remaining atomic.Int64
	remaining.Store(int64(len(jobs)))
	results := make(chan job.Job, 64)
	listener := worker.ListenerFunc(func(j job.Job) {
		results <- j
		if remaining.Add(-1) == 0 {
			close(results)
		}
	})

	queue := job.NewQueue()
	renderer := &blockRenderer{reader: reader}
	workers := make([]*worker.Worker, 0, max(c.workers, 1))
	for range max(c.workers, 1) {
		w := worker.New(queue, memCache, diskCache, renderer, listener, worker.WithLogger(logger))
		w.Start()
		workers = append(workers, w)
	}

	var g errgroup.Group
	g.Go(func() error {
		// Keep draining after a failure so the workers never block on the
		// results channel.
		var firstErr error
		for j := range results {
			if firstErr != nil {
				continue
			}
			data, ok := memCache.Get(j)
			if !ok {
				if data, ok = diskCache.Get(j); !ok {
					firstErr = fmt.Errorf("rendered tile missing from caches: %v", j.Tile)
					continue
				}
			}
			if err := writer.WriteTile(j.Tile, data); err != nil {
				firstErr = err
				continue
			}
			bar.Add(1)
		}
		return firstErr
	})

	queue.RequestSchedule(job.Viewport{Center: info.BoundingBox.Center(), Zoom: byte(c.zoomMin)})
	for _, j := range jobs {
		queue.AddJob(j)
	}

	err = g.Wait()
	for _, w := range workers {
		w.Interrupt()
	}
	for _, w := range workers {
		w.Join()
	}
	bar.Finish()
	fmt.Println()

	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	if err := writer.Finalize(); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}
