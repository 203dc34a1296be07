// Command atlasgen builds a texture atlas from the keyframes listed in a
// config file.
//
// Usage:
//
//	atlasgen [-v] [config]
//
// The config defaults to atlas.cfg in the working directory.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/gogpu/atlas"
	"github.com/gogpu/atlas/internal/config"
)

func main() {
	var (
		verbose = flag.Bool("v", false, "log every keyframe and interpolated frame")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-v] [config]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	atlas.SetLogger(logger)

	path := config.DefaultFile
	if flag.NArg() > 0 {
		path = flag.Arg(0)
	}

	res, err := atlas.Build(path)
	if err != nil {
		logger.Error("atlas build failed", slog.String("config", path), slog.Any("error", err))
		os.Exit(1)
	}

	fmt.Printf("Atlas saved to %s (%dx%d, %d frames)\n",
		res.Output, res.Atlas.Image.Width(), res.Atlas.Image.Height(), res.Frames)
}
