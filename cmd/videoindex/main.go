// Command videoindex scans a site's videos/ directory and writes the
// videos.json catalog the gallery serves.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/claes/vidgallery/internal/config"
	"github.com/claes/vidgallery/internal/logger"
	"github.com/claes/vidgallery/internal/videoindex"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var (
		root     = cfg.Root
		out      string
		thumbAt  float64
		width    int
		thumbExt string
	)
	flag.StringVar(&root, "root", root, "site directory containing videos/")
	flag.StringVar(&out, "out", "", "catalog output path (default ROOT/videos.json)")
	flag.Float64Var(&thumbAt, "thumb-at", 2.0, "seconds into each video to grab the thumbnail")
	flag.IntVar(&width, "thumb-width", 640, "thumbnail width in pixels")
	flag.StringVar(&thumbExt, "thumb-ext", "webp", "thumbnail image format")
	flag.Parse()
	if root == "" && flag.NArg() > 0 {
		root = flag.Arg(0)
	}
	if root == "" {
		fmt.Fprintln(os.Stderr, "missing root directory: pass -root PATH or positional PATH")
		os.Exit(2)
	}
	if out == "" {
		out = filepath.Join(root, cfg.CatalogName)
	}

	log, logCloser, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	doc, err := videoindex.Build(ctx, root, videoindex.Options{
		ThumbAt:    thumbAt,
		ThumbWidth: width,
		ThumbExt:   thumbExt,
		Log:        log,
	})
	if err != nil {
		log.WithError(err).Fatal("scan failed")
	}
	if err := videoindex.Write(out, doc); err != nil {
		log.WithError(err).Fatal("write catalog")
	}
	log.WithField("count", doc.Count).WithField("out", out).Info("catalog written")
}
