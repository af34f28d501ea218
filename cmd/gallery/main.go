package main

import (
	"context"
	"flag"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/claes/vidgallery/internal/auth"
	"github.com/claes/vidgallery/internal/catalog"
	"github.com/claes/vidgallery/internal/config"
	"github.com/claes/vidgallery/internal/fetch"
	"github.com/claes/vidgallery/internal/gallery"
	apphttp "github.com/claes/vidgallery/internal/http"
	"github.com/claes/vidgallery/internal/logger"
	"github.com/claes/vidgallery/internal/store"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Flags override the environment
	flag.StringVar(&cfg.Root, "root", cfg.Root, "site directory holding videos.json, videos/ and thumbnails/")
	flag.StringVar(&cfg.Port, "port", cfg.Port, "port to listen on")
	flag.StringVar(&cfg.StatePath, "state", cfg.StatePath, "directory for persistent view state")
	flag.StringVar(&cfg.StoreDriver, "store", cfg.StoreDriver, "view state store: memory, file or sqlite")
	flag.BoolVar(&cfg.AuthEnabled, "auth", cfg.AuthEnabled, "require login against auth.json")
	flag.Parse()
	if cfg.Root == "" && flag.NArg() > 0 {
		// accept positional arg if provided
		cfg.Root = flag.Arg(0)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, logCloser, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logCloser.Close()

	if fi, err := os.Stat(cfg.Root); err != nil || !fi.IsDir() {
		log.WithField("root", cfg.Root).WithError(err).Fatal("invalid root directory")
	}

	st, err := store.Open(cfg.StoreDriver, statePath(cfg))
	if err != nil {
		log.WithError(err).Fatal("open view state store")
	}
	defer st.Close()

	var f fetch.Fetcher = fetch.DirFetcher{Root: cfg.Root}
	if cfg.CatalogBaseURL != "" {
		f = fetch.NewHTTPFetcher(cfg.CatalogBaseURL)
	}
	loader := catalog.NewLoader(f, cfg.CatalogName)
	var gate gallery.Checker
	if cfg.AuthEnabled {
		gate = auth.NewGate(f, cfg.AuthName)
	}

	reg := gallery.NewRegistry(func() *gallery.Session {
		return gallery.NewSession(gallery.Options{
			SiteTitle: cfg.SiteTitle,
			Gate:      gate,
			Loader:    loader,
			Log:       log,
		})
	}, st, cfg.SessionIdle, log)

	mux := apphttp.NewServer(apphttp.Options{
		Root:        cfg.Root,
		CatalogName: cfg.CatalogName,
		FlagCookie:  cfg.CookieName,
		Registry:    reg,
		Log:         log,
	})

	srv := &nethttp.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		// no WriteTimeout: video responses stream for as long as the viewer watches
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":  srv.Addr,
			"root":  cfg.Root,
			"auth":  cfg.AuthEnabled,
			"store": cfg.StoreDriver,
		}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != nethttp.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-done:
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.WithError(err).Error("listen failed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
		_ = srv.Close()
	}
	log.Info("server stopped")
}

func statePath(cfg *config.Config) string {
	switch cfg.StoreDriver {
	case store.DriverFile:
		return filepath.Join(cfg.StatePath, "state.json")
	case store.DriverSQLite:
		return filepath.Join(cfg.StatePath, "state.db")
	}
	return ""
}
