package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docsect/internal/api"
	"github.com/dgallion1/docsect/internal/config"
	"github.com/dgallion1/docsect/internal/format"
	"github.com/dgallion1/docsect/internal/index"
	"github.com/dgallion1/docsect/internal/outline"
	"github.com/dgallion1/docsect/internal/pathstore"
	"github.com/dgallion1/docsect/internal/section"
	"github.com/dgallion1/docsect/internal/stats"
	"github.com/dgallion1/docsect/internal/vault"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	formats := format.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext}

	// Initialize the document store.
	var (
		store vault.Store
		ps    *pathstore.Client
	)
	switch cfg.VaultBackend {
	case config.BackendPathstore:
		ps = pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey).WithRateLimit(cfg.PathstoreRPS)
		store = vault.NewRemoteStore(ps, cfg.PathstorePrefix, formats, 0, cfg.MaxDocumentBytes, log)
	default:
		store = vault.NewFSStore(cfg.VaultDir, formats, cfg.MaxDocumentBytes)
	}

	// Initialize the outline cache and keep it fresh.
	cache := outline.NewCache()
	indexer := index.NewIndexer(store, cache, formats, log, cfg.IndexWorkers, cfg.IndexInterval)
	indexer.Start(ctx)

	var watcher *index.Watcher
	if cfg.VaultBackend == config.BackendFS && cfg.WatchVault {
		w, err := index.NewWatcher(indexer, cfg.VaultDir, log)
		if err != nil {
			log.Warn("vault watcher disabled", "error", err)
		} else {
			watcher = w
			watcher.Start(ctx)
		}
	}

	sections := section.NewService(store, cache, section.WikiLinker{}).WithRefresher(indexer)
	srv := api.NewServer(sections, store, cache, indexer, stats.NewRecorder(cfg.StatsWindow), log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		if watcher != nil {
			watcher.Close()
		}
		indexer.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if ps != nil {
			ps.Close()
		}
	}()

	log.Info("starting docsect", "port", cfg.Port, "backend", cfg.VaultBackend)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
