// Package index keeps the outline cache in step with a document store.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgallion1/docsect/internal/format"
	"github.com/dgallion1/docsect/internal/outline"
	"github.com/dgallion1/docsect/internal/vault"
	"golang.org/x/sync/errgroup"
)

// RunStats summarises one reindex run.
type RunStats struct {
	Documents int           `json:"documents"`
	Indexed   int           `json:"indexed"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Pruned    int           `json:"pruned"`
	LastRun   time.Time     `json:"last_run"`
	Duration  time.Duration `json:"duration_ns"`
}

// Indexer loads documents from a store, computes their outlines and stores
// them in the cache. Documents whose text hash is unchanged are skipped.
type Indexer struct {
	store    vault.Store
	cache    *outline.Cache
	formats  format.Options
	log      *slog.Logger
	workers  int
	interval time.Duration
	backoff  func(int) time.Duration
	forFile  func(string) (format.Format, error)

	runMu sync.Mutex // serialises Reindex runs
	mu    sync.Mutex
	last  RunStats

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewIndexer(store vault.Store, cache *outline.Cache, formats format.Options, log *slog.Logger, workers int, interval time.Duration) *Indexer {
	if workers <= 0 {
		workers = 4
	}
	return &Indexer{
		store:    store,
		cache:    cache,
		formats:  formats,
		log:      log,
		workers:  workers,
		interval: interval,
		backoff:  Backoff,
		forFile:  formats.ForFile,
	}
}

// Start runs an initial reindex and then one every interval until Stop.
// A non-positive interval disables the periodic runs.
func (ix *Indexer) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	ix.cancel = cancel

	ix.wg.Add(1)
	go func() {
		defer ix.wg.Done()
		ix.runLogged(runCtx)
		if ix.interval <= 0 {
			return
		}
		ticker := time.NewTicker(ix.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				ix.runLogged(runCtx)
			}
		}
	}()
}

// Stop cancels any run in progress and waits for the background loop.
func (ix *Indexer) Stop() {
	if ix.cancel != nil {
		ix.cancel()
	}
	ix.wg.Wait()
}

func (ix *Indexer) runLogged(ctx context.Context) {
	stats, err := ix.Reindex(ctx)
	if err != nil {
		if ctx.Err() == nil {
			ix.log.Error("reindex failed", "error", err)
		}
		return
	}
	ix.log.Info("reindex complete",
		"documents", stats.Documents,
		"indexed", stats.Indexed,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"pruned", stats.Pruned,
		"duration_ms", stats.Duration.Milliseconds(),
	)
}

// Reindex walks the whole store. Listing failures abort the run; failures
// on individual documents are logged and counted.
func (ix *Indexer) Reindex(ctx context.Context) (RunStats, error) {
	ix.runMu.Lock()
	defer ix.runMu.Unlock()

	start := time.Now()
	docs, err := withRetry(ctx, ix.backoff, func() ([]vault.Document, error) {
		return ix.store.ListDocuments(ctx)
	})
	if err != nil {
		return RunStats{}, fmt.Errorf("list documents: %w", err)
	}

	var indexed, skipped, failed atomic.Int64
	keep := make(map[string]bool, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers)
	for _, doc := range docs {
		keep[doc.ID] = true
		g.Go(func() error {
			changed, err := ix.IndexDocument(gctx, doc)
			switch {
			case err != nil:
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				ix.log.Warn("index document failed", "doc_id", doc.ID, "error", err)
			case changed:
				indexed.Add(1)
			default:
				skipped.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return RunStats{}, err
	}

	stats := RunStats{
		Documents: len(docs),
		Indexed:   int(indexed.Load()),
		Skipped:   int(skipped.Load()),
		Failed:    int(failed.Load()),
		Pruned:    ix.cache.Prune(keep),
		LastRun:   start,
		Duration:  time.Since(start),
	}
	ix.mu.Lock()
	ix.last = stats
	ix.mu.Unlock()
	return stats, nil
}

// IndexDocument refreshes the cached outline of one document. It reports
// whether the cache changed.
func (ix *Indexer) IndexDocument(ctx context.Context, doc vault.Document) (bool, error) {
	text, err := withRetry(ctx, ix.backoff, func() (string, error) {
		return ix.store.LoadText(ctx, doc.ID)
	})
	if err != nil {
		return false, err
	}

	hash := outline.Hash(text)
	if ix.cache.Fresh(doc.ID, hash) {
		return false, nil
	}

	if _, err := ix.compute(doc.ID, text, hash); err != nil {
		return false, err
	}
	return true, nil
}

// Refresh recomputes the outline of id from text, which the caller has
// already loaded, and caches it.
func (ix *Indexer) Refresh(id, text string) (*outline.Outline, error) {
	return ix.compute(id, text, outline.Hash(text))
}

// compute outlines text and caches the result under hash. On failure the
// cached entry is dropped so an outline of older text is never served.
func (ix *Indexer) compute(id, text string, hash uint64) (*outline.Outline, error) {
	ol, err := ix.buildOutline(id, text)
	if err != nil {
		ix.cache.Delete(id)
		return nil, err
	}
	ix.cache.Put(id, ol, hash)
	return ol, nil
}

func (ix *Indexer) buildOutline(id, text string) (*outline.Outline, error) {
	f, err := ix.forFile(id)
	if err != nil {
		return nil, err
	}
	ol, err := f.Outline(text)
	if err != nil {
		return nil, fmt.Errorf("outline %s: %w", id, err)
	}
	if err := ol.Validate(); err != nil {
		return nil, err
	}
	return ol, nil
}

// Forget drops the cached outline of a document that left the store. id may
// also name a directory, in which case every document under it is dropped.
func (ix *Indexer) Forget(id string) {
	ix.cache.Delete(id)
	if n := ix.cache.DeletePrefix(id + "/"); n > 0 {
		ix.log.Info("forgot directory", "dir", id, "documents", n)
	}
}

// Stats returns the summary of the last completed run.
func (ix *Indexer) Stats() RunStats {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.last
}
