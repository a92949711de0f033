package index

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dgallion1/docsect/internal/format"
	"github.com/dgallion1/docsect/internal/vault"
	"github.com/fsnotify/fsnotify"
)

// Watcher reindexes documents of a directory store as their files change,
// between the Indexer's periodic runs.
type Watcher struct {
	ix      *Indexer
	root    string
	watcher *fsnotify.Watcher
	log     *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher watches root and every directory below it that is not hidden.
func NewWatcher(ix *Indexer, root string, log *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{ix: ix, root: filepath.Clean(root), watcher: fw, log: log}
	if err := w.addTree(context.Background(), w.root, false); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Start handles file events until ctx is done or Close is called.
func (w *Watcher) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-runCtx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				w.handle(runCtx, event)
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.log.Warn("vault watcher error", "error", err)
			}
		}
	}()
}

// Close stops the event loop and releases the watcher.
func (w *Watcher) Close() error {
	if w.cancel != nil {
		w.cancel()
	}
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	id, ok := w.docID(event.Name)
	if !ok {
		return
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		// id may be a directory; Forget drops everything under it.
		w.ix.Forget(id)
		if event.Has(fsnotify.Rename) {
			w.unwatchTree(event.Name)
		}
		w.log.Debug("document removed", "doc_id", id)
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		// Files may land in a new directory before it is watched.
		if err := w.addTree(ctx, event.Name, true); err != nil {
			w.log.Warn("watch directory failed", "dir", id, "error", err)
		}
		return
	}
	w.index(ctx, id, info)
}

func (w *Watcher) index(ctx context.Context, id string, info fs.FileInfo) {
	if !info.Mode().IsRegular() || !format.IsSupportedExtension(id) {
		return
	}
	changed, err := w.ix.IndexDocument(ctx, vault.NewDocument(id, info.Size(), info.ModTime()))
	if err != nil {
		if ctx.Err() == nil {
			w.log.Warn("index document failed", "doc_id", id, "error", err)
		}
		return
	}
	if changed {
		w.log.Debug("document reindexed", "doc_id", id)
	}
}

// addTree watches dir and its non-hidden subdirectories. With indexFiles
// set, files already present are indexed too.
func (w *Watcher) addTree(ctx context.Context, dir string, indexFiles bool) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != w.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if err := w.watcher.Add(p); err != nil {
				return fmt.Errorf("watch %s: %w", p, err)
			}
			return nil
		}
		if !indexFiles {
			return nil
		}
		if id, ok := w.docID(p); ok {
			if info, err := d.Info(); err == nil {
				w.index(ctx, id, info)
			}
		}
		return nil
	})
}

// unwatchTree stops watching dir and the directories below it. A renamed
// directory stays watched under its old name otherwise; its new name
// arrives as a Create and is watched again by addTree.
func (w *Watcher) unwatchTree(dir string) {
	prefix := dir + string(filepath.Separator)
	for _, p := range w.watcher.WatchList() {
		if p == dir || strings.HasPrefix(p, prefix) {
			_ = w.watcher.Remove(p)
		}
	}
}

// docID maps a path under root to a document ID. Paths outside root or
// inside hidden directories have none.
func (w *Watcher) docID(name string) (string, bool) {
	rel, err := filepath.Rel(w.root, name)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	id := filepath.ToSlash(rel)
	parts := strings.Split(id, "/")
	for _, dir := range parts[:len(parts)-1] {
		if strings.HasPrefix(dir, ".") {
			return "", false
		}
	}
	return id, true
}
