package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docsect/internal/format"
)

// FSStore serves documents from a directory tree on disk. Files with an
// unsupported extension and dot-directories are ignored.
type FSStore struct {
	root     string
	formats  format.Options
	maxBytes int64
}

// NewFSStore creates a store rooted at dir. maxBytes <= 0 disables the size
// limit.
func NewFSStore(dir string, formats format.Options, maxBytes int64) *FSStore {
	return &FSStore{root: dir, formats: formats, maxBytes: maxBytes}
}

func (s *FSStore) ListDocuments(ctx context.Context) ([]Document, error) {
	var docs []Document
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != s.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !format.IsSupportedExtension(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		docs = append(docs, NewDocument(filepath.ToSlash(rel), info.Size(), info.ModTime()))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list documents in %s: %w", s.root, err)
	}
	return docs, nil
}

func (s *FSStore) LoadText(ctx context.Context, id string) (string, error) {
	if !validID(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, id)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, err := s.formats.ForFile(id)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", id, err)
	}

	full := filepath.Join(s.root, filepath.FromSlash(id))
	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s: %w", ErrNotFound, id, err)
		}
		return "", fmt.Errorf("stat %s: %w", id, err)
	}
	if s.maxBytes > 0 && info.Size() > s.maxBytes {
		return "", fmt.Errorf("%w: %s is %d bytes (max %d)", ErrTooLarge, id, info.Size(), s.maxBytes)
	}

	src, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s: %w", ErrNotFound, id, err)
		}
		return "", fmt.Errorf("read %s: %w", id, err)
	}
	text, err := f.Render(src)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", id, err)
	}
	return text, nil
}
