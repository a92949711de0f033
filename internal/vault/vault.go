// Package vault provides the document stores sections are extracted from.
package vault

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a document does not exist in the store.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidPath is returned for document IDs that are not clean,
	// relative, slash-separated paths inside the store.
	ErrInvalidPath = errors.New("invalid document path")

	// ErrTooLarge is returned when a document exceeds the store's size limit.
	ErrTooLarge = errors.New("document too large")
)

// Document identifies one document in a store.
type Document struct {
	ID      string    `json:"id"`   // slash-separated path relative to the store root
	Name    string    `json:"name"` // base name without extension
	Ext     string    `json:"ext"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// NewDocument derives Name and Ext from id.
func NewDocument(id string, size int64, modTime time.Time) Document {
	base := path.Base(id)
	ext := path.Ext(base)
	return Document{
		ID:      id,
		Name:    strings.TrimSuffix(base, ext),
		Ext:     strings.ToLower(ext),
		Size:    size,
		ModTime: modTime,
	}
}

// Store enumerates documents and loads their text. LoadText returns the text
// outline positions are computed against.
type Store interface {
	ListDocuments(ctx context.Context) ([]Document, error)
	LoadText(ctx context.Context, id string) (string, error)
}

// validID reports whether id is a clean relative path that stays inside the
// store root.
func validID(id string) bool {
	if id == "" || strings.Contains(id, `\`) || path.IsAbs(id) {
		return false
	}
	if path.Clean(id) != id {
		return false
	}
	return id != ".." && !strings.HasPrefix(id, "../")
}
