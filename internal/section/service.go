package section

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgallion1/docsect/internal/outline"
	"github.com/dgallion1/docsect/internal/vault"
)

// ErrNoOutline is returned when the outline provider has nothing for a
// document. It is distinct from a document that simply has no matches.
var ErrNoOutline = errors.New("no outline for document")

// TextLoader loads document text.
type TextLoader interface {
	LoadText(ctx context.Context, id string) (string, error)
}

// Refresher recomputes the outline of text that the provider reported as
// stale.
type Refresher interface {
	Refresh(id, text string) (*outline.Outline, error)
}

// Service extracts sections from stored documents. It is safe for concurrent
// use.
type Service struct {
	loader   TextLoader
	outlines outline.Provider
	links    Linker
	refresh  Refresher
}

func NewService(loader TextLoader, outlines outline.Provider, links Linker) *Service {
	if links == nil {
		links = WikiLinker{}
	}
	return &Service{loader: loader, outlines: outlines, links: links}
}

// WithRefresher makes the service recompute stale outlines instead of
// failing with ErrNoOutline. Call it before the service is shared.
func (s *Service) WithRefresher(r Refresher) *Service {
	s.refresh = r
	return s
}

// ExtractByTag loads doc and returns the sections of headings carrying a
// matching tag.
func (s *Service) ExtractByTag(ctx context.Context, doc vault.Document, match TagMatcher) ([]Section, error) {
	text, ol, err := s.load(ctx, doc)
	if err != nil {
		return nil, err
	}
	return ExtractByTag(doc.Name, text, ol, match, s.links), nil
}

// ExtractByHeading loads doc and returns the sections of matching headings.
func (s *Service) ExtractByHeading(ctx context.Context, doc vault.Document, match HeadingMatcher) ([]Section, error) {
	text, ol, err := s.load(ctx, doc)
	if err != nil {
		return nil, err
	}
	return ExtractByHeading(doc.Name, text, ol, match, s.links), nil
}

func (s *Service) ExtractByTagName(ctx context.Context, doc vault.Document, name string) ([]Section, error) {
	return s.ExtractByTag(ctx, doc, TagName(name))
}

func (s *Service) ExtractByHeadingLevel(ctx context.Context, doc vault.Document, level int) ([]Section, error) {
	return s.ExtractByHeading(ctx, doc, HeadingLevel(level))
}

func (s *Service) load(ctx context.Context, doc vault.Document) (string, *outline.Outline, error) {
	text, err := s.loader.LoadText(ctx, doc.ID)
	if err != nil {
		return "", nil, fmt.Errorf("load %s: %w", doc.ID, err)
	}
	ol, err := s.outlines.Outline(doc.ID, outline.Hash(text))
	if errors.Is(err, outline.ErrStale) && s.refresh != nil {
		ol, err = s.refresh.Refresh(doc.ID, text)
	}
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrNoOutline, err)
	}
	if ol == nil {
		return "", nil, fmt.Errorf("%w: %s", ErrNoOutline, doc.ID)
	}
	if err := ol.Validate(); err != nil {
		return "", nil, fmt.Errorf("outline of %s: %w", doc.ID, err)
	}
	return text, ol, nil
}
