package api

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/dgallion1/docsect/internal/section"
	"github.com/dgallion1/docsect/internal/vault"
)

// handleSections extracts sections from one document, addressed by doc (its
// ID) or name (its base name). Exactly one selector must be given: tag
// (repeatable, any of), level or heading.
func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if (q.Get("doc") == "") == (q.Get("name") == "") {
		jsonError(w, "exactly one of doc or name is required", http.StatusBadRequest)
		return
	}

	selectors := 0
	for _, k := range []string{"tag", "level", "heading"} {
		if q.Has(k) {
			selectors++
		}
	}
	if selectors != 1 {
		jsonError(w, "exactly one of tag, level or heading is required", http.StatusBadRequest)
		return
	}

	var (
		op      string
		extract func(ctx context.Context, doc vault.Document) ([]section.Section, error)
	)
	switch {
	case q.Has("tag"):
		names := q["tag"]
		if slices.Contains(names, "") {
			jsonError(w, "tag must not be empty", http.StatusBadRequest)
			return
		}
		op = "by_tag"
		extract = func(ctx context.Context, doc vault.Document) ([]section.Section, error) {
			if len(names) == 1 {
				return s.sections.ExtractByTagName(ctx, doc, names[0])
			}
			return s.sections.ExtractByTag(ctx, doc, section.AnyTag(names...))
		}
	case q.Has("level"):
		level, err := strconv.Atoi(q.Get("level"))
		if err != nil {
			jsonError(w, "level must be an integer", http.StatusBadRequest)
			return
		}
		op = "by_level"
		extract = func(ctx context.Context, doc vault.Document) ([]section.Section, error) {
			return s.sections.ExtractByHeadingLevel(ctx, doc, level)
		}
	default:
		text := q.Get("heading")
		op = "by_heading"
		extract = func(ctx context.Context, doc vault.Document) ([]section.Section, error) {
			return s.sections.ExtractByHeading(ctx, doc, section.HeadingText(text))
		}
	}

	doc, err := s.resolveDocument(r.Context(), q.Get("doc"), q.Get("name"))
	if err != nil {
		jsonError(w, err.Error(), errorStatus(err))
		return
	}

	start := time.Now()
	sections, err := extract(r.Context(), doc)
	s.stats.Record(op, time.Since(start), len(sections), err)
	if err != nil {
		code := errorStatus(err)
		if code == http.StatusInternalServerError {
			s.log.Error("extract sections failed", "doc_id", doc.ID, "op", op, "error", err)
		}
		jsonError(w, err.Error(), code)
		return
	}
	if sections == nil {
		sections = []section.Section{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"doc":      doc.ID,
		"name":     doc.Name,
		"sections": sections,
	})
}

// resolveDocument returns the document with the given ID, or the first
// document in store order whose base name is name.
func (s *Server) resolveDocument(ctx context.Context, id, name string) (vault.Document, error) {
	if id != "" {
		return vault.NewDocument(id, 0, time.Time{}), nil
	}
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return vault.Document{}, fmt.Errorf("list documents: %w", err)
	}
	for _, d := range docs {
		if d.Name == name {
			return d, nil
		}
	}
	return vault.Document{}, fmt.Errorf("%w: no document named %q", vault.ErrNotFound, name)
}
