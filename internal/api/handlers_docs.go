package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/docsect/internal/outline"
	"github.com/dgallion1/docsect/internal/section"
	"github.com/dgallion1/docsect/internal/vault"
)

type documentResponse struct {
	vault.Document
	Indexed bool `json:"indexed"`
}

// handleListDocuments lists every document in the store.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.ListDocuments(r.Context())
	if err != nil {
		s.log.Error("list documents failed", "error", err)
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		_, indexed := s.cache.Get(d.ID)
		out = append(out, documentResponse{Document: d, Indexed: indexed})
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": out})
}

// handleReindex refreshes the outline cache synchronously.
func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	run, err := s.indexer.Reindex(r.Context())
	if err != nil {
		s.log.Error("reindex failed", "error", err)
		jsonError(w, "reindex failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// errorStatus maps extraction failures to response codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, vault.ErrInvalidPath):
		return http.StatusBadRequest
	case errors.Is(err, vault.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, vault.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, section.ErrNoOutline), errors.Is(err, outline.ErrInvalidOutline):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
