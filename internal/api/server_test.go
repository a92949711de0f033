package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgallion1/docsect/internal/config"
	"github.com/dgallion1/docsect/internal/format"
	"github.com/dgallion1/docsect/internal/index"
	"github.com/dgallion1/docsect/internal/outline"
	"github.com/dgallion1/docsect/internal/section"
	"github.com/dgallion1/docsect/internal/stats"
	"github.com/dgallion1/docsect/internal/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "test-key"

type fixture struct {
	srv   *httptest.Server
	root  string
	cache *outline.Cache
	ix    *index.Indexer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	root := t.TempDir()
	files := map[string]string{
		"엔티티.md":      "# A #entity\nfoo\n## B #x\nbar\n# C\nbaz",
		"notes/plain.md": "no headings here\n",
	}
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{DocsectAPIKey: testKey, StatsWindow: time.Hour}
	store := vault.NewFSStore(root, format.Options{}, 0)
	cache := outline.NewCache()
	ix := index.NewIndexer(store, cache, format.Options{}, log, 2, 0)
	_, err := ix.Reindex(context.Background())
	require.NoError(t, err)

	svc := section.NewService(store, cache, section.WikiLinker{}).WithRefresher(ix)
	srv := httptest.NewServer(NewServer(svc, store, cache, ix, stats.NewRecorder(cfg.StatsWindow), log, cfg))
	t.Cleanup(srv.Close)

	return &fixture{srv: srv, root: root, cache: cache, ix: ix}
}

func (f *fixture) do(t *testing.T, method, path string, auth bool) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, nil)
	require.NoError(t, err)
	if auth {
		req.Header.Set("Authorization", "Bearer "+testKey)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func sectionsPath(doc string, params ...string) string {
	q := url.Values{"doc": {doc}}
	for i := 0; i+1 < len(params); i += 2 {
		q.Set(params[i], params[i+1])
	}
	return "/api/sections?" + q.Encode()
}

func TestHealth(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/health", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(2), body["indexed"])
}

func TestAuthRequired(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/api/documents", false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "missing authorization", body["error"])
}

func TestListDocuments(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/api/documents", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	docs := body["documents"].([]any)
	require.Len(t, docs, 2)
	first := docs[0].(map[string]any)
	assert.Equal(t, "notes/plain.md", first["id"])
	assert.Equal(t, "plain", first["name"])
	assert.Equal(t, true, first["indexed"])
}

func TestSections_ByLevel(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, sectionsPath("엔티티.md", "level", "1"), true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "엔티티", body["name"])

	sections := body["sections"].([]any)
	require.Len(t, sections, 2)
	a := sections[0].(map[string]any)
	assert.Equal(t, "# A #entity", a["heading"])
	assert.Equal(t, "[[엔티티#A #entity|A #entity]]", a["link"])
	assert.Equal(t, "foo\n## B #x\nbar\n", a["content"])
	assert.Equal(t, "baz", sections[1].(map[string]any)["content"])
}

func TestSections_ByTag(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, sectionsPath("엔티티.md", "tag", "#x"), true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	sections := body["sections"].([]any)
	require.Len(t, sections, 1)
	assert.Equal(t, "## B #x", sections[0].(map[string]any)["heading"])
	assert.Equal(t, "bar\n", sections[0].(map[string]any)["content"])
}

func TestSections_ByHeadingNoMatch(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, sectionsPath("엔티티.md", "heading", "Nope"), true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{}, body["sections"])
}

func TestSections_Errors(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	// Written after indexing, so the store has it but the cache does not.
	require.NoError(t, os.WriteFile(filepath.Join(f.root, "late.md"), []byte("# Late\n"), 0o644))

	tests := []struct {
		name string
		path string
		want int
	}{
		{"missing doc param", "/api/sections?level=1", http.StatusBadRequest},
		{"doc and name", sectionsPath("엔티티.md", "name", "엔티티", "level", "1"), http.StatusBadRequest},
		{"unknown name", "/api/sections?name=nope&level=1", http.StatusNotFound},
		{"no selector", sectionsPath("엔티티.md"), http.StatusBadRequest},
		{"two selectors", sectionsPath("엔티티.md", "level", "1", "tag", "#x"), http.StatusBadRequest},
		{"bad level", sectionsPath("엔티티.md", "level", "one"), http.StatusBadRequest},
		{"empty tag", sectionsPath("엔티티.md", "tag", ""), http.StatusBadRequest},
		{"escaping path", sectionsPath("../secret.md", "level", "1"), http.StatusBadRequest},
		{"unknown doc", sectionsPath("missing.md", "level", "1"), http.StatusNotFound},
		{"not indexed", sectionsPath("late.md", "level", "1"), http.StatusConflict},
	}
	for _, tt := range tests {
		resp, body := f.do(t, http.MethodGet, tt.path, true)
		assert.Equal(t, tt.want, resp.StatusCode, tt.name)
		assert.NotEmpty(t, body["error"], tt.name)
	}
}

func TestReindexAndStats(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	require.NoError(t, os.WriteFile(filepath.Join(f.root, "late.md"), []byte("# Late\n"), 0o644))

	resp, body := f.do(t, http.MethodPost, "/api/index", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(3), body["documents"])
	assert.Equal(t, float64(1), body["indexed"])
	assert.Equal(t, float64(2), body["skipped"])

	resp, _ = f.do(t, http.MethodGet, sectionsPath("late.md", "level", "1"), true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = f.do(t, http.MethodGet, "/api/stats/extract", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ops := body["ops"].(map[string]any)
	byLevel := ops["by_level"].(map[string]any)
	assert.Equal(t, float64(1), byLevel["calls"])
	assert.Equal(t, float64(1), byLevel["sections"])
}

func TestSections_ByNameWithAnyTag(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	q := url.Values{"name": {"엔티티"}, "tag": {"#x", "#entity"}}
	resp, body := f.do(t, http.MethodGet, "/api/sections?"+q.Encode(), true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "엔티티.md", body["doc"])

	sections := body["sections"].([]any)
	require.Len(t, sections, 2)
	assert.Equal(t, "# A #entity", sections[0].(map[string]any)["heading"])
	assert.Equal(t, "## B #x", sections[1].(map[string]any)["heading"])
}

func TestSections_EditedAfterIndexing(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	// Lines are inserted above every heading; the cached outline no longer
	// lines up with the text.
	edited := "intro\nmore intro\n# A #entity\nfoo\n## B #x\nbar\n# C\nbaz"
	require.NoError(t, os.WriteFile(filepath.Join(f.root, "엔티티.md"), []byte(edited), 0o644))

	resp, body := f.do(t, http.MethodGet, sectionsPath("엔티티.md", "tag", "#x"), true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sections := body["sections"].([]any)
	require.Len(t, sections, 1)
	assert.Equal(t, "## B #x", sections[0].(map[string]any)["heading"])
	assert.Equal(t, "bar\n", sections[0].(map[string]any)["content"])

	e, ok := f.cache.Get("엔티티.md")
	require.True(t, ok)
	assert.Equal(t, outline.Hash(edited), e.Hash)
}

func TestSections_UnderscoreTag(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	doc := "# Intro\n## Model #my_tag\nfields\n## Other\nrest\n"
	require.NoError(t, os.WriteFile(filepath.Join(f.root, "snake.md"), []byte(doc), 0o644))
	_, err := f.ix.Reindex(context.Background())
	require.NoError(t, err)

	resp, body := f.do(t, http.MethodGet, sectionsPath("snake.md", "tag", "#my_tag"), true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sections := body["sections"].([]any)
	require.Len(t, sections, 1)
	assert.Equal(t, "## Model #my_tag", sections[0].(map[string]any)["heading"])
	assert.Equal(t, "fields\n", sections[0].(map[string]any)["content"])
}
