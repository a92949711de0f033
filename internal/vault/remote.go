package vault

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/docsect/internal/format"
	"github.com/dgallion1/docsect/internal/pathstore"
)

// NodeReader is the subset of the pathstore client RemoteStore uses.
type NodeReader interface {
	GetNode(ctx context.Context, key string) (*pathstore.NodeResponse, error)
	ListChildren(ctx context.Context, key string, limit int) ([]pathstore.ListChildrenResponse, error)
}

// RemoteStore serves documents kept in pathstore. Each document is a node
// at <prefix>/<id> whose value is an object with a "content" string, an
// optional "encoding" ("base64" for binary formats such as PDF and DOCX) and
// an optional "updated_at" RFC 3339 timestamp.
type RemoteStore struct {
	client   NodeReader
	prefix   string
	formats  format.Options
	limit    int
	maxBytes int64
	log      *slog.Logger
}

// NewRemoteStore returns a store over the nodes under prefix. Nodes that
// cannot be read are skipped from listings and logged to log, which may be
// nil.
func NewRemoteStore(client NodeReader, prefix string, formats format.Options, limit int, maxBytes int64, log *slog.Logger) *RemoteStore {
	if limit <= 0 {
		limit = 10000
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &RemoteStore{
		client:   client,
		prefix:   strings.TrimSuffix(prefix, "/"),
		formats:  formats,
		limit:    limit,
		maxBytes: maxBytes,
		log:      log,
	}
}

func (s *RemoteStore) ListDocuments(ctx context.Context) ([]Document, error) {
	nodes, err := s.client.ListChildren(ctx, s.prefix, s.limit)
	if err != nil {
		return nil, fmt.Errorf("list documents under %s: %w", s.prefix, err)
	}

	var docs []Document
	for _, n := range nodes {
		id := strings.TrimPrefix(n.Key, s.prefix+"/")
		if id == n.Key || !validID(id) || !format.IsSupportedExtension(id) {
			continue
		}
		content, modTime, err := nodeContent(n.Value)
		if err != nil {
			s.log.Warn("skipping unreadable document", "doc_id", id, "error", err)
			continue
		}
		docs = append(docs, NewDocument(id, int64(len(content)), modTime))
	}
	return docs, nil
}

func (s *RemoteStore) LoadText(ctx context.Context, id string) (string, error) {
	if !validID(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, id)
	}
	f, err := s.formats.ForFile(id)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", id, err)
	}

	node, err := s.client.GetNode(ctx, s.prefix+"/"+id)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", id, err)
	}
	if node == nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	content, _, err := nodeContent(node.Value)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", id, err)
	}
	if s.maxBytes > 0 && int64(len(content)) > s.maxBytes {
		return "", fmt.Errorf("%w: %s is %d bytes (max %d)", ErrTooLarge, id, len(content), s.maxBytes)
	}
	text, err := f.Render(content)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", id, err)
	}
	return text, nil
}

func nodeContent(value any) ([]byte, time.Time, error) {
	m, ok := value.(map[string]any)
	if !ok {
		return nil, time.Time{}, fmt.Errorf("node value is %T, want object", value)
	}
	content, _ := m["content"].(string)
	var modTime time.Time
	if ts, ok := m["updated_at"].(string); ok {
		modTime, _ = time.Parse(time.RFC3339, ts)
	}

	switch enc, _ := m["encoding"].(string); enc {
	case "":
		return []byte(content), modTime, nil
	case "base64":
		b, err := base64.StdEncoding.DecodeString(content)
		if err != nil {
			return nil, modTime, fmt.Errorf("decode content: %w", err)
		}
		return b, modTime, nil
	default:
		return nil, modTime, fmt.Errorf("unknown content encoding %q", enc)
	}
}
