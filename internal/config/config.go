package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Vault backends.
const (
	BackendFS        = "fs"
	BackendPathstore = "pathstore"
)

type Config struct {
	Port string

	// Auth
	DocsectAPIKey string

	// Document store
	VaultBackend     string
	VaultDir         string
	MaxDocumentBytes int64
	WatchVault       bool // fs backend only

	// Pathstore connection, used by the pathstore backend
	PathstoreURL    string
	PathstoreAPIKey string
	PathstorePrefix string
	PathstoreRPS    float64

	// Indexer
	IndexWorkers  int
	IndexInterval time.Duration

	// Extraction stats window
	StatsWindow time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		DocsectAPIKey: os.Getenv("DOCSECT_API_KEY"),

		VaultBackend:     envOr("VAULT_BACKEND", BackendFS),
		VaultDir:         envOr("VAULT_DIR", "."),
		MaxDocumentBytes: envInt64("MAX_DOCUMENT_BYTES", 52428800), // 50MB
		WatchVault:       envBool("WATCH_VAULT", true),

		PathstoreURL:    envOr("PATHSTORE_URL", "http://localhost:8080"),
		PathstoreAPIKey: os.Getenv("PATHSTORE_API_KEY"),
		PathstorePrefix: envOr("PATHSTORE_PREFIX", "documents"),
		PathstoreRPS:    envFloat("PATHSTORE_RPS", 20),

		IndexWorkers:  envInt("INDEX_WORKERS", 4),
		IndexInterval: envDuration("INDEX_INTERVAL", 5*time.Minute),

		StatsWindow: envDuration("STATS_WINDOW", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.IndexWorkers <= 0 {
		cfg.IndexWorkers = 4
	}
	if cfg.MaxDocumentBytes <= 0 {
		cfg.MaxDocumentBytes = 52428800
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}
	// A zero interval is allowed and disables periodic reindexing.
	if cfg.IndexInterval < 0 {
		cfg.IndexInterval = 5 * time.Minute
	}

	return cfg
}

func (c Config) Validate() error {
	if c.DocsectAPIKey == "" {
		return fmt.Errorf("DOCSECT_API_KEY is required")
	}
	switch c.VaultBackend {
	case BackendFS:
		info, err := os.Stat(c.VaultDir)
		if err != nil {
			return fmt.Errorf("VAULT_DIR: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("VAULT_DIR %s is not a directory", c.VaultDir)
		}
	case BackendPathstore:
		if c.PathstoreAPIKey == "" {
			return fmt.Errorf("PATHSTORE_API_KEY is required for the pathstore backend")
		}
	default:
		return fmt.Errorf("unknown VAULT_BACKEND %q", c.VaultBackend)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
