// Package config resolves dftlog settings from the environment.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all runtime settings.
type Config struct {
	// DBPath is the local SQLite store.
	DBPath string
	// SitesPath is the YAML site registry; empty means the built-in demo site.
	SitesPath string

	UploadURL       string
	UploadTimeoutMs int
	LogCalls        bool

	IngestAddr string
	IngestDSN  string
}

// UploadTimeout is UploadTimeoutMs as a duration.
func (c Config) UploadTimeout() time.Duration {
	return time.Duration(c.UploadTimeoutMs) * time.Millisecond
}

// Default returns the configuration used when no variable is set.
// SitesPath is filled by Load, which probes the filesystem.
func Default() Config {
	dir := dataDir()
	return Config{
		DBPath:          filepath.Join(dir, "dftlog.db"),
		UploadTimeoutMs: 15000,
		IngestAddr:      ":8088",
		IngestDSN:       filepath.Join(dir, "ingest.db"),
	}
}

// Load reads configuration from environment variables, falling back to
// defaults for any unset or invalid values.
func Load() Config {
	cfg := Default()

	if v := os.Getenv("DFTLOG_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("DFTLOG_SITES"); v != "" {
		cfg.SitesPath = v
	} else {
		cfg.SitesPath = findSites()
	}
	if v := os.Getenv("DFTLOG_UPLOAD_URL"); v != "" {
		cfg.UploadURL = v
	}
	if v := os.Getenv("DFTLOG_UPLOAD_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.UploadTimeoutMs = n
		}
	}
	if v := os.Getenv("DFTLOG_LOG_CALLS"); v != "" {
		cfg.LogCalls, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("DFTLOG_INGEST_ADDR"); v != "" {
		cfg.IngestAddr = v
	}
	if v := os.Getenv("DFTLOG_INGEST_DSN"); v != "" {
		cfg.IngestDSN = v
	}

	return cfg
}

func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dftlog"
	}
	return filepath.Join(home, ".dftlog")
}

// findSites returns the first existing registry among ./sites.yaml and
// ~/.dftlog/sites.yaml, or "" when neither exists.
func findSites() string {
	for _, p := range []string{"sites.yaml", filepath.Join(dataDir(), "sites.yaml")} {
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}
