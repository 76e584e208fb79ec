package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	CacheDir       string `toml:"cache_dir"`
	LogDir         string `toml:"log_dir"`
	CollectionFile string `toml:"collection_file"`
}

// Metadata contains configuration for the upstream metadata API.
type Metadata struct {
	BaseURL         string `toml:"base_url"`
	LinkResolverURL string `toml:"link_resolver_url"`
	UserAgent       string `toml:"user_agent"`
	RateLimitMS     int    `toml:"rate_limit_ms"`
	RequestTimeout  int    `toml:"request_timeout"`
	BrowseLimit     int    `toml:"browse_limit"`
}

// Cache contains snapshot and expiry configuration for the metadata stores.
type Cache struct {
	CatalogTTLDays         int `toml:"catalog_ttl_days"`
	LinkTTLDays            int `toml:"link_ttl_days"`
	PersistIntervalMinutes int `toml:"persist_interval_minutes"`
}

// Prefetch contains configuration for the background prefetch pipeline.
type Prefetch struct {
	PollIntervalSeconds     int `toml:"poll_interval_seconds"`
	RetryAttempts           int `toml:"retry_attempts"`
	RetryBaseDelayMS        int `toml:"retry_base_delay_ms"`
	RetryMaxDelayMS         int `toml:"retry_max_delay_ms"`
	ProgressIntervalSeconds int `toml:"progress_interval_seconds"`
	CollectionScanMinutes   int `toml:"collection_scan_minutes"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for crate.
//
// Configuration sections by subsystem:
//   - Paths: cache/log directories and the watched collection file
//   - Metadata: upstream metadata API endpoints and rate limiting
//   - Cache: TTL policy and snapshot cadence
//   - Prefetch: queue polling, retry/backoff, progress reporting
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Metadata Metadata `toml:"metadata"`
	Cache    Cache    `toml:"cache"`
	Prefetch Prefetch `toml:"prefetch"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/crate/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was actually found; absence is not an error because
// the defaults form a usable configuration.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	pathValue = strings.TrimSpace(pathValue)
	if pathValue == "" {
		return "", nil
	}
	if pathValue == "~" || strings.HasPrefix(pathValue, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			return home, nil
		}
		return filepath.Join(home, pathValue[2:]), nil
	}
	abs, err := filepath.Abs(pathValue)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", pathValue, err)
	}
	return abs, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
