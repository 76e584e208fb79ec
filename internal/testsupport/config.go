// Package testsupport provides shared fixtures for package tests.
package testsupport

import (
	"testing"

	"crate/internal/config"
)

// ConfigOption mutates a test configuration.
type ConfigOption func(*config.Config)

// NewConfig returns a configuration rooted in per-test temp directories with
// settings tuned for fast tests: no upstream rate limiting and a collection
// scan interval long enough that only the initial scan runs.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.CacheDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Paths.CollectionFile = ""
	cfg.Metadata.RateLimitMS = 0
	cfg.Prefetch.RetryBaseDelayMS = 1
	cfg.Prefetch.RetryMaxDelayMS = 4
	cfg.Prefetch.CollectionScanMinutes = 60
	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithCollectionFile points the daemon at a collection file.
func WithCollectionFile(path string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Paths.CollectionFile = path
	}
}

// WithRateLimitMS overrides the upstream request spacing.
func WithRateLimitMS(ms int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Metadata.RateLimitMS = ms
	}
}
