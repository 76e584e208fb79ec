package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, _, exists, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Error("exists should be false for a missing file")
	}
	if cfg.Metadata.RateLimitMS != defaultRateLimitMS {
		t.Errorf("RateLimitMS = %d, want %d", cfg.Metadata.RateLimitMS, defaultRateLimitMS)
	}
	if cfg.Cache.CatalogTTLDays != 30 {
		t.Errorf("CatalogTTLDays = %d, want 30", cfg.Cache.CatalogTTLDays)
	}
	if cfg.Cache.LinkTTLDays != 7 {
		t.Errorf("LinkTTLDays = %d, want 7", cfg.Cache.LinkTTLDays)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
cache_dir = "` + dir + `/cache"

[metadata]
base_url = "https://example.org/ws/2/"
user_agent = "  crate-test/1.0  "
rate_limit_ms = 1500
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Error("exists should be true")
	}
	if resolved != path {
		t.Errorf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Metadata.BaseURL != "https://example.org/ws/2" {
		t.Errorf("BaseURL not trimmed: %q", cfg.Metadata.BaseURL)
	}
	if cfg.Metadata.UserAgent != "crate-test/1.0" {
		t.Errorf("UserAgent not trimmed: %q", cfg.Metadata.UserAgent)
	}
	if cfg.Metadata.RateLimitMS != 1500 {
		t.Errorf("RateLimitMS = %d, want 1500", cfg.Metadata.RateLimitMS)
	}
	// Untouched sections keep defaults.
	if cfg.Prefetch.RetryAttempts != 3 {
		t.Errorf("RetryAttempts = %d, want 3", cfg.Prefetch.RetryAttempts)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "zero rate limit",
			content: "[metadata]\nrate_limit_ms = 0\n",
			wantErr: "rate_limit_ms",
		},
		{
			name:    "browse limit too large",
			content: "[metadata]\nbrowse_limit = 500\n",
			wantErr: "browse_limit",
		},
		{
			name:    "backoff cap below base",
			content: "[prefetch]\nretry_base_delay_ms = 5000\nretry_max_delay_ms = 1000\n",
			wantErr: "retry_max_delay_ms",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Load error = %v, want mention of %q", err, tc.wantErr)
			}
		})
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	got, err := ExpandPath("~/x/y")
	if err != nil {
		t.Fatalf("ExpandPath failed: %v", err)
	}
	if got != filepath.Join(home, "x", "y") {
		t.Errorf("ExpandPath(~/x/y) = %q", got)
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("first WriteSample failed: %v", err)
	}
	if err := WriteSample(path); err == nil {
		t.Fatal("second WriteSample should refuse to overwrite")
	}
	// Sample parses back through Load.
	if _, _, _, err := Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}
