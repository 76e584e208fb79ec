package config

import "time"

const (
	defaultCacheDir        = "~/.local/share/crate/cache"
	defaultLogDir          = "~/.local/share/crate/logs"
	defaultMetadataBaseURL = "https://musicbrainz.org/ws/2"
	defaultLinkResolverURL = "https://api.listen.link/v1/resolve"
	defaultUserAgent       = "crate/dev (https://github.com/crate)"

	// MusicBrainz enforces roughly one request per second per client.
	defaultRateLimitMS    = 1000
	defaultRequestTimeout = 10
	defaultBrowseLimit    = 100

	defaultCatalogTTLDays         = 30
	defaultLinkTTLDays            = 7
	defaultPersistIntervalMinutes = 5

	defaultPollIntervalSeconds     = 2
	defaultRetryAttempts           = 3
	defaultRetryBaseDelayMS        = 1000
	defaultRetryMaxDelayMS         = 4000
	defaultProgressIntervalSeconds = 60
	defaultCollectionScanMinutes   = 10

	defaultLogFormat = "auto"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir: defaultCacheDir,
			LogDir:   defaultLogDir,
		},
		Metadata: Metadata{
			BaseURL:         defaultMetadataBaseURL,
			LinkResolverURL: defaultLinkResolverURL,
			UserAgent:       defaultUserAgent,
			RateLimitMS:     defaultRateLimitMS,
			RequestTimeout:  defaultRequestTimeout,
			BrowseLimit:     defaultBrowseLimit,
		},
		Cache: Cache{
			CatalogTTLDays:         defaultCatalogTTLDays,
			LinkTTLDays:            defaultLinkTTLDays,
			PersistIntervalMinutes: defaultPersistIntervalMinutes,
		},
		Prefetch: Prefetch{
			PollIntervalSeconds:     defaultPollIntervalSeconds,
			RetryAttempts:           defaultRetryAttempts,
			RetryBaseDelayMS:        defaultRetryBaseDelayMS,
			RetryMaxDelayMS:         defaultRetryMaxDelayMS,
			ProgressIntervalSeconds: defaultProgressIntervalSeconds,
			CollectionScanMinutes:   defaultCollectionScanMinutes,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// RateLimit returns the minimum interval between upstream requests.
func (c *Config) RateLimit() time.Duration {
	return time.Duration(c.Metadata.RateLimitMS) * time.Millisecond
}

// CatalogTTL returns the expiry horizon for album and release entries.
func (c *Config) CatalogTTL() time.Duration {
	return time.Duration(c.Cache.CatalogTTLDays) * 24 * time.Hour
}

// LinkTTL returns the expiry horizon for link-resolution entries.
func (c *Config) LinkTTL() time.Duration {
	return time.Duration(c.Cache.LinkTTLDays) * 24 * time.Hour
}

// PersistInterval returns the cadence of periodic snapshot writes.
func (c *Config) PersistInterval() time.Duration {
	return time.Duration(c.Cache.PersistIntervalMinutes) * time.Minute
}

// PollInterval returns the queue consumer poll fallback interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Prefetch.PollIntervalSeconds) * time.Second
}

// RetryBaseDelay returns the initial retry backoff delay.
func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.Prefetch.RetryBaseDelayMS) * time.Millisecond
}

// RetryMaxDelay returns the retry backoff cap.
func (c *Config) RetryMaxDelay() time.Duration {
	return time.Duration(c.Prefetch.RetryMaxDelayMS) * time.Millisecond
}

// ProgressInterval returns the minimum spacing between progress log lines.
func (c *Config) ProgressInterval() time.Duration {
	return time.Duration(c.Prefetch.ProgressIntervalSeconds) * time.Second
}

// CollectionScanInterval returns how often the daemon re-reads the
// collection file.
func (c *Config) CollectionScanInterval() time.Duration {
	return time.Duration(c.Prefetch.CollectionScanMinutes) * time.Minute
}

// RequestTimeout returns the per-request HTTP timeout for upstream calls.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Metadata.RequestTimeout) * time.Second
}
