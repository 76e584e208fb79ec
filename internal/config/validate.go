package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateMetadata(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validatePrefetch(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.CacheDir == "" {
		return errors.New("paths.cache_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateMetadata() error {
	if c.Metadata.BaseURL == "" {
		return errors.New("metadata.base_url must be set")
	}
	if c.Metadata.UserAgent == "" {
		return errors.New("metadata.user_agent must be set (the upstream API rejects anonymous clients)")
	}
	if c.Metadata.RateLimitMS <= 0 {
		return fmt.Errorf("metadata.rate_limit_ms must be positive, got %d", c.Metadata.RateLimitMS)
	}
	if c.Metadata.RequestTimeout <= 0 {
		return fmt.Errorf("metadata.request_timeout must be positive, got %d", c.Metadata.RequestTimeout)
	}
	if c.Metadata.BrowseLimit <= 0 || c.Metadata.BrowseLimit > 100 {
		return fmt.Errorf("metadata.browse_limit must be in 1..100, got %d", c.Metadata.BrowseLimit)
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.CatalogTTLDays <= 0 {
		return errors.New("cache.catalog_ttl_days must be positive")
	}
	if c.Cache.LinkTTLDays <= 0 {
		return errors.New("cache.link_ttl_days must be positive")
	}
	if c.Cache.PersistIntervalMinutes <= 0 {
		return errors.New("cache.persist_interval_minutes must be positive")
	}
	return nil
}

func (c *Config) validatePrefetch() error {
	if c.Prefetch.PollIntervalSeconds <= 0 {
		return errors.New("prefetch.poll_interval_seconds must be positive")
	}
	if c.Prefetch.RetryAttempts <= 0 {
		return errors.New("prefetch.retry_attempts must be positive")
	}
	if c.Prefetch.RetryBaseDelayMS < 0 {
		return errors.New("prefetch.retry_base_delay_ms must not be negative")
	}
	if c.Prefetch.RetryMaxDelayMS < c.Prefetch.RetryBaseDelayMS {
		return errors.New("prefetch.retry_max_delay_ms must be at least retry_base_delay_ms")
	}
	return nil
}
