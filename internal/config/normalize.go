package config

import "strings"

// normalize expands path fields and trims string values so the rest of the
// codebase never deals with "~" or stray whitespace.
func (c *Config) normalize() error {
	var err error
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.Paths.CollectionFile, err = expandPath(c.Paths.CollectionFile); err != nil {
		return err
	}

	c.Metadata.BaseURL = strings.TrimRight(strings.TrimSpace(c.Metadata.BaseURL), "/")
	c.Metadata.LinkResolverURL = strings.TrimRight(strings.TrimSpace(c.Metadata.LinkResolverURL), "/")
	c.Metadata.UserAgent = strings.TrimSpace(c.Metadata.UserAgent)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}
