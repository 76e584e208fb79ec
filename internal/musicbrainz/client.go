package musicbrainz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"crate/internal/catalog"
)

const defaultHTTPTimeout = 10 * time.Second

// Catalog defines the upstream operations the prefetch worker depends on.
type Catalog interface {
	ReleaseGroup(ctx context.Context, id string) (catalog.Album, error)
	BrowseReleases(ctx context.Context, albumID string, limit int) ([]catalog.Release, error)
	Release(ctx context.Context, id string) (catalog.Release, error)
	ResolveLink(ctx context.Context, source, region string) (catalog.LinkResult, error)
}

// Client talks to the metadata API and the link resolver.
type Client struct {
	baseURL     string
	resolverURL string
	userAgent   string
	httpClient  *http.Client
}

var _ Catalog = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a metadata client. The user agent is mandatory: the upstream
// API rejects anonymous clients.
func New(baseURL, resolverURL, userAgent string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("metadata base url required")
	}
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return nil, errors.New("metadata user agent required")
	}
	client := &Client{
		baseURL:     baseURL,
		resolverURL: strings.TrimRight(strings.TrimSpace(resolverURL), "/"),
		userAgent:   userAgent,
		httpClient:  &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ReleaseGroup fetches album-level summary metadata.
func (c *Client) ReleaseGroup(ctx context.Context, id string) (catalog.Album, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return catalog.Album{}, errors.New("release group id required")
	}

	params := url.Values{}
	params.Set("fmt", "json")
	params.Set("inc", "artist-credits+tags")

	var payload releaseGroupPayload
	if err := c.getJSON(ctx, "release group", c.baseURL+"/release-group/"+url.PathEscape(id), params, &payload); err != nil {
		return catalog.Album{}, err
	}
	return payload.toAlbum(), nil
}

// BrowseReleases fetches up to limit releases belonging to an album.
func (c *Client) BrowseReleases(ctx context.Context, albumID string, limit int) ([]catalog.Release, error) {
	albumID = strings.TrimSpace(albumID)
	if albumID == "" {
		return nil, errors.New("release group id required")
	}
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	params := url.Values{}
	params.Set("fmt", "json")
	params.Set("release-group", albumID)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("inc", "labels+media")

	var payload browsePayload
	if err := c.getJSON(ctx, "browse releases", c.baseURL+"/release", params, &payload); err != nil {
		return nil, err
	}

	releases := make([]catalog.Release, 0, len(payload.Releases))
	for _, rel := range payload.Releases {
		releases = append(releases, rel.toRelease(albumID))
	}
	return releases, nil
}

// Release fetches detailed release metadata, tracks included.
func (c *Client) Release(ctx context.Context, id string) (catalog.Release, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return catalog.Release{}, errors.New("release id required")
	}

	params := url.Values{}
	params.Set("fmt", "json")
	params.Set("inc", "recordings+labels+tags")

	var payload releasePayload
	if err := c.getJSON(ctx, "release detail", c.baseURL+"/release/"+url.PathEscape(id), params, &payload); err != nil {
		return catalog.Release{}, err
	}
	return payload.toRelease(""), nil
}

// ResolveLink queries the secondary lookup service for an external listen
// link scoped to a region.
func (c *Client) ResolveLink(ctx context.Context, source, region string) (catalog.LinkResult, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return catalog.LinkResult{}, errors.New("link source required")
	}
	if c.resolverURL == "" {
		return catalog.LinkResult{}, errors.New("link resolver url not configured")
	}

	params := url.Values{}
	params.Set("source", source)
	params.Set("region", strings.ToUpper(strings.TrimSpace(region)))

	var payload linkPayload
	if err := c.getJSON(ctx, "resolve link", c.resolverURL, params, &payload); err != nil {
		return catalog.LinkResult{}, err
	}
	return catalog.LinkResult{
		Source:   source,
		Region:   strings.ToUpper(strings.TrimSpace(region)),
		URL:      payload.URL,
		Verified: payload.Verified,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, op, endpoint string, params url.Values, out any) error {
	target, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%s: parse url: %w", op, err)
	}
	target.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: execute request: %w", op, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	default:
		return &StatusError{Op: op, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
