// Package musicbrainz provides the HTTP client for the upstream metadata
// API and the companion link-resolver service.
//
// The client performs no rate limiting or retries itself; the prefetch
// worker owns both so every caller funnels through one serialization point.
// Responses are normalized into catalog types at the decode boundary.
package musicbrainz
