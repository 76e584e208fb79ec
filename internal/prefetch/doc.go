// Package prefetch implements background population of the metadata caches.
//
// A two-priority deduplicating queue feeds a single consumer loop; the
// worker runs the rate-limited fetch pipeline for each album id and writes
// results into the catalog stores. Interactive reads never wait on this
// machinery: they are served from whatever is already cached.
package prefetch
