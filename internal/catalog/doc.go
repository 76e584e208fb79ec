// Package catalog holds crate's normalized metadata model and the cache
// layer built on top of it.
//
// Albums reference their releases by id; releases are owned by a single
// shared store so a release is never duplicated across albums. Hydration
// expands an album's id references back into full release objects for
// readers. The Coordinator owns every store, restores them at startup, and
// snapshots them periodically and on shutdown.
package catalog
