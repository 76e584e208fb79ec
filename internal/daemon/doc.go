// Package daemon assembles the caching service: it wires configuration,
// stores, the upstream client, and the prefetch pipeline together, enforces
// single-instance execution with a lock file, and keeps the collection file
// synchronized with the caches.
package daemon
