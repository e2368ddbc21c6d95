// Package cache implements the TTL response cache used by the platform client.
//
// Entries expire after a configurable TTL and the total byte footprint is
// bounded: when the ceiling is exceeded, least recently used entries are
// evicted until usage drops to 80% of the ceiling. Keys carry a scope prefix
// so that a write to one entity type can drop every cached read for that type
// in one call (coarse invalidation, stale reads after a write are unacceptable).
package cache
