// Package cache provides a disk-persisted TTL cache for API payloads.
//
// Entries are kept in memory and mirrored to one gob file per key so they
// survive process restarts. An expired or unreadable entry behaves exactly
// like an absent one; callers never see stale payloads past their TTL.
//
// The store deliberately does NOT single-flight concurrent misses for the
// same key: two pollers racing on a cold key may both fetch. See DESIGN.md.
package cache
