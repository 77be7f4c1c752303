// Package cache keeps one tagger source per owner and feature key.
//
// The first request for a (owner, key) pair constructs the source through
// a caller-supplied constructor and stores it in a table keyed by owner
// identity. Later requests get the stored source back without
// construction. When the owner closes, every source stored for it is
// removed and disposed exactly once.
//
// Failed constructions are never stored, so a later request retries.
// Concurrent misses for the same pair share a single construction.
//
// Host owners are expected to have single-thread affinity, as editor views
// and buffers usually do. The cache still locks its table so that
// different features may use the same owner from any goroutine.
package cache
