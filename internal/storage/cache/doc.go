// Package cache provides byte-oriented key/value caches with per-entry TTL.
//
// Backends:
//
//   - Memory: bounded in-process LRU
//   - Redis: shared cache through go-redis, using native key expiry
//   - Badger: embedded on-disk (or in-memory) store with entry TTLs
//
// Any backend can be wrapped with Sealed, which encrypts values with an
// AEAD bound to the entry key.
package cache
