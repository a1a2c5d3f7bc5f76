// Package revocation stores the identifiers of tokens that were invalidated
// before their natural expiry.
//
// A record is a jti plus the instant after which it no longer matters. Records
// are written once and never updated. All backends are safe for concurrent
// use and treat a repeated write of the same jti as a successful no-op.
//
// # Backends
//
//   - [MemoryStore]: process-local, ttlcache backed.
//   - [RedisStore]: shared, SET NX with a TTL per record.
//   - [SQLiteStore]: durable single-node table invalidated_tokens.
//   - [MongoStore]: shared document store with a TTL index.
//
// Pruning is optional. [Sweeper] runs a [Pruner] on a cron schedule for the
// backends that do not expire records on their own.
package revocation
