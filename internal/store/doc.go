// Package store provides the SQLite compilation registry.
//
// Each successful compilation that writes artifacts is recorded with its
// source and IR hashes, the job it produced and the artifacts in its
// manifest. Recording is idempotent on (source_hash, ir_hash): compiling
// unchanged source again returns the existing entry.
//
// # Ordering
//
// Entries carry a logical sequence number assigned at insert time. All
// listings are ORDER BY seq ASC, id COLLATE BINARY ASC; wall-clock time
// is never used for ordering.
//
// # Schema
//
// schema.sql holds the base tables; later changes are appended to the
// migrations list and tracked with PRAGMA user_version. Open refuses a
// registry written by a newer hpmc.
package store
