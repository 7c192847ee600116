// Package store keeps a SQLite log of engine runs.
//
// Each run records the content hashes of its template and rows, the value
// columns, locale and parameters it was built with, and either its findings
// or its error code. Runs are ordered by seq, a logical clock resumed from
// the log on open, never by wall time. Queries return runs ordered by
// seq ASC, id ASC COLLATE BINARY.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Hashes are computed by internal/ir/hash.go over canonical JSON with
// SHA-256 and domain separation.
package store
