// Package store provides a SQLite-backed catalog of compiled queries.
//
// Each entry records one compilation tree under its content hash, together
// with the session that produced it, the rendered display form, and the
// parameters in order of first appearance.
//
// # Invariants
//
// Content Identity
//   - The primary key is queryir.CompilationID of the stored tree
//   - Writing an equal tree twice keeps the first entry
//
// Deterministic Listing
//   - All listings ORDER BY seq ASC, id ASC COLLATE BINARY
//
// Canonical Storage
//   - Trees are stored as RFC 8785 canonical JSON
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
