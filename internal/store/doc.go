// Package store provides SQLite-backed storage for engine protocol transcripts.
//
// A transcript is the append-only record of every line a session exchanged
// with its engine:
//   - out: commands the session sent
//   - in:  lines the engine produced
//   - err: transport faults reported while reading
//
// Entries are keyed by (session_id, seq), where seq comes from the session's
// logical clock. Reads are always ordered by seq, never by wall time, so a
// transcript reads back in exactly the order the session observed it.
//
// Transcripts are diagnostics for a running or just-finished session. They
// are not an analysis history and nothing reads results back out of them.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
