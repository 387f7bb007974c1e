// Package store provides SQLite-backed durable storage for programs and the
// log of their evaluation runs.
//
// The store holds two append-only tables:
//   - programs: content-addressed program bodies, one row per (id, name)
//   - runs: forward evaluations and inversions, with inputs, outputs and
//     the error code of failed runs
//
// # Ordering
//
// All ordering uses seq INTEGER from the engine's logical clock, never
// timestamps. Every multi-row query ends in ORDER BY seq ASC, id COLLATE
// BINARY ASC so listings are identical across processes.
//
// # Idempotency
//
// Writes use ON CONFLICT DO NOTHING. Program IDs come from ir.ProgramID and
// run IDs from ir.RunID, so writing the same record twice is a no-op.
//
// # Database Configuration
//
//   - WAL mode: history and replay read while a Runner writes
//   - synchronous=NORMAL
//   - busy_timeout=5000: wait up to 5 seconds for the writer
//
// Schema changes are applied by numbered migrations tracked in
// PRAGMA user_version.
package store
