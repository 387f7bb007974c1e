// Package queryir provides a small query representation for selecting
// recorded runs.
//
// A Query is a conjunction of predicates over the columns of the runs table
// plus an optional limit. It sits between callers that filter run history
// (the history and replay commands, the Runner's replay) and the SQL backend
// in package querysql:
//
//	[CLI flags / Runner] → [queryir.Query] → [querysql] → SQLite
//
// SEALED INTERFACES:
//
// Predicate is a sealed interface using the marker method pattern. Only
// types in this package implement it, so backends can switch over the
// predicate types exhaustively.
//
// Predicate types:
//   - Equals: column = literal
//   - Failed: the run did or did not end in an error
//   - And: all predicates must hold
//
// Values are never interpolated into SQL. Backends bind them as parameters.
//
// ORDERING:
//
// Every query orders runs by seq with the run ID as a tiebreaker, so the
// same store always yields the same sequence.
package queryir
