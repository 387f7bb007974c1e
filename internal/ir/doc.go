// Package ir provides the program representation shared by the tracer,
// the evaluators, the compiler and the run store.
//
// This package contains type definitions, validation and canonical encoding
// only. All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Programs are straight-line, single static assignment: every variable is
//     written exactly once and read only after it is written
//   - Programs are immutable once built; evaluators keep their own environment
//   - Operations are identified by a stable enumerated OpID, never by name lookup
//     at evaluation time
//   - All JSON tags use snake_case
package ir
