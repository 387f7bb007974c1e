// Package ops holds the elementary operations a program may apply and the
// registry of their analytic inverses.
//
// Forward definitions form a closed table keyed by ir.OpID and are resolved
// once per instruction. They never consult the inverse registry.
//
// The inverse registry maps an operation to a unary function that undoes it.
// A process-wide Default registry is populated at init with the standard
// inverse table; callers that want isolation build their own with
// NewRegistry or NewStandardRegistry and pass it explicitly.
//
// Numeric domain failures (log of a non-positive number, atanh outside
// (-1, 1), ...) are reported as *DomainError by the function that hit them.
package ops
