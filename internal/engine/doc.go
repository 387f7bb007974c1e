// Package engine evaluates programs forward and inverts them.
//
// Evaluate binds the program's inputs, constvars and literals and applies
// each instruction's forward function in program order. It never consults
// the inverse registry.
//
// Invert binds the sole output of a single-input, single-output program and
// walks the instructions in reverse, applying each operation's registered
// inverse to recover the input. Every operation is looked up before the walk
// starts, so a missing inverse fails the whole call with no partial result.
//
// Both are synchronous pure functions over an immutable *ir.Program and may
// run concurrently against one registry.
//
// Runner wraps the evaluators with a logical Clock, a run token generator and
// an optional store, and records every call as an ir.Run.
package engine
