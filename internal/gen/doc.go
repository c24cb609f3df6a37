// Package gen provides deterministic Go code generation for mapping
// functions.
//
// Generation approach uses text/template + go/format: every field
// assignment and helper is rendered as a text fragment, the fragments are
// joined once by the file template, unused imports are pruned and the
// result is gofmt'ed.
//
// Codegen patterns:
//   - Direct assignment of identical types
//   - Inline override expressions
//   - Private helpers for block and asynchronous overrides
//   - Nested struct calls (composed generated methods), nil-propagating
//     for pointers
//   - Slice and array transforms (make, loop, per-element conversion)
//   - Lazy iter.Seq transforms
//
// Every mapping becomes a method on the source type, written to
// <Source>_To_<Dest>.g.go in the source type's package directory.
package gen
