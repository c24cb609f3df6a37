// Package diagnostic provides the structured warnings and errors reported
// while generating mapping code.
//
// Every diagnostic carries a stable code from the GEN001..GEN010 table:
//   - GEN001 marker profile types not found in the compilation
//   - GEN002 unresolvable mapping declaration symbol
//   - GEN003 duplicate (source, destination) mapping
//   - GEN004 mapping declaration without resolvable type arguments
//   - GEN005 field override extraction failure
//   - GEN006 field override with wrong argument count
//   - GEN007 field override without a mapping expression
//   - GEN008 mapping expression without a body
//   - GEN009 mapping expression referencing a member generated code cannot access
//   - GEN010 field skipped because of incompatible item types
//
// Diagnostics are values threaded through each stage of a pass; nothing is
// reported through globals.
package diagnostic
