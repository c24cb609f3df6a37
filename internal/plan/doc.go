// Package plan resolves every accepted mapping spec into a
// ResolvedMappingPlan consumed by code generation.
//
// Resolution pipeline:
//  1. Name the generated function of every spec (To<Dest>, or
//     To<Pkg><Dest> when two destinations of one source share a name).
//  2. For each destination field, in declaration order:
//     - an explicit override wins (inline, helper, call or placeholder)
//     - without an override and without Reverse the field is left alone
//     - with Reverse the same-name source field is matched: identical
//     types are assigned, registered struct pairs delegate to their
//     generated function, and collections are transformed element-wise
//  3. Iterate until stable: a pair that resolves no field produces no
//     function, so delegations to it are dropped, and a pair delegating to
//     an asynchronous function becomes asynchronous itself.
//  4. Emit GEN010 for reverse-matched fields that cannot be converted.
package plan
