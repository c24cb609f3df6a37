// Package match ranks identifiers by similarity.
//
// It backs the "did you mean" hints attached to diagnostics when a field
// override names a destination field that does not exist. Names are
// tokenized on CamelCase boundaries and case folded before an edit
// distance is computed, so both fullname and full_name rank FullName first.
package match
