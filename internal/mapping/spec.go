package mapping

import (
	"go/token"

	"automap-generator/internal/analyze"
)

// FieldMapping is an explicit override for one destination field.
type FieldMapping struct {
	// Destination is the destination field name.
	Destination string
	// Expression is the normalized expression (IsBlock false), the
	// normalized block body (IsBlock true) or the name of a referenced
	// function (Call true).
	Expression string
	// IsAsync is set for ForFieldAsync overrides.
	IsAsync bool
	// IsBlock is set when the expression is a statement block.
	IsBlock bool
	// UsesSource is set when the expression references the source value.
	UsesSource bool
	// Call is set when Expression names a package-level function.
	Call bool
	// Assert is set when the referenced function result needs a type
	// assertion to the destination field type.
	Assert bool
	// Placeholder is set when the expression could not be carried over and
	// the field gets its zero value instead.
	Placeholder bool
	// FreeNames are the package-level identifiers Expression uses
	// unqualified. Generated locals must not shadow them.
	FreeNames []string
	// Pos is the position of the override call.
	Pos token.Pos
}

// MappingSpec is everything declared for one (source, destination) pair.
type MappingSpec struct {
	Source *analyze.TypeInfo
	Dest   *analyze.TypeInfo
	// FieldMappings are kept in declaration order.
	FieldMappings []FieldMapping
	HasReverse    bool
	// SourceFileImports are the import specs of the file declaring the
	// mapping, e.g. `"strings"` or `str "strings"`.
	SourceFileImports []string
	// Profile is the profile type declaring the mapping.
	Profile analyze.TypeID
	// Pos is the position of the Map call.
	Pos token.Pos
}

// Key identifies a mapping by its type pair.
type Key struct {
	Source analyze.TypeID
	Dest   analyze.TypeID
}

// String returns "source->dest".
func (k Key) String() string {
	return k.Source.Short() + "->" + k.Dest.Short()
}

// Key returns the spec's type pair.
func (s *MappingSpec) Key() Key {
	return Key{Source: s.Source.ID, Dest: s.Dest.ID}
}

// TypePair returns a readable label for diagnostics.
func (s *MappingSpec) TypePair() string {
	return s.Key().String()
}

// IsSelf reports whether source and destination are the same type.
func (s *MappingSpec) IsSelf() bool {
	return s.Source.ID == s.Dest.ID
}

// FieldMapping returns the override for a destination field.
func (s *MappingSpec) FieldMapping(dest string) (*FieldMapping, bool) {
	for i := range s.FieldMappings {
		if s.FieldMappings[i].Destination == dest {
			return &s.FieldMappings[i], true
		}
	}

	return nil, false
}

// HasAsyncOverride reports whether any override is asynchronous.
func (s *MappingSpec) HasAsyncOverride() bool {
	for _, fm := range s.FieldMappings {
		if fm.IsAsync {
			return true
		}
	}

	return false
}
