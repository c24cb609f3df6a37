package analyze

import (
	"strconv"
	"strings"
)

// TypePath builds a readable path string for a field.
// Examples:
//   - "Group" for a type
//   - "Group.Members" for a field
//   - "Group.Members[]" for the elements of a collection field
type TypePath struct {
	parts []string
}

// NewTypePath creates a new TypePath from a root type name.
func NewTypePath(root string) *TypePath {
	return &TypePath{
		parts: []string{root},
	}
}

// Field appends a field name to the path.
func (p *TypePath) Field(name string) *TypePath {
	return &TypePath{
		parts: append(append([]string{}, p.parts...), name),
	}
}

// Elem marks the last element of the path as a collection.
func (p *TypePath) Elem() *TypePath {
	if len(p.parts) == 0 {
		return &TypePath{parts: []string{"[]"}}
	}

	newParts := make([]string, len(p.parts))
	copy(newParts, p.parts)
	newParts[len(newParts)-1] += "[]"

	return &TypePath{parts: newParts}
}

// String returns the full path string.
func (p *TypePath) String() string {
	return strings.Join(p.parts, ".")
}

// TypeStringer renders TypeInfo values for diagnostics.
type TypeStringer struct{}

// NewTypeStringer creates a new TypeStringer.
func NewTypeStringer() *TypeStringer {
	return &TypeStringer{}
}

// TypeString returns a short, human-readable representation of a TypeInfo.
// Named types are qualified with their package name.
func (s *TypeStringer) TypeString(t *TypeInfo) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind {
	case TypeKindPointer:
		return "*" + s.TypeString(t.ElemType)

	case TypeKindSlice:
		return "[]" + s.TypeString(t.ElemType)

	case TypeKindArray:
		return "[" + strconv.FormatInt(t.Len, 10) + "]" + s.TypeString(t.ElemType)

	case TypeKindSeq:
		return "iter.Seq[" + s.TypeString(t.ElemType) + "]"

	case TypeKindBasic:
		return t.GoType.String()
	}

	if t.IsNamed() {
		return t.ID.Short()
	}

	if t.GoType != nil {
		return t.GoType.String()
	}

	return "<unknown>"
}
