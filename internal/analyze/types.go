package analyze

import (
	"go/ast"
	"go/token"
	"go/types"
	"reflect"

	"automap-generator/internal/common"
)

// TypeID uniquely identifies a type by its package path and name.
type TypeID struct {
	PkgPath string // e.g., "automap-generator/store"
	Name    string // e.g., "Order"
}

// String returns a human-readable representation of the TypeID.
func (t TypeID) String() string {
	if t.PkgPath == "" {
		return t.Name
	}

	return t.PkgPath + "." + t.Name
}

// Short returns the type name qualified with the last element of its package path.
func (t TypeID) Short() string {
	if t.PkgPath == "" {
		return t.Name
	}

	return common.PkgAlias(t.PkgPath) + "." + t.Name
}

// TypeKind represents the kind of a type.
type TypeKind int

const (
	TypeKindUnknown   TypeKind = iota
	TypeKindBasic              // int, string, bool, etc.
	TypeKindStruct             // struct type
	TypeKindPointer            // pointer to another type
	TypeKindSlice              // slice of another type
	TypeKindArray              // array of another type
	TypeKindSeq                // iter.Seq of another type
	TypeKindMap                // map type
	TypeKindInterface          // interface type
	TypeKindAlias              // named type wrapping a non-struct type
	TypeKindExternal           // external/opaque type (e.g., time.Time)
)

// String returns a human-readable representation of the TypeKind.
func (k TypeKind) String() string {
	switch k {
	case TypeKindBasic:
		return "basic"
	case TypeKindStruct:
		return "struct"
	case TypeKindPointer:
		return "pointer"
	case TypeKindSlice:
		return "slice"
	case TypeKindArray:
		return "array"
	case TypeKindSeq:
		return "seq"
	case TypeKindMap:
		return "map"
	case TypeKindInterface:
		return "interface"
	case TypeKindAlias:
		return "alias"
	case TypeKindExternal:
		return "external"
	default:
		return common.UnknownStr
	}
}

// TypeInfo describes a Go type in the type graph.
type TypeInfo struct {
	ID         TypeID      // Unique identifier (empty for unnamed types like *T or []T)
	Kind       TypeKind    // Kind of type
	Underlying *TypeInfo   // For named non-struct types, the underlying type
	ElemType   *TypeInfo   // For pointers, slices, arrays and sequences, the element type
	Len        int64       // For arrays, the length
	Fields     []FieldInfo // For structs, exported fields including promoted ones
	Bases      []TypeID    // For structs, the named types embedded by value or pointer
	GoType     types.Type  // The original go/types.Type
	Pos        token.Pos   // Declaration position of named types
}

// IsNamed returns true if this type has a name (TypeID is set).
func (t *TypeInfo) IsNamed() bool {
	return t.ID.Name != ""
}

// IsRecord reports whether t is a struct type.
func (t *TypeInfo) IsRecord() bool {
	return t != nil && t.Kind == TypeKindStruct
}

// IsCollection reports whether t is a slice, array or iter.Seq.
func (t *TypeInfo) IsCollection() bool {
	if t == nil {
		return false
	}

	switch t.Kind {
	case TypeKindSlice, TypeKindArray, TypeKindSeq:
		return true
	default:
		return false
	}
}

// Field returns the field called name.
func (t *TypeInfo) Field(name string) (*FieldInfo, bool) {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i], true
		}
	}

	return nil, false
}

// FieldNames returns the names of all fields in declaration order.
func (t *TypeInfo) FieldNames() []string {
	names := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		names[i] = f.Name
	}

	return names
}

// Implements reports whether t or *t implements iface.
func (t *TypeInfo) Implements(iface *types.Interface) bool {
	if t == nil || t.GoType == nil || iface == nil {
		return false
	}

	if types.Implements(t.GoType, iface) {
		return true
	}

	if _, isPtr := t.GoType.(*types.Pointer); isPtr {
		return false
	}

	return types.Implements(types.NewPointer(t.GoType), iface)
}

// Identical reports whether t and other denote the same Go type.
func (t *TypeInfo) Identical(other *TypeInfo) bool {
	if t == nil || other == nil || t.GoType == nil || other.GoType == nil {
		return false
	}

	return types.Identical(t.GoType, other.GoType)
}

// FieldInfo describes a struct field.
type FieldInfo struct {
	Name     string            // Go field name
	Exported bool              // Whether the field is exported
	Type     *TypeInfo         // Field type
	Tag      reflect.StructTag // Raw struct tag
	Embedded bool              // Whether the field is embedded (anonymous)
	Index    []int             // Field index path, longer than one for promoted fields
	Pos      token.Pos         // Declaration position
}

// JSONName returns the JSON tag name if present, otherwise the field name.
func (f *FieldInfo) JSONName() string {
	if tag := f.Tag.Get("json"); tag != "" && tag != "-" {
		for i := range len(tag) {
			if tag[i] == ',' {
				return tag[:i]
			}
		}

		return tag
	}

	return f.Name
}

// HasTag returns true if the field has the specified tag.
func (f *FieldInfo) HasTag(key string) bool {
	return f.Tag.Get(key) != ""
}

// TypeGraph holds all analyzed types from loaded packages.
type TypeGraph struct {
	// Types maps TypeID to TypeInfo for all named types.
	Types map[TypeID]*TypeInfo
	// Packages maps package paths to their package info.
	Packages map[string]*PackageInfo
	// Fset is shared by every loaded package.
	Fset *token.FileSet
	// MarkerPath is the import path of the marker package.
	MarkerPath string

	analyzer *Analyzer
}

// NewTypeGraph creates a new empty TypeGraph.
func NewTypeGraph() *TypeGraph {
	return &TypeGraph{
		Types:      make(map[TypeID]*TypeInfo),
		Packages:   make(map[string]*PackageInfo),
		Fset:       token.NewFileSet(),
		MarkerPath: DefaultMarkerPath,
	}
}

// GetType returns the TypeInfo for a given TypeID, or nil if not found.
func (g *TypeGraph) GetType(id TypeID) *TypeInfo {
	return g.Types[id]
}

// BaseChain returns every named type embedded in t, transitively, in
// declaration order.
func (g *TypeGraph) BaseChain(t *TypeInfo) []TypeID {
	var (
		chain []TypeID
		seen  = map[TypeID]bool{}
		walk  func(*TypeInfo)
	)

	walk = func(cur *TypeInfo) {
		if cur == nil {
			return
		}

		for _, base := range cur.Bases {
			if seen[base] {
				continue
			}

			seen[base] = true
			chain = append(chain, base)
			walk(g.Types[base])
		}
	}
	walk(t)

	return chain
}

// Position resolves pos against the graph's file set.
func (g *TypeGraph) Position(pos token.Pos) token.Position {
	if g == nil || g.Fset == nil || !pos.IsValid() {
		return token.Position{}
	}

	return g.Fset.Position(pos)
}

// RootPackages returns the packages matched by the load patterns, sorted by path.
func (g *TypeGraph) RootPackages() []*PackageInfo {
	var roots []*PackageInfo

	for _, p := range g.Packages {
		if p.Root {
			roots = append(roots, p)
		}
	}

	sortPackages(roots)

	return roots
}

// PackageInfo holds information about a loaded package.
type PackageInfo struct {
	Path   string   // Import path
	Name   string   // Package name
	Dir    string   // Directory containing the package sources
	Module string   // Path of the containing module, empty when unknown
	Root   bool     // Whether the package matched a load pattern
	Types  []TypeID // Named types defined in this package

	Files     []*FileInfo    // Parsed source files, sorted by name (root packages only)
	TypesPkg  *types.Package // Type-checked package
	TypesInfo *types.Info    // Type information for Files
}

// FileInfo is one parsed source file of a root package.
type FileInfo struct {
	Path   string    // Absolute file name
	Syntax *ast.File // Parsed syntax
	Src    []byte    // Raw source bytes
}

// Text returns the source text between two positions of the file.
func (f *FileInfo) Text(fset *token.FileSet, from, to token.Pos) string {
	tf := fset.File(from)
	if tf == nil || f.Src == nil {
		return ""
	}

	start, end := tf.Offset(from), tf.Offset(to)
	if start < 0 || end > len(f.Src) || start > end {
		return ""
	}

	return string(f.Src[start:end])
}
