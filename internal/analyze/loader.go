package analyze

import (
	"context"
	"fmt"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"sort"

	"golang.org/x/tools/go/packages"
)

// DefaultMarkerPath is the import path of the marker package.
const DefaultMarkerPath = "automap-generator/automap"

// LoadMode specifies what information to load from packages.
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedImports |
	packages.NeedDeps |
	packages.NeedModule

// ReadFileFunc returns the contents of a source file.
type ReadFileFunc func(filename string) ([]byte, error)

// Analyzer loads Go packages and builds a type graph.
type Analyzer struct {
	graph      *TypeGraph
	typeCache  map[types.Type]*TypeInfo // Cache to handle recursive types
	dir        string
	buildFlags []string
	loadErrors []packages.Error
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer() *Analyzer {
	a := &Analyzer{
		graph:     NewTypeGraph(),
		typeCache: make(map[types.Type]*TypeInfo),
	}
	a.graph.analyzer = a

	return a
}

// SetDir sets the directory package patterns are resolved from.
func (a *Analyzer) SetDir(dir string) {
	a.dir = dir
}

// SetBuildFlags sets extra flags passed to the build system (e.g. -tags).
func (a *Analyzer) SetBuildFlags(flags ...string) {
	a.buildFlags = flags
}

// SetMarkerPath overrides the import path of the marker package.
func (a *Analyzer) SetMarkerPath(path string) {
	if path != "" {
		a.graph.MarkerPath = path
	}
}

// LoadErrors returns the package errors reported while loading. They do not
// abort a load: declarations with broken type information are reported
// individually later on.
func (a *Analyzer) LoadErrors() []packages.Error {
	return a.loadErrors
}

// LoadPackages loads the specified packages and builds the type graph.
// Patterns are standard Go package patterns (e.g., "./store", "automap-generator/warehouse").
func (a *Analyzer) LoadPackages(ctx context.Context, patterns ...string) (*TypeGraph, error) {
	cfg := &packages.Config{
		Context:    ctx,
		Mode:       LoadMode,
		Dir:        a.dir,
		BuildFlags: a.buildFlags,
		Fset:       a.graph.Fset,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages matched %v", patterns)
	}

	if err := a.AddPackages(pkgs, os.ReadFile); err != nil {
		return nil, err
	}

	return a.graph, nil
}

// AddPackages adds already loaded packages and their dependencies to the
// graph. The given packages become root packages; readFile supplies their
// source bytes.
func (a *Analyzer) AddPackages(roots []*packages.Package, readFile ReadFileFunc) error {
	if len(roots) > 0 && roots[0].Fset != nil {
		a.graph.Fset = roots[0].Fset
	}

	isRoot := make(map[*packages.Package]bool, len(roots))
	for _, pkg := range roots {
		isRoot[pkg] = true
	}

	var visitErr error

	packages.Visit(roots, nil, func(pkg *packages.Package) {
		a.loadErrors = append(a.loadErrors, pkg.Errors...)

		if visitErr != nil {
			return
		}

		if err := a.processPackage(pkg, isRoot[pkg], readFile); err != nil {
			visitErr = fmt.Errorf("failed to process package %s: %w", pkg.PkgPath, err)
		}
	})

	return visitErr
}

// Graph returns the current type graph.
func (a *Analyzer) Graph() *TypeGraph {
	return a.graph
}

// processPackage registers a loaded package. Type declarations are only
// walked for root packages; types from dependencies enter the graph when
// something refers to them.
func (a *Analyzer) processPackage(pkg *packages.Package, root bool, readFile ReadFileFunc) error {
	pkgInfo := &PackageInfo{
		Path:      pkg.PkgPath,
		Name:      pkg.Name,
		Root:      root,
		TypesPkg:  pkg.Types,
		TypesInfo: pkg.TypesInfo,
	}

	if len(pkg.GoFiles) > 0 {
		pkgInfo.Dir = filepath.Dir(pkg.GoFiles[0])
	}

	if pkg.Module != nil {
		pkgInfo.Module = pkg.Module.Path
	}

	a.graph.Packages[pkg.PkgPath] = pkgInfo

	if !root || pkg.Types == nil {
		return nil
	}

	for _, file := range pkg.Syntax {
		name := a.graph.Fset.Position(file.Package).Filename

		src, err := readFile(name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}

		pkgInfo.Files = append(pkgInfo.Files, &FileInfo{Path: name, Syntax: file, Src: src})

		if pkgInfo.Dir == "" {
			pkgInfo.Dir = filepath.Dir(name)
		}
	}

	sort.Slice(pkgInfo.Files, func(i, j int) bool {
		return pkgInfo.Files[i].Path < pkgInfo.Files[j].Path
	})

	scope := pkg.Types.Scope()
	for _, name := range scope.Names() {
		// Only process type names (not variables, constants, functions)
		typeName, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || typeName.IsAlias() {
			continue
		}

		typeID := TypeID{
			PkgPath: pkg.PkgPath,
			Name:    name,
		}

		typeInfo := a.analyzeType(typeName.Type())
		typeInfo.ID = typeID

		a.graph.Types[typeID] = typeInfo
		pkgInfo.Types = append(pkgInfo.Types, typeID)
	}

	return nil
}

// analyzeType recursively analyzes a go/types.Type and returns a TypeInfo.
func (a *Analyzer) analyzeType(t types.Type) *TypeInfo {
	t = types.Unalias(t)

	// Check cache to handle recursive types
	if cached, ok := a.typeCache[t]; ok {
		return cached
	}

	info := &TypeInfo{
		GoType: t,
	}

	// Pre-cache to handle recursive types (we'll fill in details)
	a.typeCache[t] = info

	switch tt := t.(type) {
	case *types.Named:
		a.analyzeNamedType(tt, info)

	case *types.Basic:
		info.Kind = TypeKindBasic

	case *types.Pointer:
		info.Kind = TypeKindPointer
		info.ElemType = a.analyzeType(tt.Elem())

	case *types.Slice:
		info.Kind = TypeKindSlice
		info.ElemType = a.analyzeType(tt.Elem())

	case *types.Array:
		info.Kind = TypeKindArray
		info.Len = tt.Len()
		info.ElemType = a.analyzeType(tt.Elem())

	case *types.Map:
		info.Kind = TypeKindMap
		info.ElemType = a.analyzeType(tt.Elem())

	case *types.Interface:
		info.Kind = TypeKindInterface

	case *types.Struct:
		info.Kind = TypeKindStruct
		a.analyzeStructFields(tt, info)

	default:
		// Channels, functions, type parameters, etc. are unsupported
		info.Kind = TypeKindUnknown
	}

	return info
}

// analyzeNamedType analyzes a named type.
func (a *Analyzer) analyzeNamedType(named *types.Named, info *TypeInfo) {
	obj := named.Obj()
	if obj.Pkg() == nil {
		// Universe types such as error
		info.ID = TypeID{Name: obj.Name()}
		info.Kind = TypeKindInterface

		return
	}

	info.ID = TypeID{
		PkgPath: obj.Pkg().Path(),
		Name:    obj.Name(),
	}
	info.Pos = obj.Pos()

	if elem, ok := seqElem(named); ok {
		info.Kind = TypeKindSeq
		info.ElemType = a.analyzeType(elem)

		return
	}

	// Instances of generic types share a name; only the origin is indexed.
	if named.TypeArgs().Len() == 0 {
		if _, exists := a.graph.Types[info.ID]; !exists {
			a.graph.Types[info.ID] = info
		}
	}

	underlying := named.Underlying()

	switch ut := underlying.(type) {
	case *types.Struct:
		info.Kind = TypeKindStruct
		a.analyzeStructFields(ut, info)

	case *types.Basic:
		// Named basic type (e.g., type OrderStatus string)
		info.Kind = TypeKindAlias
		info.Underlying = a.analyzeType(ut)

	case *types.Interface:
		info.Kind = TypeKindInterface

	default:
		if a.isExternalPackage(obj.Pkg().Path()) {
			info.Kind = TypeKindExternal
		} else {
			info.Kind = TypeKindAlias
			info.Underlying = a.analyzeType(ut)
		}
	}
}

// seqElem returns the element type of an iter.Seq instance.
func seqElem(named *types.Named) (types.Type, bool) {
	obj := named.Obj()
	if obj.Pkg() == nil || obj.Pkg().Path() != "iter" || obj.Name() != "Seq" {
		return nil, false
	}

	if named.TypeArgs().Len() != 1 {
		return nil, false
	}

	return named.TypeArgs().At(0), true
}

// isExternalPackage returns true if the package is not one of the root packages.
func (a *Analyzer) isExternalPackage(pkgPath string) bool {
	p, ok := a.graph.Packages[pkgPath]
	return !ok || !p.Root
}

// analyzeStructFields extracts the exported fields of a struct type.
// Fields promoted through value-embedded structs are included at the
// position of their embedding, following Go's selector depth rules.
func (a *Analyzer) analyzeStructFields(st *types.Struct, info *TypeInfo) {
	visible := visibleFields(st)

	var walk func(s *types.Struct, prefix []int)

	walk = func(s *types.Struct, prefix []int) {
		for i := 0; i < s.NumFields(); i++ {
			field := s.Field(i)
			index := appendIndex(prefix, i)

			if field.Embedded() {
				if len(prefix) == 0 {
					if base := a.analyzeType(embeddedNamed(field.Type())); base.IsNamed() {
						info.Bases = append(info.Bases, base.ID)
					}
				}

				if inner := embeddedStruct(field.Type()); inner != nil {
					walk(inner, index)
				}

				continue
			}

			if !field.Exported() || !slices.Equal(visible[field.Name()], index) {
				continue
			}

			info.Fields = append(info.Fields, FieldInfo{
				Name:     field.Name(),
				Exported: true,
				Type:     a.analyzeType(field.Type()),
				Tag:      reflect.StructTag(s.Tag(i)),
				Index:    index,
				Pos:      field.Pos(),
			})
		}
	}
	walk(st, nil)
}

// visibleFields maps every field name selectable on st to its index path.
// Names that are ambiguous at their shallowest depth are left out.
func visibleFields(st *types.Struct) map[string][]int {
	type level struct {
		st     *types.Struct
		prefix []int
	}

	visible := make(map[string][]int)
	blocked := make(map[string]bool)
	current := []level{{st: st}}

	for len(current) > 0 {
		found := make(map[string][][]int)

		var next []level

		for _, l := range current {
			for i := 0; i < l.st.NumFields(); i++ {
				field := l.st.Field(i)
				index := appendIndex(l.prefix, i)
				found[field.Name()] = append(found[field.Name()], index)

				if field.Embedded() {
					if inner := embeddedStruct(field.Type()); inner != nil {
						next = append(next, level{st: inner, prefix: index})
					}
				}
			}
		}

		for name, indexes := range found {
			if blocked[name] || visible[name] != nil {
				continue
			}

			if len(indexes) > 1 {
				blocked[name] = true
				continue
			}

			visible[name] = indexes[0]
		}

		current = next
	}

	return visible
}

func appendIndex(prefix []int, i int) []int {
	index := make([]int, len(prefix)+1)
	copy(index, prefix)
	index[len(prefix)] = i

	return index
}

// embeddedNamed strips the pointer from an embedded field type.
func embeddedNamed(t types.Type) types.Type {
	if ptr, ok := types.Unalias(t).(*types.Pointer); ok {
		return ptr.Elem()
	}

	return t
}

// embeddedStruct returns the struct promoted through a value embedding.
func embeddedStruct(t types.Type) *types.Struct {
	if _, isPtr := types.Unalias(t).(*types.Pointer); isPtr {
		return nil
	}

	st, _ := t.Underlying().(*types.Struct)

	return st
}

// Describe returns the TypeInfo for an arbitrary go/types type, analyzing it
// on first use.
func (g *TypeGraph) Describe(t types.Type) *TypeInfo {
	if g.analyzer == nil {
		g.analyzer = &Analyzer{graph: g, typeCache: make(map[types.Type]*TypeInfo)}
	}

	return g.analyzer.analyzeType(t)
}

// HasMarker reports whether the marker package is part of the compilation.
func (g *TypeGraph) HasMarker() bool {
	_, ok := g.Packages[g.MarkerPath]
	return ok
}

// Package returns the package info for a path.
func (g *TypeGraph) Package(path string) *PackageInfo {
	return g.Packages[path]
}

// FileOf returns the root package file that contains pos.
func (g *TypeGraph) FileOf(pos token.Pos) (*PackageInfo, *FileInfo) {
	name := g.Position(pos).Filename
	if name == "" {
		return nil, nil
	}

	for _, p := range g.RootPackages() {
		for _, f := range p.Files {
			if f.Path == name {
				return p, f
			}
		}
	}

	return nil, nil
}

func sortPackages(pkgs []*PackageInfo) {
	sort.Slice(pkgs, func(i, j int) bool {
		return pkgs[i].Path < pkgs[j].Path
	})
}
