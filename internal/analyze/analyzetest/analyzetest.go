// Package analyzetest builds type graphs from in-memory sources so tests can
// exercise extraction and synthesis without invoking the go command.
package analyzetest

import (
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"

	"automap-generator/internal/analyze"
)

// Root is the directory prefix of every in-memory file.
const Root = "/virtual"

// Package is one in-memory package.
type Package struct {
	Path   string            // Import path
	Module string            // Module path, optional
	Files  map[string]string // File name to source
}

// Load type-checks pkgs and returns a graph in which they are the root
// packages. Imports of analyze.DefaultMarkerPath resolve to the real marker
// package sources; other imports fall back to the standard library.
// Type errors do not fail the load; they are available through the returned
// analyzer's LoadErrors.
func Load(t testing.TB, pkgs ...Package) (*analyze.TypeGraph, *analyze.Analyzer) {
	t.Helper()

	l := &loader{
		fset:    token.NewFileSet(),
		sources: make(map[string]Package),
		loaded:  make(map[string]*packages.Package),
		files:   make(map[string][]byte),
	}
	l.std = importer.ForCompiler(l.fset, "gc", nil)

	marker, err := markerPackage()
	if err != nil {
		t.Fatalf("read marker package: %v", err)
	}

	l.sources[marker.Path] = marker

	var roots []*packages.Package

	for _, p := range pkgs {
		l.sources[p.Path] = p
	}

	for _, p := range pkgs {
		pkg, err := l.load(p.Path)
		if err != nil {
			t.Fatalf("load %s: %v", p.Path, err)
		}

		roots = append(roots, pkg)
	}

	a := analyze.NewAnalyzer()
	if err := a.AddPackages(roots, l.readFile); err != nil {
		t.Fatalf("add packages: %v", err)
	}

	return a.Graph(), a
}

// Single is a shortcut for a graph with one root package.
func Single(t testing.TB, pkgPath, src string) *analyze.TypeGraph {
	t.Helper()

	g, _ := Load(t, Package{Path: pkgPath, Files: map[string]string{"profile.go": src}})

	return g
}

type loader struct {
	fset    *token.FileSet
	std     types.Importer
	sources map[string]Package
	loaded  map[string]*packages.Package
	files   map[string][]byte
}

func (l *loader) readFile(name string) ([]byte, error) {
	src, ok := l.files[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, os.ErrNotExist)
	}

	return src, nil
}

// Import implements types.Importer.
func (l *loader) Import(importPath string) (*types.Package, error) {
	if _, ok := l.sources[importPath]; ok {
		pkg, err := l.load(importPath)
		if err != nil {
			return nil, err
		}

		return pkg.Types, nil
	}

	return l.std.Import(importPath)
}

func (l *loader) load(importPath string) (*packages.Package, error) {
	if pkg, ok := l.loaded[importPath]; ok {
		if pkg.Types == nil {
			return nil, fmt.Errorf("import cycle through %s", importPath)
		}

		return pkg, nil
	}

	src := l.sources[importPath]
	pkg := &packages.Package{
		ID:      importPath,
		PkgPath: importPath,
		Fset:    l.fset,
		Imports: make(map[string]*packages.Package),
	}
	l.loaded[importPath] = pkg

	if src.Module != "" {
		pkg.Module = &packages.Module{Path: src.Module}
	}

	names := make([]string, 0, len(src.Files))
	for name := range src.Files {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		filename := path.Join(Root, importPath, name)
		l.files[filename] = []byte(src.Files[name])

		file, err := parser.ParseFile(l.fset, filename, src.Files[name], parser.ParseComments)
		if err != nil {
			return nil, err
		}

		pkg.GoFiles = append(pkg.GoFiles, filename)
		pkg.CompiledGoFiles = append(pkg.CompiledGoFiles, filename)
		pkg.Syntax = append(pkg.Syntax, file)
		pkg.Name = file.Name.Name
	}

	for _, file := range pkg.Syntax {
		for _, spec := range file.Imports {
			p := strings.Trim(spec.Path.Value, `"`)
			if _, ok := l.sources[p]; !ok {
				continue
			}

			dep, err := l.load(p)
			if err != nil {
				return nil, err
			}

			pkg.Imports[p] = dep
		}
	}

	info := &types.Info{
		Types:        make(map[ast.Expr]types.TypeAndValue),
		Instances:    make(map[*ast.Ident]types.Instance),
		Defs:         make(map[*ast.Ident]types.Object),
		Uses:         make(map[*ast.Ident]types.Object),
		Implicits:    make(map[ast.Node]types.Object),
		Selections:   make(map[*ast.SelectorExpr]*types.Selection),
		Scopes:       make(map[ast.Node]*types.Scope),
		FileVersions: make(map[*ast.File]string),
	}

	conf := types.Config{
		Importer: l,
		Error: func(err error) {
			pkg.Errors = append(pkg.Errors, packages.Error{Msg: err.Error(), Kind: packages.TypeError})
		},
	}

	// Errors are collected through conf.Error; a partially checked package is
	// still returned.
	typesPkg, _ := conf.Check(importPath, l.fset, pkg.Syntax, info)
	pkg.Types = typesPkg
	pkg.TypesInfo = info

	return pkg, nil
}

// markerPackage reads the marker package sources from the repository.
func markerPackage() (Package, error) {
	_, self, _, ok := runtime.Caller(0)
	if !ok {
		return Package{}, fmt.Errorf("cannot locate analyzetest sources")
	}

	dir := filepath.Join(filepath.Dir(self), "..", "..", "..", "automap")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return Package{}, err
	}

	p := Package{Path: analyze.DefaultMarkerPath, Files: make(map[string]string)}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}

		src, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return Package{}, err
		}

		p.Files[name] = string(src)
	}

	return p, nil
}
