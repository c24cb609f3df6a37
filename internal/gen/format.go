package gen

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/tools/go/ast/astutil"

	"automap-generator/internal/common"
)

// formatFile drops imports the rendered code does not use and gofmt's it.
func formatFile(filename string, src []byte) ([]byte, error) {
	fset := token.NewFileSet()

	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	pruneImports(fset, file)

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, file); err != nil {
		return nil, err
	}

	return format.Source(buf.Bytes())
}

// pruneImports removes imports whose name is never used as a qualifier.
// Blank imports are removed too; dot imports are kept.
func pruneImports(fset *token.FileSet, file *ast.File) {
	used := make(map[string]bool)

	ast.Inspect(file, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}

		// Unresolved identifiers are package names.
		if id, ok := sel.X.(*ast.Ident); ok && id.Obj == nil {
			used[id.Name] = true
		}

		return true
	})

	for _, imp := range append([]*ast.ImportSpec(nil), file.Imports...) {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}

		var alias, name string
		if imp.Name != nil {
			alias = imp.Name.Name
			name = alias
		} else {
			name = common.PkgAlias(path)
		}

		if name == "." || (name != "_" && used[name]) {
			continue
		}

		astutil.DeleteNamedImport(fset, file, alias, path)
	}
}

// writeDebugUnformatted writes unformatted code to a sidecar file so the
// broken output can be inspected.
func writeDebugUnformatted(outDir, filename string, content []byte) error {
	if outDir == "" || filename == "" {
		return nil
	}

	if err := os.MkdirAll(outDir, dirPerm); err != nil {
		return fmt.Errorf("creating debug directory: %w", err)
	}

	debugName := strings.TrimSuffix(filename, ".go") + ".unformatted.go"

	return os.WriteFile(filepath.Join(outDir, debugName), content, filePerm)
}
