package mapping

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/printer"
	"go/token"
	"go/types"
	"regexp"
	"slices"
	"sort"
	"strings"

	"automap-generator/internal/analyze"
	"automap-generator/internal/diagnostic"
)

// Canonical names used by generated code.
const (
	SourceParam  = "source"
	ContextParam = "ctx"
	ZeroResult   = "zero"
	TargetVar    = "out"
	ErrVar       = "err"
)

// reservedNames are declared by every generated method or helper, so an
// expression cannot refer to a package-level identifier spelled the same.
var reservedNames = []string{SourceParam, ContextParam, ZeroResult, TargetVar, ErrVar}

// NormalizeInput describes one override expression.
type NormalizeInput struct {
	// Expr is the override expression: a *ast.FuncLit or a reference to a
	// package-level function.
	Expr  ast.Expr
	Async bool

	Info *types.Info // May be nil when type information is unavailable
	Fset *token.FileSet
	File *analyze.FileInfo

	// ArtifactPkg is the import path of the package receiving the generated code.
	ArtifactPkg string
	// ProfilePkg declares the profile; ProfileType is the profile type and
	// Receiver the receiver variable of its Configure method.
	ProfilePkg  *types.Package
	ProfileType *types.TypeName
	Receiver    types.Object
	// ScopeStart and ScopeEnd delimit the Configure declaration.
	ScopeStart, ScopeEnd token.Pos
}

// Problem is a normalization failure for one expression.
type Problem struct {
	Code    string
	Pos     token.Pos
	Message string
}

// Normalized is an override expression ready to be emitted.
type Normalized struct {
	// Text is the single returned expression, the block body, or the
	// function reference.
	Text        string
	IsBlock     bool
	UsesSource  bool
	UsesContext bool
	// FreeNames are the package-level identifiers the rewritten text refers
	// to without a qualifier, sorted.
	FreeNames []string
	Problems  []Problem
}

// HasProblem reports whether a problem with code was found.
func (n Normalized) HasProblem(code string) bool {
	for _, p := range n.Problems {
		if p.Code == code {
			return true
		}
	}

	return false
}

type edit struct {
	start, end token.Pos
	text       string
}

type normalizer struct {
	in  NormalizeInput
	out Normalized

	sourceObj, ctxObj   types.Object
	sourceName, ctxName string

	edits     []edit
	handled   map[*ast.Ident]bool
	free      map[string]bool
	nilZeroed bool
}

// Normalize rewrites an override expression for the artifact package.
//
// Identifiers are matched by object identity, so a local variable that
// happens to share the parameter's spelling is left alone. Without type
// information the parameter names are replaced textually on word
// boundaries instead.
func Normalize(in NormalizeInput) Normalized {
	n := &normalizer{in: in, handled: make(map[*ast.Ident]bool), free: make(map[string]bool)}
	return n.run()
}

func (n *normalizer) run() Normalized {
	var (
		root     ast.Node = n.in.Expr
		from, to          = n.in.Expr.Pos(), n.in.Expr.End()
	)

	if lit, ok := n.in.Expr.(*ast.FuncLit); ok {
		n.params(lit)

		if expr, single := singleReturn(lit.Body, n.in.Async); single {
			root, from, to = expr, expr.Pos(), expr.End()
		} else {
			n.out.IsBlock = true
			root, from, to = lit.Body, lit.Body.Lbrace+1, lit.Body.Rbrace
			n.rewriteNilReturns(lit.Body)
		}
	}

	if n.in.Info != nil {
		ast.Inspect(root, n.visit)

		if n.nilZeroed {
			n.checkZeroShadow(root)
		}
	}

	text := n.apply(root, from, to)

	if n.sourceName != "" && n.sourceObj == nil {
		text, n.out.UsesSource = replaceWord(text, n.sourceName, SourceParam)
	}

	if n.ctxName != "" && n.ctxObj == nil {
		text, n.out.UsesContext = replaceWord(text, n.ctxName, ContextParam)
	}

	n.out.Text = strings.TrimSpace(text)

	for name := range n.free {
		n.out.FreeNames = append(n.out.FreeNames, name)
	}

	sort.Strings(n.out.FreeNames)

	return n.out
}

// params records the literal's context and source parameters.
func (n *normalizer) params(lit *ast.FuncLit) {
	var names []*ast.Ident

	for _, field := range lit.Type.Params.List {
		if len(field.Names) == 0 {
			names = append(names, nil)
			continue
		}

		names = append(names, field.Names...)
	}

	sourceIdx := 0
	if n.in.Async {
		sourceIdx = 1

		if len(names) > 0 && names[0] != nil && names[0].Name != "_" {
			n.ctxName = names[0].Name
			n.ctxObj = n.def(names[0])
		}
	}

	if len(names) > sourceIdx && names[sourceIdx] != nil && names[sourceIdx].Name != "_" {
		n.sourceName = names[sourceIdx].Name
		n.sourceObj = n.def(names[sourceIdx])
	}
}

func (n *normalizer) def(id *ast.Ident) types.Object {
	if n.in.Info == nil {
		return nil
	}

	return n.in.Info.Defs[id]
}

// singleReturn returns the expression of a body made of one return with
// one result. Asynchronous bodies always become helpers.
func singleReturn(body *ast.BlockStmt, async bool) (ast.Expr, bool) {
	if async || body == nil || len(body.List) != 1 {
		return nil, false
	}

	ret, ok := body.List[0].(*ast.ReturnStmt)
	if !ok || len(ret.Results) != 1 {
		return nil, false
	}

	return ret.Results[0], true
}

// rewriteNilReturns replaces a bare nil first result with the helper's
// named zero result, so `return nil, err` compiles for any field type.
// Nested function literals are left alone.
func (n *normalizer) rewriteNilReturns(body *ast.BlockStmt) {
	ast.Inspect(body, func(node ast.Node) bool {
		switch x := node.(type) {
		case *ast.FuncLit:
			return false
		case *ast.ReturnStmt:
			if len(x.Results) == 0 {
				return true
			}

			if id, ok := x.Results[0].(*ast.Ident); ok && id.Name == "nil" && n.isNil(id) {
				n.handled[id] = true
				n.nilZeroed = true
				n.edits = append(n.edits, edit{start: id.Pos(), end: id.End(), text: ZeroResult})
			}
		}

		return true
	})
}

// checkZeroShadow reports a block declaring its own zero, which would
// capture the rewritten nil returns.
func (n *normalizer) checkZeroShadow(root ast.Node) {
	ast.Inspect(root, func(node ast.Node) bool {
		id, ok := node.(*ast.Ident)
		if ok && id.Name == ZeroResult && n.in.Info.Defs[id] != nil {
			n.problem(diagnostic.CodeFieldExtraction, id.Pos(),
				"block declares %q, which generated code uses for the zero result", ZeroResult)

			return false
		}

		return true
	})
}

func (n *normalizer) isNil(id *ast.Ident) bool {
	if n.in.Info == nil {
		return true
	}

	obj := n.in.Info.Uses[id]

	return obj == nil || obj == types.Universe.Lookup("nil")
}

func (n *normalizer) visit(node ast.Node) bool {
	switch x := node.(type) {
	case *ast.SelectorExpr:
		n.selector(x)
	case *ast.Ident:
		if !n.handled[x] {
			n.ident(x)
		}
	}

	return true
}

func (n *normalizer) selector(sel *ast.SelectorExpr) {
	id, ok := sel.X.(*ast.Ident)
	if !ok {
		return
	}

	obj := n.in.Info.Uses[id]
	if obj == nil {
		return
	}

	if pkgName, ok := obj.(*types.PkgName); ok {
		n.handled[id] = true
		n.handled[sel.Sel] = true

		if pkgName.Imported().Path() == n.in.ArtifactPkg {
			n.edits = append(n.edits, edit{start: id.Pos(), end: sel.Sel.Pos()})
			n.freeName(sel.Sel)

			return
		}

		n.freeName(id)

		return
	}

	if n.in.Receiver == nil || obj != n.in.Receiver {
		return
	}

	n.handled[id] = true
	n.handled[sel.Sel] = true

	if selection := n.in.Info.Selections[sel]; selection != nil && selection.Kind() == types.FieldVal {
		n.problem(diagnostic.CodeFieldExtraction, sel.Pos(),
			"expression reads profile field %s.%s, which does not exist at generation time", id.Name, sel.Sel.Name)

		return
	}

	if value, ok := n.profileValue(sel.Pos(), true); ok {
		n.edits = append(n.edits, edit{start: id.Pos(), end: id.End(), text: value})
	}
}

func (n *normalizer) ident(id *ast.Ident) {
	obj := n.in.Info.Uses[id]
	if obj == nil {
		return
	}

	switch {
	case n.sourceObj != nil && obj == n.sourceObj:
		n.out.UsesSource = true
		n.rename(id, SourceParam)

	case n.ctxObj != nil && obj == n.ctxObj:
		n.out.UsesContext = true
		n.rename(id, ContextParam)

	case n.in.Receiver != nil && obj == n.in.Receiver:
		_, isPtr := obj.Type().(*types.Pointer)
		if value, ok := n.profileValue(id.Pos(), isPtr); ok {
			n.edits = append(n.edits, edit{start: id.Pos(), end: id.End(), text: value})
		}

	case n.captured(obj):
		n.problem(diagnostic.CodeFieldExtraction, id.Pos(),
			"expression captures %q declared in Configure", id.Name)

	case n.profileLevel(obj) && !n.sameArtifactPkg():
		n.crossPackage(id.Pos(), id.Name)

	case n.outside(obj):
		n.freeName(id)
	}
}

// crossPackage reports a reference into a profile package other than the
// artifact package. The profile package imports the artifact package, so
// generated code cannot import it back.
func (n *normalizer) crossPackage(pos token.Pos, name string) {
	n.problem(diagnostic.CodeInaccessibleMember, pos,
		"expression references %s of profile package %s, which generated code in package %s cannot import",
		name, n.in.ProfilePkg.Path(), n.in.ArtifactPkg)
}

// outside reports whether obj is a package or file level object declared
// outside the expression.
func (n *normalizer) outside(obj types.Object) bool {
	if obj.Parent() == nil || obj.Parent() == types.Universe {
		return false
	}

	pos := obj.Pos()

	return pos < n.in.Expr.Pos() || pos >= n.in.Expr.End()
}

// freeName records an unqualified package-level reference and rejects the
// names generated code declares locally.
func (n *normalizer) freeName(id *ast.Ident) {
	if slices.Contains(reservedNames, id.Name) {
		n.problem(diagnostic.CodeFieldExtraction, id.Pos(),
			"expression refers to package-level %q, which generated code declares as a local", id.Name)

		return
	}

	n.free[id.Name] = true
}

func (n *normalizer) rename(id *ast.Ident, name string) {
	if id.Name != name {
		n.edits = append(n.edits, edit{start: id.Pos(), end: id.End(), text: name})
	}
}

// captured reports whether obj is local to Configure but declared outside
// the expression itself.
func (n *normalizer) captured(obj types.Object) bool {
	if _, isPkg := obj.(*types.PkgName); isPkg || obj.Parent() == nil {
		return false
	}

	pos := obj.Pos()
	if !pos.IsValid() || pos < n.in.ScopeStart || pos >= n.in.ScopeEnd {
		return false
	}

	return pos < n.in.Expr.Pos() || pos >= n.in.Expr.End()
}

func (n *normalizer) profileLevel(obj types.Object) bool {
	return n.in.ProfilePkg != nil && obj.Pkg() == n.in.ProfilePkg && obj.Parent() == n.in.ProfilePkg.Scope()
}

func (n *normalizer) sameArtifactPkg() bool {
	return n.in.ProfilePkg == nil || n.in.ProfilePkg.Path() == n.in.ArtifactPkg
}

// profileValue returns a zero value of the profile type standing in for the
// Configure receiver.
func (n *normalizer) profileValue(pos token.Pos, pointer bool) (string, bool) {
	if n.in.ProfileType == nil {
		return "", false
	}

	name := n.in.ProfileType.Name()

	if !n.sameArtifactPkg() {
		n.crossPackage(pos, "profile "+name)
		return "", false
	}

	n.free[name] = true

	if pointer {
		return "(&" + name + "{})", true
	}

	return "(" + name + "{})", true
}

func (n *normalizer) problem(code string, pos token.Pos, format string, args ...any) {
	n.out.Problems = append(n.out.Problems, Problem{Code: code, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// apply renders the source between from and to with all edits applied.
func (n *normalizer) apply(root ast.Node, from, to token.Pos) string {
	if n.in.File == nil || n.in.File.Src == nil || n.in.Fset == nil {
		return nodeText(n.in.Fset, root)
	}

	tf := n.in.Fset.File(from)
	if tf == nil {
		return nodeText(n.in.Fset, root)
	}

	src := n.in.File.Src
	base, end := tf.Offset(from), tf.Offset(to)

	sort.SliceStable(n.edits, func(i, j int) bool {
		return n.edits[i].start < n.edits[j].start
	})

	var (
		b      strings.Builder
		cursor = base
	)

	for _, e := range n.edits {
		start, stop := tf.Offset(e.start), tf.Offset(e.end)
		if start < cursor || stop > end {
			continue
		}

		b.Write(src[cursor:start])
		b.WriteString(e.text)
		cursor = stop
	}

	b.Write(src[cursor:end])

	return b.String()
}

func nodeText(fset *token.FileSet, node ast.Node) string {
	if fset == nil {
		fset = token.NewFileSet()
	}

	if block, ok := node.(*ast.BlockStmt); ok {
		var parts []string
		for _, stmt := range block.List {
			parts = append(parts, nodeText(fset, stmt))
		}

		return strings.Join(parts, "\n")
	}

	var buf bytes.Buffer
	if err := printer.Fprint(&buf, fset, node); err != nil {
		return ""
	}

	return buf.String()
}

// replaceWord replaces whole-word occurrences of old with repl.
func replaceWord(text, old, repl string) (string, bool) {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(old) + `\b`)
	if !re.MatchString(text) {
		return text, false
	}

	return re.ReplaceAllString(text, repl), true
}
