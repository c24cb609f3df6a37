package mapping

import (
	"go/ast"
	"go/token"
	"go/types"
	"strconv"

	"golang.org/x/tools/go/types/typeutil"

	"automap-generator/internal/analyze"
	"automap-generator/internal/common"
	"automap-generator/internal/diagnostic"
	"automap-generator/internal/match"
)

// Names of the marker package API.
const (
	ConfigureMethod     = "Configure"
	MapFunc             = "Map"
	ForFieldMethod      = "ForField"
	ForFieldAsyncMethod = "ForFieldAsync"
	ReverseMethod       = "Reverse"
)

const maxSuggestions = 3

// Extractor reads mapping declarations from profile types.
type Extractor struct {
	graph *analyze.TypeGraph
	diags *diagnostic.Diagnostics
}

// NewExtractor creates an Extractor reporting into diags.
func NewExtractor(graph *analyze.TypeGraph, diags *diagnostic.Diagnostics) *Extractor {
	return &Extractor{graph: graph, diags: diags}
}

// extraction is the state of one Configure method walk.
type extraction struct {
	*Extractor

	cand       analyze.Candidate
	decl       *ast.FuncDecl
	file       *analyze.FileInfo
	info       *types.Info
	receiver   types.Object
	imports    []string
	markerName string
	vars       map[types.Object]*MappingSpec
	specs      []*MappingSpec
}

// Extract returns the specs declared by a profile, in source order.
// Declarations that cannot be understood are reported and skipped.
func (e *Extractor) Extract(c analyze.Candidate) []*MappingSpec {
	decl, file := e.configure(c)
	if decl == nil || decl.Body == nil {
		return nil
	}

	x := &extraction{
		Extractor: e,
		cand:      c,
		decl:      decl,
		file:      file,
		info:      c.Package.TypesInfo,
		vars:      make(map[types.Object]*MappingSpec),
	}
	x.collectImports()

	if x.info != nil && len(decl.Recv.List[0].Names) > 0 {
		x.receiver = x.info.Defs[decl.Recv.List[0].Names[0]]
	}

	ast.Inspect(decl.Body, x.visit)

	return x.specs
}

// configure locates the Configure method of a profile.
func (e *Extractor) configure(c analyze.Candidate) (*ast.FuncDecl, *analyze.FileInfo) {
	for _, file := range c.Package.Files {
		for _, d := range file.Syntax.Decls {
			fd, ok := d.(*ast.FuncDecl)
			if !ok || fd.Recv == nil || len(fd.Recv.List) != 1 || fd.Name.Name != ConfigureMethod {
				continue
			}

			id := receiverIdent(fd.Recv.List[0].Type)
			if id == nil {
				continue
			}

			if info := c.Package.TypesInfo; info != nil && info.Uses[id] != nil {
				if info.Uses[id] == c.Obj {
					return fd, file
				}

				continue
			}

			if id.Name == c.Obj.Name() {
				return fd, file
			}
		}
	}

	return nil, nil
}

func receiverIdent(expr ast.Expr) *ast.Ident {
	for {
		switch x := expr.(type) {
		case *ast.StarExpr:
			expr = x.X
		case *ast.ParenExpr:
			expr = x.X
		case *ast.IndexExpr:
			expr = x.X
		case *ast.IndexListExpr:
			expr = x.X
		case *ast.Ident:
			return x
		default:
			return nil
		}
	}
}

// collectImports records the file's import specs, minus the marker package.
func (x *extraction) collectImports() {
	x.markerName = common.PkgAlias(x.graph.MarkerPath)

	for _, is := range x.file.Syntax.Imports {
		path, err := strconv.Unquote(is.Path.Value)
		if err != nil {
			continue
		}

		name := ""
		if is.Name != nil {
			name = is.Name.Name
		} else if x.info != nil {
			if pn, ok := x.info.Implicits[is].(*types.PkgName); ok && pn.Name() != common.PkgAlias(path) {
				name = pn.Name()
			}
		}

		if path == x.graph.MarkerPath {
			if name != "" {
				x.markerName = name
			}

			continue
		}

		spec := is.Path.Value
		if name != "" {
			spec = name + " " + spec
		}

		x.imports = append(x.imports, spec)
	}
}

func (x *extraction) visit(n ast.Node) bool {
	switch node := n.(type) {
	case *ast.FuncLit:
		return false

	case *ast.AssignStmt:
		if len(node.Lhs) != 1 || len(node.Rhs) != 1 {
			return true
		}

		call, ok := node.Rhs[0].(*ast.CallExpr)
		if !ok {
			return true
		}

		spec, handled := x.chain(call)
		if !handled {
			return true
		}

		if id, ok := node.Lhs[0].(*ast.Ident); ok && spec != nil && x.info != nil {
			if obj := x.info.ObjectOf(id); obj != nil {
				x.vars[obj] = spec
			}
		}

		return false

	case *ast.CallExpr:
		_, handled := x.chain(node)
		return !handled
	}

	return true
}

// chain handles a call chain rooted at a Map call or at a variable holding
// one. Links are processed in source order.
func (x *extraction) chain(call *ast.CallExpr) (*MappingSpec, bool) {
	var links []*ast.CallExpr

	cur := call

	for {
		sel, ok := cur.Fun.(*ast.SelectorExpr)
		if !ok {
			break
		}

		inner, ok := ast.Unparen(sel.X).(*ast.CallExpr)
		if !ok {
			break
		}

		links = append(links, cur)
		cur = inner
	}

	var spec *MappingSpec

	switch {
	case x.isMapCall(cur):
		spec = x.declare(cur)

	case x.isVarLink(cur):
		id := ast.Unparen(cur.Fun.(*ast.SelectorExpr).X).(*ast.Ident)
		spec = x.vars[x.info.Uses[id]]
		links = append(links, cur)

	default:
		return nil, false
	}

	if spec == nil {
		return nil, true
	}

	for i := len(links) - 1; i >= 0; i-- {
		x.link(spec, links[i])
	}

	return spec, true
}

// isMapCall reports whether call spells a Map call of the marker package,
// resolved or not.
func (x *extraction) isMapCall(call *ast.CallExpr) bool {
	if x.resolvedMap(call) {
		return true
	}

	switch fun := unindex(call.Fun).(type) {
	case *ast.SelectorExpr:
		pkg, ok := fun.X.(*ast.Ident)
		return ok && pkg.Name == x.markerName && fun.Sel.Name == MapFunc
	case *ast.Ident:
		return x.markerName == "." && fun.Name == MapFunc
	}

	return false
}

func (x *extraction) resolvedMap(call *ast.CallExpr) bool {
	if x.info == nil {
		return false
	}

	callee := typeutil.Callee(x.info, call)
	if callee == nil || callee.Pkg() == nil {
		return false
	}

	return callee.Pkg().Path() == x.graph.MarkerPath && callee.Name() == MapFunc
}

func (x *extraction) isVarLink(call *ast.CallExpr) bool {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || x.info == nil {
		return false
	}

	id, ok := ast.Unparen(sel.X).(*ast.Ident)
	if !ok {
		return false
	}

	_, ok = x.vars[x.info.Uses[id]]

	return ok
}

func unindex(expr ast.Expr) ast.Expr {
	switch x := expr.(type) {
	case *ast.IndexExpr:
		return x.X
	case *ast.IndexListExpr:
		return x.X
	}

	return expr
}

// funcIdent returns the identifier naming the called function.
func funcIdent(call *ast.CallExpr) *ast.Ident {
	switch fun := unindex(call.Fun).(type) {
	case *ast.SelectorExpr:
		return fun.Sel
	case *ast.Ident:
		return fun
	}

	return nil
}

// declare starts a spec for a Map call.
func (x *extraction) declare(call *ast.CallExpr) *MappingSpec {
	pos := x.graph.Position(call.Pos())

	if !x.resolvedMap(call) {
		x.diags.Report(diagnostic.CodeUnresolvedSymbol, pos,
			"cannot resolve %s.%s in profile %s; the declaration is skipped", x.markerName, MapFunc, x.cand.Obj.Name())

		return nil
	}

	id := funcIdent(call)
	inst, ok := x.info.Instances[id]

	if !ok || inst.TypeArgs == nil || inst.TypeArgs.Len() != 2 {
		x.diags.Report(diagnostic.CodeMissingTypeArgs, pos,
			"%s needs explicit source and destination type arguments", MapFunc)

		return nil
	}

	var pair [2]*analyze.TypeInfo

	for i := range pair {
		arg := inst.TypeArgs.At(i)

		t, reason := x.recordType(arg)
		if t == nil {
			x.diags.Report(diagnostic.CodeMissingTypeArgs, pos,
				"type argument %s %s", types.TypeString(arg, types.RelativeTo(x.cand.Package.TypesPkg)), reason)

			return nil
		}

		pair[i] = t
	}

	spec := &MappingSpec{
		Source:            pair[0],
		Dest:              pair[1],
		Profile:           x.cand.Type.ID,
		Pos:               call.Pos(),
		SourceFileImports: append([]string(nil), x.imports...),
	}
	x.specs = append(x.specs, spec)

	return spec
}

// recordType resolves a type argument to a named, non-generic struct type.
func (x *extraction) recordType(t types.Type) (*analyze.TypeInfo, string) {
	named, ok := types.Unalias(t).(*types.Named)
	if !ok {
		return nil, "is not a named type"
	}

	if named.TypeParams().Len() > 0 || named.TypeArgs().Len() > 0 {
		return nil, "is generic"
	}

	if _, ok := named.Underlying().(*types.Struct); !ok {
		return nil, "is not a struct type"
	}

	return x.graph.Describe(named), ""
}

func (x *extraction) link(spec *MappingSpec, call *ast.CallExpr) {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return
	}

	switch sel.Sel.Name {
	case ReverseMethod:
		spec.HasReverse = true
	case ForFieldMethod:
		x.override(spec, call, false)
	case ForFieldAsyncMethod:
		x.override(spec, call, true)
	}
}

func (x *extraction) report(spec *MappingSpec, code string, pos token.Pos, field, format string, args ...any) {
	x.diags.Add(diagnostic.New(code, x.graph.Position(pos), format, args...).
		WithTypePair(spec.TypePair()).
		WithField(field))
}

// override extracts one ForField or ForFieldAsync call.
func (x *extraction) override(spec *MappingSpec, call *ast.CallExpr, async bool) {
	method := ForFieldMethod
	if async {
		method = ForFieldAsyncMethod
	}

	if len(call.Args) != 2 {
		x.report(spec, diagnostic.CodeArgumentCount, call.Pos(), "",
			"%s expects 2 arguments, got %d", method, len(call.Args))

		return
	}

	field, ok := x.destField(spec, call.Args[0])
	if !ok {
		return
	}

	if prev, exists := spec.FieldMapping(field.Name); exists {
		x.report(spec, diagnostic.CodeFieldExtraction, call.Pos(), field.Name,
			"field already overridden at %s", x.graph.Position(prev.Pos))

		return
	}

	fm := FieldMapping{Destination: field.Name, IsAsync: async, Pos: call.Pos()}
	expr := ast.Unparen(call.Args[1])

	switch e := expr.(type) {
	case *ast.FuncLit:
		if len(e.Body.List) == 0 {
			x.report(spec, diagnostic.CodeMissingBody, e.Pos(), field.Name, "mapping expression has an empty body")
			return
		}

	case *ast.Ident, *ast.SelectorExpr:
		if x.isNil(expr) {
			x.report(spec, diagnostic.CodeMissingExpression, expr.Pos(), field.Name, "mapping expression is nil")
			return
		}

		sig, ok := x.funcRef(expr)
		if !ok {
			x.report(spec, diagnostic.CodeMissingExpression, expr.Pos(), field.Name,
				"mapping expression must be a function literal or a package-level function")

			return
		}

		fm.Call = true
		fm.UsesSource = true

		if res := sig.Results(); res.Len() > 0 && field.Type != nil && field.Type.GoType != nil {
			fm.Assert = types.IsInterface(res.At(0).Type()) && !types.AssignableTo(res.At(0).Type(), field.Type.GoType)
		}

	default:
		x.report(spec, diagnostic.CodeMissingExpression, expr.Pos(), field.Name,
			"mapping expression must be a function literal or a package-level function")

		return
	}

	norm := Normalize(NormalizeInput{
		Expr:        expr,
		Async:       async,
		Info:        x.info,
		Fset:        x.graph.Fset,
		File:        x.file,
		ArtifactPkg: spec.Source.ID.PkgPath,
		ProfilePkg:  x.cand.Package.TypesPkg,
		ProfileType: x.cand.Obj,
		Receiver:    x.receiver,
		ScopeStart:  x.decl.Pos(),
		ScopeEnd:    x.decl.End(),
	})

	for _, p := range norm.Problems {
		x.report(spec, p.Code, p.Pos, field.Name, "%s", p.Message)
	}

	if norm.HasProblem(diagnostic.CodeFieldExtraction) {
		return
	}

	if norm.HasProblem(diagnostic.CodeInaccessibleMember) {
		fm.Placeholder = true
		spec.FieldMappings = append(spec.FieldMappings, fm)

		return
	}

	fm.Expression = norm.Text
	fm.IsBlock = norm.IsBlock

	if !fm.Call {
		fm.UsesSource = norm.UsesSource
	}

	fm.FreeNames = norm.FreeNames

	spec.FieldMappings = append(spec.FieldMappings, fm)
}

// destField resolves the destination field selector of an override.
func (x *extraction) destField(spec *MappingSpec, arg ast.Expr) (*analyze.FieldInfo, bool) {
	var name string

	switch a := ast.Unparen(arg).(type) {
	case *ast.SelectorExpr:
		name = a.Sel.Name

		if x.info != nil {
			if tv, ok := x.info.Types[a.X]; ok && tv.Type != nil && !selectsFrom(tv.Type, spec.Dest.GoType) {
				x.report(spec, diagnostic.CodeFieldExtraction, arg.Pos(), name,
					"%s does not select a field of %s", types.ExprString(a), spec.Dest.ID.Short())

				return nil, false
			}
		}

	case *ast.Ident:
		name = a.Name

	case *ast.BasicLit:
		if a.Kind != token.STRING {
			break
		}

		if s, err := strconv.Unquote(a.Value); err == nil {
			name = s
		}
	}

	if name == "" {
		x.report(spec, diagnostic.CodeFieldExtraction, arg.Pos(), "",
			"destination must be a field selector such as %s{}.Field", spec.Dest.ID.Name)

		return nil, false
	}

	field, ok := spec.Dest.Field(name)
	if !ok {
		x.diags.Add(diagnostic.New(diagnostic.CodeFieldExtraction, x.graph.Position(arg.Pos()),
			"%s has no exported field %s", spec.Dest.ID.Short(), name).
			WithTypePair(spec.TypePair()).
			WithField(name).
			WithSuggestions(match.Suggest(name, spec.Dest.FieldNames(), maxSuggestions)...))

		return nil, false
	}

	return field, true
}

func selectsFrom(t, dest types.Type) bool {
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}

	return types.Identical(t, dest)
}

func (x *extraction) isNil(expr ast.Expr) bool {
	id, ok := expr.(*ast.Ident)
	if !ok || id.Name != "nil" {
		return false
	}

	if x.info == nil {
		return true
	}

	obj := x.info.Uses[id]

	return obj == nil || obj == types.Universe.Lookup("nil")
}

// funcRef resolves a reference to a package-level function or function
// variable.
func (x *extraction) funcRef(expr ast.Expr) (*types.Signature, bool) {
	if x.info == nil {
		return nil, false
	}

	var id *ast.Ident

	switch e := expr.(type) {
	case *ast.Ident:
		id = e
	case *ast.SelectorExpr:
		pkg, ok := e.X.(*ast.Ident)
		if !ok {
			return nil, false
		}

		if _, isPkg := x.info.Uses[pkg].(*types.PkgName); !isPkg {
			return nil, false
		}

		id = e.Sel
	}

	obj := x.info.Uses[id]
	if obj == nil || obj.Pkg() == nil || obj.Parent() != obj.Pkg().Scope() {
		return nil, false
	}

	switch o := obj.(type) {
	case *types.Func:
		sig, ok := o.Type().(*types.Signature)
		return sig, ok && sig.Recv() == nil
	case *types.Var:
		sig, ok := o.Type().Underlying().(*types.Signature)
		return sig, ok
	}

	return nil, false
}
