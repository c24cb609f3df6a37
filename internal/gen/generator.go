package gen

import (
	"bytes"
	"context"
	"fmt"
	"go/types"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"automap-generator/internal/analyze"
	"automap-generator/internal/mapping"
	"automap-generator/internal/plan"
)

// Header starts every generated file. Stale artifacts are recognized by it.
const Header = "// Code generated by automap-generator. DO NOT EDIT."

// DefaultFileSuffix is appended to <Source>_To_<Dest>.
const DefaultFileSuffix = ".g.go"

// GeneratorConfig contains configuration for code generation.
type GeneratorConfig struct {
	// FileSuffix is appended to generated file names.
	FileSuffix string
	// GenerateComments enables generation of explanatory comments.
	GenerateComments bool
	// DebugDir receives <name>.unformatted.go when formatting fails.
	DebugDir string
}

// DefaultGeneratorConfig returns the default generator configuration.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		FileSuffix:       DefaultFileSuffix,
		GenerateComments: true,
	}
}

// Generator generates Go code from a resolved mapping plan.
type Generator struct {
	config GeneratorConfig
	graph  *analyze.TypeGraph
}

// NewGenerator creates a new code generator.
func NewGenerator(config GeneratorConfig) *Generator {
	if config.FileSuffix == "" {
		config.FileSuffix = DefaultFileSuffix
	}

	return &Generator{config: config}
}

// GeneratedFile represents a generated Go source file.
type GeneratedFile struct {
	// Dir is the package directory the file belongs to.
	Dir string
	// Filename is the file name within Dir.
	Filename string
	// Content is the formatted source.
	Content []byte
	// FuncName is the generated method.
	FuncName string
	// TypePair is the mapping the file implements, e.g. "store.Order->warehouse.Order".
	TypePair string
}

// Path returns the file's full path.
func (f GeneratedFile) Path() string {
	return filepath.Join(f.Dir, f.Filename)
}

// Generate renders one file per emitted type pair, in plan order. On
// cancellation the files completed so far are returned with ctx.Err().
func (g *Generator) Generate(ctx context.Context, p *plan.ResolvedMappingPlan) ([]GeneratedFile, error) {
	g.graph = p.TypeGraph

	files := make([]GeneratedFile, 0, len(p.TypePairs))

	for i := range p.TypePairs {
		if err := ctx.Err(); err != nil {
			return files, err
		}

		file, err := g.generateTypePair(&p.TypePairs[i])
		if err != nil {
			return nil, fmt.Errorf("generating %s: %w", p.TypePairs[i].Key(), err)
		}

		files = append(files, file)
	}

	return files, nil
}

// FileName returns <Source>_To_<Dest><suffix> for a pair.
func (g *Generator) FileName(pair *plan.ResolvedTypePair) string {
	dest := strings.TrimSuffix(strings.TrimPrefix(pair.FuncName, "To"), plan.AsyncSuffix)
	return pair.SourceType.ID.Name + "_To_" + dest + g.config.FileSuffix
}

// templateData holds data for one generated file.
type templateData struct {
	Header       string
	Profile      string
	PackageName  string
	Imports      [][]importSpec
	FunctionName string
	SourceName   string
	TargetType   string
	TargetZero   string
	ContextType  string
	Marker       string
	IsAsync      bool
	Statements   []string
	Helpers      []string
}

var mapperTemplate = template.Must(template.New("mapper").Parse(`{{.Header}}
// Source: {{.Profile}}

package {{.PackageName}}
{{if .Imports}}
import (
{{- range $i, $group := .Imports}}
{{- if $i}}
{{end}}
{{- range $group}}
	{{.}}
{{- end}}
{{- end}}
)
{{end}}
{{- if .IsAsync}}
// {{.FunctionName}} maps {{.SourceName}} to {{.TargetType}}.
// A nil receiver yields {{.Marker}}.ErrNilSource.
func (source *{{.SourceName}}) {{.FunctionName}}(ctx {{.ContextType}}) ({{.TargetType}}, error) {
	if source == nil {
		return {{.TargetZero}}, {{.Marker}}.ErrNilSource
	}
{{else}}
// {{.FunctionName}} maps {{.SourceName}} to {{.TargetType}}.
// It panics with {{.Marker}}.ErrNilSource on a nil receiver.
func (source *{{.SourceName}}) {{.FunctionName}}() {{.TargetType}} {
	if source == nil {
		panic({{.Marker}}.ErrNilSource)
	}
{{end}}
	var out {{.TargetType}}
{{range .Statements}}
	{{.}}
{{- end}}

	return out{{if .IsAsync}}, nil{{end}}
}
{{range .Helpers}}
{{.}}
{{end}}`))

func (g *Generator) generateTypePair(pair *plan.ResolvedTypePair) (GeneratedFile, error) {
	srcPkg := pair.SourceType.ID.PkgPath

	pkg := g.graph.Package(srcPkg)
	if pkg == nil {
		return GeneratedFile{}, fmt.Errorf("package %s was not loaded", srcPkg)
	}

	imports := newImportSet(srcPkg, pkg.Module)
	for _, raw := range pair.Spec.SourceFileImports {
		imports.carry(raw)
	}

	e := &emitter{
		gen:     g,
		pair:    pair,
		imports: imports,
		marker:  imports.use(g.markerPath(), ""),
		locals:  reservedLocals(pair),
	}

	e.targetType = e.typeString(pair.TargetType.GoType)
	e.targetZero = zeroValue(pair.TargetType.GoType, imports.qualifier)

	if pair.IsAsync {
		e.contextType = imports.use("context", "context") + ".Context"
	}

	for i := range pair.Mappings {
		e.field(&pair.Mappings[i])
	}

	data := templateData{
		Header:       Header,
		Profile:      pair.Spec.Profile.Short(),
		PackageName:  pkg.Name,
		Imports:      imports.groups(),
		FunctionName: pair.FuncName,
		SourceName:   pair.SourceType.ID.Name,
		TargetType:   e.targetType,
		TargetZero:   e.targetZero,
		ContextType:  e.contextType,
		Marker:       e.marker,
		IsAsync:      pair.IsAsync,
		Statements:   e.statements,
		Helpers:      e.helpers,
	}

	var buf bytes.Buffer
	if err := mapperTemplate.Execute(&buf, data); err != nil {
		return GeneratedFile{}, fmt.Errorf("executing template: %w", err)
	}

	filename := g.FileName(pair)

	content, err := formatFile(filename, buf.Bytes())
	if err != nil {
		if g.config.DebugDir != "" {
			_ = writeDebugUnformatted(g.config.DebugDir, filename, buf.Bytes())
		}

		return GeneratedFile{}, fmt.Errorf("formatting code: %w", err)
	}

	return GeneratedFile{
		Dir:      pkg.Dir,
		Filename: filename,
		Content:  content,
		FuncName: pair.FuncName,
		TypePair: pair.Key().String(),
	}, nil
}

func (g *Generator) markerPath() string {
	if g.graph != nil && g.graph.MarkerPath != "" {
		return g.graph.MarkerPath
	}

	return analyze.DefaultMarkerPath
}

// emitter accumulates the statements and helpers of one generated method.
type emitter struct {
	gen     *Generator
	pair    *plan.ResolvedTypePair
	imports *importSet
	marker  string

	targetType  string
	targetZero  string
	contextType string

	statements []string
	helpers    []string

	// locals are the names declared in or referenced from the method body.
	locals map[string]bool
}

// reservedLocals returns the method's fixed locals plus every package-level
// name an override of pair refers to.
func reservedLocals(pair *plan.ResolvedTypePair) map[string]bool {
	locals := map[string]bool{
		mapping.SourceParam:  true,
		mapping.ContextParam: true,
		mapping.TargetVar:    true,
		mapping.ErrVar:       true,
	}

	for _, m := range pair.Mappings {
		if m.Override == nil {
			continue
		}

		for _, name := range m.Override.FreeNames {
			locals[name] = true
		}
	}

	return locals
}

// temp returns an unused method-level variable name for a field's value:
// valueName(field), then valueName(field) followed by 2, 3 and so on.
func (e *emitter) temp(field string) string {
	base := valueName(field)
	name := base

	for i := 2; e.locals[name]; i++ {
		name = base + strconv.Itoa(i)
	}

	e.locals[name] = true

	return name
}

func (e *emitter) typeString(t types.Type) string {
	return types.TypeString(t, e.imports.qualifier)
}

func (e *emitter) emit(format string, args ...any) {
	e.statements = append(e.statements, fmt.Sprintf(format, args...))
}

// errReturn is the statement leaving the method on a failed async step.
func (e *emitter) errReturn() string {
	return fmt.Sprintf("if err != nil {\nreturn %s, err\n}", e.targetZero)
}

func (e *emitter) field(m *plan.ResolvedFieldMapping) {
	name := m.Target.Name
	dst := "out." + name

	if e.gen.config.GenerateComments && m.Strategy != plan.StrategyDirectAssign && m.Explanation != "" {
		e.emit("// %s: %s", name, m.Explanation)
	}

	switch m.Strategy {
	case plan.StrategyDirectAssign:
		e.emit("%s = source.%s", dst, name)

	case plan.StrategyInline:
		e.emit("%s = %s", dst, m.Override.Expression)

	case plan.StrategyPlaceholder:
		e.emit("%s = %s", dst, zeroValue(m.Target.Type.GoType, e.imports.qualifier))

	case plan.StrategyCall:
		e.call(m, dst)

	case plan.StrategyHelper:
		e.helper(m, dst)

	case plan.StrategyNestedCast, plan.StrategyPointerNestedCast:
		e.statements = append(e.statements,
			e.convert(m.Nested, dst, "source."+m.SourceField.Name, e.temp(name)))

	case plan.StrategySliceMap:
		e.sliceMap(m, dst)

	case plan.StrategyArrayMap:
		e.arrayMap(m, dst)

	case plan.StrategySeqMap:
		e.seqMap(m, dst)
	}
}

// call emits a referenced function call. Asynchronous references go
// through a helper so the error can be checked.
func (e *emitter) call(m *plan.ResolvedFieldMapping, dst string) {
	fm := m.Override

	if fm.IsAsync {
		e.helper(m, dst)
		return
	}

	expr := fm.Expression + "(source)"
	if fm.Assert {
		expr += ".(" + e.typeString(m.Target.Type.GoType) + ")"
	}

	e.emit("%s = %s", dst, expr)
}

// helper emits a call to a private helper and the helper itself.
func (e *emitter) helper(m *plan.ResolvedFieldMapping, dst string) {
	fm := m.Override
	fieldType := e.typeString(m.Target.Type.GoType)

	var params, args []string

	if fm.IsAsync {
		params = append(params, "ctx "+e.contextType)
		args = append(args, "ctx")
	}

	if fm.UsesSource || fm.Call {
		params = append(params, "source *"+e.pair.SourceType.ID.Name)
		args = append(args, "source")
	}

	results := "(zero " + fieldType + ")"
	if fm.IsAsync {
		results = "(zero " + fieldType + ", _ error)"
	}

	body := fm.Expression

	if fm.Call {
		value := "v"
		if fm.Assert {
			value = "v.(" + fieldType + ")"
		}

		body = fmt.Sprintf("v, err := %s(ctx, source)\nif err != nil {\nreturn zero, err\n}\n\nreturn %s, nil",
			fm.Expression, value)
	}

	var doc string
	if e.gen.config.GenerateComments {
		doc = fmt.Sprintf("// %s computes %s.%s for %s.\n",
			m.Helper, e.pair.TargetType.ID.Name, m.Target.Name, e.pair.FuncName)
	}

	e.helpers = append(e.helpers, fmt.Sprintf("%sfunc %s(%s) %s {\n%s\n}",
		doc, m.Helper, strings.Join(params, ", "), results, body))

	call := fmt.Sprintf("%s(%s)", m.Helper, strings.Join(args, ", "))

	if !fm.IsAsync {
		e.emit("%s = %s", dst, call)
		return
	}

	v := e.temp(m.Target.Name)
	e.emit("%s, err := %s\n%s\n%s = %s", v, call, e.errReturn(), dst, v)
}

// convert renders dst = conversion(src) for one value. tmp names the
// temporary used by asynchronous and pointer conversions.
func (e *emitter) convert(n *plan.NestedConversion, dst, src, tmp string) string {
	switch n.Strategy {
	case plan.StrategyNestedCast:
		if !n.IsAsync {
			return fmt.Sprintf("%s = %s.%s()", dst, src, n.FuncName)
		}

		return fmt.Sprintf("%s, err := %s.%s(ctx)\n%s\n%s = %s",
			tmp, src, n.FuncName, e.errReturn(), dst, tmp)

	case plan.StrategyPointerNestedCast:
		if !n.IsAsync {
			return fmt.Sprintf("if %s != nil {\n%s := %s.%s()\n%s = &%s\n}",
				src, tmp, src, n.FuncName, dst, tmp)
		}

		return fmt.Sprintf("if %s != nil {\n%s, err := %s.%s(ctx)\n%s\n%s = &%s\n}",
			src, tmp, src, n.FuncName, e.errReturn(), dst, tmp)

	default:
		return fmt.Sprintf("%s = %s", dst, src)
	}
}

func (e *emitter) sliceMap(m *plan.ResolvedFieldMapping, dst string) {
	src := "source." + m.SourceField.Name
	dstType := e.typeString(m.Target.Type.GoType)

	switch m.SourceField.Type.Kind {
	case analyze.TypeKindSeq:
		e.emit("if %s != nil {\nfor item := range %s {\nvar v %s\n%s\n%s = append(%s, v)\n}\n}",
			src, src, e.typeString(m.Target.Type.ElemType.GoType),
			e.convert(m.Nested, "v", "item", "w"), dst, dst)

	case analyze.TypeKindArray:
		e.emit("%s = make(%s, len(%s))\nfor i := range %s {\n%s\n}",
			dst, dstType, src, src, e.convert(m.Nested, dst+"[i]", src+"[i]", "v"))

	default:
		e.emit("if %s != nil {\n%s = make(%s, len(%s))\nfor i := range %s {\n%s\n}\n}",
			src, dst, dstType, src, src, e.convert(m.Nested, dst+"[i]", src+"[i]", "v"))
	}
}

func (e *emitter) arrayMap(m *plan.ResolvedFieldMapping, dst string) {
	src := "source." + m.SourceField.Name

	if m.SourceField.Type.Kind == analyze.TypeKindSeq {
		e.emit("if %s != nil {\ni := 0\nfor item := range %s {\nif i == len(%s) {\nbreak\n}\n%s\ni++\n}\n}",
			src, src, dst, e.convert(m.Nested, dst+"[i]", "item", "v"))

		return
	}

	e.emit("for i := range min(len(%s), len(%s)) {\n%s\n}",
		dst, src, e.convert(m.Nested, dst+"[i]", src+"[i]", "v"))
}

// seqMap assigns a lazy sequence over a snapshot of the source collection.
func (e *emitter) seqMap(m *plan.ResolvedFieldMapping, dst string) {
	src := "source." + m.SourceField.Name
	items := e.temp(m.Target.Name)
	elemType := e.typeString(m.Target.Type.ElemType.GoType)

	yield := func(from string) string {
		if m.Nested.Strategy == plan.StrategyPointerNestedCast {
			return fmt.Sprintf("var v %s\n%s\nif !yield(v) {\nreturn\n}",
				elemType, e.convert(m.Nested, "v", from, "w"))
		}

		value := from
		if m.Nested.Strategy == plan.StrategyNestedCast {
			value = from + "." + m.Nested.FuncName + "()"
		}

		return fmt.Sprintf("if !yield(%s) {\nreturn\n}", value)
	}

	var loop string
	if m.SourceField.Type.Kind == analyze.TypeKindSeq {
		loop = fmt.Sprintf("for item := range %s {\n%s\n}", items, yield("item"))
	} else {
		loop = fmt.Sprintf("for i := range %s {\n%s\n}", items, yield(items+"[i]"))
	}

	body := fmt.Sprintf("%s := %s\n%s = func(yield func(%s) bool) {\n%s\n}", items, src, dst, elemType, loop)

	if m.SourceField.Type.Kind == analyze.TypeKindArray {
		e.emit("%s", body)
		return
	}

	e.emit("if %s != nil {\n%s\n}", src, body)
}

// valueName returns the local variable holding a field's value, e.g.
// "segmentValue" for Segment or "idValue" for ID.
func valueName(field string) string {
	runes := []rune(field)

	upper := 0
	for upper < len(runes) && runes[upper] >= 'A' && runes[upper] <= 'Z' {
		upper++
	}

	// Lower the leading initialism but keep the start of the next word.
	n := upper
	if upper > 1 && upper < len(runes) {
		n = upper - 1
	}

	for i := range n {
		runes[i] += 'a' - 'A'
	}

	return string(runes) + "Value"
}

// zeroValue renders the zero value of t.
func zeroValue(t types.Type, q types.Qualifier) string {
	switch u := t.Underlying().(type) {
	case *types.Basic:
		switch {
		case u.Info()&types.IsBoolean != 0:
			return "false"
		case u.Info()&types.IsString != 0:
			return `""`
		case u.Info()&types.IsNumeric != 0:
			return "0"
		default:
			return "nil"
		}
	case *types.Pointer, *types.Slice, *types.Map, *types.Chan, *types.Signature, *types.Interface:
		return "nil"
	case *types.Struct, *types.Array:
		return types.TypeString(t, q) + "{}"
	default:
		return "*new(" + types.TypeString(t, q) + ")"
	}
}
