package plan

import (
	"context"
	"fmt"

	"automap-generator/internal/analyze"
	"automap-generator/internal/common"
	"automap-generator/internal/diagnostic"
	"automap-generator/internal/mapping"
)

// AsyncSuffix is appended to asynchronous function and helper names.
const AsyncSuffix = "Async"

// Resolver resolves the specs of a registry.
type Resolver struct {
	graph    *analyze.TypeGraph
	registry *mapping.Registry

	names   map[mapping.Key]string
	emitted map[mapping.Key]bool
	async   map[mapping.Key]bool
}

// NewResolver creates a resolver over the accepted specs of registry.
func NewResolver(graph *analyze.TypeGraph, registry *mapping.Registry) *Resolver {
	return &Resolver{
		graph:    graph,
		registry: registry,
		names:    make(map[mapping.Key]string),
		emitted:  make(map[mapping.Key]bool),
		async:    make(map[mapping.Key]bool),
	}
}

// Resolve produces the plan. Only cancellation makes it fail.
func (r *Resolver) Resolve(ctx context.Context) (*ResolvedMappingPlan, error) {
	specs := r.registry.Specs()
	r.assignNames(specs)

	for _, spec := range specs {
		if spec.IsSelf() {
			continue
		}

		r.emitted[spec.Key()] = true
		r.async[spec.Key()] = spec.HasAsyncOverride()
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var diags diagnostic.Diagnostics

		pairs := make([]ResolvedTypePair, 0, len(specs))
		for _, spec := range specs {
			if spec.IsSelf() {
				continue
			}

			pairs = append(pairs, r.resolveTypePair(spec, &diags))
		}

		if r.settle(pairs) {
			continue
		}

		result := &ResolvedMappingPlan{TypeGraph: r.graph, Diagnostics: diags}

		for _, pair := range pairs {
			if len(pair.Mappings) > 0 {
				result.TypePairs = append(result.TypePairs, pair)
			}
		}

		return result, nil
	}
}

// settle folds one round of results back into the emitted and async sets.
// It returns true when another round is needed. Emitted pairs only shrink
// and async pairs only grow, so the loop terminates.
func (r *Resolver) settle(pairs []ResolvedTypePair) bool {
	changed := false

	for _, pair := range pairs {
		key := pair.Key()

		if len(pair.Mappings) == 0 && r.emitted[key] {
			r.emitted[key] = false
			changed = true
		}

		if pair.IsAsync && !r.async[key] {
			r.async[key] = true
			changed = true
		}
	}

	return changed
}

// assignNames picks To<Dest> per spec, qualifying the destination with its
// package name when one source maps to two destinations of the same name.
func (r *Resolver) assignNames(specs []*mapping.MappingSpec) {
	count := make(map[string]int)

	for _, spec := range specs {
		count[spec.Source.ID.String()+"."+spec.Dest.ID.Name]++
	}

	for _, spec := range specs {
		name := "To" + spec.Dest.ID.Name
		if count[spec.Source.ID.String()+"."+spec.Dest.ID.Name] > 1 {
			name = "To" + common.UpperFirst(common.PkgAlias(spec.Dest.ID.PkgPath)) + spec.Dest.ID.Name
		}

		r.names[spec.Key()] = name
	}
}

// FuncName returns the generated method name for a pair.
func (r *Resolver) FuncName(key mapping.Key) string {
	name := r.names[key]
	if r.async[key] {
		name += AsyncSuffix
	}

	return name
}

func (r *Resolver) resolveTypePair(spec *mapping.MappingSpec, diags *diagnostic.Diagnostics) ResolvedTypePair {
	pair := ResolvedTypePair{
		Spec:       spec,
		SourceType: spec.Source,
		TargetType: spec.Dest,
		FuncName:   r.FuncName(spec.Key()),
	}

	for i := range spec.Dest.Fields {
		target := &spec.Dest.Fields[i]

		m, ok := r.resolveField(spec, target, diags)
		if !ok {
			continue
		}

		if m.IsAsync {
			pair.IsAsync = true
		}

		pair.Mappings = append(pair.Mappings, m)
	}

	// A delegation may have turned the pair asynchronous in this round.
	if pair.IsAsync && !r.async[spec.Key()] {
		pair.FuncName = r.names[spec.Key()] + AsyncSuffix
	}

	return pair
}

func (r *Resolver) resolveField(
	spec *mapping.MappingSpec,
	target *analyze.FieldInfo,
	diags *diagnostic.Diagnostics,
) (ResolvedFieldMapping, bool) {
	if fm, ok := spec.FieldMapping(target.Name); ok {
		return r.resolveOverride(spec, target, fm), true
	}

	if !spec.HasReverse {
		return ResolvedFieldMapping{}, false
	}

	srcField, ok := spec.Source.Field(target.Name)
	if !ok {
		// No same-name source field: the destination keeps its zero value.
		return ResolvedFieldMapping{}, false
	}

	m := ResolvedFieldMapping{
		Target:      target,
		SourceField: srcField,
		Source:      MappingSourceReverse,
	}

	srcType, dstType := srcField.Type, target.Type

	if srcType.Identical(dstType) {
		m.Strategy = StrategyDirectAssign
		m.Explanation = "identical types"

		return m, true
	}

	if nested, ok := r.elemConversion(srcType, dstType); ok && nested.Strategy != StrategyDirectAssign {
		m.Strategy = nested.Strategy
		m.Nested = nested
		m.IsAsync = nested.IsAsync
		m.Explanation = fmt.Sprintf("delegates to %s", nested.FuncName)

		return m, true
	}

	if srcType.IsCollection() && dstType.IsCollection() {
		nested, ok := r.elemConversion(srcType.ElemType, dstType.ElemType)

		switch {
		case !ok:
			r.skip(spec, target, srcField, diags, "item types %s and %s have no registered mapping",
				r.typeString(srcType.ElemType), r.typeString(dstType.ElemType))

			return ResolvedFieldMapping{}, false

		case dstType.Kind == analyze.TypeKindSeq && nested.IsAsync:
			r.skip(spec, target, srcField, diags, "items are mapped by asynchronous %s, which a lazy sequence cannot propagate",
				nested.FuncName)

			return ResolvedFieldMapping{}, false
		}

		m.Nested = nested
		m.IsAsync = nested.IsAsync
		m.Explanation = "element-wise " + nested.Strategy.String()

		switch dstType.Kind {
		case analyze.TypeKindSlice:
			m.Strategy = StrategySliceMap
		case analyze.TypeKindArray:
			m.Strategy = StrategyArrayMap
		default:
			m.Strategy = StrategySeqMap
		}

		return m, true
	}

	r.skip(spec, target, srcField, diags, "cannot convert %s to %s",
		r.typeString(srcType), r.typeString(dstType))

	return ResolvedFieldMapping{}, false
}

func (r *Resolver) resolveOverride(
	spec *mapping.MappingSpec,
	target *analyze.FieldInfo,
	fm *mapping.FieldMapping,
) ResolvedFieldMapping {
	m := ResolvedFieldMapping{
		Target:   target,
		Source:   MappingSourceOverride,
		Override: fm,
		IsAsync:  fm.IsAsync,
	}

	switch {
	case fm.Placeholder:
		m.Strategy = StrategyPlaceholder
		m.Explanation = "override not accessible from generated code"
	case fm.IsAsync || fm.IsBlock:
		m.Strategy = StrategyHelper
		m.Helper = r.helperName(spec, target.Name, fm.IsAsync)
		m.Explanation = "override body moved to " + m.Helper
	case fm.Call:
		m.Strategy = StrategyCall
		m.Explanation = "calls " + fm.Expression
	default:
		m.Strategy = StrategyInline
		m.Explanation = "inline override"
	}

	return m
}

// helperName returns get<Source>To<Dest><Field>[Async].
func (r *Resolver) helperName(spec *mapping.MappingSpec, field string, async bool) string {
	name := "get" + spec.Source.ID.Name + r.names[spec.Key()] + field
	if async {
		name += AsyncSuffix
	}

	return name
}

// elemConversion finds how one value of src becomes a value of dst.
func (r *Resolver) elemConversion(src, dst *analyze.TypeInfo) (*NestedConversion, bool) {
	if src == nil || dst == nil {
		return nil, false
	}

	if src.Identical(dst) {
		return &NestedConversion{Strategy: StrategyDirectAssign, SourceElem: src, TargetElem: dst}, true
	}

	strategy := StrategyNestedCast

	if src.Kind == analyze.TypeKindPointer && dst.Kind == analyze.TypeKindPointer {
		strategy = StrategyPointerNestedCast
		src, dst = src.ElemType, dst.ElemType
	}

	if !src.IsRecord() || !dst.IsRecord() || !src.IsNamed() || !dst.IsNamed() {
		return nil, false
	}

	key := mapping.Key{Source: src.ID, Dest: dst.ID}
	if _, ok := r.registry.Lookup(key.Source, key.Dest); !ok || !r.emitted[key] {
		return nil, false
	}

	return &NestedConversion{
		Strategy:   strategy,
		Pair:       key,
		FuncName:   r.FuncName(key),
		IsAsync:    r.async[key],
		SourceElem: src,
		TargetElem: dst,
	}, true
}

func (r *Resolver) skip(
	spec *mapping.MappingSpec,
	target, source *analyze.FieldInfo,
	diags *diagnostic.Diagnostics,
	format string, args ...any,
) {
	path := analyze.NewTypePath(spec.Dest.ID.Name).Field(target.Name)

	diags.Add(diagnostic.New(diagnostic.CodeIncompatibleItemType, r.graph.Position(spec.Pos),
		"field %s skipped: source %s.%s is %s, destination %s.%s is %s: "+format,
		append([]any{
			target.Name,
			spec.Source.ID.Name, source.Name, r.typeString(source.Type),
			spec.Dest.ID.Name, target.Name, r.typeString(target.Type),
		}, args...)...).
		WithTypePair(spec.TypePair()).
		WithField(path.String()))
}

func (r *Resolver) typeString(t *analyze.TypeInfo) string {
	return analyze.NewTypeStringer().TypeString(t)
}
