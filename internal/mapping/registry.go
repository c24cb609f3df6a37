package mapping

import (
	"go/token"

	"github.com/emirpasic/gods/maps/linkedhashmap"

	"automap-generator/internal/analyze"
	"automap-generator/internal/diagnostic"
)

// Registry holds the accepted spec of every (source, destination) pair in
// registration order.
type Registry struct {
	graph   *analyze.TypeGraph
	entries *linkedhashmap.Map // Key -> *MappingSpec
}

// NewRegistry creates an empty registry. graph is only used to render
// positions in diagnostics and may be nil.
func NewRegistry(graph *analyze.TypeGraph) *Registry {
	return &Registry{graph: graph, entries: linkedhashmap.New()}
}

// Register accepts spec unless its pair is already registered, in which
// case GEN003 is reported and the first declaration stays in effect.
func (r *Registry) Register(spec *MappingSpec, diags *diagnostic.Diagnostics) bool {
	key := spec.Key()

	if prev, ok := r.Lookup(key.Source, key.Dest); ok {
		diags.Add(diagnostic.New(diagnostic.CodeDuplicateMapping, r.position(spec),
			"mapping %s is already declared at %s; this declaration is ignored", key, r.position(prev)).
			WithTypePair(key.String()))

		return false
	}

	r.entries.Put(key, spec)

	return true
}

// Lookup returns the spec registered for a pair.
func (r *Registry) Lookup(src, dst analyze.TypeID) (*MappingSpec, bool) {
	v, found := r.entries.Get(Key{Source: src, Dest: dst})
	if !found {
		return nil, false
	}

	return v.(*MappingSpec), true
}

// DestinationTypeFor returns the destination type registered for a pair.
func (r *Registry) DestinationTypeFor(src, dst analyze.TypeID) (*analyze.TypeInfo, bool) {
	spec, ok := r.Lookup(src, dst)
	if !ok {
		return nil, false
	}

	return spec.Dest, true
}

// Specs returns the accepted specs in registration order.
func (r *Registry) Specs() []*MappingSpec {
	values := r.entries.Values()

	specs := make([]*MappingSpec, len(values))
	for i, v := range values {
		specs[i] = v.(*MappingSpec)
	}

	return specs
}

// Len returns the number of accepted specs.
func (r *Registry) Len() int {
	return r.entries.Size()
}

func (r *Registry) position(spec *MappingSpec) token.Position {
	if r.graph == nil {
		return token.Position{}
	}

	return r.graph.Position(spec.Pos)
}
