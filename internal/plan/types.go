package plan

import (
	"automap-generator/internal/analyze"
	"automap-generator/internal/common"
	"automap-generator/internal/diagnostic"
	"automap-generator/internal/mapping"
)

// ResolvedMappingPlan is the final output of the resolution pipeline.
// It contains everything needed for code generation.
type ResolvedMappingPlan struct {
	// TypePairs lists the pairs that produce a function, in registration order.
	TypePairs []ResolvedTypePair
	// TypeGraph holds all analyzed types and packages.
	TypeGraph *analyze.TypeGraph
	// Diagnostics contains all warnings and errors from resolution.
	Diagnostics diagnostic.Diagnostics
}

// ResolvedTypePair represents a fully resolved mapping between two struct types.
type ResolvedTypePair struct {
	// Spec is the accepted declaration.
	Spec *mapping.MappingSpec
	// SourceType is the type being converted from.
	SourceType *analyze.TypeInfo
	// TargetType is the type being converted to.
	TargetType *analyze.TypeInfo
	// FuncName is the name of the generated method on *SourceType.
	FuncName string
	// IsAsync is set when any field resolution is asynchronous.
	IsAsync bool
	// Mappings lists resolved fields in destination declaration order.
	Mappings []ResolvedFieldMapping
}

// ResolvedFieldMapping represents a single resolved field mapping.
type ResolvedFieldMapping struct {
	// Target is the destination field.
	Target *analyze.FieldInfo
	// SourceField is the same-name source field for reverse matches.
	SourceField *analyze.FieldInfo
	// Source specifies the origin of this mapping rule.
	Source MappingSource
	// Strategy describes how the value is produced.
	Strategy ConversionStrategy
	// Override is the explicit override, if any.
	Override *mapping.FieldMapping
	// Helper is the name of the private helper function for StrategyHelper.
	Helper string
	// Nested describes the delegated conversion for nested and collection
	// strategies.
	Nested *NestedConversion
	// IsAsync is set when producing the value needs a context and may fail.
	IsAsync bool
	// Explanation describes why this mapping was chosen.
	Explanation string
}

// NestedConversion is a delegation to another generated function. For
// collection strategies it applies to each element.
type NestedConversion struct {
	// Strategy is StrategyDirectAssign, StrategyNestedCast or
	// StrategyPointerNestedCast.
	Strategy ConversionStrategy
	// Pair is the delegated mapping (unset for direct element copies).
	Pair mapping.Key
	// FuncName is the delegated generated method.
	FuncName string
	// IsAsync is set when the delegated method is asynchronous.
	IsAsync bool
	// SourceElem and TargetElem are the converted types.
	SourceElem *analyze.TypeInfo
	TargetElem *analyze.TypeInfo
}

// MappingSource indicates where a mapping rule originated.
type MappingSource int

const (
	// MappingSourceOverride - from ForField or ForFieldAsync.
	MappingSourceOverride MappingSource = iota
	// MappingSourceReverse - same-name match enabled by Reverse.
	MappingSourceReverse
)

// String returns a human-readable source name.
func (s MappingSource) String() string {
	switch s {
	case MappingSourceOverride:
		return "override"
	case MappingSourceReverse:
		return "reverse"
	default:
		return common.UnknownStr
	}
}

// ConversionStrategy describes how to produce a destination field.
type ConversionStrategy int

const (
	// StrategyDirectAssign - out.F = source.F for identical types.
	StrategyDirectAssign ConversionStrategy = iota
	// StrategyInline - out.F = <single override expression>.
	StrategyInline
	// StrategyCall - out.F = fn(source) for a referenced function.
	StrategyCall
	// StrategyHelper - out.F = helper(...) for block or asynchronous overrides.
	StrategyHelper
	// StrategyPlaceholder - out.F = zero value, the override was unusable.
	StrategyPlaceholder
	// StrategyNestedCast - out.F = source.F.ToX().
	StrategyNestedCast
	// StrategyPointerNestedCast - nil-propagating call on a pointer field.
	StrategyPointerNestedCast
	// StrategySliceMap - eager element-wise slice.
	StrategySliceMap
	// StrategyArrayMap - eager element-wise array fill.
	StrategyArrayMap
	// StrategySeqMap - lazy element-wise iter.Seq.
	StrategySeqMap
)

// String returns a human-readable strategy name.
func (s ConversionStrategy) String() string {
	switch s {
	case StrategyDirectAssign:
		return "direct_assign"
	case StrategyInline:
		return "inline"
	case StrategyCall:
		return "call"
	case StrategyHelper:
		return "helper"
	case StrategyPlaceholder:
		return "placeholder"
	case StrategyNestedCast:
		return "nested_cast"
	case StrategyPointerNestedCast:
		return "pointer_nested_cast"
	case StrategySliceMap:
		return "slice_map"
	case StrategyArrayMap:
		return "array_map"
	case StrategySeqMap:
		return "seq_map"
	default:
		return common.UnknownStr
	}
}

// IsCollection reports whether the strategy transforms a collection.
func (s ConversionStrategy) IsCollection() bool {
	return s == StrategySliceMap || s == StrategyArrayMap || s == StrategySeqMap
}

// Mapping returns the resolution of a destination field.
func (p *ResolvedTypePair) Mapping(target string) (*ResolvedFieldMapping, bool) {
	for i := range p.Mappings {
		if p.Mappings[i].Target.Name == target {
			return &p.Mappings[i], true
		}
	}

	return nil, false
}

// Key returns the pair's registry key.
func (p *ResolvedTypePair) Key() mapping.Key {
	return p.Spec.Key()
}
