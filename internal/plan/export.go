package plan

import (
	"gopkg.in/yaml.v3"

	"automap-generator/internal/mapping"
)

// ExportDocument is the YAML shape printed by the inspect command.
type ExportDocument struct {
	Mappings []ExportMapping `yaml:"mappings"`
}

// ExportMapping describes one declared mapping and its resolution.
type ExportMapping struct {
	Source   string        `yaml:"source"`
	Target   string        `yaml:"target"`
	Profile  string        `yaml:"profile"`
	Reverse  bool          `yaml:"reverse,omitempty"`
	Function string        `yaml:"function,omitempty"`
	Async    bool          `yaml:"async,omitempty"`
	Imports  []string      `yaml:"imports,omitempty"`
	Fields   []ExportField `yaml:"fields,omitempty"`
}

// ExportField describes one destination field.
type ExportField struct {
	Target      string `yaml:"target"`
	Source      string `yaml:"source,omitempty"`
	Strategy    string `yaml:"strategy"`
	Expression  string `yaml:"expression,omitempty"`
	Async       bool   `yaml:"async,omitempty"`
	Explanation string `yaml:"explanation,omitempty"`
}

// Export builds the inspect document from the accepted specs and the plan.
// Specs without a generated function are listed with their overrides only.
func Export(specs []*mapping.MappingSpec, plan *ResolvedMappingPlan) *ExportDocument {
	resolved := make(map[mapping.Key]*ResolvedTypePair)

	if plan != nil {
		for i := range plan.TypePairs {
			resolved[plan.TypePairs[i].Key()] = &plan.TypePairs[i]
		}
	}

	doc := &ExportDocument{Mappings: []ExportMapping{}}

	for _, spec := range specs {
		em := ExportMapping{
			Source:  spec.Source.ID.String(),
			Target:  spec.Dest.ID.String(),
			Profile: spec.Profile.String(),
			Reverse: spec.HasReverse,
			Imports: spec.SourceFileImports,
		}

		pair, ok := resolved[spec.Key()]
		if !ok {
			for _, fm := range spec.FieldMappings {
				em.Fields = append(em.Fields, ExportField{
					Target:     fm.Destination,
					Strategy:   "unresolved",
					Expression: fm.Expression,
					Async:      fm.IsAsync,
				})
			}

			doc.Mappings = append(doc.Mappings, em)

			continue
		}

		em.Function = pair.FuncName
		em.Async = pair.IsAsync

		for _, m := range pair.Mappings {
			em.Fields = append(em.Fields, exportField(&m))
		}

		doc.Mappings = append(doc.Mappings, em)
	}

	return doc
}

// ExportYAML renders Export as YAML.
func ExportYAML(specs []*mapping.MappingSpec, plan *ResolvedMappingPlan) ([]byte, error) {
	return yaml.Marshal(Export(specs, plan))
}

func exportField(m *ResolvedFieldMapping) ExportField {
	f := ExportField{
		Target:      m.Target.Name,
		Strategy:    m.Strategy.String(),
		Async:       m.IsAsync,
		Explanation: m.Explanation,
	}

	if m.SourceField != nil {
		f.Source = m.SourceField.Name
	}

	if m.Override != nil {
		f.Expression = m.Override.Expression
	}

	return f
}
