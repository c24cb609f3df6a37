// Package pipeline runs one generation pass: load, discover, extract,
// register, resolve and generate.
package pipeline

import (
	"context"
	"fmt"

	"github.com/tliron/commonlog"

	"automap-generator/internal/analyze"
	"automap-generator/internal/config"
	"automap-generator/internal/diagnostic"
	"automap-generator/internal/gen"
	"automap-generator/internal/mapping"
	"automap-generator/internal/plan"
)

var log = commonlog.GetLogger("automap.pipeline")

// Result is everything one pass produced.
type Result struct {
	// Artifacts are the generated files, in registration order.
	Artifacts []gen.GeneratedFile
	// Specs are the accepted mapping declarations.
	Specs []*mapping.MappingSpec
	// Plan is the resolved plan the artifacts were generated from.
	Plan *plan.ResolvedMappingPlan
	// Dirs are the directories of the root packages of the pass.
	Dirs []string
	// Diagnostics holds every diagnostic of the pass.
	Diagnostics diagnostic.Diagnostics
}

// Run loads the configured packages and runs a pass over them.
func Run(ctx context.Context, cfg *config.Config) (*Result, error) {
	a := analyze.NewAnalyzer()
	a.SetDir(cfg.Dir)
	a.SetBuildFlags(cfg.BuildFlags()...)
	a.SetMarkerPath(cfg.MarkerPackage)

	log.Infof("loading %v", cfg.Patterns)

	graph, err := a.LoadPackages(ctx, cfg.Patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}

	for _, e := range a.LoadErrors() {
		log.Warningf("package error: %s", e)
	}

	return RunGraph(ctx, graph, GeneratorConfig(cfg))
}

// GeneratorConfig derives the generator settings from cfg.
func GeneratorConfig(cfg *config.Config) gen.GeneratorConfig {
	gc := gen.DefaultGeneratorConfig()
	gc.FileSuffix = cfg.FileSuffix
	gc.GenerateComments = cfg.Comments

	return gc
}

// RunGraph runs a pass over an already loaded type graph. Diagnostics never
// fail the pass; the error is reserved for cancellation and generation
// failures. On cancellation the artifacts completed so far are returned.
func RunGraph(ctx context.Context, graph *analyze.TypeGraph, gc gen.GeneratorConfig) (*Result, error) {
	res := &Result{}

	for _, pkg := range graph.RootPackages() {
		if pkg.Dir != "" {
			res.Dirs = append(res.Dirs, pkg.Dir)
		}
	}

	candidates, found := analyze.Discover(graph)
	if !found {
		res.Diagnostics.Report(diagnostic.CodeMarkerNotFound, graph.Position(0),
			"marker package %s is not part of the compilation", graph.MarkerPath)
		log.Warningf("marker package %s not found, nothing to generate", graph.MarkerPath)

		return res, nil
	}

	profiles := analyze.Profiles(candidates)
	log.Infof("found %d profile(s) among %d struct type(s)", len(profiles), len(candidates))

	extractor := mapping.NewExtractor(graph, &res.Diagnostics)
	registry := mapping.NewRegistry(graph)

	for _, c := range profiles {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		if !c.Configurable {
			log.Warningf("profile %s has no Configure(*automap.Config) method", c.Type.ID.Short())
		}

		for _, spec := range extractor.Extract(c) {
			if registry.Register(spec, &res.Diagnostics) {
				log.Debugf("registered %s from %s", spec.TypePair(), c.Type.ID.Short())
			}
		}
	}

	res.Specs = registry.Specs()

	resolved, err := plan.NewResolver(graph, registry).Resolve(ctx)
	if err != nil {
		return res, err
	}

	res.Plan = resolved
	res.Diagnostics.Merge(resolved.Diagnostics)

	artifacts, err := gen.NewGenerator(gc).Generate(ctx, resolved)
	res.Artifacts = artifacts

	if err != nil {
		return res, err
	}

	log.Infof("generated %d artifact(s) from %d mapping(s)", len(artifacts), len(res.Specs))

	return res, nil
}
