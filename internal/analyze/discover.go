package analyze

import (
	"go/types"
	"sort"
)

// Marker package names.
const (
	// ProfileTypeName is the marker type embedded by profiles.
	ProfileTypeName = "Profile"
	// ProfilerTypeName is the interface implemented by configurable profiles.
	ProfilerTypeName = "Profiler"
)

// Candidate is a named struct type declared in a root package.
type Candidate struct {
	Type      *TypeInfo
	Obj       *types.TypeName
	Package   *PackageInfo
	File      *FileInfo
	IsProfile bool // Embeds the profile marker, directly or through a base
	// Configurable is set when the type has a Configure method matching
	// the marker Profiler interface.
	Configurable bool
}

// Discover returns every named struct type of the root packages, ordered by
// package path, file name and position. found is false when the marker
// package is not part of the compilation at all.
func Discover(g *TypeGraph) (candidates []Candidate, found bool) {
	if !g.HasMarker() {
		return nil, false
	}

	marker := TypeID{PkgPath: g.MarkerPath, Name: ProfileTypeName}
	profiler := g.markerInterface(ProfilerTypeName)

	for _, pkg := range g.RootPackages() {
		if pkg.TypesPkg == nil {
			continue
		}

		for _, id := range pkg.Types {
			info := g.GetType(id)
			if !info.IsRecord() {
				continue
			}

			obj, ok := pkg.TypesPkg.Scope().Lookup(id.Name).(*types.TypeName)
			if !ok {
				continue
			}

			_, file := g.FileOf(obj.Pos())

			c := Candidate{
				Type:    info,
				Obj:     obj,
				Package: pkg,
				File:    file,
			}

			if named, ok := obj.Type().(*types.Named); ok && named.TypeParams().Len() == 0 {
				for _, base := range g.BaseChain(info) {
					if base == marker {
						c.IsProfile = true
						c.Configurable = info.Implements(profiler)

						break
					}
				}
			}

			candidates = append(candidates, c)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Package.Path != b.Package.Path {
			return a.Package.Path < b.Package.Path
		}

		pa, pb := g.Position(a.Obj.Pos()), g.Position(b.Obj.Pos())
		if pa.Filename != pb.Filename {
			return pa.Filename < pb.Filename
		}

		return pa.Offset < pb.Offset
	})

	return candidates, true
}

// Profiles filters candidates down to profile types.
func Profiles(candidates []Candidate) []Candidate {
	var out []Candidate

	for _, c := range candidates {
		if c.IsProfile {
			out = append(out, c)
		}
	}

	return out
}

// markerInterface looks up an interface declared by the marker package.
func (g *TypeGraph) markerInterface(name string) *types.Interface {
	pkg := g.Package(g.MarkerPath)
	if pkg == nil || pkg.TypesPkg == nil {
		return nil
	}

	obj, ok := pkg.TypesPkg.Scope().Lookup(name).(*types.TypeName)
	if !ok {
		return nil
	}

	iface, _ := obj.Type().Underlying().(*types.Interface)

	return iface
}
