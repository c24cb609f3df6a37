package gen

import (
	"go/types"
	"sort"
	"strconv"
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/emirpasic/gods/sets/linkedhashset"

	"automap-generator/internal/common"
)

// importSpec represents an import statement.
type importSpec struct {
	Alias string
	Path  string
}

// String renders the spec as written in an import block.
func (s importSpec) String() string {
	if s.Alias != "" {
		return s.Alias + " " + strconv.Quote(s.Path)
	}

	return strconv.Quote(s.Path)
}

// Name returns the identifier the import is referred to by.
func (s importSpec) Name() string {
	if s.Alias != "" {
		return s.Alias
	}

	return common.PkgAlias(s.Path)
}

// parseImportSpec parses `alias "path"` or `"path"`.
func parseImportSpec(raw string) (importSpec, bool) {
	raw = strings.TrimSpace(raw)

	alias := ""
	if i := strings.IndexAny(raw, " \t"); i > 0 {
		alias, raw = raw[:i], strings.TrimSpace(raw[i+1:])
	}

	path, err := strconv.Unquote(raw)
	if err != nil || path == "" {
		return importSpec{}, false
	}

	return importSpec{Alias: alias, Path: path}, true
}

// importSet collects the imports of one generated file. Imports carried
// over from the profile file are kept as written; packages referenced by
// generated type expressions get a name that does not clash with them.
type importSet struct {
	self    string
	local   string             // module path; its packages form the last group
	specs   *linkedhashmap.Map // spec string -> importSpec
	byPath  map[string]string  // path -> name used by qualifier
	reserve *linkedhashset.Set // names in use
}

func newImportSet(selfPkg, module string) *importSet {
	return &importSet{
		self:    selfPkg,
		local:   module,
		specs:   linkedhashmap.New(),
		byPath:  make(map[string]string),
		reserve: linkedhashset.New(),
	}
}

// carry adds an import spec from the profile file. Specs importing the
// generated file's own package are dropped.
func (s *importSet) carry(raw string) {
	spec, ok := parseImportSpec(raw)
	if !ok || spec.Path == s.self || spec.Alias == "_" {
		return
	}

	s.specs.Put(spec.String(), spec)

	if spec.Alias == "." {
		return
	}

	s.reserve.Add(spec.Name())

	if _, exists := s.byPath[spec.Path]; !exists {
		s.byPath[spec.Path] = spec.Name()
	}
}

// use returns the name to qualify identifiers of path with, adding an
// import when needed.
func (s *importSet) use(path, pkgName string) string {
	if path == s.self {
		return ""
	}

	if name, ok := s.byPath[path]; ok {
		return name
	}

	if pkgName == "" {
		pkgName = common.PkgAlias(path)
	}

	name := pkgName
	for i := 2; s.reserve.Contains(name); i++ {
		name = pkgName + strconv.Itoa(i)
	}

	spec := importSpec{Path: path}
	if name != common.PkgAlias(path) {
		spec.Alias = name
	}

	s.specs.Put(spec.String(), spec)
	s.reserve.Add(name)
	s.byPath[path] = name

	return name
}

// qualifier is a types.Qualifier backed by the set.
func (s *importSet) qualifier(pkg *types.Package) string {
	return s.use(pkg.Path(), pkg.Name())
}

// Import groups, in the order goimports -local writes them.
const (
	groupStdlib = iota
	groupThirdParty
	groupLocal
)

// group classifies path the way goimports does: a first path element
// without a dot is the standard library.
func (s *importSet) group(path string) int {
	if s.local != "" && (path == s.local || strings.HasPrefix(path, s.local+"/")) {
		return groupLocal
	}

	first, _, _ := strings.Cut(path, "/")
	if strings.Contains(first, ".") {
		return groupThirdParty
	}

	return groupStdlib
}

// list returns the specs grouped like goimports, each group sorted by
// path, then alias.
func (s *importSet) list() []importSpec {
	var out []importSpec

	for _, v := range s.specs.Values() {
		out = append(out, v.(importSpec))
	}

	sort.Slice(out, func(i, j int) bool {
		if gi, gj := s.group(out[i].Path), s.group(out[j].Path); gi != gj {
			return gi < gj
		}

		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}

		return out[i].Alias < out[j].Alias
	})

	return out
}

// groups splits list into its non-empty groups.
func (s *importSet) groups() [][]importSpec {
	var (
		out  [][]importSpec
		last = -1
	)

	for _, spec := range s.list() {
		if g := s.group(spec.Path); g != last {
			out = append(out, nil)
			last = g
		}

		out[len(out)-1] = append(out[len(out)-1], spec)
	}

	return out
}
