package gen

import (
	"go/types"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseImportSpec(t *testing.T) {
	tests := []struct {
		raw  string
		want importSpec
		ok   bool
	}{
		{raw: `"strings"`, want: importSpec{Path: "strings"}, ok: true},
		{raw: `str "strings"`, want: importSpec{Alias: "str", Path: "strings"}, ok: true},
		{raw: `  . "math"  `, want: importSpec{Alias: ".", Path: "math"}, ok: true},
		{raw: `strings`},
		{raw: `""`},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := parseImportSpec(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestImportSpec_Name(t *testing.T) {
	assert.Equal(t, "msgpack", importSpec{Path: "github.com/vmihailenco/msgpack/v5"}.Name())
	assert.Equal(t, "str", importSpec{Alias: "str", Path: "strings"}.Name())
	assert.Equal(t, `str "strings"`, importSpec{Alias: "str", Path: "strings"}.String())
}

func TestImportSet_Carry(t *testing.T) {
	s := newImportSet("example.com/app", "")

	s.carry(`"context"`)
	s.carry(`str "strings"`)
	s.carry(`_ "embed"`)
	s.carry(`"example.com/app"`)
	s.carry(`. "math"`)
	s.carry(`"context"`)

	assert.Equal(t, []importSpec{
		{Path: "context"},
		{Alias: ".", Path: "math"},
		{Alias: "str", Path: "strings"},
	}, s.list())

	// Carried imports keep the name they were written with.
	assert.Equal(t, "str", s.use("strings", "strings"))
	assert.Equal(t, "context", s.use("context", "context"))
	assert.Equal(t, "", s.use("example.com/app", "app"))
}

func TestImportSet_UseResolvesConflicts(t *testing.T) {
	s := newImportSet("example.com/app", "")
	s.carry(`"example.com/v1/api"`)

	assert.Equal(t, "api", s.use("example.com/v1/api", "api"))
	assert.Equal(t, "api2", s.use("example.com/v2/api", "api"))
	assert.Equal(t, "api3", s.use("example.com/v3/api", "api"))
	assert.Equal(t, "api2", s.use("example.com/v2/api", "api"))

	assert.Equal(t, []importSpec{
		{Path: "example.com/v1/api"},
		{Alias: "api2", Path: "example.com/v2/api"},
		{Alias: "api3", Path: "example.com/v3/api"},
	}, s.list())
}

func TestImportSet_Qualifier(t *testing.T) {
	s := newImportSet("example.com/app", "")

	self := types.NewPackage("example.com/app", "app")
	other := types.NewPackage("example.com/models", "models")

	named := types.NewNamed(types.NewTypeName(0, other, "User", nil), types.NewStruct(nil, nil), nil)
	local := types.NewNamed(types.NewTypeName(0, self, "Group", nil), types.NewStruct(nil, nil), nil)

	assert.Equal(t, "[]models.User", types.TypeString(types.NewSlice(named), s.qualifier))
	assert.Equal(t, "*Group", types.TypeString(types.NewPointer(local), s.qualifier))
	assert.Equal(t, []importSpec{{Path: "example.com/models"}}, s.list())
}

func TestImportSet_GroupsLikeGoimports(t *testing.T) {
	s := newImportSet("example.com/shop/store", "example.com/shop")

	s.carry(`"example.com/shop/warehouse"`)
	s.carry(`"github.com/google/uuid"`)
	s.carry(`"strings"`)
	s.carry(`"context"`)
	s.use("example.com/shop/automap", "automap")

	assert.Equal(t, []importSpec{
		{Path: "context"},
		{Path: "strings"},
		{Path: "github.com/google/uuid"},
		{Path: "example.com/shop/automap"},
		{Path: "example.com/shop/warehouse"},
	}, s.list())

	assert.Equal(t, [][]importSpec{
		{{Path: "context"}, {Path: "strings"}},
		{{Path: "github.com/google/uuid"}},
		{{Path: "example.com/shop/automap"}, {Path: "example.com/shop/warehouse"}},
	}, s.groups())
}

func TestImportSet_GroupsWithoutModule(t *testing.T) {
	s := newImportSet("example.com/app", "")

	s.carry(`"example.com/models"`)
	s.carry(`"strings"`)

	assert.Equal(t, [][]importSpec{
		{{Path: "strings"}},
		{{Path: "example.com/models"}},
	}, s.groups())
	assert.Empty(t, newImportSet("example.com/app", "").groups())
}
