package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"automap-generator/internal/analyze"
	"automap-generator/internal/analyze/analyzetest"
	"automap-generator/internal/diagnostic"
)

const appPkg = "example.com/app"

// header is shared by the fixtures below; each fixture appends a Configure
// body.
const header = `package app

import (
	"context"
	"errors"
	str "strings"

	"automap-generator/automap"
)

var _ = context.Background
var _ = errors.New
var _ = str.TrimSpace

type User struct {
	ID       int
	First    string
	Last     string
	Email    string
	Username string
}

type UserDto struct {
	ID       int
	FullName string
	Email    string
	Status   string
}

type Group struct {
	Name    string
	Members []User
}

type GroupDto struct {
	Name    string
	Members []UserDto
}

type Profile struct {
	automap.Profile
}

func statusOf(u *User) any { return "active" }
`

func extract(t *testing.T, src string) ([]*MappingSpec, *diagnostic.Diagnostics) {
	t.Helper()

	graph := analyzetest.Single(t, appPkg, src)

	candidates, found := analyze.Discover(graph)
	require.True(t, found)

	var diags diagnostic.Diagnostics

	x := NewExtractor(graph, &diags)

	var specs []*MappingSpec
	for _, c := range analyze.Profiles(candidates) {
		specs = append(specs, x.Extract(c)...)
	}

	return specs, &diags
}

func configure(body string) string {
	return header + "\nfunc (p *Profile) Configure(cfg *automap.Config) {\n" + body + "\n}\n"
}

func TestExtract_InlineOverrideAndReverse(t *testing.T) {
	specs, diags := extract(t, configure(`
	automap.Map[User, UserDto](cfg).
		ForField(UserDto{}.FullName, func(u *User) any {
			return str.TrimSpace(u.First + " " + u.Last)
		}).
		Reverse()
`))
	require.Empty(t, diags.Codes())
	require.Len(t, specs, 1)

	spec := specs[0]
	assert.Equal(t, "User", spec.Source.ID.Name)
	assert.Equal(t, "UserDto", spec.Dest.ID.Name)
	assert.True(t, spec.HasReverse)
	assert.Equal(t, analyze.TypeID{PkgPath: appPkg, Name: "Profile"}, spec.Profile)
	assert.Contains(t, spec.SourceFileImports, `str "strings"`)
	assert.Contains(t, spec.SourceFileImports, `"context"`)
	assert.NotContains(t, spec.SourceFileImports, `"automap-generator/automap"`)

	fm, ok := spec.FieldMapping("FullName")
	require.True(t, ok)
	assert.Equal(t, `str.TrimSpace(source.First + " " + source.Last)`, fm.Expression)
	assert.False(t, fm.IsBlock)
	assert.False(t, fm.IsAsync)
	assert.True(t, fm.UsesSource)
}

func TestExtract_BlockAndAsyncOverrides(t *testing.T) {
	specs, diags := extract(t, configure(`
	automap.Map[User, UserDto](cfg).
		ForField(UserDto{}.Email, func(u *User) any {
			if u.Email == "" {
				return "unknown"
			}
			return u.Email
		}).
		ForFieldAsync(UserDto{}.Status, func(ctx context.Context, u *User) (any, error) {
			if ctx.Err() != nil {
				return nil, errors.New("cancelled")
			}
			return "active", nil
		})
`))
	require.Empty(t, diags.Codes())
	require.Len(t, specs, 1)

	email, ok := specs[0].FieldMapping("Email")
	require.True(t, ok)
	assert.True(t, email.IsBlock)
	assert.True(t, email.UsesSource)
	assert.Contains(t, email.Expression, `if source.Email == "" {`)
	assert.Contains(t, email.Expression, "return source.Email")

	status, ok := specs[0].FieldMapping("Status")
	require.True(t, ok)
	assert.True(t, status.IsAsync)
	assert.True(t, status.IsBlock)
	assert.False(t, status.UsesSource)
	assert.Contains(t, status.Expression, "if ctx.Err() != nil {")
	assert.Contains(t, status.Expression, `return zero, errors.New("cancelled")`)
	assert.Contains(t, status.Expression, `return "active", nil`)
	assert.True(t, specs[0].HasAsyncOverride())
}

func TestExtract_FunctionReference(t *testing.T) {
	specs, diags := extract(t, configure(`
	automap.Map[User, UserDto](cfg).ForField(UserDto{}.Status, statusOf)
`))
	require.Empty(t, diags.Codes())
	require.Len(t, specs, 1)

	fm, ok := specs[0].FieldMapping("Status")
	require.True(t, ok)
	assert.True(t, fm.Call)
	assert.True(t, fm.Assert)
	assert.True(t, fm.UsesSource)
	assert.Equal(t, "statusOf", fm.Expression)
}

func TestExtract_VariableChain(t *testing.T) {
	specs, diags := extract(t, configure(`
	m := automap.Map[User, UserDto](cfg)
	m.ForField(UserDto{}.FullName, func(u *User) any { return u.First })
	m.Reverse()
`))
	require.Empty(t, diags.Codes())
	require.Len(t, specs, 1)
	assert.True(t, specs[0].HasReverse)
	assert.Len(t, specs[0].FieldMappings, 1)
}

func TestExtract_SourceOrder(t *testing.T) {
	specs, diags := extract(t, configure(`
	automap.Map[User, UserDto](cfg).Reverse()
	automap.Map[Group, GroupDto](cfg).Reverse()
`))
	require.Empty(t, diags.Codes())
	require.Len(t, specs, 2)
	assert.Equal(t, "User", specs[0].Source.ID.Name)
	assert.Equal(t, "Group", specs[1].Source.ID.Name)
}

func TestExtract_Diagnostics(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		code   string
		field  string
		suffix string
	}{
		{
			name: "unknown destination field",
			body: `automap.Map[User, UserDto](cfg).ForField(UserDto{}.FulName, func(u *User) any { return u.First })`,
			code: diagnostic.CodeFieldExtraction,
		},
		{
			name: "argument count",
			body: `automap.Map[User, UserDto](cfg).ForField(UserDto{}.FullName)`,
			code: diagnostic.CodeArgumentCount,
		},
		{
			name:  "nil expression",
			body:  `automap.Map[User, UserDto](cfg).ForField(UserDto{}.FullName, nil)`,
			code:  diagnostic.CodeMissingExpression,
			field: "FullName",
		},
		{
			name:  "empty body",
			body:  `automap.Map[User, UserDto](cfg).ForField(UserDto{}.FullName, func(u *User) any {})`,
			code:  diagnostic.CodeMissingBody,
			field: "FullName",
		},
		{
			name: "non-struct type argument",
			body: `automap.Map[int, UserDto](cfg).Reverse()`,
			code: diagnostic.CodeMissingTypeArgs,
		},
		{
			name:  "captured local",
			body:  "sep := \" \"\n\tautomap.Map[User, UserDto](cfg).ForField(UserDto{}.FullName, func(u *User) any { return u.First + sep + u.Last })",
			code:  diagnostic.CodeFieldExtraction,
			field: "FullName",
		},
		{
			name:  "duplicate override",
			body:  `automap.Map[User, UserDto](cfg).ForField(UserDto{}.Email, func(u *User) any { return u.Email }).ForField(UserDto{}.Email, func(u *User) any { return "x" })`,
			code:  diagnostic.CodeFieldExtraction,
			field: "Email",
		},
		{
			name: "selector on the wrong type",
			body: `automap.Map[User, UserDto](cfg).ForField(User{}.Email, func(u *User) any { return u.Email })`,
			code: diagnostic.CodeFieldExtraction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := extract(t, configure(tt.body))

			require.Contains(t, diags.Codes(), tt.code, diags.Error())

			if tt.field != "" {
				d := diags.Sorted()[0]
				assert.Equal(t, tt.field, d.FieldPath)
			}
		})
	}
}

func TestExtract_UnknownFieldSuggestions(t *testing.T) {
	_, diags := extract(t, configure(
		`automap.Map[User, UserDto](cfg).ForField(UserDto{}.FulName, func(u *User) any { return u.First })`))

	require.Len(t, diags.Warnings, 1)
	d := diags.Warnings[0]
	assert.Equal(t, "app.User->app.UserDto", d.TypePair)
	assert.Equal(t, "FulName", d.FieldPath)
	require.NotEmpty(t, d.Suggestions)
	assert.Equal(t, "FullName", d.Suggestions[0])
	assert.True(t, d.Pos.IsValid())
}

func TestExtract_DroppedFieldKeepsOthers(t *testing.T) {
	specs, diags := extract(t, configure(`
	automap.Map[User, UserDto](cfg).
		ForField(UserDto{}.FullName, nil).
		ForField(UserDto{}.Email, func(u *User) any { return u.Email }).
		Reverse()
`))
	assert.Equal(t, []string{diagnostic.CodeMissingExpression}, diags.Codes())
	require.Len(t, specs, 1)

	_, ok := specs[0].FieldMapping("FullName")
	assert.False(t, ok)

	_, ok = specs[0].FieldMapping("Email")
	assert.True(t, ok)
}

func TestExtract_NotAProfile(t *testing.T) {
	src := header + `
type Plain struct{}

func (p *Plain) Configure(cfg *automap.Config) {
	automap.Map[User, UserDto](cfg).Reverse()
}
`
	specs, diags := extract(t, src)
	assert.Empty(t, specs)
	assert.Empty(t, diags.Codes())
}

func TestExtract_UnresolvedMapCall(t *testing.T) {
	src := header + `
type shadow struct{}

func (shadow) Map(cfg *automap.Config) shadow { return shadow{} }

func (shadow) Reverse() {}

func (p *Profile) Configure(cfg *automap.Config) {
	automap := shadow{}
	automap.Map(cfg).Reverse()
}
`
	specs, diags := extract(t, src)
	assert.Empty(t, specs)
	require.Equal(t, []string{diagnostic.CodeUnresolvedSymbol}, diags.Codes())
	assert.False(t, diags.HasErrors())
	assert.Contains(t, diags.Warnings[0].Message, "cannot resolve automap.Map in profile Profile")
}
