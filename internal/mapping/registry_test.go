package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"automap-generator/internal/analyze"
	"automap-generator/internal/diagnostic"
)

func typeInfo(pkg, name string) *analyze.TypeInfo {
	return &analyze.TypeInfo{ID: analyze.TypeID{PkgPath: pkg, Name: name}, Kind: analyze.TypeKindStruct}
}

func TestRegistry_FirstWins(t *testing.T) {
	user, dto := typeInfo("example.com/app", "User"), typeInfo("example.com/app", "UserDto")

	first := &MappingSpec{Source: user, Dest: dto, HasReverse: true}
	second := &MappingSpec{Source: user, Dest: dto}

	var diags diagnostic.Diagnostics

	r := NewRegistry(nil)
	assert.True(t, r.Register(first, &diags))
	assert.False(t, r.Register(second, &diags))

	assert.Equal(t, 1, r.Len())
	assert.Equal(t, []string{diagnostic.CodeDuplicateMapping}, diags.Codes())
	assert.True(t, diags.HasErrors())
	assert.Equal(t, "app.User->app.UserDto", diags.Errors[0].TypePair)

	got, ok := r.Lookup(user.ID, dto.ID)
	require.True(t, ok)
	assert.Same(t, first, got)
}

// Pairs sharing only a source or only a destination are distinct keys.
func TestRegistry_PairwiseKeys(t *testing.T) {
	user, dto := typeInfo("example.com/app", "User"), typeInfo("example.com/app", "UserDto")
	admin := typeInfo("example.com/app", "Admin")
	otherDto := typeInfo("example.com/api", "UserDto")

	var diags diagnostic.Diagnostics

	r := NewRegistry(nil)
	for _, spec := range []*MappingSpec{
		{Source: user, Dest: dto},
		{Source: admin, Dest: dto},
		{Source: user, Dest: otherDto},
		{Source: dto, Dest: user},
	} {
		assert.True(t, r.Register(spec, &diags), spec.TypePair())
	}

	assert.Empty(t, diags.Codes())
	assert.Equal(t, 4, r.Len())

	specs := r.Specs()
	require.Len(t, specs, 4)
	assert.Equal(t, "Admin", specs[1].Source.ID.Name)
	assert.Equal(t, "example.com/api", specs[2].Dest.ID.PkgPath)

	dest, ok := r.DestinationTypeFor(user.ID, otherDto.ID)
	require.True(t, ok)
	assert.Same(t, otherDto, dest)

	_, ok = r.DestinationTypeFor(admin.ID, otherDto.ID)
	assert.False(t, ok)
}

func TestRegistry_DuplicateAcrossProfiles(t *testing.T) {
	src := header + `
type Other struct {
	automap.Profile
}

func (p *Profile) Configure(cfg *automap.Config) {
	automap.Map[User, UserDto](cfg).Reverse()
}

func (o *Other) Configure(cfg *automap.Config) {
	automap.Map[User, UserDto](cfg).ForField(UserDto{}.FullName, func(u *User) any { return u.First })
	automap.Map[Group, GroupDto](cfg).Reverse()
}
`
	specs, diags := extract(t, src)
	require.Empty(t, diags.Codes())
	require.Len(t, specs, 3)

	r := NewRegistry(nil)
	for _, spec := range specs {
		r.Register(spec, diags)
	}

	assert.Equal(t, []string{diagnostic.CodeDuplicateMapping}, diags.Codes())
	assert.Equal(t, 2, r.Len())

	kept, ok := r.Lookup(specs[0].Source.ID, specs[0].Dest.ID)
	require.True(t, ok)
	assert.True(t, kept.HasReverse)
	assert.Empty(t, kept.FieldMappings)
}
