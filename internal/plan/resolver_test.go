package plan

import (
	"context"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"automap-generator/internal/analyze"
	"automap-generator/internal/analyze/analyzetest"
	"automap-generator/internal/diagnostic"
	"automap-generator/internal/mapping"
)

const fixture = `package app

import (
	"context"
	"iter"

	"automap-generator/automap"
)

var _ = context.Background

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

type Team struct {
	Lead    *User
	Backups [2]User
	Feed    []User
	Tags    []string
}

type TeamDto struct {
	Lead    *UserDto
	Backups [2]UserDto
	Feed    iter.Seq[UserDto]
	Tags    [4]string
}

type Profile struct {
	automap.Profile
}
`

func resolve(t *testing.T, body string) (*ResolvedMappingPlan, *diagnostic.Diagnostics) {
	t.Helper()

	p, _, diags := resolveRegistry(t, body)

	return p, diags
}

func resolveRegistry(t *testing.T, body string) (*ResolvedMappingPlan, *mapping.Registry, *diagnostic.Diagnostics) {
	t.Helper()

	src := fixture + "\nfunc (p *Profile) Configure(cfg *automap.Config) {\n" + body + "\n}\n"
	graph := analyzetest.Single(t, "example.com/app", src)

	candidates, found := analyze.Discover(graph)
	require.True(t, found)

	var diags diagnostic.Diagnostics

	x := mapping.NewExtractor(graph, &diags)
	registry := mapping.NewRegistry(graph)

	for _, c := range analyze.Profiles(candidates) {
		for _, spec := range x.Extract(c) {
			registry.Register(spec, &diags)
		}
	}

	p, err := NewResolver(graph, registry).Resolve(context.Background())
	require.NoError(t, err)

	diags.Merge(p.Diagnostics)

	return p, registry, &diags
}

func pair(t *testing.T, p *ResolvedMappingPlan, src, dst string) *ResolvedTypePair {
	t.Helper()

	for i := range p.TypePairs {
		tp := &p.TypePairs[i]
		if tp.SourceType.ID.Name == src && tp.TargetType.ID.Name == dst {
			return tp
		}
	}

	require.Failf(t, "pair not emitted", "%s->%s in %s", src, dst, spew.Sdump(p.TypePairs))

	return nil
}

func fieldMapping(t *testing.T, tp *ResolvedTypePair, name string) *ResolvedFieldMapping {
	t.Helper()

	m, ok := tp.Mapping(name)
	require.True(t, ok, "field %s not resolved", name)

	return m
}

func TestResolve_DirectCopyAndInlineOverride(t *testing.T) {
	p, diags := resolve(t, `
	automap.Map[User, UserDto](cfg).
		ForField(UserDto{}.FullName, func(u *User) any { return u.First + " " + u.Last }).
		Reverse()
`)
	require.Empty(t, diags.Codes())
	require.Len(t, p.TypePairs, 1)

	tp := pair(t, p, "User", "UserDto")
	assert.Equal(t, "ToUserDto", tp.FuncName)
	assert.False(t, tp.IsAsync)

	// Status has no same-name source field and is left alone.
	var names []string
	for _, m := range tp.Mappings {
		names = append(names, m.Target.Name)
	}

	assert.Equal(t, []string{"ID", "FullName", "Email"}, names)

	assert.Equal(t, StrategyDirectAssign, fieldMapping(t, tp, "ID").Strategy)
	assert.Equal(t, MappingSourceReverse, fieldMapping(t, tp, "Email").Source)

	full := fieldMapping(t, tp, "FullName")
	assert.Equal(t, StrategyInline, full.Strategy)
	assert.Equal(t, MappingSourceOverride, full.Source)
	assert.Equal(t, `source.First + " " + source.Last`, full.Override.Expression)
}

func TestResolve_BlockOverrideUsesHelper(t *testing.T) {
	p, diags := resolve(t, `
	automap.Map[User, UserDto](cfg).
		ForField(UserDto{}.FullName, func(u *User) any {
			if u.Last == "" {
				return u.First
			}
			return u.First + " " + u.Last
		})
`)
	require.Empty(t, diags.Codes())

	full := fieldMapping(t, pair(t, p, "User", "UserDto"), "FullName")
	assert.Equal(t, StrategyHelper, full.Strategy)
	assert.Equal(t, "getUserToUserDtoFullName", full.Helper)
}

func TestResolve_ListDelegation(t *testing.T) {
	p, diags := resolve(t, `
	automap.Map[User, UserDto](cfg).Reverse()
	automap.Map[Group, GroupDto](cfg).Reverse()
`)
	require.Empty(t, diags.Codes())
	require.Len(t, p.TypePairs, 2)

	members := fieldMapping(t, pair(t, p, "Group", "GroupDto"), "Members")
	assert.Equal(t, StrategySliceMap, members.Strategy)
	require.NotNil(t, members.Nested)
	assert.Equal(t, StrategyNestedCast, members.Nested.Strategy)
	assert.Equal(t, "ToUserDto", members.Nested.FuncName)
	assert.False(t, members.IsAsync)
}

func TestResolve_ItemsWithoutMapping(t *testing.T) {
	p, diags := resolve(t, `
	automap.Map[Group, GroupDto](cfg).Reverse()
`)
	assert.Equal(t, []string{diagnostic.CodeIncompatibleItemType}, diags.Codes())

	d := diags.Warnings[0]
	assert.Equal(t, "GroupDto.Members", d.FieldPath)
	assert.Contains(t, d.Message, "no registered mapping")

	// Name still maps, so the function is generated without Members.
	tp := pair(t, p, "Group", "GroupDto")
	_, ok := tp.Mapping("Members")
	assert.False(t, ok)
	assert.Equal(t, StrategyDirectAssign, fieldMapping(t, tp, "Name").Strategy)
}

func TestResolve_SelfMappingIgnored(t *testing.T) {
	p, diags := resolve(t, `
	automap.Map[User, User](cfg).Reverse()
`)
	assert.Empty(t, diags.Codes())
	assert.Empty(t, p.TypePairs)
}

func TestResolve_ForwardOnlyProducesNothing(t *testing.T) {
	p, diags := resolve(t, `
	automap.Map[User, UserDto](cfg)
	automap.Map[Group, GroupDto](cfg).Reverse()
`)
	require.Len(t, p.TypePairs, 1)
	assert.Equal(t, "Group", p.TypePairs[0].SourceType.ID.Name)

	// The forward-only pair generates no function, so Members cannot delegate to it.
	assert.Equal(t, []string{diagnostic.CodeIncompatibleItemType}, diags.Codes())
}

func TestResolve_AsyncPropagation(t *testing.T) {
	p, diags := resolve(t, `
	automap.Map[Group, GroupDto](cfg).Reverse()
	automap.Map[User, UserDto](cfg).
		ForFieldAsync(UserDto{}.Status, func(ctx context.Context, u *User) (any, error) {
			return "active", ctx.Err()
		}).
		Reverse()
	automap.Map[Team, TeamDto](cfg).ForField(TeamDto{}.Tags, func(t *Team) any { return [4]string{} })
`)
	require.Empty(t, diags.Codes())

	user := pair(t, p, "User", "UserDto")
	assert.True(t, user.IsAsync)
	assert.Equal(t, "ToUserDtoAsync", user.FuncName)

	status := fieldMapping(t, user, "Status")
	assert.Equal(t, StrategyHelper, status.Strategy)
	assert.Equal(t, "getUserToUserDtoStatusAsync", status.Helper)

	// Declared before User, Group still picks up the asynchronous delegation.
	group := pair(t, p, "Group", "GroupDto")
	assert.True(t, group.IsAsync)
	assert.Equal(t, "ToGroupDtoAsync", group.FuncName)

	members := fieldMapping(t, group, "Members")
	assert.True(t, members.IsAsync)
	assert.Equal(t, "ToUserDtoAsync", members.Nested.FuncName)

	// Independent pairs stay synchronous.
	team := pair(t, p, "Team", "TeamDto")
	assert.False(t, team.IsAsync)
	assert.Equal(t, "ToTeamDto", team.FuncName)
}

func TestResolve_PointerArrayAndSeq(t *testing.T) {
	p, diags := resolve(t, `
	automap.Map[User, UserDto](cfg).Reverse()
	automap.Map[Team, TeamDto](cfg).Reverse()
`)
	// []string -> [4]string converts element-wise with identical items.
	require.Empty(t, diags.Codes())

	team := pair(t, p, "Team", "TeamDto")

	lead := fieldMapping(t, team, "Lead")
	assert.Equal(t, StrategyPointerNestedCast, lead.Strategy)
	assert.Equal(t, "ToUserDto", lead.Nested.FuncName)

	backups := fieldMapping(t, team, "Backups")
	assert.Equal(t, StrategyArrayMap, backups.Strategy)
	assert.Equal(t, StrategyNestedCast, backups.Nested.Strategy)

	feed := fieldMapping(t, team, "Feed")
	assert.Equal(t, StrategySeqMap, feed.Strategy)

	tags := fieldMapping(t, team, "Tags")
	assert.Equal(t, StrategyArrayMap, tags.Strategy)
	assert.Equal(t, StrategyDirectAssign, tags.Nested.Strategy)
}

func TestResolve_LazySeqRejectsAsyncItems(t *testing.T) {
	_, diags := resolve(t, `
	automap.Map[User, UserDto](cfg).
		ForFieldAsync(UserDto{}.Status, func(ctx context.Context, u *User) (any, error) { return "x", nil }).
		Reverse()
	automap.Map[Team, TeamDto](cfg).Reverse()
`)
	require.Equal(t, []string{diagnostic.CodeIncompatibleItemType}, diags.Codes())
	assert.Equal(t, "TeamDto.Feed", diags.Warnings[0].FieldPath)
}

func TestResolve_Cancelled(t *testing.T) {
	graph := analyzetest.Single(t, "example.com/app", fixture)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewResolver(graph, mapping.NewRegistry(graph)).Resolve(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestConversionStrategy_String(t *testing.T) {
	assert.Equal(t, "direct_assign", StrategyDirectAssign.String())
	assert.Equal(t, "seq_map", StrategySeqMap.String())
	assert.Equal(t, "unknown", ConversionStrategy(99).String())
	assert.True(t, StrategyArrayMap.IsCollection())
	assert.False(t, StrategyNestedCast.IsCollection())
}
