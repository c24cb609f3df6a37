package analyze

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadStore(t *testing.T) *TypeGraph {
	t.Helper()

	analyzer := NewAnalyzer()
	graph, err := analyzer.LoadPackages(context.Background(), "automap-generator/store", "automap-generator/warehouse")
	require.NoError(t, err)
	require.NotNil(t, graph)
	require.Empty(t, analyzer.LoadErrors())

	return graph
}

func field(t *testing.T, info *TypeInfo, name string) *FieldInfo {
	t.Helper()

	f, ok := info.Field(name)
	require.True(t, ok, "%s should have field %s", info.ID, name)

	return f
}

func TestAnalyzer_LoadPackages(t *testing.T) {
	graph := loadStore(t)

	// Check that packages were loaded
	assert.Contains(t, graph.Packages, "automap-generator/store")
	assert.Contains(t, graph.Packages, "automap-generator/warehouse")
	assert.Contains(t, graph.Packages, DefaultMarkerPath)
	assert.True(t, graph.HasMarker())

	// Check that types were extracted
	assert.Contains(t, graph.Types, TypeID{PkgPath: "automap-generator/store", Name: "Order"})
	assert.Contains(t, graph.Types, TypeID{PkgPath: "automap-generator/warehouse", Name: "Order"})

	roots := graph.RootPackages()
	require.Len(t, roots, 2)
	assert.Equal(t, "automap-generator/store", roots[0].Path)
	assert.NotEmpty(t, roots[0].Files)
	assert.NotEmpty(t, roots[0].Dir)
}

func TestAnalyzer_StoreOrderFields(t *testing.T) {
	graph := loadStore(t)

	order := graph.GetType(TypeID{PkgPath: "automap-generator/store", Name: "Order"})
	require.NotNil(t, order)
	assert.Equal(t, TypeKindStruct, order.Kind)
	assert.Equal(t,
		[]string{"ID", "CustomerID", "Status", "Items", "Shipping", "OrderedAt"},
		order.FieldNames())
}

func TestAnalyzer_FieldTags(t *testing.T) {
	graph := loadStore(t)

	item := graph.GetType(TypeID{PkgPath: "automap-generator/store", Name: "OrderItem"})
	require.NotNil(t, item)

	price := field(t, item, "UnitPrice")
	assert.Equal(t, "unit_price", price.JSONName())
	assert.True(t, price.HasTag("json"))
}

func TestAnalyzer_CollectionFields(t *testing.T) {
	graph := loadStore(t)

	order := graph.GetType(TypeID{PkgPath: "automap-generator/store", Name: "Order"})
	items := field(t, order, "Items")
	assert.Equal(t, TypeKindSlice, items.Type.Kind)
	require.NotNil(t, items.Type.ElemType)
	assert.Equal(t, TypeKindStruct, items.Type.ElemType.Kind)
	assert.True(t, items.Type.IsCollection())

	batch := graph.GetType(TypeID{PkgPath: "automap-generator/warehouse", Name: "Batch"})
	orders := field(t, batch, "Orders")
	assert.Equal(t, TypeKindSeq, orders.Type.Kind)
	require.NotNil(t, orders.Type.ElemType)
	assert.Equal(t, "Order", orders.Type.ElemType.ID.Name)
	assert.True(t, orders.Type.IsCollection())
}

func TestAnalyzer_PointerField(t *testing.T) {
	graph := loadStore(t)

	customer := graph.GetType(TypeID{PkgPath: "automap-generator/store", Name: "Customer"})
	address := field(t, customer, "Address")

	assert.Equal(t, TypeKindPointer, address.Type.Kind)
	require.NotNil(t, address.Type.ElemType)
	assert.Equal(t, TypeKindStruct, address.Type.ElemType.Kind)
	assert.Equal(t, "Address", address.Type.ElemType.ID.Name)
}

func TestAnalyzer_NamedBasicType(t *testing.T) {
	graph := loadStore(t)

	status := graph.GetType(TypeID{PkgPath: "automap-generator/store", Name: "OrderStatus"})
	require.NotNil(t, status)

	// OrderStatus is a named type over string
	assert.Equal(t, TypeKindAlias, status.Kind)
	require.NotNil(t, status.Underlying)
	assert.Equal(t, TypeKindBasic, status.Underlying.Kind)
}

func TestAnalyzer_ProfileBases(t *testing.T) {
	graph := loadStore(t)

	profile := graph.GetType(TypeID{PkgPath: "automap-generator/store", Name: "MappingProfile"})
	require.NotNil(t, profile)
	assert.Contains(t, graph.BaseChain(profile), TypeID{PkgPath: DefaultMarkerPath, Name: "Profile"})
	// The embedded marker itself is not a mappable field.
	assert.Empty(t, profile.Fields)
}

func TestTypeID_String(t *testing.T) {
	id := TypeID{PkgPath: "automap-generator/store", Name: "Order"}
	assert.Equal(t, "automap-generator/store.Order", id.String())
	assert.Equal(t, "store.Order", id.Short())

	// Empty package path
	idNoPkg := TypeID{Name: "int"}
	assert.Equal(t, "int", idNoPkg.String())
}

func TestTypeKind_String(t *testing.T) {
	assert.Equal(t, "basic", TypeKindBasic.String())
	assert.Equal(t, "struct", TypeKindStruct.String())
	assert.Equal(t, "pointer", TypeKindPointer.String())
	assert.Equal(t, "slice", TypeKindSlice.String())
	assert.Equal(t, "seq", TypeKindSeq.String())
	assert.Equal(t, "alias", TypeKindAlias.String())
	assert.Equal(t, "external", TypeKindExternal.String())
	assert.Equal(t, "unknown", TypeKindUnknown.String())
}

func TestFieldInfo_JSONName(t *testing.T) {
	// Test with simple tag
	f1 := FieldInfo{Name: "MyField", Tag: `json:"my_field"`}
	assert.Equal(t, "my_field", f1.JSONName())

	// Test with options
	f2 := FieldInfo{Name: "MyField", Tag: `json:"my_field,omitempty"`}
	assert.Equal(t, "my_field", f2.JSONName())

	// Test with no tag
	f3 := FieldInfo{Name: "MyField", Tag: ""}
	assert.Equal(t, "MyField", f3.JSONName())

	// Test with "-" (ignored in JSON)
	f4 := FieldInfo{Name: "MyField", Tag: `json:"-"`}
	assert.Equal(t, "MyField", f4.JSONName())
}
