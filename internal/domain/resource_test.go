package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityContextRoundTrip(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{User: "bob", Groups: []string{"ops"}})
	id, ok := IdentityFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, Identity{User: "bob", Groups: []string{"ops"}}, id)
}

func TestResourceShapes(t *testing.T) {
	tests := []struct {
		name string
		res  Resource
		want map[string]string
	}{
		{"catalog", NewCatalogResource("sales"), map[string]string{KeyCatalog: "sales"}},
		{"schema", NewSchemaResource("sales", "web"), map[string]string{KeyCatalog: "sales", KeySchema: "web"}},
		{"table", NewTableResource("sales", "web", "orders"), map[string]string{
			KeyCatalog: "sales", KeySchema: "web", KeyTable: "orders"}},
		{"column", NewColumnResource("sales", "web", "orders", "total"), map[string]string{
			KeyCatalog: "sales", KeySchema: "web", KeyTable: "orders", KeyColumn: "total"}},
		{"user", NewUserResource("bob"), map[string]string{KeyUser: "bob"}},
		{"function", NewFunctionResource("lower"), map[string]string{KeyFunction: "lower"}},
		{"procedure", NewProcedureResource("hive", "system", "sync_partitions"), map[string]string{
			KeyCatalog: "hive", KeySchema: "system", KeyProcedure: "sync_partitions"}},
		{"session property", NewSessionPropertyResource("hive", "compression"), map[string]string{
			KeyCatalog: "hive", KeySessionProperty: "compression"}},
		{"system property", NewSystemPropertyResource("query_max_memory"), map[string]string{
			KeySystemProperty: "query_max_memory"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.res.Elements())
		})
	}
}

func TestResourceHierarchyInvariant(t *testing.T) {
	// No constructor can produce a finer level without every coarser one.
	for _, res := range []Resource{
		NewSchemaResource("c", "s"),
		NewTableResource("c", "s", "t"),
		NewColumnResource("c", "s", "t", "col"),
	} {
		if _, ok := res.Value(KeySchema); ok {
			_, hasCatalog := res.Value(KeyCatalog)
			assert.True(t, hasCatalog, "schema without catalog in %s", res)
		}
		if _, ok := res.Value(KeyTable); ok {
			_, hasSchema := res.Value(KeySchema)
			assert.True(t, hasSchema, "table without schema in %s", res)
		}
		if _, ok := res.Value(KeyColumn); ok {
			_, hasTable := res.Value(KeyTable)
			assert.True(t, hasTable, "column without table in %s", res)
		}
	}
}

func TestColumnResourcesFanOut(t *testing.T) {
	resources := ColumnResources("c", "s", "t", []string{"a", "b"})
	require.Len(t, resources, 2)
	cols := map[string]bool{}
	for _, r := range resources {
		col, ok := r.Value(KeyColumn)
		require.True(t, ok)
		cols[col] = true
	}
	assert.Equal(t, map[string]bool{"a": true, "b": true}, cols)
}

func TestColumnResourcesEmptyMeansAnyColumn(t *testing.T) {
	resources := ColumnResources("c", "s", "t", nil)
	require.Len(t, resources, 1)
	_, hasColumn := resources[0].Value(KeyColumn)
	assert.False(t, hasColumn)
	assert.Equal(t, "t", resources[0].Table())
}

func TestResourceElementsIsACopy(t *testing.T) {
	res := NewTableResource("c", "s", "t")
	elems := res.Elements()
	elems[KeyTable] = "mutated"
	assert.Equal(t, "t", res.Table())
}

func TestAccessTypeWire(t *testing.T) {
	assert.Equal(t, "select", AccessSelect.Wire())
	assert.Equal(t, "impersonate", AccessImpersonate.Wire())
}

func TestParseAccessType(t *testing.T) {
	a, err := ParseAccessType("Select")
	require.NoError(t, err)
	assert.Equal(t, AccessSelect, a)

	_, err = ParseAccessType("frobnicate")
	assert.Error(t, err)
}

func TestDenyCarriesOperationAndTarget(t *testing.T) {
	err := Deny("DropTable", "sales.web.orders")
	var denied *AccessDeniedError
	require.True(t, errors.As(err, &denied))
	assert.Equal(t, "DropTable", denied.Operation)
	assert.Equal(t, "sales.web.orders", denied.Target)
	assert.Contains(t, denied.Error(), "Access Denied")
}
