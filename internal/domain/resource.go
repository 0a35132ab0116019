// Package domain defines the resource model, request and decision types,
// typed errors, and the ports consumed by the access control core.
package domain

import (
	"sort"
	"strings"
)

// Resource element keys as they appear in evaluation requests.
const (
	KeyCatalog         = "catalog"
	KeySchema          = "schema"
	KeyTable           = "table"
	KeyColumn          = "column"
	KeyUser            = "user"
	KeyFunction        = "function"
	KeyProcedure       = "procedure"
	KeySystemProperty  = "systemproperty"
	KeySessionProperty = "sessionproperty"
)

// Resource identifies the object an operation targets. It is either a
// hierarchical path (catalog > schema > table > column, where a level is
// set only when every coarser level is set) or a single flat entity such
// as a user or function name. Resources are built per check and never
// mutated afterwards.
type Resource struct {
	elements map[string]string
}

func newResource(elements map[string]string) Resource {
	return Resource{elements: elements}
}

// NewCatalogResource returns a resource scoped to a whole catalog.
func NewCatalogResource(catalog string) Resource {
	return newResource(map[string]string{KeyCatalog: catalog})
}

// NewSchemaResource returns a resource scoped to a schema within a catalog.
func NewSchemaResource(catalog, schema string) Resource {
	return newResource(map[string]string{KeyCatalog: catalog, KeySchema: schema})
}

// NewTableResource returns a resource scoped to a table.
func NewTableResource(catalog, schema, table string) Resource {
	return newResource(map[string]string{KeyCatalog: catalog, KeySchema: schema, KeyTable: table})
}

// NewColumnResource returns a resource scoped to a single column.
func NewColumnResource(catalog, schema, table, column string) Resource {
	return newResource(map[string]string{
		KeyCatalog: catalog, KeySchema: schema, KeyTable: table, KeyColumn: column,
	})
}

// NewUserResource returns a flat resource keyed by a username.
func NewUserResource(user string) Resource {
	return newResource(map[string]string{KeyUser: user})
}

// NewFunctionResource returns a flat resource keyed by a function name.
func NewFunctionResource(function string) Resource {
	return newResource(map[string]string{KeyFunction: function})
}

// NewProcedureResource returns a resource for a procedure within a schema.
func NewProcedureResource(catalog, schema, procedure string) Resource {
	return newResource(map[string]string{
		KeyCatalog: catalog, KeySchema: schema, KeyProcedure: procedure,
	})
}

// NewSessionPropertyResource returns a resource for a catalog session property.
func NewSessionPropertyResource(catalog, property string) Resource {
	return newResource(map[string]string{KeyCatalog: catalog, KeySessionProperty: property})
}

// NewSystemPropertyResource returns a flat resource for a system session property.
func NewSystemPropertyResource(property string) Resource {
	return newResource(map[string]string{KeySystemProperty: property})
}

// ColumnResources expands a table plus a column set into one resource per
// column. An empty column set yields a single table-level resource with no
// column element, meaning "any column".
func ColumnResources(catalog, schema, table string, columns []string) []Resource {
	if len(columns) == 0 {
		return []Resource{NewTableResource(catalog, schema, table)}
	}
	out := make([]Resource, 0, len(columns))
	for _, col := range columns {
		out = append(out, NewColumnResource(catalog, schema, table, col))
	}
	return out
}

// Value returns the element stored under key, if any.
func (r Resource) Value(key string) (string, bool) {
	v, ok := r.elements[key]
	return v, ok
}

// Elements returns a copy of the element map.
func (r Resource) Elements() map[string]string {
	out := make(map[string]string, len(r.elements))
	for k, v := range r.elements {
		out[k] = v
	}
	return out
}

// Catalog returns the catalog element, or "" for flat resources.
func (r Resource) Catalog() string { return r.elements[KeyCatalog] }

// Schema returns the schema element, or "" when not set.
func (r Resource) Schema() string { return r.elements[KeySchema] }

// Table returns the table element, or "" when not set.
func (r Resource) Table() string { return r.elements[KeyTable] }

// String renders the resource as key=value pairs in stable order.
func (r Resource) String() string {
	keys := make([]string, 0, len(r.elements))
	for k := range r.elements {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+r.elements[k])
	}
	return strings.Join(parts, ",")
}
