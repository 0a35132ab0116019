package accesscontrol

import (
	"context"

	"trinogate/internal/domain"
)

// Filtering callbacks return the subset of candidates the identity may
// see. Each candidate is checked independently, so output order follows
// input order and no candidate's outcome influences another's.

// FilterCatalogs keeps the catalogs id may select from.
func (s *SystemAccessControl) FilterCatalogs(ctx context.Context, id domain.Identity, catalogs []string) ([]string, error) {
	visible := make([]string, 0, len(catalogs))
	for _, catalog := range catalogs {
		ok, err := s.Allowed(ctx, id, OpFilterCatalogs, Target{Catalog: catalog})
		if err != nil {
			return nil, err
		}
		if ok {
			visible = append(visible, catalog)
		}
	}
	return visible, nil
}

// FilterSchemas keeps the schemas of catalog id may select from.
func (s *SystemAccessControl) FilterSchemas(ctx context.Context, id domain.Identity, catalog string, schemas []string) ([]string, error) {
	visible := make([]string, 0, len(schemas))
	for _, schema := range schemas {
		ok, err := s.Allowed(ctx, id, OpFilterSchemas, Target{Catalog: catalog, Schema: schema})
		if err != nil {
			return nil, err
		}
		if ok {
			visible = append(visible, schema)
		}
	}
	return visible, nil
}

// FilterTables keeps the tables id may select from.
func (s *SystemAccessControl) FilterTables(ctx context.Context, id domain.Identity, catalog string, tables []domain.SchemaTableName) ([]domain.SchemaTableName, error) {
	visible := make([]domain.SchemaTableName, 0, len(tables))
	for _, table := range tables {
		ok, err := s.Allowed(ctx, id, OpFilterTables, Target{Catalog: catalog, Schema: table.Schema, Table: table.Table})
		if err != nil {
			return nil, err
		}
		if ok {
			visible = append(visible, table)
		}
	}
	return visible, nil
}

// FilterColumns performs no column pruning; every column passes
// through. Column visibility is enforced at select time instead.
func (s *SystemAccessControl) FilterColumns(ctx context.Context, id domain.Identity, table domain.CatalogSchemaTableName, columns []string) ([]string, error) {
	return columns, nil
}

// FilterViewQueryOwnedBy performs no owner pruning; every owner passes
// through.
func (s *SystemAccessControl) FilterViewQueryOwnedBy(ctx context.Context, id domain.Identity, owners []string) ([]string, error) {
	return owners, nil
}
