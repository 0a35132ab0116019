package accesscontrol

import (
	"context"
	"strings"

	"trinogate/internal/domain"
)

// Row filter and data mask translation. Policy results carry either a
// literal expression or a named transformer template; this file turns
// both into engine view expressions scoped to the table's catalog and
// schema.

// GetRowFilters returns the row filter expression applying to table for
// id, or an empty slice when none applies. At most one filter is
// returned; overlapping policies do not compose.
func (s *SystemAccessControl) GetRowFilters(ctx context.Context, id domain.Identity, table domain.CatalogSchemaTableName) ([]domain.ViewExpression, error) {
	res := domain.NewTableResource(table.Catalog, table.Schema, table.Table)
	req, err := s.newRequest(ctx, id, res, domain.AccessSelect)
	if err != nil {
		return nil, err
	}
	result, err := s.evaluator.EvalRowFilterPolicies(ctx, req)
	if err != nil {
		return nil, err
	}
	if result == nil || !result.Enabled || result.FilterExpr == "" {
		return nil, nil
	}
	s.logger.Debug("row filter applied",
		"user", id.User, "table", table.String(), "policy_id", result.PolicyID)
	return []domain.ViewExpression{{
		Identity:   id.User,
		Catalog:    table.Catalog,
		Schema:     table.Schema,
		Expression: result.FilterExpr,
	}}, nil
}

// GetColumnMask returns the mask expression for one column of table, or
// nil when the column is unmasked. columnType is the engine type name
// and is substituted into transformer templates.
func (s *SystemAccessControl) GetColumnMask(ctx context.Context, id domain.Identity, table domain.CatalogSchemaTableName, column, columnType string) (*domain.ViewExpression, error) {
	res := domain.NewColumnResource(table.Catalog, table.Schema, table.Table, column)
	req, err := s.newRequest(ctx, id, res, domain.AccessSelect)
	if err != nil {
		return nil, err
	}
	result, err := s.evaluator.EvalDataMaskPolicies(ctx, req)
	if err != nil {
		return nil, err
	}
	if result == nil || !result.Enabled {
		return nil, nil
	}
	expr := resolveMaskTransformer(result, column, columnType)
	if expr == "" {
		return nil, nil
	}
	s.logger.Debug("column mask applied",
		"user", id.User, "table", table.String(), "column", column,
		"mask_type", result.MaskType, "policy_id", result.PolicyID)
	return &domain.ViewExpression{
		Identity:   id.User,
		Catalog:    table.Catalog,
		Schema:     table.Schema,
		Expression: expr,
	}, nil
}

// resolveMaskTransformer produces the replacement expression for a mask
// result. Nulling masks replace the value with literal NULL. Custom
// masks use the policy's stored expression, falling back to NULL when
// the policy omits one. Every other mask type resolves through its type
// definition's transformer template. Column and type tokens are
// substituted in whichever transformer was resolved, so a custom
// expression may reference them too. An absent or empty transformer
// masks nothing.
func resolveMaskTransformer(result *domain.DataMaskResult, column, columnType string) string {
	var transformer string
	switch result.MaskType {
	case domain.MaskTypeNull:
		transformer = "NULL"
	case domain.MaskTypeCustom:
		transformer = "NULL"
		if result.MaskedValue != nil && *result.MaskedValue != "" {
			transformer = *result.MaskedValue
		}
	default:
		if result.MaskTypeDef == nil {
			return ""
		}
		transformer = result.MaskTypeDef.Transformer
	}
	if transformer == "" {
		return ""
	}
	transformer = strings.ReplaceAll(transformer, domain.MaskTokenColumn, column)
	return strings.ReplaceAll(transformer, domain.MaskTokenType, columnType)
}
