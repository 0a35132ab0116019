package repository

import (
	"context"
	"database/sql"
	"fmt"

	"trinogate/internal/domain"
	"trinogate/internal/policy"
)

// PolicyRepo persists and loads the three policy kinds.
type PolicyRepo struct {
	db *sql.DB
}

// NewPolicyRepo creates a PolicyRepo over the given pool.
func NewPolicyRepo(db *sql.DB) *PolicyRepo {
	return &PolicyRepo{db: db}
}

// SaveAccessPolicy inserts an access policy with its resource patterns,
// accesses, and principals in one transaction. The assigned ID is written
// back into p.
func (r *PolicyRepo) SaveAccessPolicy(ctx context.Context, p *policy.AccessPolicy) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`INSERT INTO access_policies (name) VALUES (?)`, p.Name)
	if err != nil {
		return mapDBError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for key, pattern := range p.Resource {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO policy_resources (policy_id, key, pattern) VALUES (?, ?, ?)`,
			id, key, pattern); err != nil {
			return mapDBError(err)
		}
	}
	for _, access := range p.Accesses {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO policy_accesses (policy_id, access) VALUES (?, ?)`,
			id, access.Wire()); err != nil {
			return mapDBError(err)
		}
	}
	if err := insertPrincipals(ctx, tx, "policy_principals", id, p.Users, p.Groups); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	p.ID = id
	return nil
}

// SaveRowFilterPolicy inserts a row filter policy and its principals.
func (r *PolicyRepo) SaveRowFilterPolicy(ctx context.Context, p *policy.RowFilterPolicy) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`INSERT INTO row_filter_policies (name, catalog, schema_name, table_name, filter_expr)
		 VALUES (?, ?, ?, ?, ?)`,
		p.Name, p.Catalog, p.Schema, p.Table, p.FilterExpr)
	if err != nil {
		return mapDBError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if err := insertPrincipals(ctx, tx, "row_filter_principals", id, p.Users, p.Groups); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	p.ID = id
	return nil
}

// SaveDataMaskPolicy inserts a data mask policy and its principals.
func (r *PolicyRepo) SaveDataMaskPolicy(ctx context.Context, p *policy.DataMaskPolicy) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	var maskedValue sql.NullString
	if p.MaskedValue != nil {
		maskedValue = sql.NullString{String: *p.MaskedValue, Valid: true}
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO data_mask_policies (name, catalog, schema_name, table_name, column_name, mask_type, masked_value)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Catalog, p.Schema, p.Table, p.Column, p.MaskType, maskedValue)
	if err != nil {
		return mapDBError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if err := insertPrincipals(ctx, tx, "data_mask_principals", id, p.Users, p.Groups); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	p.ID = id
	return nil
}

// LoadAccessPolicies reads every enabled access policy with its patterns,
// accesses, and principals.
func (r *PolicyRepo) LoadAccessPolicies(ctx context.Context) ([]policy.AccessPolicy, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name FROM access_policies WHERE enabled = 1 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var policies []policy.AccessPolicy
	for rows.Next() {
		var p policy.AccessPolicy
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		p.Resource = map[string]string{}
		policies = append(policies, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range policies {
		p := &policies[i]
		if err := r.loadAccessPolicyDetails(ctx, p); err != nil {
			return nil, fmt.Errorf("load access policy %q: %w", p.Name, err)
		}
	}
	return policies, nil
}

func (r *PolicyRepo) loadAccessPolicyDetails(ctx context.Context, p *policy.AccessPolicy) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, pattern FROM policy_resources WHERE policy_id = ?`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key, pattern string
		if err := rows.Scan(&key, &pattern); err != nil {
			return err
		}
		p.Resource[key] = pattern
	}
	if err := rows.Err(); err != nil {
		return err
	}

	accessRows, err := r.db.QueryContext(ctx,
		`SELECT access FROM policy_accesses WHERE policy_id = ?`, p.ID)
	if err != nil {
		return err
	}
	defer accessRows.Close()
	for accessRows.Next() {
		var access string
		if err := accessRows.Scan(&access); err != nil {
			return err
		}
		parsed, err := domain.ParseAccessType(access)
		if err != nil {
			return err
		}
		p.Accesses = append(p.Accesses, parsed)
	}
	if err := accessRows.Err(); err != nil {
		return err
	}

	p.Users, p.Groups, err = loadPrincipals(ctx, r.db, "policy_principals", p.ID)
	return err
}

// LoadRowFilterPolicies reads every row filter policy with its principals.
func (r *PolicyRepo) LoadRowFilterPolicies(ctx context.Context) ([]policy.RowFilterPolicy, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, catalog, schema_name, table_name, filter_expr
		 FROM row_filter_policies ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var policies []policy.RowFilterPolicy
	for rows.Next() {
		var p policy.RowFilterPolicy
		if err := rows.Scan(&p.ID, &p.Name, &p.Catalog, &p.Schema, &p.Table, &p.FilterExpr); err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range policies {
		p := &policies[i]
		var err error
		p.Users, p.Groups, err = loadPrincipals(ctx, r.db, "row_filter_principals", p.ID)
		if err != nil {
			return nil, fmt.Errorf("load row filter policy %q: %w", p.Name, err)
		}
	}
	return policies, nil
}

// LoadDataMaskPolicies reads every data mask policy with its principals.
func (r *PolicyRepo) LoadDataMaskPolicies(ctx context.Context) ([]policy.DataMaskPolicy, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, catalog, schema_name, table_name, column_name, mask_type, masked_value
		 FROM data_mask_policies ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var policies []policy.DataMaskPolicy
	for rows.Next() {
		var p policy.DataMaskPolicy
		var maskedValue sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.Catalog, &p.Schema, &p.Table, &p.Column, &p.MaskType, &maskedValue); err != nil {
			return nil, err
		}
		if maskedValue.Valid {
			v := maskedValue.String
			p.MaskedValue = &v
		}
		policies = append(policies, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range policies {
		p := &policies[i]
		var err error
		p.Users, p.Groups, err = loadPrincipals(ctx, r.db, "data_mask_principals", p.ID)
		if err != nil {
			return nil, fmt.Errorf("load data mask policy %q: %w", p.Name, err)
		}
	}
	return policies, nil
}

// LoadMaskTypes reads the mask type transformer definitions.
func (r *PolicyRepo) LoadMaskTypes(ctx context.Context) (map[string]domain.MaskTypeDef, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, transformer FROM mask_types`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]domain.MaskTypeDef{}
	for rows.Next() {
		var def domain.MaskTypeDef
		if err := rows.Scan(&def.Name, &def.Transformer); err != nil {
			return nil, err
		}
		out[def.Name] = def
	}
	return out, rows.Err()
}

// LoadInto reads all policies and mask types and installs them as the
// store's new snapshot.
func (r *PolicyRepo) LoadInto(ctx context.Context, store *policy.Store) error {
	access, err := r.LoadAccessPolicies(ctx)
	if err != nil {
		return fmt.Errorf("load access policies: %w", err)
	}
	rowFilters, err := r.LoadRowFilterPolicies(ctx)
	if err != nil {
		return fmt.Errorf("load row filter policies: %w", err)
	}
	dataMasks, err := r.LoadDataMaskPolicies(ctx)
	if err != nil {
		return fmt.Errorf("load data mask policies: %w", err)
	}
	maskTypes, err := r.LoadMaskTypes(ctx)
	if err != nil {
		return fmt.Errorf("load mask types: %w", err)
	}
	store.Replace(access, rowFilters, dataMasks, maskTypes)
	return nil
}

func insertPrincipals(ctx context.Context, tx *sql.Tx, table string, policyID int64, users, groups []string) error {
	stmt := `INSERT INTO ` + table + ` (policy_id, principal_type, name) VALUES (?, ?, ?)`
	for _, u := range users {
		if _, err := tx.ExecContext(ctx, stmt, policyID, "user", u); err != nil {
			return mapDBError(err)
		}
	}
	for _, g := range groups {
		if _, err := tx.ExecContext(ctx, stmt, policyID, "group", g); err != nil {
			return mapDBError(err)
		}
	}
	return nil
}

func loadPrincipals(ctx context.Context, db *sql.DB, table string, policyID int64) (users, groups []string, err error) {
	rows, err := db.QueryContext(ctx,
		`SELECT principal_type, name FROM `+table+` WHERE policy_id = ? ORDER BY name`, policyID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var principalType, name string
		if err := rows.Scan(&principalType, &name); err != nil {
			return nil, nil, err
		}
		if principalType == "group" {
			groups = append(groups, name)
		} else {
			users = append(users, name)
		}
	}
	return users, groups, rows.Err()
}
