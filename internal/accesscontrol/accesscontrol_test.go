package accesscontrol

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trinogate/internal/domain"
	"trinogate/internal/groups"
)

// fakeEvaluator records every request and answers from the configured
// functions. The zero value denies everything.
type fakeEvaluator struct {
	requests []*domain.AccessRequest
	allow    func(req *domain.AccessRequest) bool
	err      error
	rowErr   error
	maskErr  error
	filter   func(req *domain.AccessRequest) *domain.RowFilterResult
	mask     func(req *domain.AccessRequest) *domain.DataMaskResult
}

func (f *fakeEvaluator) IsAccessAllowed(_ context.Context, req *domain.AccessRequest) (*domain.AccessDecision, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.allow != nil && f.allow(req) {
		return &domain.AccessDecision{Allowed: true, PolicyID: 7}, nil
	}
	return nil, nil
}

func (f *fakeEvaluator) EvalRowFilterPolicies(_ context.Context, req *domain.AccessRequest) (*domain.RowFilterResult, error) {
	f.requests = append(f.requests, req)
	if f.rowErr != nil {
		return nil, f.rowErr
	}
	if f.filter == nil {
		return nil, nil
	}
	return f.filter(req), nil
}

func (f *fakeEvaluator) EvalDataMaskPolicies(_ context.Context, req *domain.AccessRequest) (*domain.DataMaskResult, error) {
	f.requests = append(f.requests, req)
	if f.maskErr != nil {
		return nil, f.maskErr
	}
	if f.mask == nil {
		return nil, nil
	}
	return f.mask(req), nil
}

func allowAll(*domain.AccessRequest) bool { return true }

// rv reads one resource element, ignoring presence.
func rv(res domain.Resource, key string) string {
	v, _ := res.Value(key)
	return v
}

func newTestControl(eval *fakeEvaluator) *SystemAccessControl {
	return New(Config{
		Evaluator: eval,
		Groups:    groups.IdentityGroups{},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

var (
	alice = domain.Identity{User: "alice", Groups: []string{"analysts"}}
	sales = domain.CatalogSchemaTableName{Catalog: "sales", Schema: "web", Table: "orders"}
)

func TestStaticDenialsSkipEvaluator(t *testing.T) {
	eval := &fakeEvaluator{allow: allowAll}
	ac := newTestControl(eval)
	ctx := context.Background()

	for _, err := range []error{
		ac.CheckCanCreateCatalog(ctx, alice, "sales"),
		ac.CheckCanDropCatalog(ctx, alice, "sales"),
		ac.CheckCanGrantEntityPrivilege(ctx, alice, "sales"),
		ac.CheckCanDenyEntityPrivilege(ctx, alice, "sales"),
		ac.CheckCanRevokeEntityPrivilege(ctx, alice, "sales"),
	} {
		var denied *domain.AccessDeniedError
		require.ErrorAs(t, err, &denied)
	}
	assert.Empty(t, eval.requests, "static denials must not consult the evaluator")
}

func TestFixedNoOpsSkipEvaluator(t *testing.T) {
	eval := &fakeEvaluator{} // denies everything it is asked
	ac := newTestControl(eval)
	ctx := context.Background()

	require.NoError(t, ac.CheckCanSetUser(ctx, alice, "bob"))
	require.NoError(t, ac.CheckCanExecuteQuery(ctx, alice))

	cols, err := ac.FilterColumns(ctx, alice, sales, []string{"id", "email"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "email"}, cols)

	owners, err := ac.FilterViewQueryOwnedBy(ctx, alice, []string{"bob", "carol"})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, owners)

	assert.Empty(t, eval.requests)
}

func TestAuthorizeBuildsRequest(t *testing.T) {
	eval := &fakeEvaluator{allow: allowAll}
	ac := newTestControl(eval)

	require.NoError(t, ac.CheckCanDropTable(context.Background(), alice, sales))

	require.Len(t, eval.requests, 1)
	req := eval.requests[0]
	assert.Equal(t, "alice", req.User)
	assert.Equal(t, []string{"analysts"}, req.UserGroups)
	assert.Equal(t, domain.AccessDrop, req.Access)
	assert.Equal(t, "drop", req.Access.Wire())
	assert.Equal(t, "sales", rv(req.Resource, domain.KeyCatalog))
	assert.Equal(t, "web", rv(req.Resource, domain.KeySchema))
	assert.Equal(t, "orders", rv(req.Resource, domain.KeyTable))
	assert.False(t, req.AccessTime.IsZero())
}

func TestDenialNamesOperationAndTarget(t *testing.T) {
	ac := newTestControl(&fakeEvaluator{})

	err := ac.CheckCanInsertIntoTable(context.Background(), alice, sales)
	var denied *domain.AccessDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "InsertIntoTable", denied.Operation)
	assert.Equal(t, "sales.web.orders", denied.Target)
	assert.Contains(t, denied.Message, "Access Denied")
	assert.Contains(t, denied.Message, "sales.web.orders")
}

func TestSelectFromColumnsFansOutPerColumn(t *testing.T) {
	eval := &fakeEvaluator{allow: allowAll}
	ac := newTestControl(eval)

	err := ac.CheckCanSelectFromColumns(context.Background(), alice, sales, []string{"id", "email", "total"})
	require.NoError(t, err)

	require.Len(t, eval.requests, 3)
	for i, col := range []string{"id", "email", "total"} {
		req := eval.requests[i]
		assert.Equal(t, col, rv(req.Resource, domain.KeyColumn))
		assert.Equal(t, "orders", rv(req.Resource, domain.KeyTable))
		assert.Equal(t, domain.AccessSelect, req.Access)
	}
}

func TestSelectFromColumnsEmptyListChecksTable(t *testing.T) {
	eval := &fakeEvaluator{allow: allowAll}
	ac := newTestControl(eval)

	require.NoError(t, ac.CheckCanSelectFromColumns(context.Background(), alice, sales, nil))

	require.Len(t, eval.requests, 1)
	req := eval.requests[0]
	assert.Equal(t, "orders", rv(req.Resource, domain.KeyTable))
	assert.Empty(t, rv(req.Resource, domain.KeyColumn))
}

func TestSelectFromColumnsDenialNamesAllColumns(t *testing.T) {
	eval := &fakeEvaluator{allow: func(req *domain.AccessRequest) bool {
		return rv(req.Resource, domain.KeyColumn) != "email"
	}}
	ac := newTestControl(eval)

	err := ac.CheckCanSelectFromColumns(context.Background(), alice, sales, []string{"id", "email", "total"})
	var denied *domain.AccessDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Contains(t, denied.Target, "id")
	assert.Contains(t, denied.Target, "email")
	assert.Contains(t, denied.Target, "total")
}

func TestImpersonateUserTargetsImpersonatedName(t *testing.T) {
	eval := &fakeEvaluator{allow: allowAll}
	ac := newTestControl(eval)

	require.NoError(t, ac.CheckCanImpersonateUser(context.Background(), alice, "bob"))

	require.Len(t, eval.requests, 1)
	req := eval.requests[0]
	assert.Equal(t, "bob", rv(req.Resource, domain.KeyUser), "resource is keyed by the target user")
	assert.Equal(t, "alice", req.User, "requester stays the acting identity")
	assert.Equal(t, domain.AccessImpersonate, req.Access)
}

func TestImpersonateUserDenialNamesBothUsers(t *testing.T) {
	ac := newTestControl(&fakeEvaluator{})

	err := ac.CheckCanImpersonateUser(context.Background(), alice, "bob")
	var denied *domain.AccessDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Contains(t, denied.Message, "alice")
	assert.Contains(t, denied.Message, "bob")
}

func TestSystemInformationChecksOwnUser(t *testing.T) {
	eval := &fakeEvaluator{allow: allowAll}
	ac := newTestControl(eval)
	ctx := context.Background()

	require.NoError(t, ac.CheckCanReadSystemInformation(ctx, alice))
	require.NoError(t, ac.CheckCanWriteSystemInformation(ctx, alice))

	require.Len(t, eval.requests, 2)
	for _, req := range eval.requests {
		assert.Equal(t, "alice", rv(req.Resource, domain.KeyUser))
		assert.Equal(t, domain.AccessImpersonate, req.Access)
	}
}

func TestDropViewDenialReportsCreateView(t *testing.T) {
	eval := &fakeEvaluator{}
	ac := newTestControl(eval)

	err := ac.CheckCanDropView(context.Background(), alice, sales)
	var denied *domain.AccessDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "CreateView", denied.Operation)

	// The underlying evaluation is still a DROP check.
	require.Len(t, eval.requests, 1)
	assert.Equal(t, domain.AccessDrop, eval.requests[0].Access)
}

func TestCreateViewWithSelectResignalsDenial(t *testing.T) {
	ac := newTestControl(&fakeEvaluator{})

	err := ac.CheckCanCreateViewWithSelectFromColumns(context.Background(), alice, sales, []string{"id"})
	var denied *domain.AccessDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "CreateViewWithSelectFromColumns", denied.Operation)
	assert.Contains(t, denied.Message, "sales.web.orders")
	assert.Contains(t, denied.Message, "alice")
}

func TestCreateViewWithSelectAllowedPath(t *testing.T) {
	eval := &fakeEvaluator{allow: allowAll}
	ac := newTestControl(eval)

	err := ac.CheckCanCreateViewWithSelectFromColumns(context.Background(), alice, sales, []string{"id"})
	require.NoError(t, err)
	// Delegates to create-view: one CREATE check at the schema.
	require.Len(t, eval.requests, 1)
	assert.Equal(t, domain.AccessCreate, eval.requests[0].Access)
	assert.Empty(t, rv(eval.requests[0].Resource, domain.KeyTable))
}

func TestExecuteTableProcedureIsTableAlter(t *testing.T) {
	eval := &fakeEvaluator{allow: allowAll}
	ac := newTestControl(eval)

	require.NoError(t, ac.CheckCanExecuteTableProcedure(context.Background(), alice, sales, "optimize"))

	require.Len(t, eval.requests, 1)
	req := eval.requests[0]
	assert.Equal(t, domain.AccessAlter, req.Access)
	assert.Equal(t, "orders", rv(req.Resource, domain.KeyTable))
}

func TestEvaluatorErrorPropagatesUnwrapped(t *testing.T) {
	boom := errors.New("policy store unavailable")
	ac := newTestControl(&fakeEvaluator{err: boom})

	err := ac.CheckCanDropTable(context.Background(), alice, sales)
	require.ErrorIs(t, err, boom)
	var denied *domain.AccessDeniedError
	assert.False(t, errors.As(err, &denied), "infrastructure failures are not denials")
}

func TestGroupsComeFromResolver(t *testing.T) {
	eval := &fakeEvaluator{allow: allowAll}
	ac := New(Config{
		Evaluator: eval,
		Groups:    staticResolver{"finance", "admins"},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	require.NoError(t, ac.CheckCanDropTable(context.Background(), alice, sales))
	require.Len(t, eval.requests, 1)
	assert.Equal(t, []string{"finance", "admins"}, eval.requests[0].UserGroups,
		"resolver output replaces session groups, never merges with them")
}

type staticResolver []string

func (r staticResolver) Groups(context.Context, domain.Identity) ([]string, error) {
	return r, nil
}

type failingResolver struct{ err error }

func (r failingResolver) Groups(context.Context, domain.Identity) ([]string, error) {
	return nil, r.err
}

func TestGroupResolutionFailureFailsCheck(t *testing.T) {
	boom := errors.New("ldap down")
	ac := New(Config{
		Evaluator: &fakeEvaluator{allow: allowAll},
		Groups:    failingResolver{err: boom},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	err := ac.CheckCanDropTable(context.Background(), alice, sales)
	require.ErrorIs(t, err, boom)
}

func TestCanAccessCatalog(t *testing.T) {
	eval := &fakeEvaluator{allow: func(req *domain.AccessRequest) bool {
		return rv(req.Resource, domain.KeyCatalog) == "sales"
	}}
	ac := newTestControl(eval)
	ctx := context.Background()

	ok, err := ac.CanAccessCatalog(ctx, alice, "sales")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ac.CanAccessCatalog(ctx, alice, "hr")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, domain.AccessUse, eval.requests[0].Access)
}

func TestCanExecuteFunction(t *testing.T) {
	eval := &fakeEvaluator{allow: allowAll}
	ac := newTestControl(eval)

	ok, err := ac.CanExecuteFunction(context.Background(), alice, "parse_ua")
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, eval.requests, 1)
	assert.Equal(t, "parse_ua", rv(eval.requests[0].Resource, domain.KeyFunction))
	assert.Equal(t, domain.AccessExecute, eval.requests[0].Access)
}

func TestFilterTablesKeepsAllowedSubsetInOrder(t *testing.T) {
	eval := &fakeEvaluator{allow: func(req *domain.AccessRequest) bool {
		return rv(req.Resource, domain.KeyTable) != "salaries"
	}}
	ac := newTestControl(eval)

	tables := []domain.SchemaTableName{
		{Schema: "web", Table: "orders"},
		{Schema: "hr", Table: "salaries"},
		{Schema: "web", Table: "events"},
	}
	visible, err := ac.FilterTables(context.Background(), alice, "sales", tables)
	require.NoError(t, err)
	assert.Equal(t, []domain.SchemaTableName{
		{Schema: "web", Table: "orders"},
		{Schema: "web", Table: "events"},
	}, visible)
}

func TestFilterCatalogsAndSchemas(t *testing.T) {
	eval := &fakeEvaluator{allow: func(req *domain.AccessRequest) bool {
		if s := rv(req.Resource, domain.KeySchema); s != "" {
			return s == "web"
		}
		return rv(req.Resource, domain.KeyCatalog) == "sales"
	}}
	ac := newTestControl(eval)
	ctx := context.Background()

	catalogs, err := ac.FilterCatalogs(ctx, alice, []string{"sales", "hr", "system"})
	require.NoError(t, err)
	assert.Equal(t, []string{"sales"}, catalogs)

	schemas, err := ac.FilterSchemas(ctx, alice, "sales", []string{"web", "internal"})
	require.NoError(t, err)
	assert.Equal(t, []string{"web"}, schemas)
}

func TestSessionPropertyChecks(t *testing.T) {
	eval := &fakeEvaluator{allow: allowAll}
	ac := newTestControl(eval)
	ctx := context.Background()

	require.NoError(t, ac.CheckCanSetSystemSessionProperty(ctx, alice, "query_max_memory"))
	require.NoError(t, ac.CheckCanSetCatalogSessionProperty(ctx, alice, "sales", "parallelism"))

	require.Len(t, eval.requests, 2)
	assert.Equal(t, "query_max_memory", rv(eval.requests[0].Resource, domain.KeySystemProperty))
	assert.Equal(t, domain.AccessAlter, eval.requests[0].Access)
	assert.Equal(t, "sales", rv(eval.requests[1].Resource, domain.KeyCatalog))
	assert.Equal(t, "parallelism", rv(eval.requests[1].Resource, domain.KeySessionProperty))
}

func TestCoarseGranularityOps(t *testing.T) {
	eval := &fakeEvaluator{allow: allowAll}
	ac := newTestControl(eval)
	ctx := context.Background()

	// Schema creation is checked against the catalog only.
	require.NoError(t, ac.CheckCanCreateSchema(ctx, alice, domain.CatalogSchemaName{Catalog: "sales", Schema: "new"}))
	assert.Empty(t, rv(eval.requests[0].Resource, domain.KeySchema))

	// Table creation is checked against the schema only.
	require.NoError(t, ac.CheckCanCreateTable(ctx, alice, sales))
	assert.Equal(t, "web", rv(eval.requests[1].Resource, domain.KeySchema))
	assert.Empty(t, rv(eval.requests[1].Resource, domain.KeyTable))
}
