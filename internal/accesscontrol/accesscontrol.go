package accesscontrol

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"trinogate/internal/audit"
	"trinogate/internal/domain"
)

// Target carries the operation operand. Only the fields the operation's
// granularity needs are consulted; the rest are ignored.
type Target struct {
	Catalog   string
	Schema    string
	Table     string
	Columns   []string
	Property  string
	User      string
	Function  string
	Procedure string
}

// Config wires a SystemAccessControl.
type Config struct {
	Evaluator domain.PolicyEvaluator
	Groups    domain.GroupResolver
	Audit     *audit.Recorder
	Logger    *slog.Logger
}

// SystemAccessControl answers engine authorization checks by mapping
// each operation onto a policy evaluation request via the dispatch
// table, and by translating row filter and data mask policies into
// engine expressions.
type SystemAccessControl struct {
	evaluator domain.PolicyEvaluator
	groups    domain.GroupResolver
	audit     *audit.Recorder
	logger    *slog.Logger
}

func New(cfg Config) *SystemAccessControl {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SystemAccessControl{
		evaluator: cfg.Evaluator,
		groups:    cfg.Groups,
		audit:     cfg.Audit,
		logger:    logger,
	}
}

// newRequest builds a policy evaluation request for id against res.
// Group membership comes from the configured resolver; resolution
// failures fail the check rather than silently evaluating groupless.
func (s *SystemAccessControl) newRequest(ctx context.Context, id domain.Identity, res domain.Resource, access domain.AccessType) (*domain.AccessRequest, error) {
	groups, err := s.groups.Groups(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolve groups for %q: %w", id.User, err)
	}
	return domain.NewAccessRequest(res, id.User, groups, access), nil
}

// hasPermission runs one evaluation round trip and records the outcome.
// Evaluator failures propagate unchanged so callers can distinguish
// infrastructure errors from policy denials.
func (s *SystemAccessControl) hasPermission(ctx context.Context, id domain.Identity, op Operation, res domain.Resource, access domain.AccessType) (bool, error) {
	req, err := s.newRequest(ctx, id, res, access)
	if err != nil {
		return false, err
	}
	decision, err := s.evaluator.IsAccessAllowed(ctx, req)
	if err != nil {
		return false, err
	}
	s.audit.Record(ctx, string(op), req, decision)
	if decision == nil {
		return false, nil
	}
	return decision.Allowed, nil
}

// Authorize runs op for id against t and returns an AccessDeniedError
// when policy does not permit it. Static rows in the dispatch table
// short-circuit without consulting the evaluator.
func (s *SystemAccessControl) Authorize(ctx context.Context, id domain.Identity, op Operation, t Target) error {
	rule, ok := operationRules[op]
	if !ok {
		return domain.ErrValidation("unknown operation %q", op)
	}
	switch rule.Conduct {
	case conductStaticAllow:
		return nil
	case conductStaticDeny:
		s.logger.Debug("operation denied unconditionally", "operation", op, "user", id.User)
		return domain.Deny(string(op), denialTarget(op, rule, id, t))
	}

	if rule.Level == levelColumn {
		for _, res := range domain.ColumnResources(t.Catalog, t.Schema, t.Table, t.Columns) {
			allowed, err := s.hasPermission(ctx, id, op, res, rule.Access)
			if err != nil {
				return err
			}
			if !allowed {
				return domain.Deny(string(op), denialTarget(op, rule, id, t))
			}
		}
		return nil
	}

	allowed, err := s.hasPermission(ctx, id, op, resourceFor(rule.Level, t), rule.Access)
	if err != nil {
		return err
	}
	if !allowed {
		return domain.Deny(string(op), denialTarget(op, rule, id, t))
	}
	return nil
}

// Allowed answers op as a boolean instead of a denial error. It is the
// entry point for checks whose callers prune rather than fail, such as
// catalog visibility and function execution.
func (s *SystemAccessControl) Allowed(ctx context.Context, id domain.Identity, op Operation, t Target) (bool, error) {
	rule, ok := operationRules[op]
	if !ok {
		return false, domain.ErrValidation("unknown operation %q", op)
	}
	switch rule.Conduct {
	case conductStaticAllow:
		return true, nil
	case conductStaticDeny:
		return false, nil
	}
	return s.hasPermission(ctx, id, op, resourceFor(rule.Level, t), rule.Access)
}

// resourceFor shapes the evaluation resource for a granularity.
func resourceFor(level granularity, t Target) domain.Resource {
	switch level {
	case levelCatalog:
		return domain.NewCatalogResource(t.Catalog)
	case levelSchema:
		return domain.NewSchemaResource(t.Catalog, t.Schema)
	case levelTable:
		return domain.NewTableResource(t.Catalog, t.Schema, t.Table)
	case levelUser:
		return domain.NewUserResource(t.User)
	case levelFunction:
		return domain.NewFunctionResource(t.Function)
	case levelProcedure:
		return domain.NewProcedureResource(t.Catalog, t.Schema, t.Procedure)
	case levelSessionProperty:
		return domain.NewSessionPropertyResource(t.Catalog, t.Property)
	case levelSystemProperty:
		return domain.NewSystemPropertyResource(t.Property)
	default:
		return domain.NewCatalogResource(t.Catalog)
	}
}

// denialTarget names what was denied. Impersonation style operations
// name both the acting user and the target user; column selection names
// every requested column.
func denialTarget(op Operation, rule opRule, id domain.Identity, t Target) string {
	switch op {
	case OpImpersonateUser, OpViewQueryOwnedBy, OpKillQueryOwnedBy,
		OpReadSystemInformation, OpWriteSystemInformation:
		return fmt.Sprintf("user %s as %s", id.User, t.User)
	case OpSelectFromColumns:
		tbl := domain.CatalogSchemaTableName{Catalog: t.Catalog, Schema: t.Schema, Table: t.Table}
		if len(t.Columns) == 0 {
			return tbl.String()
		}
		return fmt.Sprintf("%s columns [%s]", tbl, strings.Join(t.Columns, ", "))
	}
	switch rule.Level {
	case levelCatalog:
		return t.Catalog
	case levelSchema:
		return domain.CatalogSchemaName{Catalog: t.Catalog, Schema: t.Schema}.String()
	case levelTable:
		return domain.CatalogSchemaTableName{Catalog: t.Catalog, Schema: t.Schema, Table: t.Table}.String()
	case levelUser:
		return "user " + t.User
	case levelFunction:
		return "function " + t.Function
	case levelProcedure:
		return domain.CatalogRoutineName{Catalog: t.Catalog, Schema: t.Schema, Routine: t.Procedure}.String()
	case levelSessionProperty:
		return fmt.Sprintf("session property %s.%s", t.Catalog, t.Property)
	case levelSystemProperty:
		return "system property " + t.Property
	default:
		return t.Catalog
	}
}
