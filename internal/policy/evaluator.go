package policy

import (
	"context"
	"log/slog"

	"trinogate/internal/domain"
)

// Evaluator answers evaluation requests from the in-memory policy store.
// It implements domain.PolicyEvaluator. Stateless between calls; safe for
// concurrent use.
type Evaluator struct {
	store  *Store
	logger *slog.Logger
}

// NewEvaluator creates an Evaluator over the given store.
func NewEvaluator(store *Store, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{store: store, logger: logger}
}

// IsAccessAllowed returns an allowing decision when any access policy
// covers the request's resource, access type, and principal. No matching
// policy means a nil decision; the caller treats that as denied.
func (e *Evaluator) IsAccessAllowed(_ context.Context, req *domain.AccessRequest) (*domain.AccessDecision, error) {
	for _, p := range e.store.AccessPolicies() {
		if p.MatchesAccess(req.Access) && p.MatchesResource(req.Resource) && p.MatchesPrincipal(req) {
			e.logger.Debug("access allowed",
				"policy", p.Name, "user", req.User, "access", req.Access.Wire(), "resource", req.Resource.String())
			return &domain.AccessDecision{Allowed: true, PolicyID: p.ID}, nil
		}
	}
	return nil, nil
}

// EvalRowFilterPolicies returns the filter attached to the first row
// filter policy matching the request's table and principal. Only one
// filter is produced per table.
func (e *Evaluator) EvalRowFilterPolicies(_ context.Context, req *domain.AccessRequest) (*domain.RowFilterResult, error) {
	for _, p := range e.store.RowFilterPolicies() {
		if p.Matches(req) {
			return &domain.RowFilterResult{
				Enabled:    true,
				FilterExpr: p.FilterExpr,
				PolicyID:   p.ID,
			}, nil
		}
	}
	return nil, nil
}

// EvalDataMaskPolicies returns the mask attached to the first data mask
// policy matching the request's column and principal, along with the
// stored transformer definition for its mask type, when one exists.
func (e *Evaluator) EvalDataMaskPolicies(_ context.Context, req *domain.AccessRequest) (*domain.DataMaskResult, error) {
	for _, p := range e.store.DataMaskPolicies() {
		if p.Matches(req) {
			return &domain.DataMaskResult{
				Enabled:     true,
				MaskType:    p.MaskType,
				MaskTypeDef: e.store.MaskTypeDef(p.MaskType),
				MaskedValue: p.MaskedValue,
				PolicyID:    p.ID,
			}, nil
		}
	}
	return nil, nil
}
