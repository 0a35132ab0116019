package domain

import "context"

// PolicyEvaluator matches an evaluation request against stored policies.
// Implementations must be safe for concurrent use. A nil decision or
// result together with a nil error means no policy matched; callers treat
// that as a denial (or no filter / no mask). Evaluator failures propagate
// unwrapped; this layer attempts no recovery.
type PolicyEvaluator interface {
	IsAccessAllowed(ctx context.Context, req *AccessRequest) (*AccessDecision, error)
	EvalRowFilterPolicies(ctx context.Context, req *AccessRequest) (*RowFilterResult, error)
	EvalDataMaskPolicies(ctx context.Context, req *AccessRequest) (*DataMaskResult, error)
}

// GroupResolver supplies the group memberships evaluated for an identity.
// Exactly one resolver is selected at startup; sources are never merged.
type GroupResolver interface {
	Groups(ctx context.Context, identity Identity) ([]string, error)
}
