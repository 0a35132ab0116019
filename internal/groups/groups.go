// Package groups provides the group membership sources selectable at
// startup. Exactly one resolver is configured per process; the session
// and external sources are never merged.
package groups

import (
	"context"

	"trinogate/internal/db/repository"
	"trinogate/internal/domain"
)

// IdentityGroups returns the groups already attached to the session
// identity. It implements domain.GroupResolver.
type IdentityGroups struct{}

// Groups returns identity.Groups unchanged.
func (IdentityGroups) Groups(_ context.Context, identity domain.Identity) ([]string, error) {
	return identity.Groups, nil
}

// StoreResolver derives group membership from the policy store,
// including nested groups. Groups carried on the identity are ignored.
// It implements domain.GroupResolver.
type StoreResolver struct {
	repo *repository.GroupRepo
}

// NewStoreResolver creates a StoreResolver over the given repository.
func NewStoreResolver(repo *repository.GroupRepo) *StoreResolver {
	return &StoreResolver{repo: repo}
}

// Groups looks up the transitive group memberships of identity's user.
func (r *StoreResolver) Groups(ctx context.Context, identity domain.Identity) ([]string, error) {
	return r.repo.GroupsForUser(ctx, identity.User)
}
