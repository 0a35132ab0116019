// Package audit records authorization decisions. Recording is
// best-effort: a failed audit write never fails the check it describes.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"trinogate/internal/db/repository"
	"trinogate/internal/domain"
)

// Recorder writes one audit record per evaluated decision. A nil
// *Recorder is valid and records nothing.
type Recorder struct {
	appID  string
	repo   *repository.AuditRepo
	logger *slog.Logger
}

// NewRecorder creates a Recorder. repo may be nil to log only.
func NewRecorder(appID string, repo *repository.AuditRepo, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{appID: appID, repo: repo, logger: logger}
}

// Record logs the decision and, when a repository is configured,
// persists it.
func (r *Recorder) Record(ctx context.Context, operation string, req *domain.AccessRequest, decision *domain.AccessDecision) {
	if r == nil {
		return
	}
	allowed := decision != nil && decision.Allowed
	var policyID int64
	if decision != nil {
		policyID = decision.PolicyID
	}

	r.logger.Debug("authorization decision",
		"operation", operation,
		"user", req.User,
		"access", req.Access.Wire(),
		"resource", req.Resource.String(),
		"allowed", allowed,
	)

	if r.repo == nil {
		return
	}
	rec := &domain.AuditRecord{
		ID:        uuid.NewString(),
		EventTime: time.Now().UTC(),
		AppID:     r.appID,
		User:      req.User,
		Groups:    req.UserGroups,
		Operation: operation,
		Access:    req.Access.Wire(),
		Resource:  req.Resource.String(),
		Allowed:   allowed,
		PolicyID:  policyID,
	}
	if err := r.repo.Insert(ctx, rec); err != nil {
		r.logger.Warn("audit write failed", "error", err)
	}
}
