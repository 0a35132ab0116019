package audit

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "trinogate/internal/db"
	"trinogate/internal/db/repository"
	"trinogate/internal/domain"
)

func TestRecordPersistsDecision(t *testing.T) {
	writeDB, _ := internaldb.OpenTestSQLite(t)
	repo := repository.NewAuditRepo(writeDB)
	rec := NewRecorder("trinogate", repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	req := domain.NewAccessRequest(
		domain.NewTableResource("sales", "web", "orders"),
		"alice", []string{"analysts"}, domain.AccessDrop)
	rec.Record(ctx, "DropTable", req, &domain.AccessDecision{Allowed: true, PolicyID: 3})

	records, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	got := records[0]
	assert.Equal(t, "trinogate", got.AppID)
	assert.Equal(t, "alice", got.User)
	assert.Equal(t, "DropTable", got.Operation)
	assert.Equal(t, "drop", got.Access)
	assert.True(t, got.Allowed)
	assert.Equal(t, int64(3), got.PolicyID)
	assert.NotEmpty(t, got.ID)
}

func TestRecordNilDecisionIsDenial(t *testing.T) {
	writeDB, _ := internaldb.OpenTestSQLite(t)
	repo := repository.NewAuditRepo(writeDB)
	rec := NewRecorder("trinogate", repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	req := domain.NewAccessRequest(domain.NewCatalogResource("hr"), "bob", nil, domain.AccessUse)
	rec.Record(ctx, "AccessCatalog", req, nil)

	records, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].Allowed)
	assert.Zero(t, records[0].PolicyID)
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *Recorder
	req := domain.NewAccessRequest(domain.NewCatalogResource("sales"), "alice", nil, domain.AccessUse)
	rec.Record(context.Background(), "AccessCatalog", req, nil)
}
