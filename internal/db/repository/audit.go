package repository

import (
	"context"
	"database/sql"
	"strings"

	"trinogate/internal/domain"
)

// AuditRepo persists authorization decision records.
type AuditRepo struct {
	db *sql.DB
}

// NewAuditRepo creates an AuditRepo over the given pool.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Insert stores one audit record.
func (r *AuditRepo) Insert(ctx context.Context, rec *domain.AuditRecord) error {
	allowed := 0
	if rec.Allowed {
		allowed = 1
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, event_time, app_id, user_name, user_groups, operation, access, resource, allowed, policy_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.EventTime, rec.AppID, rec.User, strings.Join(rec.Groups, ","),
		rec.Operation, rec.Access, rec.Resource, allowed, rec.PolicyID)
	return mapDBError(err)
}

// ListRecent returns the newest records, most recent first.
func (r *AuditRepo) ListRecent(ctx context.Context, limit int) ([]domain.AuditRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, event_time, app_id, user_name, user_groups, operation, access, resource, allowed, policy_id
		 FROM audit_log ORDER BY event_time DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AuditRecord
	for rows.Next() {
		var rec domain.AuditRecord
		var groups string
		var allowed int
		if err := rows.Scan(&rec.ID, &rec.EventTime, &rec.AppID, &rec.User, &groups,
			&rec.Operation, &rec.Access, &rec.Resource, &allowed, &rec.PolicyID); err != nil {
			return nil, err
		}
		if groups != "" {
			rec.Groups = strings.Split(groups, ",")
		}
		rec.Allowed = allowed == 1
		out = append(out, rec)
	}
	return out, rows.Err()
}
