package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/udacchi/attendance-management-sub000/internal/models"
)

// AuditRepository appends correction log rows. Callers treat writes as
// best-effort; this repository itself reports errors normally and leaves the
// swallowing decision to the service layer.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// CreateLog inserts one audit record.
func (r *AuditRepository) CreateLog(ctx context.Context, log *models.CorrectionLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO correction_logs
(id, user_id, action, resource, resource_id, before_values, after_values, ip_address, user_agent, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := r.db.ExecContext(ctx, query, log.ID, log.UserID, log.Action, log.Resource,
		log.ResourceID, log.BeforeValues, log.AfterValues, log.IPAddress, log.UserAgent, log.CreatedAt); err != nil {
		return fmt.Errorf("create correction log: %w", err)
	}
	return nil
}

// ListByResource returns audit rows for one resource, newest first.
func (r *AuditRepository) ListByResource(ctx context.Context, resource, resourceID string) ([]models.CorrectionLog, error) {
	const query = `SELECT id, user_id, action, resource, resource_id, before_values, after_values, ip_address, user_agent, created_at
FROM correction_logs WHERE resource = $1 AND resource_id = $2 ORDER BY created_at DESC`
	var rows []models.CorrectionLog
	if err := r.db.SelectContext(ctx, &rows, query, resource, resourceID); err != nil {
		return nil, fmt.Errorf("list correction logs: %w", err)
	}
	return rows, nil
}
