package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/udacchi/attendance-management-sub000/internal/models"
)

// ErrAlreadyReviewed signals that a review write found the request no longer
// pending. The service layer decides whether that is an idempotent no-op or
// a conflict.
var ErrAlreadyReviewed = errors.New("correction request already reviewed")

const correctionColumns = `id, day_id, requester_id, proposed_clock_in_at, proposed_clock_out_at, proposed_note, reason, payload, status, reviewed_by, reviewed_at, review_note, created_at, updated_at`

// CorrectionRepository handles persistence for correction requests.
type CorrectionRepository struct {
	db *sqlx.DB
}

// NewCorrectionRepository constructs the repository.
func NewCorrectionRepository(db *sqlx.DB) *CorrectionRepository {
	return &CorrectionRepository{db: db}
}

// Create inserts a new pending correction request.
func (r *CorrectionRepository) Create(ctx context.Context, req *models.CorrectionRequest) error {
	now := time.Now().UTC()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.Status = models.CorrectionStatusPending
	req.CreatedAt = now
	req.UpdatedAt = now
	const query = `INSERT INTO correction_requests
(id, day_id, requester_id, proposed_clock_in_at, proposed_clock_out_at, proposed_note, reason, payload, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	if _, err := r.db.ExecContext(ctx, query, req.ID, req.DayID, req.RequesterID,
		req.ProposedClockInAt, req.ProposedClockOutAt, req.ProposedNote, req.Reason,
		req.Payload, req.Status, req.CreatedAt, req.UpdatedAt); err != nil {
		return fmt.Errorf("create correction request: %w", err)
	}
	return nil
}

// GetByID fetches one correction request.
func (r *CorrectionRepository) GetByID(ctx context.Context, id string) (*models.CorrectionRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM correction_requests WHERE id = $1 LIMIT 1`, correctionColumns)
	var req models.CorrectionRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find correction request: %w", err)
	}
	return &req, nil
}

// List returns correction requests matching the filter.
func (r *CorrectionRepository) List(ctx context.Context, filter models.CorrectionFilter) ([]models.CorrectionRequest, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.RequesterID != "" {
		where = append(where, fmt.Sprintf("requester_id = $%d", len(args)+1))
		args = append(args, filter.RequesterID)
	}
	if filter.DayID != "" {
		where = append(where, fmt.Sprintf("day_id = $%d", len(args)+1))
		args = append(args, filter.DayID)
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, 0, len(filter.Status))
		for _, status := range filter.Status {
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)+1))
			args = append(args, status)
		}
		where = append(where, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ", ")))
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM correction_requests WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		correctionColumns, whereClause, size, offset)
	var rows []models.CorrectionRequest
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list correction requests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM correction_requests WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count correction requests: %w", err)
	}
	return rows, total, nil
}

// HasPendingForDay reports whether any pending request targets the day.
func (r *CorrectionRepository) HasPendingForDay(ctx context.Context, dayID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM correction_requests WHERE day_id = $1 AND status = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, dayID, models.CorrectionStatusPending); err != nil {
		return false, fmt.Errorf("check pending correction: %w", err)
	}
	return exists, nil
}

// FindPendingForRequester returns the requester's pending request for the
// day, or sql.ErrNoRows when none exists.
func (r *CorrectionRepository) FindPendingForRequester(ctx context.Context, dayID, requesterID string) (*models.CorrectionRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM correction_requests WHERE day_id = $1 AND requester_id = $2 AND status = $3 LIMIT 1`, correctionColumns)
	var req models.CorrectionRequest
	if err := r.db.GetContext(ctx, &req, query, dayID, requesterID, models.CorrectionStatusPending); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find pending correction for requester: %w", err)
	}
	return &req, nil
}

// ReviewParams carries a review decision. When Day is non-nil the approval
// side effect (day overwrite plus break replacement) runs inside the same
// transaction as the status flip.
type ReviewParams struct {
	RequestID  string
	Status     models.CorrectionStatus
	ReviewerID string
	ReviewedAt time.Time
	ReviewNote *string
	Day        *models.AttendanceDay
	Breaks     []models.BreakPeriod
}

// ApplyReview takes an exclusive row lock on the request, re-checks that it
// is still pending, applies the optional day overwrite, and stamps the
// decision. Everything commits or rolls back as one unit; a concurrent
// reviewer loses the lock race and gets ErrAlreadyReviewed.
func (r *CorrectionRepository) ApplyReview(ctx context.Context, params ReviewParams) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin review: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	const lockQuery = `SELECT status FROM correction_requests WHERE id = $1 FOR UPDATE`
	var current models.CorrectionStatus
	if err := tx.GetContext(ctx, &current, lockQuery, params.RequestID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("lock correction request: %w", err)
	}
	if current != models.CorrectionStatusPending {
		return ErrAlreadyReviewed
	}

	if params.Day != nil {
		if err := saveDayWithBreaksTx(ctx, tx, params.Day, params.Breaks); err != nil {
			return err
		}
	}

	const update = `UPDATE correction_requests
SET status = $2, reviewed_by = $3, reviewed_at = $4, review_note = $5, updated_at = $6
WHERE id = $1`
	if _, err := tx.ExecContext(ctx, update, params.RequestID, params.Status,
		params.ReviewerID, params.ReviewedAt, params.ReviewNote, time.Now().UTC()); err != nil {
		return fmt.Errorf("update correction request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit review: %w", err)
	}
	committed = true
	return nil
}
