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
	"github.com/lib/pq"

	"github.com/udacchi/attendance-management-sub000/internal/models"
)

const dayColumns = `id, user_id, work_date, clock_in_at, clock_out_at, status, total_work_minutes, total_break_minutes, note, created_at, updated_at`

// AttendanceRepository handles persistence for attendance days and their
// break periods.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// GetOrCreateDay returns the day record for (user, date), creating it when
// absent. A unique-violation race with a concurrent insert is resolved by
// retrying as a fetch.
func (r *AttendanceRepository) GetOrCreateDay(ctx context.Context, userID string, date time.Time) (*models.AttendanceDay, error) {
	day, err := r.FindDay(ctx, userID, date)
	if err == nil {
		return day, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	now := time.Now().UTC()
	insert := fmt.Sprintf(`INSERT INTO attendance_days (id, user_id, work_date, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
RETURNING %s`, dayColumns)
	var created models.AttendanceDay
	err = r.db.GetContext(ctx, &created, insert, uuid.NewString(), userID, date, models.DayStatusBefore, now)
	if err == nil {
		return &created, nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return r.FindDay(ctx, userID, date)
	}
	return nil, fmt.Errorf("create attendance day: %w", err)
}

// FindDay fetches the day record for (user, date).
func (r *AttendanceRepository) FindDay(ctx context.Context, userID string, date time.Time) (*models.AttendanceDay, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_days WHERE user_id = $1 AND work_date = $2 LIMIT 1`, dayColumns)
	var day models.AttendanceDay
	if err := r.db.GetContext(ctx, &day, query, userID, date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance day: %w", err)
	}
	return &day, nil
}

// FindDayByID fetches a day record by primary key.
func (r *AttendanceRepository) FindDayByID(ctx context.Context, id string) (*models.AttendanceDay, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_days WHERE id = $1 LIMIT 1`, dayColumns)
	var day models.AttendanceDay
	if err := r.db.GetContext(ctx, &day, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance day by id: %w", err)
	}
	return &day, nil
}

// ListDays returns day rows matching the filter with owner metadata.
func (r *AttendanceRepository) ListDays(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDayRecord, int, error) {
	base := `FROM attendance_days ad
JOIN users u ON u.id = ad.user_id`
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.UserID != "" {
		where = append(where, fmt.Sprintf("ad.user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.Date != nil {
		where = append(where, fmt.Sprintf("ad.work_date = $%d", len(args)+1))
		args = append(args, *filter.Date)
	}
	if filter.MonthFrom != nil {
		where = append(where, fmt.Sprintf("ad.work_date >= $%d", len(args)+1))
		args = append(args, *filter.MonthFrom)
	}
	if filter.MonthTo != nil {
		where = append(where, fmt.Sprintf("ad.work_date < $%d", len(args)+1))
		args = append(args, *filter.MonthTo)
	}
	if filter.Status != nil && filter.Status.Valid() {
		where = append(where, fmt.Sprintf("ad.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	whereClause := strings.Join(where, " AND ")

	sortBy := filter.SortBy
	allowedSort := map[string]string{
		"work_date":  "ad.work_date",
		"status":     "ad.status",
		"created_at": "ad.created_at",
	}
	if sortBy == "" {
		sortBy = "work_date"
	}
	sortColumn, ok := allowedSort[sortBy]
	if !ok {
		sortColumn = "ad.work_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT ad.id, ad.user_id, ad.work_date, ad.clock_in_at, ad.clock_out_at, ad.status,
        ad.total_work_minutes, ad.total_break_minutes, ad.note, ad.created_at, ad.updated_at,
        u.full_name AS user_name, u.email AS user_email
        %s WHERE %s
        ORDER BY %s %s
        LIMIT %d OFFSET %d`, base, whereClause, sortColumn, order, size, offset)

	var rows []models.AttendanceDayRecord
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance days: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance days: %w", err)
	}
	return rows, total, nil
}

// ListBreaks returns the break periods of a day ordered by start time.
func (r *AttendanceRepository) ListBreaks(ctx context.Context, dayID string) ([]models.BreakPeriod, error) {
	const query = `SELECT id, day_id, started_at, ended_at, created_at, updated_at
FROM break_periods WHERE day_id = $1 ORDER BY started_at ASC`
	var breaks []models.BreakPeriod
	if err := r.db.SelectContext(ctx, &breaks, query, dayID); err != nil {
		return nil, fmt.Errorf("list break periods: %w", err)
	}
	return breaks, nil
}

// SetClockIn stamps the clock-in time and moves the day to WORKING.
func (r *AttendanceRepository) SetClockIn(ctx context.Context, dayID string, at time.Time) error {
	const query = `UPDATE attendance_days SET clock_in_at = $2, status = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, dayID, at, models.DayStatusWorking, time.Now().UTC()); err != nil {
		return fmt.Errorf("set clock in: %w", err)
	}
	return nil
}

// StartBreak opens a new break period and moves the day to BREAK in one
// transaction.
func (r *AttendanceRepository) StartBreak(ctx context.Context, dayID string, at time.Time) (*models.BreakPeriod, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin start break: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	period := &models.BreakPeriod{
		ID:        uuid.NewString(),
		DayID:     dayID,
		StartedAt: at,
		CreatedAt: now,
		UpdatedAt: now,
	}
	const insert = `INSERT INTO break_periods (id, day_id, started_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.ExecContext(ctx, insert, period.ID, period.DayID, period.StartedAt, period.CreatedAt, period.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert break period: %w", err)
	}
	const update = `UPDATE attendance_days SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, update, dayID, models.DayStatusBreak, now); err != nil {
		return nil, fmt.Errorf("update day status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit start break: %w", err)
	}
	committed = true
	return period, nil
}

// EndBreakParams carries the closing write of a break period together with
// the recomputed day totals.
type EndBreakParams struct {
	BreakID           string
	DayID             string
	EndedAt           time.Time
	Status            models.DayStatus
	TotalWorkMinutes  *int
	TotalBreakMinutes *int
}

// EndBreak closes the break period and persists the refreshed totals in one
// transaction.
func (r *AttendanceRepository) EndBreak(ctx context.Context, params EndBreakParams) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin end break: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const closeQuery = `UPDATE break_periods SET ended_at = $2, updated_at = $3 WHERE id = $1 AND ended_at IS NULL`
	res, err := tx.ExecContext(ctx, closeQuery, params.BreakID, params.EndedAt, now)
	if err != nil {
		return fmt.Errorf("close break period: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	const update = `UPDATE attendance_days SET status = $2, total_work_minutes = $3, total_break_minutes = $4, updated_at = $5 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, update, params.DayID, params.Status, params.TotalWorkMinutes, params.TotalBreakMinutes, now); err != nil {
		return fmt.Errorf("update day totals: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit end break: %w", err)
	}
	committed = true
	return nil
}

// ClockOutParams carries the clock-out write with recomputed totals.
type ClockOutParams struct {
	DayID             string
	ClockOutAt        time.Time
	TotalWorkMinutes  *int
	TotalBreakMinutes *int
}

// SetClockOut stamps the clock-out time, persists totals, and moves the day
// to AFTER.
func (r *AttendanceRepository) SetClockOut(ctx context.Context, params ClockOutParams) error {
	const query = `UPDATE attendance_days
SET clock_out_at = $2, status = $3, total_work_minutes = $4, total_break_minutes = $5, updated_at = $6
WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, params.DayID, params.ClockOutAt, models.DayStatusAfter, params.TotalWorkMinutes, params.TotalBreakMinutes, time.Now().UTC()); err != nil {
		return fmt.Errorf("set clock out: %w", err)
	}
	return nil
}

// SaveDayWithBreaks overwrites the day record and replaces its entire break
// set in one transaction. Used by direct edits and correction approvals.
func (r *AttendanceRepository) SaveDayWithBreaks(ctx context.Context, day *models.AttendanceDay, breaks []models.BreakPeriod) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save day: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if err := saveDayWithBreaksTx(ctx, tx, day, breaks); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save day: %w", err)
	}
	committed = true
	return nil
}

// saveDayWithBreaksTx performs the day overwrite inside an existing
// transaction so correction approval can combine it with its row lock.
func saveDayWithBreaksTx(ctx context.Context, tx *sqlx.Tx, day *models.AttendanceDay, breaks []models.BreakPeriod) error {
	now := time.Now().UTC()
	day.UpdatedAt = now
	const update = `UPDATE attendance_days
SET clock_in_at = $2, clock_out_at = $3, status = $4, total_work_minutes = $5, total_break_minutes = $6, note = $7, updated_at = $8
WHERE id = $1`
	if _, err := tx.ExecContext(ctx, update, day.ID, day.ClockInAt, day.ClockOutAt, day.Status, day.TotalWorkMinutes, day.TotalBreakMinutes, day.Note, now); err != nil {
		return fmt.Errorf("update attendance day: %w", err)
	}
	const clear = `DELETE FROM break_periods WHERE day_id = $1`
	if _, err := tx.ExecContext(ctx, clear, day.ID); err != nil {
		return fmt.Errorf("clear break periods: %w", err)
	}
	const insert = `INSERT INTO break_periods (id, day_id, started_at, ended_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	for i := range breaks {
		b := &breaks[i]
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		b.DayID = day.ID
		if _, err := tx.ExecContext(ctx, insert, b.ID, b.DayID, b.StartedAt, b.EndedAt, now, now); err != nil {
			return fmt.Errorf("insert break period: %w", err)
		}
	}
	return nil
}

// MonthSummary aggregates worked days and totals over [from, to).
func (r *AttendanceRepository) MonthSummary(ctx context.Context, userID string, from, to time.Time) (*models.MonthSummary, error) {
	const query = `SELECT
COUNT(*) FILTER (WHERE clock_in_at IS NOT NULL) AS days_worked,
COALESCE(SUM(total_work_minutes), 0) AS work_minutes,
COALESCE(SUM(total_break_minutes), 0) AS break_minutes
FROM attendance_days
WHERE user_id = $1 AND work_date >= $2 AND work_date < $3`
	row := struct {
		DaysWorked   int `db:"days_worked"`
		WorkMinutes  int `db:"work_minutes"`
		BreakMinutes int `db:"break_minutes"`
	}{}
	if err := r.db.GetContext(ctx, &row, query, userID, from, to); err != nil {
		return nil, fmt.Errorf("month summary: %w", err)
	}
	return &models.MonthSummary{
		Month:             from.Format("2006-01"),
		DaysWorked:        row.DaysWorked,
		TotalWorkMinutes:  row.WorkMinutes,
		TotalBreakMinutes: row.BreakMinutes,
	}, nil
}
