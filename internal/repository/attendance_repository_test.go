package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/udacchi/attendance-management-sub000/internal/models"
)

func newAttendanceRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func dayRow(id, userID string, date time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "work_date", "clock_in_at", "clock_out_at", "status", "total_work_minutes", "total_break_minutes", "note", "created_at", "updated_at"}).
		AddRow(id, userID, date, nil, nil, "BEFORE", nil, nil, nil, time.Now(), time.Now())
}

func TestAttendanceRepositoryGetOrCreateDayExisting(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, work_date")).
		WithArgs("user-1", date).
		WillReturnRows(dayRow("day-1", "user-1", date))

	day, err := repo.GetOrCreateDay(context.Background(), "user-1", date)
	require.NoError(t, err)
	require.Equal(t, "day-1", day.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryGetOrCreateDayInserts(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, work_date")).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attendance_days")).
		WillReturnRows(dayRow("day-new", "user-1", date))

	day, err := repo.GetOrCreateDay(context.Background(), "user-1", date)
	require.NoError(t, err)
	require.Equal(t, "day-new", day.ID)
	require.Equal(t, models.DayStatusBefore, day.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryGetOrCreateDayRetriesOnUniqueViolation(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, work_date")).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attendance_days")).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, work_date")).
		WillReturnRows(dayRow("day-race", "user-1", date))

	day, err := repo.GetOrCreateDay(context.Background(), "user-1", date)
	require.NoError(t, err)
	require.Equal(t, "day-race", day.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositorySetClockIn(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	at := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE attendance_days SET clock_in_at")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetClockIn(context.Background(), "day-1", at))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryStartBreak(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	at := time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO break_periods")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE attendance_days SET status")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	period, err := repo.StartBreak(context.Background(), "day-1", at)
	require.NoError(t, err)
	require.NotEmpty(t, period.ID)
	require.Equal(t, "day-1", period.DayID)
	require.True(t, period.StartedAt.Equal(at))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryEndBreak(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	work := 500
	brk := 40
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE break_periods SET ended_at")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE attendance_days SET status")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.EndBreak(context.Background(), EndBreakParams{
		BreakID:           "break-1",
		DayID:             "day-1",
		EndedAt:           time.Now(),
		Status:            models.DayStatusWorking,
		TotalWorkMinutes:  &work,
		TotalBreakMinutes: &brk,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryEndBreakAlreadyClosed(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE break_periods SET ended_at")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.EndBreak(context.Background(), EndBreakParams{
		BreakID: "break-1",
		DayID:   "day-1",
		EndedAt: time.Now(),
		Status:  models.DayStatusWorking,
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositorySaveDayWithBreaks(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	started := date.Add(3 * time.Hour)
	ended := started.Add(45 * time.Minute)
	day := &models.AttendanceDay{ID: "day-1", UserID: "user-1", WorkDate: date, Status: models.DayStatusAfter}
	breaks := []models.BreakPeriod{{StartedAt: started, EndedAt: &ended}}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE attendance_days")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM break_periods")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO break_periods")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SaveDayWithBreaks(context.Background(), day, breaks))
	require.NotEmpty(t, breaks[0].ID)
	require.Equal(t, "day-1", breaks[0].DayID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListDaysFilters(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "user_id", "work_date", "clock_in_at", "clock_out_at", "status", "total_work_minutes", "total_break_minutes", "note", "created_at", "updated_at", "user_name", "user_email"}).
		AddRow("day-1", "user-1", date, nil, nil, "AFTER", 500, 40, nil, time.Now(), time.Now(), "Tarou Yamada", "tarou@example.com")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT ad.id, ad.user_id, ad.work_date")).
		WithArgs("user-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.ListDays(context.Background(), models.AttendanceFilter{UserID: "user-1"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, list, 1)
	require.Equal(t, "Tarou Yamada", list[0].UserName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryMonthSummary(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) FILTER (WHERE clock_in_at IS NOT NULL)")).
		WithArgs("user-1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"days_worked", "work_minutes", "break_minutes"}).AddRow(20, 10000, 800))

	summary, err := repo.MonthSummary(context.Background(), "user-1", from, to)
	require.NoError(t, err)
	require.Equal(t, "2026-03", summary.Month)
	require.Equal(t, 20, summary.DaysWorked)
	require.Equal(t, 10000, summary.TotalWorkMinutes)
	require.NoError(t, mock.ExpectationsWereMet())
}
