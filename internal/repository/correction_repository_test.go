package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/udacchi/attendance-management-sub000/internal/models"
)

func correctionRow(id, dayID, requesterID, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "day_id", "requester_id", "proposed_clock_in_at", "proposed_clock_out_at", "proposed_note", "reason", "payload", "status", "reviewed_by", "reviewed_at", "review_note", "created_at", "updated_at"}).
		AddRow(id, dayID, requesterID, nil, nil, nil, "forgot to punch out", []byte(`{}`), status, nil, nil, nil, time.Now(), time.Now())
}

func TestCorrectionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewCorrectionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO correction_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	req := &models.CorrectionRequest{
		DayID:       "day-1",
		RequesterID: "user-1",
		Reason:      "forgot to punch out",
		Payload:     []byte(`{}`),
	}
	require.NoError(t, repo.Create(context.Background(), req))
	require.NotEmpty(t, req.ID)
	require.Equal(t, models.CorrectionStatusPending, req.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCorrectionRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewCorrectionRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, day_id, requester_id")).
		WithArgs("corr-1").
		WillReturnRows(correctionRow("corr-1", "day-1", "user-1", "PENDING"))

	found, err := repo.GetByID(context.Background(), "corr-1")
	require.NoError(t, err)
	require.Equal(t, "corr-1", found.ID)
	require.Equal(t, models.CorrectionStatusPending, found.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCorrectionRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewCorrectionRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, day_id, requester_id")).
		WithArgs("user-1", "PENDING").
		WillReturnRows(correctionRow("corr-1", "day-1", "user-1", "PENDING"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM correction_requests")).
		WithArgs("user-1", "PENDING").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.CorrectionFilter{
		RequesterID: "user-1",
		Status:      []models.CorrectionStatus{models.CorrectionStatusPending},
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, list, 1)
	require.Equal(t, "corr-1", list[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCorrectionRepositoryHasPendingForDay(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewCorrectionRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("day-1", models.CorrectionStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	pending, err := repo.HasPendingForDay(context.Background(), "day-1")
	require.NoError(t, err)
	require.True(t, pending)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCorrectionRepositoryFindPendingForRequesterMissing(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewCorrectionRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, day_id, requester_id")).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindPendingForRequester(context.Background(), "day-1", "user-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCorrectionRepositoryApplyReviewReject(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewCorrectionRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM correction_requests WHERE id = $1 FOR UPDATE")).
		WithArgs("corr-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("PENDING"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE correction_requests")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	note := "times do not match the gate log"
	err := repo.ApplyReview(context.Background(), ReviewParams{
		RequestID:  "corr-1",
		Status:     models.CorrectionStatusRejected,
		ReviewerID: "admin-1",
		ReviewedAt: time.Now(),
		ReviewNote: &note,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCorrectionRepositoryApplyReviewApproveWritesDay(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewCorrectionRepository(db)
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	started := date.Add(3 * time.Hour)
	ended := started.Add(45 * time.Minute)
	day := &models.AttendanceDay{ID: "day-1", UserID: "user-1", WorkDate: date, Status: models.DayStatusAfter}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM correction_requests WHERE id = $1 FOR UPDATE")).
		WithArgs("corr-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("PENDING"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE attendance_days")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM break_periods")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO break_periods")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE correction_requests")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ApplyReview(context.Background(), ReviewParams{
		RequestID:  "corr-1",
		Status:     models.CorrectionStatusApproved,
		ReviewerID: "admin-1",
		ReviewedAt: time.Now(),
		Day:        day,
		Breaks:     []models.BreakPeriod{{StartedAt: started, EndedAt: &ended}},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCorrectionRepositoryApplyReviewAlreadyReviewed(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewCorrectionRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM correction_requests WHERE id = $1 FOR UPDATE")).
		WithArgs("corr-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("APPROVED"))
	mock.ExpectRollback()

	err := repo.ApplyReview(context.Background(), ReviewParams{
		RequestID:  "corr-1",
		Status:     models.CorrectionStatusRejected,
		ReviewerID: "admin-1",
		ReviewedAt: time.Now(),
	})
	require.ErrorIs(t, err, ErrAlreadyReviewed)
	require.NoError(t, mock.ExpectationsWereMet())
}
