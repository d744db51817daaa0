package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/udacchi/attendance-management-sub000/internal/dto"
	"github.com/udacchi/attendance-management-sub000/internal/models"
	"github.com/udacchi/attendance-management-sub000/internal/repository"
	appErrors "github.com/udacchi/attendance-management-sub000/pkg/errors"
)

type attendanceStore interface {
	GetOrCreateDay(ctx context.Context, userID string, date time.Time) (*models.AttendanceDay, error)
	FindDay(ctx context.Context, userID string, date time.Time) (*models.AttendanceDay, error)
	ListDays(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDayRecord, int, error)
	ListBreaks(ctx context.Context, dayID string) ([]models.BreakPeriod, error)
	SetClockIn(ctx context.Context, dayID string, at time.Time) error
	StartBreak(ctx context.Context, dayID string, at time.Time) (*models.BreakPeriod, error)
	EndBreak(ctx context.Context, params repository.EndBreakParams) error
	SetClockOut(ctx context.Context, params repository.ClockOutParams) error
	SaveDayWithBreaks(ctx context.Context, day *models.AttendanceDay, breaks []models.BreakPeriod) error
	MonthSummary(ctx context.Context, userID string, from, to time.Time) (*models.MonthSummary, error)
}

type pendingChecker interface {
	HasPendingForDay(ctx context.Context, dayID string) (bool, error)
}

type punchUserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type attendanceAuditor interface {
	CreateLog(ctx context.Context, log *models.CorrectionLog) error
}

// AttendanceService implements the punch state machine and day/month views.
type AttendanceService struct {
	repo           attendanceStore
	users          punchUserStore
	corrections    pendingChecker
	audit          attendanceAuditor
	cache          *CacheService
	metrics        *MetricsService
	clock          Clock
	logger         *zap.Logger
	lockAdminEdits bool
}

// AttendanceServiceOption configures the service.
type AttendanceServiceOption func(*AttendanceService)

// WithAttendanceCache attaches the summary cache.
func WithAttendanceCache(cache *CacheService) AttendanceServiceOption {
	return func(s *AttendanceService) { s.cache = cache }
}

// WithAttendanceMetrics attaches punch instrumentation.
func WithAttendanceMetrics(metrics *MetricsService) AttendanceServiceOption {
	return func(s *AttendanceService) { s.metrics = metrics }
}

// WithAttendanceAudit attaches the best-effort audit trail.
func WithAttendanceAudit(audit attendanceAuditor) AttendanceServiceOption {
	return func(s *AttendanceService) { s.audit = audit }
}

// WithAdminEditLock extends the pending-correction lock to administrators.
func WithAdminEditLock(locked bool) AttendanceServiceOption {
	return func(s *AttendanceService) { s.lockAdminEdits = locked }
}

// NewAttendanceService constructs the service.
func NewAttendanceService(repo attendanceStore, users punchUserStore, corrections pendingChecker, clock Clock, logger *zap.Logger, opts ...AttendanceServiceOption) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = NewClock("Asia/Tokyo")
	}
	svc := &AttendanceService{
		repo:           repo,
		users:          users,
		corrections:    corrections,
		clock:          clock,
		logger:         logger,
		lockAdminEdits: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Punch executes one punch action against today's record. Actions issued
// from a state they do not apply to are silent no-ops: the caller still gets
// the current day state back, never an error, so double-submissions are
// harmless.
func (s *AttendanceService) Punch(ctx context.Context, userID string, action models.PunchAction) (*dto.DayResponse, error) {
	if !action.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported punch action")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if !user.EmailVerified {
		return nil, appErrors.ErrEmailUnverified
	}

	now := TruncateToMinute(s.clock.Now())
	today := DateOf(now, s.clock.Location())

	day, err := s.repo.GetOrCreateDay(ctx, userID, today)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance day")
	}
	breaks, err := s.repo.ListBreaks(ctx, day.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load break periods")
	}

	applied, err := s.applyPunch(ctx, day, breaks, action, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply punch")
	}
	if s.metrics != nil {
		s.metrics.RecordPunch(string(action), applied)
	}
	if applied {
		s.invalidateSummary(ctx, userID, today)
		day, err = s.repo.FindDay(ctx, userID, today)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload attendance day")
		}
		breaks, err = s.repo.ListBreaks(ctx, day.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload break periods")
		}
	}

	resp := s.dayResponse(day, breaks, false)
	return resp, nil
}

// applyPunch runs the state machine transition. It reports whether any write
// happened; a false return is the idempotent no-op path.
func (s *AttendanceService) applyPunch(ctx context.Context, day *models.AttendanceDay, breaks []models.BreakPeriod, action models.PunchAction, now time.Time) (bool, error) {
	open := OpenBreak(breaks)

	switch action {
	case models.PunchClockIn:
		if day.ClockInAt != nil {
			return false, nil
		}
		return true, s.repo.SetClockIn(ctx, day.ID, now)

	case models.PunchBreakStart:
		if day.ClockInAt == nil || day.ClockOutAt != nil || open != nil {
			return false, nil
		}
		_, err := s.repo.StartBreak(ctx, day.ID, now)
		return err == nil, err

	case models.PunchBreakEnd:
		if open == nil {
			return false, nil
		}
		closed := make([]models.BreakPeriod, len(breaks))
		copy(closed, breaks)
		for i := range closed {
			if closed[i].ID == open.ID {
				ended := now
				closed[i].EndedAt = &ended
			}
		}
		after := *day
		Recompute(&after, closed)
		return true, s.repo.EndBreak(ctx, repository.EndBreakParams{
			BreakID:           open.ID,
			DayID:             day.ID,
			EndedAt:           now,
			Status:            after.Status,
			TotalWorkMinutes:  after.TotalWorkMinutes,
			TotalBreakMinutes: after.TotalBreakMinutes,
		})

	case models.PunchClockOut:
		if day.ClockInAt == nil || day.ClockOutAt != nil {
			return false, nil
		}
		after := *day
		out := now
		after.ClockOutAt = &out
		Recompute(&after, breaks)
		return true, s.repo.SetClockOut(ctx, repository.ClockOutParams{
			DayID:             day.ID,
			ClockOutAt:        now,
			TotalWorkMinutes:  after.TotalWorkMinutes,
			TotalBreakMinutes: after.TotalBreakMinutes,
		})
	}
	return false, nil
}

// Today returns the current day state without creating a record.
func (s *AttendanceService) Today(ctx context.Context, userID string) (*dto.DayResponse, error) {
	today := DateOf(s.clock.Now(), s.clock.Location())
	day, err := s.repo.FindDay(ctx, userID, today)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &dto.DayResponse{
				UserID:     userID,
				WorkDate:   today.Format("2006-01-02"),
				Status:     models.DayStatusBefore,
				Breaks:     []dto.BreakResponse{},
				WorkTotal:  FormatMinutes(nil),
				BreakTotal: FormatMinutes(nil),
			}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance day")
	}
	breaks, err := s.repo.ListBreaks(ctx, day.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load break periods")
	}
	return s.dayResponse(day, breaks, false), nil
}

// DayDetail returns one day with breaks and the pending-correction lock
// flag. Employees may only view their own days.
func (s *AttendanceService) DayDetail(ctx context.Context, actor *models.JWTClaims, userID, date string) (*dto.DayResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin && actor.UserID != userID {
		return nil, appErrors.ErrForbidden
	}
	workDate, err := s.parseDate(date)
	if err != nil {
		return nil, err
	}
	day, err := s.repo.FindDay(ctx, userID, workDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance day")
	}
	breaks, err := s.repo.ListBreaks(ctx, day.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load break periods")
	}
	locked, err := s.corrections.HasPendingForDay(ctx, day.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending corrections")
	}
	return s.dayResponse(day, breaks, locked), nil
}

// Month lists one user's days for a YYYY-MM month together with the summary.
// The summary is served through the cache when enabled.
func (s *AttendanceService) Month(ctx context.Context, actor *models.JWTClaims, userID, month string) (*dto.MonthResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin && actor.UserID != userID {
		return nil, appErrors.ErrForbidden
	}
	from, to, err := s.parseMonth(month)
	if err != nil {
		return nil, err
	}

	filter := models.AttendanceFilter{
		UserID:    userID,
		MonthFrom: &from,
		MonthTo:   &to,
		PageSize:  62,
	}
	rows, _, err := s.repo.ListDays(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance days")
	}

	items := make([]dto.DayListItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.DayListItem{
			ID:         row.ID,
			WorkDate:   row.WorkDate.Format("2006-01-02"),
			Status:     row.Status,
			ClockInAt:  row.ClockInAt,
			ClockOutAt: row.ClockOutAt,
			WorkTotal:  FormatMinutes(row.TotalWorkMinutes),
			BreakTotal: FormatMinutes(row.TotalBreakMinutes),
		})
	}

	summary, err := s.monthSummary(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	return &dto.MonthResponse{Days: items, Summary: summary}, nil
}

func (s *AttendanceService) monthSummary(ctx context.Context, userID string, from, to time.Time) (*models.MonthSummary, error) {
	key := summaryCacheKey(userID, from)
	if s.cache.Enabled() {
		var cached models.MonthSummary
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return &cached, nil
		}
	}
	summary, err := s.repo.MonthSummary(ctx, userID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate month summary")
	}
	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, key, summary, 0)
	}
	return summary, nil
}

// ListAll returns days across users for administrator review.
func (s *AttendanceService) ListAll(ctx context.Context, actor *models.JWTClaims, filter models.AttendanceFilter) ([]models.AttendanceDayRecord, int, error) {
	if actor == nil {
		return nil, 0, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin {
		return nil, 0, appErrors.ErrForbidden
	}
	rows, total, err := s.repo.ListDays(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance days")
	}
	return rows, total, nil
}

// DirectEdit overwrites one day from an edit payload, replacing the break
// set. The edit is refused while a correction for the day is pending: always
// for the owner, and for administrators when the admin lock policy is on.
func (s *AttendanceService) DirectEdit(ctx context.Context, actor *models.JWTClaims, userID, date string, req dto.DayEditRequest) (*dto.DayResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	isAdmin := actor.Role == models.RoleAdmin
	if !isAdmin && actor.UserID != userID {
		return nil, appErrors.ErrForbidden
	}

	workDate, err := s.parseDate(date)
	if err != nil {
		return nil, err
	}

	fields := validateDayTimes(req.ClockInAt, req.ClockOutAt, req.Breaks)
	if req.Note == nil || strings.TrimSpace(*req.Note) == "" {
		fields["note"] = "note is required"
	}
	if len(fields) > 0 {
		return nil, appErrors.Validation(fields)
	}

	day, err := s.repo.GetOrCreateDay(ctx, userID, workDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance day")
	}

	locked, err := s.corrections.HasPendingForDay(ctx, day.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending corrections")
	}
	if locked && (!isAdmin || s.lockAdminEdits) {
		return nil, appErrors.ErrPendingCorrection
	}

	before, err := json.Marshal(day)
	if err != nil {
		before = nil
	}

	updated := *day
	updated.ClockInAt = truncatePtr(req.ClockInAt)
	updated.ClockOutAt = truncatePtr(req.ClockOutAt)
	updated.Note = req.Note
	newBreaks := breaksFromEdits(day.ID, req.Breaks)
	Recompute(&updated, newBreaks)

	if err := s.repo.SaveDayWithBreaks(ctx, &updated, newBreaks); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attendance day")
	}

	s.invalidateSummary(ctx, userID, workDate)
	s.emitAudit(ctx, actor.UserID, models.AuditActionDirectEdit, day.ID, before, &updated)

	saved := updated
	return s.dayResponse(&saved, newBreaks, false), nil
}

func (s *AttendanceService) emitAudit(ctx context.Context, actorID, action, dayID string, before []byte, after *models.AttendanceDay) {
	if s.audit == nil {
		return
	}
	afterJSON, err := json.Marshal(after)
	if err != nil {
		afterJSON = nil
	}
	log := &models.CorrectionLog{
		UserID:       &actorID,
		Action:       action,
		Resource:     "attendance_day",
		ResourceID:   &dayID,
		BeforeValues: before,
		AfterValues:  afterJSON,
		IPAddress:    "system",
		UserAgent:    "attendance-service",
	}
	if err := s.audit.CreateLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist correction log", zap.Error(err))
	}
}

func (s *AttendanceService) invalidateSummary(ctx context.Context, userID string, date time.Time) {
	if !s.cache.Enabled() {
		return
	}
	_ = s.cache.Invalidate(ctx, summaryCacheKey(userID, date))
}

func (s *AttendanceService) dayResponse(day *models.AttendanceDay, breaks []models.BreakPeriod, locked bool) *dto.DayResponse {
	breakViews := make([]dto.BreakResponse, 0, len(breaks))
	for _, b := range breaks {
		breakViews = append(breakViews, dto.BreakResponse{ID: b.ID, StartedAt: b.StartedAt, EndedAt: b.EndedAt})
	}
	status := day.Status
	if !status.Valid() {
		status = DeriveStatus(day, breaks)
	}
	return &dto.DayResponse{
		ID:           day.ID,
		UserID:       day.UserID,
		WorkDate:     day.WorkDate.Format("2006-01-02"),
		Status:       status,
		ClockInAt:    day.ClockInAt,
		ClockOutAt:   day.ClockOutAt,
		Breaks:       breakViews,
		WorkMinutes:  day.TotalWorkMinutes,
		BreakMinutes: day.TotalBreakMinutes,
		WorkTotal:    FormatMinutes(day.TotalWorkMinutes),
		BreakTotal:   FormatMinutes(day.TotalBreakMinutes),
		Note:         day.Note,
		Locked:       locked,
	}
}

func (s *AttendanceService) parseDate(raw string) (time.Time, error) {
	parsed, err := time.ParseInLocation("2006-01-02", raw, s.clock.Location())
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date must be formatted YYYY-MM-DD")
	}
	return parsed, nil
}

func (s *AttendanceService) parseMonth(raw string) (time.Time, time.Time, error) {
	parsed, err := time.ParseInLocation("2006-01", raw, s.clock.Location())
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "month must be formatted YYYY-MM")
	}
	return parsed, parsed.AddDate(0, 1, 0), nil
}

func summaryCacheKey(userID string, date time.Time) string {
	return fmt.Sprintf("attendance:summary:%s:%s", userID, date.Format("2006-01"))
}

func truncatePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	truncated := TruncateToMinute(*t)
	return &truncated
}

func breaksFromEdits(dayID string, edits []dto.BreakEdit) []models.BreakPeriod {
	breaks := make([]models.BreakPeriod, 0, len(edits))
	for _, e := range edits {
		breaks = append(breaks, models.BreakPeriod{
			DayID:     dayID,
			StartedAt: TruncateToMinute(e.StartedAt),
			EndedAt:   truncatePtr(e.EndedAt),
		})
	}
	return breaks
}
