package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/udacchi/attendance-management-sub000/internal/dto"
	"github.com/udacchi/attendance-management-sub000/internal/models"
	"github.com/udacchi/attendance-management-sub000/internal/repository"
	appErrors "github.com/udacchi/attendance-management-sub000/pkg/errors"
)

type correctionStore interface {
	Create(ctx context.Context, req *models.CorrectionRequest) error
	GetByID(ctx context.Context, id string) (*models.CorrectionRequest, error)
	List(ctx context.Context, filter models.CorrectionFilter) ([]models.CorrectionRequest, int, error)
	FindPendingForRequester(ctx context.Context, dayID, requesterID string) (*models.CorrectionRequest, error)
	ApplyReview(ctx context.Context, params repository.ReviewParams) error
}

type correctionDayStore interface {
	GetOrCreateDay(ctx context.Context, userID string, date time.Time) (*models.AttendanceDay, error)
	FindDayByID(ctx context.Context, id string) (*models.AttendanceDay, error)
	ListBreaks(ctx context.Context, dayID string) ([]models.BreakPeriod, error)
}

// CorrectionService orchestrates the request/approval workflow. A pending
// request locks its day against direct edits until an administrator
// resolves it.
type CorrectionService struct {
	repo    correctionStore
	days    correctionDayStore
	audit   attendanceAuditor
	cache   *CacheService
	metrics *MetricsService
	clock   Clock
	logger  *zap.Logger
}

// CorrectionServiceOption configures the service.
type CorrectionServiceOption func(*CorrectionService)

// WithCorrectionAudit attaches the best-effort audit trail.
func WithCorrectionAudit(audit attendanceAuditor) CorrectionServiceOption {
	return func(s *CorrectionService) { s.audit = audit }
}

// WithCorrectionCache attaches the summary cache for invalidation.
func WithCorrectionCache(cache *CacheService) CorrectionServiceOption {
	return func(s *CorrectionService) { s.cache = cache }
}

// WithCorrectionMetrics attaches review instrumentation.
func WithCorrectionMetrics(metrics *MetricsService) CorrectionServiceOption {
	return func(s *CorrectionService) { s.metrics = metrics }
}

// NewCorrectionService constructs the service.
func NewCorrectionService(repo correctionStore, days correctionDayStore, clock Clock, logger *zap.Logger, opts ...CorrectionServiceOption) *CorrectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = NewClock("Asia/Tokyo")
	}
	svc := &CorrectionService{repo: repo, days: days, clock: clock, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Submit files a correction request for the requester's own day. A duplicate
// submission while one is already pending is not an error: the existing
// pending request is returned unchanged.
func (s *CorrectionService) Submit(ctx context.Context, actor *models.JWTClaims, req dto.CreateCorrectionRequest) (*models.CorrectionRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	workDate, err := time.ParseInLocation("2006-01-02", req.Date, s.clock.Location())
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted YYYY-MM-DD")
	}

	fields := validateDayTimes(req.ClockInAt, req.ClockOutAt, req.Breaks)
	if strings.TrimSpace(req.Reason) == "" {
		fields["reason"] = "note is required"
	}
	if len(fields) > 0 {
		return nil, appErrors.Validation(fields)
	}

	day, err := s.days.GetOrCreateDay(ctx, actor.UserID, workDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance day")
	}

	if existing, err := s.repo.FindPendingForRequester(ctx, day.ID, actor.UserID); err == nil {
		return existing, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending corrections")
	}

	payload := models.CorrectionPayload{
		ClockInAt:  truncatePtr(req.ClockInAt),
		ClockOutAt: truncatePtr(req.ClockOutAt),
		Breaks:     proposedBreaks(req.Breaks),
		Note:       req.Note,
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode correction payload")
	}

	correction := &models.CorrectionRequest{
		DayID:              day.ID,
		RequesterID:        actor.UserID,
		ProposedClockInAt:  payload.ClockInAt,
		ProposedClockOutAt: payload.ClockOutAt,
		ProposedNote:       req.Note,
		Reason:             strings.TrimSpace(req.Reason),
		Payload:            payloadJSON,
	}
	if err := s.repo.Create(ctx, correction); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create correction request")
	}

	if s.metrics != nil {
		s.metrics.RecordCorrection("submit")
	}
	s.emitAudit(ctx, actor.UserID, models.AuditActionCorrectionSubmit, correction.ID, nil, payloadJSON)
	return correction, nil
}

// List returns accessible correction requests respecting actor role.
func (s *CorrectionService) List(ctx context.Context, actor *models.JWTClaims, query dto.CorrectionQuery) ([]models.CorrectionRequest, int, error) {
	if actor == nil {
		return nil, 0, appErrors.ErrUnauthorized
	}
	filter := models.CorrectionFilter{
		DayID:    query.DayID,
		Status:   query.Status,
		Page:     query.Page,
		PageSize: query.Size,
	}
	if actor.Role != models.RoleAdmin {
		filter.RequesterID = actor.UserID
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list correction requests")
	}
	return rows, total, nil
}

// Get returns one correction request enforcing ownership for employees.
func (s *CorrectionService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.CorrectionRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	correction, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load correction request")
	}
	if actor.Role != models.RoleAdmin && correction.RequesterID != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	return correction, nil
}

// Review applies the administrator decision. Approval rewrites the target
// day from the proposed payload and recomputes its totals inside the same
// transaction that flips the request status; the row lock taken there makes
// concurrent double-approval impossible. Approving an already approved
// request is a no-op.
func (s *CorrectionService) Review(ctx context.Context, actor *models.JWTClaims, id string, req dto.ReviewCorrectionRequest) (*models.CorrectionRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.ErrForbidden
	}
	if req.Status != models.CorrectionStatusApproved && req.Status != models.CorrectionStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be APPROVED or REJECTED")
	}

	correction, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load correction request")
	}
	if correction.Status != models.CorrectionStatusPending {
		return s.resolveReviewed(correction, req.Status)
	}

	now := s.clock.Now()
	params := repository.ReviewParams{
		RequestID:  correction.ID,
		Status:     req.Status,
		ReviewerID: actor.UserID,
		ReviewedAt: now,
		ReviewNote: optionalString(req.Note),
	}

	var before []byte
	if req.Status == models.CorrectionStatusApproved {
		day, breaks, err := s.applyProposal(ctx, correction)
		if err != nil {
			return nil, err
		}
		before, _ = json.Marshal(day)
		merged := *day
		params.Day = &merged
		params.Breaks = breaks
	}

	if err := s.repo.ApplyReview(ctx, params); err != nil {
		if errors.Is(err, repository.ErrAlreadyReviewed) {
			refreshed, refErr := s.repo.GetByID(ctx, id)
			if refErr != nil {
				return nil, appErrors.Wrap(refErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload correction request")
			}
			return s.resolveReviewed(refreshed, req.Status)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply review")
	}

	correction.Status = req.Status
	correction.ReviewedBy = &actor.UserID
	correction.ReviewedAt = &now
	correction.ReviewNote = params.ReviewNote

	if s.metrics != nil {
		s.metrics.RecordCorrection(strings.ToLower(string(req.Status)))
	}
	action := models.AuditActionCorrectionReject
	if req.Status == models.CorrectionStatusApproved {
		action = models.AuditActionCorrectionApprove
		if params.Day != nil {
			s.invalidateSummary(ctx, params.Day.UserID, params.Day.WorkDate)
		}
	}
	after, _ := json.Marshal(correction)
	s.emitAudit(ctx, actor.UserID, action, correction.ID, before, after)
	return correction, nil
}

// resolveReviewed maps a decision against an already-resolved request:
// repeating the same approval is an idempotent success, anything else is a
// conflict.
func (s *CorrectionService) resolveReviewed(correction *models.CorrectionRequest, wanted models.CorrectionStatus) (*models.CorrectionRequest, error) {
	if correction.Status == models.CorrectionStatusApproved && wanted == models.CorrectionStatusApproved {
		return correction, nil
	}
	return nil, appErrors.Clone(appErrors.ErrConflict, "correction request already reviewed")
}

// applyProposal merges the proposed payload over the current day record and
// recomputes totals. Only fields present in the proposal overwrite; the
// break set is replaced with the proposed list.
func (s *CorrectionService) applyProposal(ctx context.Context, correction *models.CorrectionRequest) (*models.AttendanceDay, []models.BreakPeriod, error) {
	day, err := s.days.FindDayByID(ctx, correction.DayID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.ErrNotFound
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance day")
	}
	payload, err := correction.DecodePayload()
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode correction payload")
	}

	merged := *day
	if payload.ClockInAt != nil {
		merged.ClockInAt = payload.ClockInAt
	}
	if payload.ClockOutAt != nil {
		merged.ClockOutAt = payload.ClockOutAt
	}
	if payload.Note != nil {
		merged.Note = payload.Note
	}

	breaks := make([]models.BreakPeriod, 0, len(payload.Breaks))
	for _, b := range payload.Breaks {
		breaks = append(breaks, models.BreakPeriod{
			DayID:     day.ID,
			StartedAt: b.StartedAt,
			EndedAt:   b.EndedAt,
		})
	}
	Recompute(&merged, breaks)
	return &merged, breaks, nil
}

func (s *CorrectionService) invalidateSummary(ctx context.Context, userID string, date time.Time) {
	if !s.cache.Enabled() {
		return
	}
	_ = s.cache.Invalidate(ctx, summaryCacheKey(userID, date))
}

func (s *CorrectionService) emitAudit(ctx context.Context, actorID, action, resourceID string, before, after []byte) {
	if s.audit == nil {
		return
	}
	log := &models.CorrectionLog{
		UserID:       &actorID,
		Action:       action,
		Resource:     "correction_request",
		ResourceID:   &resourceID,
		BeforeValues: before,
		AfterValues:  after,
		IPAddress:    "system",
		UserAgent:    "correction-service",
	}
	if err := s.audit.CreateLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist correction log", zap.Error(err))
	}
}

func proposedBreaks(edits []dto.BreakEdit) []models.ProposedBreak {
	breaks := make([]models.ProposedBreak, 0, len(edits))
	for _, e := range edits {
		breaks = append(breaks, models.ProposedBreak{
			StartedAt: TruncateToMinute(e.StartedAt),
			EndedAt:   truncatePtr(e.EndedAt),
		})
	}
	return breaks
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	v := strings.TrimSpace(value)
	return &v
}
