package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/udacchi/attendance-management-sub000/internal/models"
	appErrors "github.com/udacchi/attendance-management-sub000/pkg/errors"
	"github.com/udacchi/attendance-management-sub000/pkg/export"
)

type exportDayLister interface {
	ListDays(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDayRecord, int, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult carries a rendered export ready for download.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders monthly attendance tables for download. Employees
// export their own month; administrators may export any user's month or the
// whole roster.
type ExportService struct {
	repo    exportDayLister
	csv     csvRenderer
	pdf     pdfRenderer
	clock   Clock
	logger  *zap.Logger
	maxRows int
}

// NewExportService constructs an ExportService.
func NewExportService(repo exportDayLister, clock Clock, logger *zap.Logger, maxRows int, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = NewClock("Asia/Tokyo")
	}
	if maxRows <= 0 {
		maxRows = 5000
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{repo: repo, csv: csv, pdf: pdf, clock: clock, logger: logger, maxRows: maxRows}
}

// MonthExport renders one month of attendance. An empty userID exports all
// users and requires the admin role.
func (s *ExportService) MonthExport(ctx context.Context, actor *models.JWTClaims, userID, month string, format ExportFormat) (*ExportResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	isAdmin := actor.Role == models.RoleAdmin
	if userID == "" && !isAdmin {
		return nil, appErrors.ErrForbidden
	}
	if userID != "" && !isAdmin && userID != actor.UserID {
		return nil, appErrors.ErrForbidden
	}

	from, to, err := monthRange(month, s.clock.Location())
	if err != nil {
		return nil, err
	}

	filter := models.AttendanceFilter{
		MonthFrom: &from,
		MonthTo:   &to,
		SortBy:    "work_date",
		SortOrder: "asc",
		Page:      1,
		PageSize:  s.maxRows,
	}
	if userID != "" {
		filter.UserID = userID
	}
	rows, total, err := s.repo.ListDays(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance days")
	}
	if total > s.maxRows {
		s.logger.Warn("export truncated to row limit",
			zap.Int("total", total),
			zap.Int("limit", s.maxRows),
			zap.String("month", month))
	}

	dataset := s.buildDataset(rows, userID == "")

	var payload []byte
	var contentType string
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, fmt.Sprintf("Attendance %s", month))
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	scope := userID
	if scope == "" {
		scope = "all"
	}
	filename := fmt.Sprintf("attendance_%s_%s.%s", scope, month, format)
	return &ExportResult{Filename: filename, ContentType: contentType, Payload: payload}, nil
}

func (s *ExportService) buildDataset(rows []models.AttendanceDayRecord, includeUser bool) export.Dataset {
	headers := []string{"date", "status", "clock_in", "clock_out", "break_total", "work_total", "note"}
	if includeUser {
		headers = append([]string{"user_name", "user_email"}, headers...)
	}

	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		record := map[string]string{
			"date":        row.WorkDate.Format("2006-01-02"),
			"status":      string(row.Status),
			"clock_in":    formatClock(row.ClockInAt, s.clock),
			"clock_out":   formatClock(row.ClockOutAt, s.clock),
			"break_total": FormatMinutes(row.TotalBreakMinutes),
			"work_total":  FormatMinutes(row.TotalWorkMinutes),
			"note":        derefString(row.Note),
		}
		if includeUser {
			record["user_name"] = row.UserName
			record["user_email"] = row.UserEmail
		}
		out = append(out, record)
	}
	return export.Dataset{Headers: headers, Rows: out}
}

// monthRange resolves a YYYY-MM string into the half-open date range
// covering that month in the given location.
func monthRange(month string, loc *time.Location) (time.Time, time.Time, error) {
	from, err := time.ParseInLocation("2006-01", month, loc)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "month must be formatted YYYY-MM")
	}
	return from, from.AddDate(0, 1, 0), nil
}

func formatClock(ts *time.Time, clock Clock) string {
	if ts == nil {
		return "-"
	}
	return ts.In(clock.Location()).Format("15:04")
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
