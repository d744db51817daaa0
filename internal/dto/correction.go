package dto

import (
	"time"

	"github.com/udacchi/attendance-management-sub000/internal/models"
)

// CreateCorrectionRequest submits a proposed rewrite of one day's record.
// Date selects the target day (YYYY-MM-DD in the application timezone);
// Reason is the mandatory free-text justification.
type CreateCorrectionRequest struct {
	Date       string      `json:"date" binding:"required"`
	ClockInAt  *time.Time  `json:"clock_in_at,omitempty"`
	ClockOutAt *time.Time  `json:"clock_out_at,omitempty"`
	Breaks     []BreakEdit `json:"breaks"`
	Note       *string     `json:"note,omitempty"`
	Reason     string      `json:"reason"`
}

// ReviewCorrectionRequest carries the administrator decision.
type ReviewCorrectionRequest struct {
	Status models.CorrectionStatus `json:"status" binding:"required"`
	Note   string                  `json:"note,omitempty"`
}

// CorrectionQuery filters correction listings.
type CorrectionQuery struct {
	Status []models.CorrectionStatus
	DayID  string
	Page   int
	Size   int
}

// CorrectionResponse renders one correction request.
type CorrectionResponse struct {
	ID          string                  `json:"id"`
	DayID       string                  `json:"day_id"`
	RequesterID string                  `json:"requester_id"`
	WorkDate    string                  `json:"work_date,omitempty"`
	ClockInAt   *time.Time              `json:"clock_in_at,omitempty"`
	ClockOutAt  *time.Time              `json:"clock_out_at,omitempty"`
	Breaks      []BreakEdit             `json:"breaks"`
	Note        *string                 `json:"note,omitempty"`
	Reason      string                  `json:"reason"`
	Status      models.CorrectionStatus `json:"status"`
	ReviewedBy  *string                 `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time              `json:"reviewed_at,omitempty"`
	ReviewNote  *string                 `json:"review_note,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
}
