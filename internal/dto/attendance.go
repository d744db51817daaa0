package dto

import (
	"time"

	"github.com/udacchi/attendance-management-sub000/internal/models"
)

// PunchRequest triggers one punch action for "today".
type PunchRequest struct {
	Action models.PunchAction `json:"action" binding:"required"`
}

// BreakEdit is one proposed break interval in an edit payload.
type BreakEdit struct {
	StartedAt time.Time  `json:"started_at" binding:"required"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// DayEditRequest is the direct-edit payload for a single attendance day.
// The submitted break list replaces the stored set entirely.
type DayEditRequest struct {
	ClockInAt  *time.Time  `json:"clock_in_at,omitempty"`
	ClockOutAt *time.Time  `json:"clock_out_at,omitempty"`
	Breaks     []BreakEdit `json:"breaks"`
	Note       *string     `json:"note,omitempty"`
}

// BreakResponse renders one break period.
type BreakResponse struct {
	ID        string     `json:"id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// DayResponse renders one attendance day with display totals. WorkTotal and
// BreakTotal are H:MM strings; a dash means the total is not yet computable.
type DayResponse struct {
	ID           string           `json:"id"`
	UserID       string           `json:"user_id"`
	WorkDate     string           `json:"work_date"`
	Status       models.DayStatus `json:"status"`
	ClockInAt    *time.Time       `json:"clock_in_at,omitempty"`
	ClockOutAt   *time.Time       `json:"clock_out_at,omitempty"`
	Breaks       []BreakResponse  `json:"breaks"`
	WorkMinutes  *int             `json:"work_minutes,omitempty"`
	BreakMinutes *int             `json:"break_minutes,omitempty"`
	WorkTotal    string           `json:"work_total"`
	BreakTotal   string           `json:"break_total"`
	Note         *string          `json:"note,omitempty"`
	Locked       bool             `json:"locked"`
}

// DayListItem renders one row of a month listing.
type DayListItem struct {
	ID         string           `json:"id"`
	WorkDate   string           `json:"work_date"`
	Status     models.DayStatus `json:"status"`
	ClockInAt  *time.Time       `json:"clock_in_at,omitempty"`
	ClockOutAt *time.Time       `json:"clock_out_at,omitempty"`
	WorkTotal  string           `json:"work_total"`
	BreakTotal string           `json:"break_total"`
	UserName   string           `json:"user_name,omitempty"`
}

// MonthResponse is the month listing with its summary.
type MonthResponse struct {
	Days    []DayListItem        `json:"days"`
	Summary *models.MonthSummary `json:"summary,omitempty"`
}
