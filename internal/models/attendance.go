package models

import "time"

// DayStatus tracks where a user is in the daily punch cycle.
type DayStatus string

const (
	DayStatusBefore  DayStatus = "BEFORE"
	DayStatusWorking DayStatus = "WORKING"
	DayStatusBreak   DayStatus = "BREAK"
	DayStatusAfter   DayStatus = "AFTER"
)

// Valid returns true when the status is a supported value.
func (s DayStatus) Valid() bool {
	switch s {
	case DayStatusBefore, DayStatusWorking, DayStatusBreak, DayStatusAfter:
		return true
	default:
		return false
	}
}

// PunchAction enumerates the supported punch operations.
type PunchAction string

const (
	PunchClockIn    PunchAction = "clock-in"
	PunchBreakStart PunchAction = "break-start"
	PunchBreakEnd   PunchAction = "break-end"
	PunchClockOut   PunchAction = "clock-out"
)

// Valid returns true when the action is one of the four punch types.
func (a PunchAction) Valid() bool {
	switch a {
	case PunchClockIn, PunchBreakStart, PunchBreakEnd, PunchClockOut:
		return true
	default:
		return false
	}
}

// AttendanceDay is the canonical per-user-per-date attendance record.
// TotalWorkMinutes and TotalBreakMinutes are derived caches recomputed on
// every write to the underlying punches or break periods; nil means the
// total is not yet computable, which is distinct from zero.
type AttendanceDay struct {
	ID                string     `db:"id" json:"id"`
	UserID            string     `db:"user_id" json:"user_id"`
	WorkDate          time.Time  `db:"work_date" json:"work_date"`
	ClockInAt         *time.Time `db:"clock_in_at" json:"clock_in_at,omitempty"`
	ClockOutAt        *time.Time `db:"clock_out_at" json:"clock_out_at,omitempty"`
	Status            DayStatus  `db:"status" json:"status"`
	TotalWorkMinutes  *int       `db:"total_work_minutes" json:"total_work_minutes,omitempty"`
	TotalBreakMinutes *int       `db:"total_break_minutes" json:"total_break_minutes,omitempty"`
	Note              *string    `db:"note" json:"note,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// BreakPeriod is one contiguous break interval within an attendance day.
// EndedAt stays nil while the break is open; at most one open break may
// exist per day.
type BreakPeriod struct {
	ID        string     `db:"id" json:"id"`
	DayID     string     `db:"day_id" json:"day_id"`
	StartedAt time.Time  `db:"started_at" json:"started_at"`
	EndedAt   *time.Time `db:"ended_at" json:"ended_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// AttendanceDayRecord extends the day row with owner metadata for admin views.
type AttendanceDayRecord struct {
	AttendanceDay
	UserName  string `db:"user_name" json:"user_name"`
	UserEmail string `db:"user_email" json:"user_email"`
}

// AttendanceFilter scopes listing queries.
type AttendanceFilter struct {
	UserID    string
	Date      *time.Time
	MonthFrom *time.Time
	MonthTo   *time.Time
	Status    *DayStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// MonthSummary aggregates a user's totals over one month.
type MonthSummary struct {
	Month             string `json:"month"`
	DaysWorked        int    `json:"days_worked"`
	TotalWorkMinutes  int    `json:"total_work_minutes"`
	TotalBreakMinutes int    `json:"total_break_minutes"`
}
