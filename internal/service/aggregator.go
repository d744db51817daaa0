package service

import (
	"fmt"
	"time"

	"github.com/udacchi/attendance-management-sub000/internal/models"
)

// BreakMinutes sums whole-minute durations over the closed break periods.
// Seconds are truncated, not rounded. Open periods contribute zero until
// closed, and an inverted period (end before start) never subtracts.
func BreakMinutes(periods []models.BreakPeriod) int {
	total := 0
	for _, p := range periods {
		if p.EndedAt == nil {
			continue
		}
		span := p.EndedAt.Sub(p.StartedAt)
		if span <= 0 {
			continue
		}
		total += int(span / time.Minute)
	}
	return total
}

// WorkMinutes derives net work minutes from the punch pair and the break
// total. It returns nil when either punch is missing: an absent total means
// "incomplete", which is distinct from a genuine zero-length shift.
//
// When clock-out's time of day is earlier than clock-in's, the shift is
// treated as crossing midnight and clock-out is shifted to the following day
// before differencing.
func WorkMinutes(clockIn, clockOut *time.Time, breakMinutes int) *int {
	if clockIn == nil || clockOut == nil {
		return nil
	}
	out := *clockOut
	if out.Before(*clockIn) {
		out = out.Add(24 * time.Hour)
	}
	span := int(out.Sub(*clockIn) / time.Minute)
	net := span - breakMinutes
	if net < 0 {
		net = 0
	}
	return &net
}

// FormatMinutes renders a minute total as H:MM, hours unpadded. A nil total
// renders as a dash so that "no data" never reads as "0:00".
func FormatMinutes(minutes *int) string {
	if minutes == nil {
		return "-"
	}
	m := *minutes
	if m < 0 {
		m = 0
	}
	return fmt.Sprintf("%d:%02d", m/60, m%60)
}

// DeriveStatus recomputes the day status from stored punches and breaks.
// Clock-out wins over an anomalous still-open break; an open break wins over
// plain clocked-in.
func DeriveStatus(day *models.AttendanceDay, breaks []models.BreakPeriod) models.DayStatus {
	if day.ClockOutAt != nil {
		return models.DayStatusAfter
	}
	for _, p := range breaks {
		if p.EndedAt == nil {
			return models.DayStatusBreak
		}
	}
	if day.ClockInAt != nil {
		return models.DayStatusWorking
	}
	return models.DayStatusBefore
}

// Recompute refreshes both derived totals and the status on the day record
// from its break periods. Callers persist the result before their enclosing
// operation completes.
func Recompute(day *models.AttendanceDay, breaks []models.BreakPeriod) {
	brk := BreakMinutes(breaks)
	if day.ClockInAt == nil && len(breaks) == 0 {
		day.TotalBreakMinutes = nil
	} else {
		day.TotalBreakMinutes = &brk
	}
	day.TotalWorkMinutes = WorkMinutes(day.ClockInAt, day.ClockOutAt, brk)
	day.Status = DeriveStatus(day, breaks)
}

// OpenBreak returns the most recently started break with no end, or nil.
func OpenBreak(breaks []models.BreakPeriod) *models.BreakPeriod {
	var open *models.BreakPeriod
	for i := range breaks {
		if breaks[i].EndedAt != nil {
			continue
		}
		if open == nil || breaks[i].StartedAt.After(open.StartedAt) {
			open = &breaks[i]
		}
	}
	return open
}
