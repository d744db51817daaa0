package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/udacchi/attendance-management-sub000/internal/models"
)

func ts(t *testing.T, value string) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	parsed, err := time.ParseInLocation("2006-01-02 15:04:05", value, loc)
	require.NoError(t, err)
	return parsed
}

func tsPtr(t *testing.T, value string) *time.Time {
	t.Helper()
	parsed := ts(t, value)
	return &parsed
}

func TestBreakMinutesTruncatesSeconds(t *testing.T) {
	breaks := []models.BreakPeriod{
		{StartedAt: ts(t, "2026-03-02 12:00:00"), EndedAt: tsPtr(t, "2026-03-02 12:40:59")},
	}
	require.Equal(t, 40, BreakMinutes(breaks))
}

func TestBreakMinutesSkipsOpenAndInverted(t *testing.T) {
	breaks := []models.BreakPeriod{
		{StartedAt: ts(t, "2026-03-02 12:00:00")},
		{StartedAt: ts(t, "2026-03-02 15:00:00"), EndedAt: tsPtr(t, "2026-03-02 14:00:00")},
		{StartedAt: ts(t, "2026-03-02 16:00:00"), EndedAt: tsPtr(t, "2026-03-02 16:10:00")},
	}
	require.Equal(t, 10, BreakMinutes(breaks))
}

func TestWorkMinutesRequiresBothPunches(t *testing.T) {
	in := tsPtr(t, "2026-03-02 09:00:00")
	require.Nil(t, WorkMinutes(in, nil, 0))
	require.Nil(t, WorkMinutes(nil, in, 0))
	require.Nil(t, WorkMinutes(nil, nil, 0))
}

func TestWorkMinutesStandardDay(t *testing.T) {
	// 9:00-18:00 with 40 minutes of breaks nets 8 hours 20 minutes.
	got := WorkMinutes(tsPtr(t, "2026-03-02 09:00:00"), tsPtr(t, "2026-03-02 18:00:00"), 40)
	require.NotNil(t, got)
	require.Equal(t, 500, *got)
	require.Equal(t, "8:20", FormatMinutes(got))
}

func TestWorkMinutesOvernightShift(t *testing.T) {
	// Clock-out before clock-in means the shift crossed midnight.
	got := WorkMinutes(tsPtr(t, "2026-03-02 23:30:00"), tsPtr(t, "2026-03-02 00:15:00"), 0)
	require.NotNil(t, got)
	require.Equal(t, 45, *got)
}

func TestWorkMinutesNeverNegative(t *testing.T) {
	got := WorkMinutes(tsPtr(t, "2026-03-02 09:00:00"), tsPtr(t, "2026-03-02 09:10:00"), 30)
	require.NotNil(t, got)
	require.Equal(t, 0, *got)
}

func TestFormatMinutesDistinguishesNilFromZero(t *testing.T) {
	zero := 0
	long := 605
	require.Equal(t, "-", FormatMinutes(nil))
	require.Equal(t, "0:00", FormatMinutes(&zero))
	require.Equal(t, "10:05", FormatMinutes(&long))
}

func TestDeriveStatusPrecedence(t *testing.T) {
	day := &models.AttendanceDay{}
	require.Equal(t, models.DayStatusBefore, DeriveStatus(day, nil))

	day.ClockInAt = tsPtr(t, "2026-03-02 09:00:00")
	require.Equal(t, models.DayStatusWorking, DeriveStatus(day, nil))

	open := []models.BreakPeriod{{StartedAt: ts(t, "2026-03-02 12:00:00")}}
	require.Equal(t, models.DayStatusBreak, DeriveStatus(day, open))

	day.ClockOutAt = tsPtr(t, "2026-03-02 18:00:00")
	require.Equal(t, models.DayStatusAfter, DeriveStatus(day, open))
}

func TestRecomputeFullDay(t *testing.T) {
	day := &models.AttendanceDay{
		ClockInAt:  tsPtr(t, "2026-03-02 09:00:00"),
		ClockOutAt: tsPtr(t, "2026-03-02 18:00:00"),
	}
	breaks := []models.BreakPeriod{
		{StartedAt: ts(t, "2026-03-02 12:00:00"), EndedAt: tsPtr(t, "2026-03-02 12:40:00")},
	}
	Recompute(day, breaks)
	require.NotNil(t, day.TotalBreakMinutes)
	require.Equal(t, 40, *day.TotalBreakMinutes)
	require.NotNil(t, day.TotalWorkMinutes)
	require.Equal(t, 500, *day.TotalWorkMinutes)
	require.Equal(t, models.DayStatusAfter, day.Status)
}

func TestRecomputeEmptyDayKeepsNilTotals(t *testing.T) {
	day := &models.AttendanceDay{}
	Recompute(day, nil)
	require.Nil(t, day.TotalBreakMinutes)
	require.Nil(t, day.TotalWorkMinutes)
	require.Equal(t, models.DayStatusBefore, day.Status)
}

func TestOpenBreakPicksLatest(t *testing.T) {
	breaks := []models.BreakPeriod{
		{ID: "b1", StartedAt: ts(t, "2026-03-02 10:00:00"), EndedAt: tsPtr(t, "2026-03-02 10:10:00")},
		{ID: "b2", StartedAt: ts(t, "2026-03-02 12:00:00")},
		{ID: "b3", StartedAt: ts(t, "2026-03-02 15:00:00")},
	}
	open := OpenBreak(breaks)
	require.NotNil(t, open)
	require.Equal(t, "b3", open.ID)
}

func TestDateOfUsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	// 2026-03-02T23:30 UTC is already 2026-03-03 in Tokyo.
	utc := time.Date(2026, 3, 2, 23, 30, 0, 0, time.UTC)
	got := DateOf(utc, loc)
	require.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, loc), got)
}

func TestTruncateToMinute(t *testing.T) {
	got := TruncateToMinute(ts(t, "2026-03-02 09:00:59"))
	require.Equal(t, ts(t, "2026-03-02 09:00:00"), got)
}
