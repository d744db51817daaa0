package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/udacchi/attendance-management-sub000/internal/dto"
)

func TestValidateDayTimesAcceptsCleanPayload(t *testing.T) {
	fields := validateDayTimes(
		tsPtr(t, "2026-03-02 09:00:00"),
		tsPtr(t, "2026-03-02 18:00:00"),
		[]dto.BreakEdit{
			{StartedAt: ts(t, "2026-03-02 12:00:00"), EndedAt: tsPtr(t, "2026-03-02 12:40:00")},
		},
	)
	require.Empty(t, fields)
}

func TestValidateDayTimesClockInAfterClockOut(t *testing.T) {
	fields := validateDayTimes(
		tsPtr(t, "2026-03-02 19:00:00"),
		tsPtr(t, "2026-03-02 18:00:00"),
		nil,
	)
	require.Contains(t, fields, "clock_out")
}

func TestValidateDayTimesCollectsAllViolations(t *testing.T) {
	fields := validateDayTimes(
		tsPtr(t, "2026-03-02 09:00:00"),
		tsPtr(t, "2026-03-02 18:00:00"),
		[]dto.BreakEdit{
			{StartedAt: ts(t, "2026-03-02 08:00:00")},
			{StartedAt: ts(t, "2026-03-02 12:30:00"), EndedAt: tsPtr(t, "2026-03-02 12:00:00")},
		},
	)
	require.Len(t, fields, 2)
	require.Contains(t, fields, "breaks[0]")
	require.Contains(t, fields, "breaks[1]")
}

func TestValidateDayTimesBreakBoundaries(t *testing.T) {
	clockIn := tsPtr(t, "2026-03-02 09:00:00")
	clockOut := tsPtr(t, "2026-03-02 18:00:00")

	// Ending exactly at clock-out is allowed.
	fields := validateDayTimes(clockIn, clockOut, []dto.BreakEdit{
		{StartedAt: ts(t, "2026-03-02 17:30:00"), EndedAt: tsPtr(t, "2026-03-02 18:00:00")},
	})
	require.Empty(t, fields)

	// Starting at the clock-out instant is not.
	fields = validateDayTimes(clockIn, clockOut, []dto.BreakEdit{
		{StartedAt: ts(t, "2026-03-02 18:00:00")},
	})
	require.Contains(t, fields, "breaks[0]")

	// Ending past clock-out is not.
	fields = validateDayTimes(clockIn, clockOut, []dto.BreakEdit{
		{StartedAt: ts(t, "2026-03-02 17:30:00"), EndedAt: tsPtr(t, "2026-03-02 18:10:00")},
	})
	require.Contains(t, fields, "breaks[0]")
}

func TestValidateDayTimesOpenBreakWithoutPunchesAllowed(t *testing.T) {
	fields := validateDayTimes(nil, nil, []dto.BreakEdit{
		{StartedAt: ts(t, "2026-03-02 12:00:00")},
	})
	require.Empty(t, fields)
}
