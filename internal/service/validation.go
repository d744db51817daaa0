package service

import (
	"fmt"
	"time"

	"github.com/udacchi/attendance-management-sub000/internal/dto"
)

// validateDayTimes applies the shared consistency rules for direct edits and
// correction submissions. All violations are collected so the caller can
// return them together; an empty map means the payload is acceptable.
//
// The break boundary against clock-out is end-exclusive: a break starting at
// the clock-out instant is invalid, while a break ending exactly at
// clock-out is allowed.
func validateDayTimes(clockIn, clockOut *time.Time, breaks []dto.BreakEdit) map[string]string {
	fields := map[string]string{}

	if clockIn != nil && clockOut != nil && clockIn.After(*clockOut) {
		fields["clock_out"] = "clock-in must not be after clock-out"
	}

	for i, b := range breaks {
		key := fmt.Sprintf("breaks[%d]", i)
		if clockIn != nil && b.StartedAt.Before(*clockIn) {
			fields[key] = "break must not start before clock-in"
			continue
		}
		if clockOut != nil && !b.StartedAt.Before(*clockOut) {
			fields[key] = "break must not start after clock-out"
			continue
		}
		if b.EndedAt != nil {
			if !b.EndedAt.After(b.StartedAt) {
				fields[key] = "break end must be after its start"
				continue
			}
			if clockOut != nil && b.EndedAt.After(*clockOut) {
				fields[key] = "break must not end after clock-out"
			}
		}
	}

	return fields
}
