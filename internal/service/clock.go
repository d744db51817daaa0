package service

import "time"

// Clock supplies the current time in the application timezone. Punch
// timestamps and work-date boundaries are always interpreted in this single
// configured location; tests inject a fixed clock.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

type locationClock struct {
	loc *time.Location
}

// NewClock builds a Clock pinned to the named IANA timezone. An unknown name
// falls back to Asia/Tokyo, matching the default deployment.
func NewClock(timezone string) Clock {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc, _ = time.LoadLocation("Asia/Tokyo")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &locationClock{loc: loc}
}

func (c *locationClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *locationClock) Location() *time.Location {
	return c.loc
}

// FixedClock returns a Clock frozen at the provided instant.
func FixedClock(at time.Time) Clock {
	return fixedClock{at: at}
}

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time           { return c.at }
func (c fixedClock) Location() *time.Location { return c.at.Location() }

// TruncateToMinute drops the seconds and sub-second components of a punch
// timestamp. Stored punches carry minute precision only.
func TruncateToMinute(t time.Time) time.Time {
	return t.Truncate(time.Minute)
}

// DateOf normalises a timestamp to its calendar date at midnight in the
// clock's location. Used as the work_date key.
func DateOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
