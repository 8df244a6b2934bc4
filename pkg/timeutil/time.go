package timeutil

import "time"

// DateStampLayout is the compact date used inside order codes
const DateStampLayout = "20060102"

// Clock returns the current time. Services take a Clock so tests can pin dates.
type Clock func() time.Time

// Now returns the current time in UTC
// Always use this instead of time.Now() to ensure timezone consistency
func Now() time.Time {
	return time.Now().UTC()
}

// Fixed returns a Clock that always reports t
func Fixed(t time.Time) Clock {
	return func() time.Time { return t }
}

// DateStamp formats t as YYYYMMDD in loc. A nil loc means UTC.
func DateStamp(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateStampLayout)
}

// StartOfDay returns midnight of t's calendar day in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	year, month, day := t.In(loc).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// AddDays returns the calendar date n days after t, at midnight in loc
func AddDays(t time.Time, n int, loc *time.Location) time.Time {
	return StartOfDay(t, loc).AddDate(0, 0, n)
}
