package util

import "time"

// ISOMillis is the ISO-8601 layout used for updatedAt fields.
const ISOMillis = "2006-01-02T15:04:05.000Z07:00"

// FormatISO renders t in UTC with millisecond precision, e.g. 2025-05-09T20:00:00.000Z.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOMillis)
}

// FormatUnixISO converts epoch seconds to FormatISO output.
func FormatUnixISO(sec int64) string {
	return FormatISO(time.Unix(sec, 0))
}

// DateOnly renders the calendar date of t in UTC.
func DateOnly(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// DaysAgo returns the unix second bounds [now-days, now].
func DaysAgo(now time.Time, days int) (from, to int64) {
	return now.AddDate(0, 0, -days).Unix(), now.Unix()
}
