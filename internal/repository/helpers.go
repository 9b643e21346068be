package repository

import (
	"time"
)

// timeLayout is how timestamps are written to SQLite.
const timeLayout = time.RFC3339Nano

// parseTime parses a stored timestamp, yielding the zero time when the
// column is empty or malformed.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// nowUTC returns the current UTC time formatted for storage.
func nowUTC() string {
	return time.Now().UTC().Format(timeLayout)
}
