package utils

import "time"

// NowUTC returns the current time in UTC. Tests may replace it.
var NowUTC = func() time.Time {
	return time.Now().UTC()
}

// ParseRFC3339 parses a time string in RFC3339 format and normalises it to UTC
func ParseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
