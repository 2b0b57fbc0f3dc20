package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ClockTime is a time-of-day value expressed as minutes since midnight.
// Courses are scheduled within a single day, so a plain minute offset is
// enough for ordering and overlap checks and maps directly onto the
// SMALLINT columns used in the courses table.
//
// Valid values range from 0 (00:00) to 1439 (23:59).  A negative value
// means "unset" and is only used by catalog filters.
type ClockTime int

// MinutesPerDay bounds valid ClockTime values.
const MinutesPerDay = 24 * 60

// ParseClockTime parses "HH:MM" (or "HH:MM:SS", seconds ignored) into a
// ClockTime.  It returns an error for malformed input or values outside
// a single day.
func ParseClockTime(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	return ClockTime(h*60 + m), nil
}

// String renders the value as "HH:MM" for JSON payloads and messages.
func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Valid reports whether t falls within a single day.
func (t ClockTime) Valid() bool {
	return t >= 0 && t < MinutesPerDay
}
