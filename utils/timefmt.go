package utils

import (
	"fmt"
	"strings"
	"time"
)

// datetime-local input format used by the browser client.
const dateTimeInputLayout = "2006-01-02T15:04"

// FormatForDateTimeInput renders an RFC 3339 timestamp as yyyy-MM-ddTHH:mm
// for datetime-local inputs. Unparseable or empty input yields "".
func FormatForDateTimeInput(s string) string {
	if s == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return ""
	}
	return t.Format(dateTimeInputLayout)
}

// ParseDateTimeInput parses a yyyy-MM-ddTHH:mm value back to a time. The
// round trip through FormatForDateTimeInput preserves minute precision.
func ParseDateTimeInput(s string) (time.Time, error) {
	return time.Parse(dateTimeInputLayout, s)
}

// ParseMonthNameDate parses legacy dropdown values like "JULY 2, 2025".
// Older clients still send the schedule date in this shape.
func ParseMonthNameDate(s string) (time.Time, error) {
	parts := strings.Fields(strings.TrimSpace(s))
	if len(parts) < 3 {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}

	month := monthIndex(strings.ToUpper(parts[0]))
	if month == 0 {
		return time.Time{}, fmt.Errorf("invalid month in %q", s)
	}

	var day, year int
	if _, err := fmt.Sscanf(strings.TrimSuffix(parts[1], ","), "%d", &day); err != nil || day == 0 {
		return time.Time{}, fmt.Errorf("invalid day in %q", s)
	}
	if _, err := fmt.Sscanf(parts[2], "%d", &year); err != nil || year == 0 {
		return time.Time{}, fmt.Errorf("invalid year in %q", s)
	}

	return time.Date(year, month, day, 0, 0, 0, 0, time.Local), nil
}

func monthIndex(name string) time.Month {
	months := []string{
		"JANUARY", "FEBRUARY", "MARCH", "APRIL", "MAY", "JUNE",
		"JULY", "AUGUST", "SEPTEMBER", "OCTOBER", "NOVEMBER", "DECEMBER",
	}
	for i, m := range months {
		if m == name {
			return time.Month(i + 1)
		}
	}
	return 0
}
