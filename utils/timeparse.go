package utils

import (
	"fmt"
	"strings"
	"time"
)

var clockLayouts = []string{
	"3:04:05 PM",
	"3:04 PM",
	"15:04:05",
	"15:04",
	"150405",
	"1504",
}

// ParseClockTime parses a clock-of-day string as exported by the payment
// terminals. The sources are inconsistent: some emit 12-hour with AM/PM,
// some 24-hour with or without separators.
func ParseClockTime(s string) (time.Time, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(s))
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized clock time %q", s)
}

// CombineDateTime merges a date column and a clock-of-day column into a
// single timestamp. When the clock string cannot be parsed the bare date
// (midnight) is returned so that a malformed time never loses the row.
func CombineDateTime(date time.Time, clock string) time.Time {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	t, err := ParseClockTime(clock)
	if err != nil {
		return day
	}
	return day.Add(time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second)
}
