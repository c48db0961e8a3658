// Package timeutil parses the timestamps returned by the adaptive learning
// service. Values without a zone are taken as UTC.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// Layouts accepted by Parse, tried in order.
const (
	FormatDateTimeMicro = "2006-01-02T15:04:05.999999"
	FormatDateTimeT     = "2006-01-02T15:04:05"
	FormatDateTime      = "2006-01-02 15:04:05"
	FormatDate          = "2006-01-02"
)

var layouts = []string{
	time.RFC3339Nano,
	FormatDateTimeMicro,
	FormatDateTimeT,
	FormatDateTime,
	FormatDate,
}

// Parse parses value in the first matching layout and returns it in UTC.
// An explicit offset in the value is honoured.
func Parse(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

// ParseUnix is Parse followed by Unix.
func ParseUnix(value string) (int64, error) {
	t, err := Parse(value)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}

// StartOfDay returns the start of t's day in UTC.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
