package booking

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var literalDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// NormalizeDate converts an arbitrary date input into a canonical calendar day.
// Three shapes are tried in order: a literal YYYY-MM-DD string, a numeric
// string of epoch milliseconds, and an ISO-8601 timestamp with offset. When a
// timezone is given the result is the calendar date in that zone; the literal
// form is reinterpreted in the zone rather than UTC.
func NormalizeDate(input string, timezone string) (CalendarDate, error) {
	trimmed := strings.TrimSpace(input)
	location := time.UTC
	if strings.TrimSpace(timezone) != "" {
		loaded, err := time.LoadLocation(strings.TrimSpace(timezone))
		if err != nil {
			return CalendarDate{}, fmt.Errorf("%w: unknown timezone %q", ErrInvalidTimezone, timezone)
		}
		location = loaded
	}

	if literalDatePattern.MatchString(trimmed) {
		parsed, err := time.ParseInLocation(calendarDateLayout, trimmed, location)
		if err != nil {
			return CalendarDate{}, fmt.Errorf("%w: %q", ErrInvalidDate, input)
		}
		return NewCalendarDate(parsed.Format(calendarDateLayout))
	}

	if epochMillis, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		instant := time.UnixMilli(epochMillis).UTC()
		return NewCalendarDate(instant.In(location).Format(calendarDateLayout))
	}

	if instant, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return NewCalendarDate(instant.In(location).Format(calendarDateLayout))
	}

	return CalendarDate{}, fmt.Errorf("%w: expected YYYY-MM-DD, ISO timestamp, or unix timestamp (ms), got %q", ErrInvalidDate, input)
}
