package shared

import "time"

// ParseDate accepts RFC3339 or YYYY-MM-DD.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", value)
}

// DayRange expands a from/to date pair into an inclusive instant range:
// from at 00:00 through the last instant of the to day in loc. Zero inputs
// stay zero.
func DayRange(from, to time.Time, loc *time.Location) (time.Time, time.Time) {
	var start, end time.Time
	if !from.IsZero() {
		start = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	}
	if !to.IsZero() {
		// Next midnight minus a nanosecond, so server timestamps with a
		// sub-second tail on the final day still fall inside the range.
		end = time.Date(to.Year(), to.Month(), to.Day()+1, 0, 0, 0, 0, loc).Add(-time.Nanosecond)
	}
	return start, end
}
