package core

import (
	"fmt"
	"strings"
	"time"
)

// DateKeyLayout is the layout of calendar-day keys exchanged with clients
const DateKeyLayout = "2006-01-02"

// DateKey identifies a calendar day, e.g. "2025-06-30"
type DateKey string

// NewDateKey formats t as a DateKey in t's location
func NewDateKey(t time.Time) DateKey {
	return DateKey(t.Format(DateKeyLayout))
}

// ParseDateKey validates s as a YYYY-MM-DD day key
func ParseDateKey(s string) (DateKey, error) {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(DateKeyLayout, s); err != nil {
		return "", fmt.Errorf("invalid date key %q: expected YYYY-MM-DD", s)
	}
	return DateKey(s), nil
}

// Time returns midnight UTC of the day
func (d DateKey) Time() time.Time {
	t, err := time.Parse(DateKeyLayout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

// IsZero reports whether the key is unset
func (d DateKey) IsZero() bool {
	return d == ""
}

// String returns the string representation
func (d DateKey) String() string {
	return string(d)
}

// AddDays returns the key n days after d. An invalid key stays unchanged.
func (d DateKey) AddDays(n int) DateKey {
	t := d.Time()
	if t.IsZero() {
		return d
	}
	return NewDateKey(t.AddDate(0, 0, n))
}

// SpanDays counts the days from start to end inclusive, 0 when either key is
// invalid or end is before start
func SpanDays(start, end DateKey) int {
	from, to := start.Time(), end.Time()
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours()/24) + 1
}

// DaysBetween returns every day key from start to end inclusive.
// Returns nil when end is before start.
func DaysBetween(start, end DateKey) []DateKey {
	from, to := start.Time(), end.Time()
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil
	}
	var days []DateKey
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, NewDateKey(d))
	}
	return days
}
