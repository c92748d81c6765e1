package shared

import "time"

// DateRange bounds a query by calendar date, both ends inclusive.
// A nil bound is open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Contains reports whether d falls within the range
func (r DateRange) Contains(d time.Time) bool {
	d = TruncateDate(d)
	if r.From != nil && d.Before(TruncateDate(*r.From)) {
		return false
	}
	if r.To != nil && d.After(TruncateDate(*r.To)) {
		return false
	}
	return true
}

// Filter represents query filter options
type Filter struct {
	Page     int
	PageSize int
	OrderDir string
}

// DefaultFilter returns a filter with default values
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: 50,
		OrderDir: "desc",
	}
}

// Offset returns the row offset for the filter's page
func (f Filter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// TruncateDate drops the clock part of t, keeping the calendar date in UTC
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
