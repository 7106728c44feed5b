// Package analytics resolves reporting periods and aggregates time entries
// by main category and sub-category.
//
// Everything in this package is a pure function over caller-supplied data:
// no I/O, no locking, no mutation of the inputs.
package analytics

import (
	"strings"
	"time"

	"timesheet/internal/core"
)

// PeriodKind is a symbolic selector for a date range.
type PeriodKind string

const (
	ThisWeek  PeriodKind = "this_week"
	LastWeek  PeriodKind = "last_week"
	ThisMonth PeriodKind = "this_month"
	LastMonth PeriodKind = "last_month"
	Custom    PeriodKind = "custom"
)

const (
	customDefaultDays   = 30
	fallbackDefaultDays = 7
)

// ParsePeriodKind normalizes a query value such as "this-week" or "THIS_WEEK".
// Unrecognized values are returned as-is so Resolve can apply its fallback.
func ParsePeriodKind(s string) PeriodKind {
	s = strings.ToLower(strings.TrimSpace(s))
	return PeriodKind(strings.ReplaceAll(s, "-", "_"))
}

// Resolve maps a period kind and the current day to a concrete inclusive range.
// Weeks start on Monday. A custom range is returned verbatim and is not
// validated; without one, custom covers today and the 30 days before it.
// Unknown kinds cover today and the 7 days before it.
func Resolve(kind PeriodKind, today time.Time, custom *core.DateRange) core.DateRange {
	day := truncateDay(today)

	switch kind {
	case ThisWeek:
		monday := weekStart(day)
		return span(monday, monday.AddDate(0, 0, 6))
	case LastWeek:
		monday := weekStart(day).AddDate(0, 0, -7)
		return span(monday, monday.AddDate(0, 0, 6))
	case ThisMonth:
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		return span(first, first.AddDate(0, 1, -1))
	case LastMonth:
		// time.Date normalizes month 0 to December of the previous year.
		first := time.Date(day.Year(), day.Month()-1, 1, 0, 0, 0, 0, time.UTC)
		return span(first, first.AddDate(0, 1, -1))
	case Custom:
		if custom != nil {
			return *custom
		}
		return span(day.AddDate(0, 0, -customDefaultDays), day)
	default:
		return span(day.AddDate(0, 0, -fallbackDefaultDays), day)
	}
}

// truncateDay keeps the calendar date of t as seen in its own location.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func weekStart(day time.Time) time.Time {
	wd := int(day.Weekday())
	if wd == 0 {
		wd = 7
	}
	return day.AddDate(0, 0, -(wd - 1))
}

func span(start, end time.Time) core.DateRange {
	return core.DateRange{
		Start: start.Format(core.DateLayout),
		End:   end.Format(core.DateLayout),
	}
}
