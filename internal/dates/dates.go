// Package dates provides the current-date and travel-date parsing
// helpers used by the planning tools. Travelers usually give dates
// without a year ("May 12", "12/05"), so parsing assumes the nearest
// future occurrence.
package dates

import (
	"strings"
	"time"
)

// ISODate is the canonical date format exchanged with the flight and
// hotel tools.
const ISODate = "2006-01-02"

// Now is swapped in tests to pin the reference date.
var Now = time.Now

// CurrentDate returns today's date in YYYY-MM-DD format.
func CurrentDate() string {
	return Now().Format(ISODate)
}

// yearLayouts carry an explicit year; yearlessLayouts do not and get
// the current year during parsing.
var yearLayouts = []string{
	ISODate,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
}

var yearlessLayouts = []string{
	"January 2",
	"Jan 2",
	"2 January",
	"2 Jan",
	"01/02",
	"1/2",
	"01-02",
}

// InferFutureDate parses a loosely formatted date string and returns
// it in YYYY-MM-DD format, assuming the nearest future occurrence: a
// parsed date already in the past gets its year bumped by one. Strings
// that cannot be parsed are returned unchanged so the caller can pass
// them through to a downstream tool that may understand them.
func InferFutureDate(s string) string {
	in := strings.TrimSpace(s)
	if in == "" {
		return s
	}

	today := truncateToDay(Now())

	for _, layout := range yearLayouts {
		if t, err := time.Parse(layout, in); err == nil {
			if t.Before(today) {
				t = t.AddDate(1, 0, 0)
			}
			return t.Format(ISODate)
		}
	}

	for _, layout := range yearlessLayouts {
		if t, err := time.Parse(layout, in); err == nil {
			t = time.Date(today.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			if t.Before(today) {
				t = t.AddDate(1, 0, 0)
			}
			return t.Format(ISODate)
		}
	}

	return s
}

// ParseISO parses a strict YYYY-MM-DD date.
func ParseISO(s string) (time.Time, error) {
	return time.Parse(ISODate, strings.TrimSpace(s))
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
