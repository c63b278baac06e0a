// Package rrule maps the task manager's recurrence metadata (pattern,
// interval, end date) onto RFC 5545 recurrence rules.
package rrule

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

var frequencies = map[string]rrule.Frequency{
	"hourly":  rrule.HOURLY,
	"daily":   rrule.DAILY,
	"weekly":  rrule.WEEKLY,
	"monthly": rrule.MONTHLY,
	"yearly":  rrule.YEARLY,
}

var units = map[string]string{
	"hourly":  "hour",
	"daily":   "day",
	"weekly":  "week",
	"monthly": "month",
	"yearly":  "year",
}

// Rule builds an RRule from the task manager's recurrence triple.
// Pattern is one of hourly/daily/weekly/monthly/yearly, interval defaults
// to 1, and until (when non-nil) bounds the series.
func Rule(pattern string, interval int, dtstart time.Time, until *time.Time) (*rrule.RRule, error) {
	freq, ok := frequencies[strings.ToLower(pattern)]
	if !ok {
		return nil, fmt.Errorf("unknown recurrence pattern %q", pattern)
	}
	if interval < 1 {
		interval = 1
	}

	opt := rrule.ROption{
		Freq:     freq,
		Interval: interval,
		Dtstart:  dtstart,
	}
	if until != nil {
		opt.Until = *until
	}
	return rrule.NewRRule(opt)
}

// NextOccurrence returns the first occurrence after the given time, or
// nil when the series has ended.
func NextOccurrence(pattern string, interval int, dtstart time.Time, until *time.Time, after time.Time) (*time.Time, error) {
	rule, err := Rule(pattern, interval, dtstart, until)
	if err != nil {
		return nil, err
	}

	next := rule.After(after, false)
	if next.IsZero() {
		return nil, nil
	}
	return &next, nil
}

// HumanReadable describes the recurrence for notification messages,
// e.g. "repeats daily" or "repeats every 2 weeks".
func HumanReadable(pattern string, interval int) string {
	pattern = strings.ToLower(pattern)
	unit, ok := units[pattern]
	if !ok {
		return "repeats"
	}

	if interval <= 1 {
		if pattern == "daily" {
			return "repeats daily"
		}
		return "repeats " + pattern
	}
	return fmt.Sprintf("repeats every %d %ss", interval, unit)
}
