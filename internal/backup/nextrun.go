// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package backup

import "time"

// NextRun returns the first instant strictly after from that matches rule,
// evaluated as wall-clock time in loc. A nil loc means UTC.
//
// Day-of-month values beyond the end of a month are clamped to that month's
// last day, so a monthly rule on the 31st fires on April 30 and on
// February 28 or 29.
func NextRun(rule Rule, from time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return rule.next(from.In(loc))
}

func (r Hourly) next(from time.Time) time.Time {
	cand := time.Date(from.Year(), from.Month(), from.Day(), from.Hour(), r.Minute, 0, 0, from.Location())
	for !cand.After(from) {
		cand = cand.Add(time.Hour)
	}
	return cand
}

func (r Daily) next(from time.Time) time.Time {
	y, m, d := from.Date()
	for i := 0; ; i++ {
		cand := time.Date(y, m, d+i, r.Hour, r.Minute, 0, 0, from.Location())
		if cand.After(from) {
			return cand
		}
	}
}

func (r Weekly) next(from time.Time) time.Time {
	y, m, d := from.Date()
	offset := (int(r.DayOfWeek) - int(from.Weekday()) + 7) % 7
	for {
		cand := time.Date(y, m, d+offset, r.Hour, r.Minute, 0, 0, from.Location())
		if cand.After(from) {
			return cand
		}
		offset += 7
	}
}

func (r Monthly) next(from time.Time) time.Time {
	y, m, _ := from.Date()
	for i := 0; ; i++ {
		// Normalize the month first so clamping looks at the right month.
		first := time.Date(y, m+time.Month(i), 1, 0, 0, 0, 0, from.Location())
		day := min(r.DayOfMonth, daysIn(first.Year(), first.Month()))
		cand := time.Date(first.Year(), first.Month(), day, r.Hour, r.Minute, 0, 0, from.Location())
		if cand.After(from) {
			return cand
		}
	}
}

func (r Yearly) next(from time.Time) time.Time {
	for y := from.Year(); ; y++ {
		day := min(r.DayOfMonth, daysIn(y, r.Month))
		cand := time.Date(y, r.Month, day, r.Hour, r.Minute, 0, 0, from.Location())
		if cand.After(from) {
			return cand
		}
	}
}

// daysIn returns the number of days in month of year.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
