// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

/*
recurrence.go - Recurrence Rules

A recurrence rule is one of exactly five shapes. Each shape requires a fixed
set of fields:

	hourly   minute
	daily    hour, minute
	weekly   dayOfWeek, hour, minute
	monthly  dayOfMonth, hour, minute
	yearly   month, dayOfMonth, hour, minute

Rules arrive from clients and storage as a flat RuleSpec with optional
fields. ParseRule is the only way to turn a RuleSpec into a Rule: every field
that is present is range checked, even when the kind does not use it, and
every field the kind requires must be present. Rule.Spec returns the canonical
wire form carrying only the required fields.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"fmt"
	"time"
)

// Kind names a recurrence shape.
type Kind string

const (
	KindHourly  Kind = "hourly"
	KindDaily   Kind = "daily"
	KindWeekly  Kind = "weekly"
	KindMonthly Kind = "monthly"
	KindYearly  Kind = "yearly"
)

// Rule is a validated recurrence rule. The implementations are Hourly,
// Daily, Weekly, Monthly and Yearly.
type Rule interface {
	Kind() Kind
	Spec() RuleSpec
	String() string
	// next returns the first matching instant strictly after from, in from's location.
	next(from time.Time) time.Time
}

// RuleSpec is the flat wire form of a rule. Nil fields are absent.
type RuleSpec struct {
	Kind       Kind `json:"kind"`
	Minute     *int `json:"minute,omitempty"`
	Hour       *int `json:"hour,omitempty"`
	DayOfWeek  *int `json:"dayOfWeek,omitempty"`
	DayOfMonth *int `json:"dayOfMonth,omitempty"`
	Month      *int `json:"month,omitempty"`
}

// Hourly fires every hour at Minute.
type Hourly struct {
	Minute int
}

// Daily fires every day at Hour:Minute.
type Daily struct {
	Hour   int
	Minute int
}

// Weekly fires every week on DayOfWeek at Hour:Minute.
type Weekly struct {
	DayOfWeek time.Weekday
	Hour      int
	Minute    int
}

// Monthly fires every month on DayOfMonth at Hour:Minute. Months shorter than
// DayOfMonth fire on their last day.
type Monthly struct {
	DayOfMonth int
	Hour       int
	Minute     int
}

// Yearly fires every year on Month/DayOfMonth at Hour:Minute, clamped to the
// last day of Month.
type Yearly struct {
	Month      time.Month
	DayOfMonth int
	Hour       int
	Minute     int
}

func (Hourly) Kind() Kind  { return KindHourly }
func (Daily) Kind() Kind   { return KindDaily }
func (Weekly) Kind() Kind  { return KindWeekly }
func (Monthly) Kind() Kind { return KindMonthly }
func (Yearly) Kind() Kind  { return KindYearly }

func (r Hourly) Spec() RuleSpec {
	return RuleSpec{Kind: KindHourly, Minute: intPtr(r.Minute)}
}

func (r Daily) Spec() RuleSpec {
	return RuleSpec{Kind: KindDaily, Hour: intPtr(r.Hour), Minute: intPtr(r.Minute)}
}

func (r Weekly) Spec() RuleSpec {
	return RuleSpec{
		Kind:      KindWeekly,
		DayOfWeek: intPtr(int(r.DayOfWeek)),
		Hour:      intPtr(r.Hour),
		Minute:    intPtr(r.Minute),
	}
}

func (r Monthly) Spec() RuleSpec {
	return RuleSpec{
		Kind:       KindMonthly,
		DayOfMonth: intPtr(r.DayOfMonth),
		Hour:       intPtr(r.Hour),
		Minute:     intPtr(r.Minute),
	}
}

func (r Yearly) Spec() RuleSpec {
	return RuleSpec{
		Kind:       KindYearly,
		Month:      intPtr(int(r.Month)),
		DayOfMonth: intPtr(r.DayOfMonth),
		Hour:       intPtr(r.Hour),
		Minute:     intPtr(r.Minute),
	}
}

func (r Hourly) String() string {
	return fmt.Sprintf("hourly at minute %02d", r.Minute)
}

func (r Daily) String() string {
	return fmt.Sprintf("daily at %02d:%02d", r.Hour, r.Minute)
}

func (r Weekly) String() string {
	return fmt.Sprintf("weekly on %s at %02d:%02d", r.DayOfWeek, r.Hour, r.Minute)
}

func (r Monthly) String() string {
	return fmt.Sprintf("monthly on day %d at %02d:%02d", r.DayOfMonth, r.Hour, r.Minute)
}

func (r Yearly) String() string {
	return fmt.Sprintf("yearly on %s %d at %02d:%02d", r.Month, r.DayOfMonth, r.Hour, r.Minute)
}

type fieldRange struct {
	name     string
	value    *int
	min, max int
}

// ParseRule validates spec and returns the corresponding Rule. Errors are
// *ValidationError naming the offending field.
func ParseRule(spec RuleSpec) (Rule, error) {
	switch spec.Kind {
	case KindHourly, KindDaily, KindWeekly, KindMonthly, KindYearly:
	case "":
		return nil, newValidationError("kind", "is required")
	default:
		return nil, newValidationError("kind", "unknown recurrence kind %q", spec.Kind)
	}

	for _, f := range []fieldRange{
		{"minute", spec.Minute, 0, 59},
		{"hour", spec.Hour, 0, 23},
		{"dayOfWeek", spec.DayOfWeek, 0, 6},
		{"dayOfMonth", spec.DayOfMonth, 1, 31},
		{"month", spec.Month, 1, 12},
	} {
		if f.value != nil && (*f.value < f.min || *f.value > f.max) {
			return nil, newValidationError(f.name, "must be between %d and %d, got %d", f.min, f.max, *f.value)
		}
	}

	require := func(names ...string) error {
		for _, name := range names {
			var v *int
			switch name {
			case "minute":
				v = spec.Minute
			case "hour":
				v = spec.Hour
			case "dayOfWeek":
				v = spec.DayOfWeek
			case "dayOfMonth":
				v = spec.DayOfMonth
			case "month":
				v = spec.Month
			}
			if v == nil {
				return newValidationError(name, "is required for %s schedules", spec.Kind)
			}
		}
		return nil
	}

	switch spec.Kind {
	case KindHourly:
		if err := require("minute"); err != nil {
			return nil, err
		}
		return Hourly{Minute: *spec.Minute}, nil
	case KindDaily:
		if err := require("hour", "minute"); err != nil {
			return nil, err
		}
		return Daily{Hour: *spec.Hour, Minute: *spec.Minute}, nil
	case KindWeekly:
		if err := require("dayOfWeek", "hour", "minute"); err != nil {
			return nil, err
		}
		return Weekly{DayOfWeek: time.Weekday(*spec.DayOfWeek), Hour: *spec.Hour, Minute: *spec.Minute}, nil
	case KindMonthly:
		if err := require("dayOfMonth", "hour", "minute"); err != nil {
			return nil, err
		}
		return Monthly{DayOfMonth: *spec.DayOfMonth, Hour: *spec.Hour, Minute: *spec.Minute}, nil
	default:
		if err := require("month", "dayOfMonth", "hour", "minute"); err != nil {
			return nil, err
		}
		return Yearly{
			Month:      time.Month(*spec.Month),
			DayOfMonth: *spec.DayOfMonth,
			Hour:       *spec.Hour,
			Minute:     *spec.Minute,
		}, nil
	}
}

// ValidateRule checks a rule built directly from its struct form.
func ValidateRule(r Rule) error {
	if r == nil {
		return newValidationError("rule", "is required")
	}
	_, err := ParseRule(r.Spec())
	return err
}

func intPtr(v int) *int {
	return &v
}
