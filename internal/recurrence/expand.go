// Package recurrence materializes planner entries into calendar occurrence
// specs: concrete per-day spans for non-recurring entries, weekly or
// bi-weekly series over the weekday set the entry covers, and monthly
// day-of-month series.
package recurrence

import (
	"time"

	"github.com/teambition/rrule-go"

	"github.com/BlyZeDev/tempocal/internal/calendar"
	"github.com/BlyZeDev/tempocal/internal/planner"
)

// Expand turns one entry into the occurrence specs the calendar should
// carry for it. An entry whose active days are all excluded (for example a
// weekend-only span without non-working days) expands to nothing.
func Expand(e planner.Entry) ([]calendar.OccurrenceSpec, error) {
	switch e.Rule {
	case planner.RuleWeekly, planner.RuleBiWeekly:
		return expandWeekly(e)
	case planner.RuleMonthly:
		return expandMonthly(e)
	default:
		return expandSingles(e), nil
	}
}

// expandSingles emits one standalone occurrence per active day in
// [Start, End]. Each day is a materially distinct event, not a series.
func expandSingles(e planner.Entry) []calendar.OccurrenceSpec {
	var specs []calendar.OccurrenceSpec
	for day := e.Start; !day.After(e.End); day = day.AddDate(0, 0, 1) {
		if skipDay(day, e) {
			continue
		}
		start := day.Add(e.StartTime)
		specs = append(specs, calendar.OccurrenceSpec{
			Start: start,
			End:   start.Add(e.DailyDuration),
		})
	}
	return specs
}

// expandWeekly emits a single series anchored on the entry start, active on
// the weekdays covered by [Start, End], every one or two weeks until the
// recurrence end date.
func expandWeekly(e planner.Entry) ([]calendar.OccurrenceSpec, error) {
	days := weekdaySet(e)
	if len(days) == 0 {
		return nil, nil
	}

	interval := 1
	if e.Rule == planner.RuleBiWeekly {
		interval = 2
	}

	rule, err := ruleString(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Interval:  interval,
		Byweekday: days,
		Until:     untilEndOfDay(e.RecurrenceEnd),
	})
	if err != nil {
		return nil, err
	}

	start := e.Start.Add(e.StartTime)
	return []calendar.OccurrenceSpec{{
		Start: start,
		End:   start.Add(e.DailyDuration),
		RRule: rule,
	}}, nil
}

// expandMonthly emits one monthly series per day in [Start, End], each
// anchored on that day-of-month. A single-day entry yields exactly one
// series; a multi-day block becomes parallel per-day series.
func expandMonthly(e planner.Entry) ([]calendar.OccurrenceSpec, error) {
	var specs []calendar.OccurrenceSpec
	for day := e.Start; !day.After(e.End); day = day.AddDate(0, 0, 1) {
		rule, err := ruleString(rrule.ROption{
			Freq:       rrule.MONTHLY,
			Bymonthday: []int{day.Day()},
			Until:      untilEndOfDay(e.RecurrenceEnd),
		})
		if err != nil {
			return nil, err
		}

		start := day.Add(e.StartTime)
		specs = append(specs, calendar.OccurrenceSpec{
			Start: start,
			End:   start.Add(e.DailyDuration),
			RRule: rule,
		})
	}
	return specs, nil
}

// weekdaySet collects the weekdays covered by iterating [Start, End],
// in Monday-first order. Saturday and Sunday are cleared when the entry
// excludes non-working days, even if the span covers them.
func weekdaySet(e planner.Entry) []rrule.Weekday {
	covered := make(map[time.Weekday]bool)
	for day := e.Start; !day.After(e.End); day = day.AddDate(0, 0, 1) {
		covered[day.Weekday()] = true
		if len(covered) == 7 {
			break
		}
	}
	if !e.IncludeNonWorkingDays {
		delete(covered, time.Saturday)
		delete(covered, time.Sunday)
	}

	var days []rrule.Weekday
	for _, wd := range weekdayOrder {
		if covered[wd.day] {
			days = append(days, wd.rrule)
		}
	}
	return days
}

var weekdayOrder = []struct {
	day   time.Weekday
	rrule rrule.Weekday
}{
	{time.Monday, rrule.MO},
	{time.Tuesday, rrule.TU},
	{time.Wednesday, rrule.WE},
	{time.Thursday, rrule.TH},
	{time.Friday, rrule.FR},
	{time.Saturday, rrule.SA},
	{time.Sunday, rrule.SU},
}

func skipDay(day time.Time, e planner.Entry) bool {
	if e.IncludeNonWorkingDays {
		return false
	}
	wd := day.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// ruleString validates the option set and renders the RRULE property value
// (without a DTSTART line; the event's own DTSTART anchors the series).
func ruleString(opt rrule.ROption) (string, error) {
	if _, err := rrule.NewRRule(opt); err != nil {
		return "", err
	}
	return opt.RRuleString(), nil
}

// untilEndOfDay makes the series end date inclusive.
func untilEndOfDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, time.UTC)
}
