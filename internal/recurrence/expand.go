package recurrence

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Rule is the recurrence configuration of one reminder. Anchor is the first
// scheduled occurrence; its time-of-day is the canonical time for every
// generated instance. EndDate, when set, is the last calendar date
// (inclusive) on which occurrences may fall.
type Rule struct {
	Anchor    time.Time
	Frequency Frequency
	EndDate   *time.Time
}

// Instance is one concrete time-of-day within an occurrence date. Sub-daily
// frequencies produce several per date, each tagged with a "-HH:MM" suffix;
// all other frequencies produce a single instance with an empty suffix.
type Instance struct {
	Time   time.Time
	Suffix string
}

// Expand returns the ordered occurrence dates (midnight, anchor's location)
// of the rule within [windowStart, windowEnd]. The result is strictly
// ascending with no duplicates, and identical inputs always produce an
// identical result.
//
// An inverted window is a caller error, not a fault: the result is empty and
// the error nil. A malformed rule returns an error so the caller can skip
// that one rule without aborting the rest of the batch.
func Expand(r Rule, windowStart, windowEnd time.Time) ([]time.Time, error) {
	if r.Anchor.IsZero() {
		return nil, errors.New("rule has no anchor")
	}
	if _, err := ParseFrequency(string(r.Frequency)); err != nil {
		return nil, err
	}
	if windowStart.After(windowEnd) {
		return nil, nil
	}

	anchor := startOfDay(r.Anchor)
	start := startOfDay(windowStart)
	end := startOfDay(windowEnd)
	if r.EndDate != nil {
		// Inclusive through 23:59:59, which at date granularity is a
		// plain <= on the day.
		if ed := startOfDay(*r.EndDate); ed.Before(end) {
			end = ed
		}
	}
	if anchor.After(end) {
		return nil, nil
	}

	if r.Frequency == Once {
		if anchor.Before(start) {
			return nil, nil
		}
		return []time.Time{anchor}, nil
	}

	step, err := r.Frequency.Step()
	if err != nil {
		return nil, err
	}

	var dates []time.Time
	for d := seekFirst(anchor, start, step); !d.After(end); d = advance(d, step, anchor.Day()) {
		dates = append(dates, d)
	}
	return dates, nil
}

// seekFirst fast-forwards the anchor to the first occurrence on or after
// windowStart. Day-interval rules jump by whole steps in one AddDate call
// and then nudge forward; month rules step one exact calendar month at a
// time. The two phases never mix approximate and exact arithmetic.
func seekFirst(anchor, windowStart time.Time, step Step) time.Time {
	if !anchor.Before(windowStart) {
		return anchor
	}

	if step.CalendarMonth {
		d := anchor
		for d.Before(windowStart) {
			d = nextMonth(d, anchor.Day())
		}
		return d
	}

	// Coarse jump: floor of the elapsed-day estimate can only undershoot,
	// so the nudge loop below always lands on the exact first occurrence.
	gap := int(windowStart.Sub(anchor).Hours() / 24)
	d := anchor.AddDate(0, 0, (gap/step.Days)*step.Days)
	for d.Before(windowStart) {
		d = d.AddDate(0, 0, step.Days)
	}
	return d
}

func advance(d time.Time, step Step, anchorDay int) time.Time {
	if step.CalendarMonth {
		return nextMonth(d, anchorDay)
	}
	return d.AddDate(0, 0, step.Days)
}

// nextMonth returns the anchor's day-of-month in the month after d, clamped
// to the month's length (Jan 31 -> Feb 28 -> Mar 31).
func nextMonth(d time.Time, anchorDay int) time.Time {
	year, month, _ := d.Date()
	if month == time.December {
		year, month = year+1, time.January
	} else {
		month++
	}
	day := anchorDay
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, d.Location())
}

// Instances fans one occurrence date out into its time-of-day instances,
// ascending. EVERY_8_HOURS yields three, EVERY_12_HOURS two, everything
// else a single instance at the anchor's time-of-day.
//
// Sub-daily hours are (anchorHour + period*i) mod 24, so an instance can
// wrap to an hour numerically below the anchor's (anchor 20:00 produces
// 20:00, 04:00, 12:00) and the set is sorted afterwards. Suffixes use the
// computed hour, not the anchor's.
func Instances(r Rule, date time.Time) []Instance {
	hour, min := r.Anchor.Hour(), r.Anchor.Minute()

	var count, period int
	switch r.Frequency {
	case Every8Hours:
		count, period = 3, 8
	case Every12Hours:
		count, period = 2, 12
	default:
		return []Instance{{Time: atTime(date, hour, min)}}
	}

	out := make([]Instance, 0, count)
	for i := 0; i < count; i++ {
		h := (hour + period*i) % 24
		out = append(out, Instance{
			Time:   atTime(date, h, min),
			Suffix: fmt.Sprintf("-%02d:%02d", h, min),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

func atTime(date time.Time, hour, min int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, min, 0, 0, date.Location())
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
