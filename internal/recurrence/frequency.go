package recurrence

import (
	"fmt"
	"time"
)

// Frequency is how often a reminder repeats. The set is fixed; this is not
// a general rule grammar.
type Frequency string

const (
	Once           Frequency = "ONCE"
	Every8Hours    Frequency = "EVERY_8_HOURS"
	Every12Hours   Frequency = "EVERY_12_HOURS"
	Daily          Frequency = "DAILY"
	EveryTwoDays   Frequency = "EVERY_TWO_DAYS"
	EveryThreeDays Frequency = "EVERY_THREE_DAYS"
	Weekly         Frequency = "WEEKLY"
	Monthly        Frequency = "MONTHLY"
)

var stepDays = map[Frequency]int{
	// Sub-daily rules still occupy one calendar day each; the time-of-day
	// fan-out happens in Instances.
	Every8Hours:    1,
	Every12Hours:   1,
	Daily:          1,
	EveryTwoDays:   2,
	EveryThreeDays: 3,
	Weekly:         7,
}

// ParseFrequency validates a stored frequency string.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(s)
	if f == Once || f == Monthly {
		return f, nil
	}
	if _, ok := stepDays[f]; ok {
		return f, nil
	}
	return "", fmt.Errorf("unknown frequency: %q", s)
}

// SubDaily reports whether the frequency produces more than one instance
// per occurrence date.
func (f Frequency) SubDaily() bool {
	return f == Every8Hours || f == Every12Hours
}

// Step describes how Expand advances from one occurrence date to the next.
// Monthly rules advance to the same day-of-month in the following month
// rather than by a fixed day count; approximating a month as 30 days drifts
// across months of different lengths.
type Step struct {
	Days          int
	CalendarMonth bool
}

// Step returns the advance operation for the frequency. ONCE has no step;
// the expander short-circuits before asking for one.
func (f Frequency) Step() (Step, error) {
	if f == Monthly {
		return Step{CalendarMonth: true}, nil
	}
	if d, ok := stepDays[f]; ok {
		return Step{Days: d}, nil
	}
	return Step{}, fmt.Errorf("no step interval for frequency %q", f)
}

// Describe returns a human-readable description of the frequency.
func (f Frequency) Describe() string {
	switch f {
	case Once:
		return "One time"
	case Every8Hours:
		return "Every 8 hours"
	case Every12Hours:
		return "Every 12 hours"
	case Daily:
		return "Every day"
	case EveryTwoDays:
		return "Every 2 days"
	case EveryThreeDays:
		return "Every 3 days"
	case Weekly:
		return "Every week"
	case Monthly:
		return "Every month"
	}
	return ""
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
