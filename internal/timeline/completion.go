package timeline

import (
	"slices"
	"time"

	"github.com/hollyoak/pawtrail/internal/model"
	"github.com/hollyoak/pawtrail/internal/recurrence"
)

// IsCompleted resolves completion state for one instance of a reminder.
// ONCE reminders carry a single boolean; recurring reminders track each
// instance by occurrence key. The field not selected by the frequency is
// never consulted.
func IsCompleted(rem model.Reminder, date time.Time, suffix string) bool {
	if rem.Frequency == string(recurrence.Once) {
		return rem.Completed
	}
	return slices.Contains(rem.CompletedKeys, recurrence.Key(date, suffix))
}
