package timeline

import (
	"time"

	"github.com/hollyoak/pawtrail/internal/recurrence"
)

// Marker dot colors by item kind.
const (
	dotReminder = "#f59e0b"
	dotVisit    = "#3b82f6"
)

// maxDots caps the marker dots rendered per day. Items past the cap stay in
// the timeline and day views; only their dot is dropped.
const maxDots = 3

type DayMarker struct {
	Dots     []string `json:"dots"`
	Selected bool     `json:"selected"`
}

// BuildCalendarIndex folds items into a dateKey -> marker map for the
// month-grid view. The selected day is always present so the UI can render
// a selected state on an empty day.
func BuildCalendarIndex(items []Item, selected time.Time) map[string]DayMarker {
	index := make(map[string]DayMarker)

	for _, item := range items {
		key := recurrence.DateKey(item.Time)
		marker := index[key]
		if len(marker.Dots) < maxDots {
			marker.Dots = append(marker.Dots, dotColor(item.Kind))
		}
		index[key] = marker
	}

	selectedKey := recurrence.DateKey(selected)
	marker := index[selectedKey]
	marker.Selected = true
	index[selectedKey] = marker

	return index
}

// DayItems returns the items falling on the selected date, preserving the
// timeline's ascending order.
func DayItems(items []Item, selected time.Time) []Item {
	key := recurrence.DateKey(selected)
	var out []Item
	for _, item := range items {
		if recurrence.DateKey(item.Time) == key {
			out = append(out, item)
		}
	}
	return out
}

func dotColor(kind Kind) string {
	if kind == KindVisit {
		return dotVisit
	}
	return dotReminder
}
