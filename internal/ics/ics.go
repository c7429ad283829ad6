// Package ics renders timeline items as an iCalendar feed so reminders and
// vet visits can be pulled into external calendar apps.
package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/hollyoak/pawtrail/internal/timeline"
)

const prodID = "-//PawTrail//Care Calendar//EN"

// defaultDuration is used for every event; source items carry only a start
// time.
const defaultDuration = 30 * time.Minute

// Calendar serializes the items into an iCalendar document.
func Calendar(items []timeline.Item) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(prodID)
	cal.SetName("PawTrail")

	for _, item := range items {
		ev := cal.AddEvent(fmt.Sprintf("%s@pawtrail", item.ID))
		ev.SetSummary(item.Title)
		if item.Subtitle != "" {
			ev.SetDescription(item.Subtitle)
		}
		ev.SetStartAt(item.Time.UTC())
		ev.SetEndAt(item.Time.UTC().Add(defaultDuration))
		ev.SetDtStampTime(item.Time.UTC())
		if item.Completable && item.Completed {
			ev.SetStatus(ical.ObjectStatusCompleted)
		}
	}

	return cal.Serialize()
}
