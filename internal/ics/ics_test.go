package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/hollyoak/pawtrail/internal/timeline"
)

func TestCalendarSerializesItems(t *testing.T) {
	items := []timeline.Item{
		{
			ID:          "12_2024-04-01-08:00",
			Kind:        timeline.KindReminder,
			Title:       "Eye drops",
			Subtitle:    "Biscuit",
			Time:        time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC),
			Completable: true,
			Completed:   true,
		},
		{
			ID:    "visit_7",
			Kind:  timeline.KindVisit,
			Title: "Dental cleaning",
			Time:  time.Date(2024, 4, 2, 10, 30, 0, 0, time.UTC),
		},
	}

	out := Calendar(items)

	if !strings.Contains(out, "BEGIN:VCALENDAR") || !strings.Contains(out, "END:VCALENDAR") {
		t.Fatal("missing calendar envelope")
	}
	if got := strings.Count(out, "BEGIN:VEVENT"); got != 2 {
		t.Fatalf("expected 2 events, got %d", got)
	}
	if !strings.Contains(out, "SUMMARY:Eye drops") {
		t.Error("missing reminder summary")
	}
	if !strings.Contains(out, "SUMMARY:Dental cleaning") {
		t.Error("missing visit summary")
	}
	if !strings.Contains(out, "UID:12_2024-04-01-08:00@pawtrail") {
		t.Error("missing occurrence uid")
	}
	if !strings.Contains(out, "DTSTART:20240401T080000Z") {
		t.Error("missing reminder start time")
	}
	if !strings.Contains(out, "STATUS:COMPLETED") {
		t.Error("completed occurrence should carry status")
	}
}

func TestCalendarEmpty(t *testing.T) {
	out := Calendar(nil)
	if !strings.Contains(out, "BEGIN:VCALENDAR") {
		t.Fatal("missing calendar envelope")
	}
	if strings.Contains(out, "BEGIN:VEVENT") {
		t.Error("empty input should produce no events")
	}
}
