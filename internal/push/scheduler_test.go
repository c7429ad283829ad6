package push

import (
	"bytes"
	"context"
	"database/sql"
	"log/slog"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/hollyoak/pawtrail/internal/database"
	"github.com/hollyoak/pawtrail/internal/model"
	"github.com/hollyoak/pawtrail/internal/store"
)

func setupSchedulerTest(t *testing.T) (*Scheduler, *sql.DB, int64, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	user, err := store.NewUserStore(db).Create("nils@example.com", "Nils", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	pet, err := store.NewPetStore(db).Create(user.ID, "Waffles", "dog", "beagle", nil, "", "")
	if err != nil {
		t.Fatalf("create pet: %v", err)
	}

	s := NewScheduler(
		NewService("", ""),
		store.NewPushStore(db),
		store.NewUserStore(db),
		store.NewReminderStore(db),
		store.NewVisitStore(db),
	)
	return s, db, user.ID, pet.ID
}

// captureLog points the default logger at a buffer for the duration of the
// test so scheduler error lines can be asserted on.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestSchedulerVisitHeadsUpRecordedOnce(t *testing.T) {
	s, db, userID, petID := setupSchedulerTest(t)
	logs := captureLog(t)

	now := time.Date(2024, 4, 5, 9, 0, 0, 0, time.UTC)
	visit, err := store.NewVisitStore(db).Create(userID, petID, now.Add(30*time.Minute), "Annual checkup", "Oakwood Vets", "")
	if err != nil {
		t.Fatalf("create visit: %v", err)
	}

	s.checkVisitsSoon(context.Background(), now)

	refID := "visit-" + strconv.FormatInt(visit.ID, 10)
	sent, err := s.push.WasSent(userID, model.NotifTypeVisitSoon, refID)
	if err != nil {
		t.Fatalf("was sent: %v", err)
	}
	if !sent {
		t.Fatal("visit heads-up should be recorded after the first pass")
	}

	// A second pass finds the record and stays silent.
	s.checkVisitsSoon(context.Background(), now)
	if strings.Contains(logs.String(), "level=ERROR") {
		t.Errorf("unexpected error logged: %s", logs.String())
	}
}

func TestSchedulerReminderDueRecorded(t *testing.T) {
	s, db, userID, _ := setupSchedulerTest(t)
	captureLog(t)

	anchor := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)
	rem, err := store.NewReminderStore(db).Create(userID, nil, "Heartworm pill", "", anchor, "DAILY", nil)
	if err != nil {
		t.Fatalf("create reminder: %v", err)
	}

	now := time.Date(2024, 4, 5, 8, 0, 0, 0, time.UTC)
	s.checkRemindersDue(context.Background(), userID, now)

	refID := strconv.FormatInt(rem.ID, 10) + "_2024-04-05"
	sent, err := s.push.WasSent(userID, model.NotifTypeReminderDue, refID)
	if err != nil {
		t.Fatalf("was sent: %v", err)
	}
	if !sent {
		t.Error("due reminder instance should be recorded as sent")
	}
}

func TestSchedulerLogsRecordSentFailure(t *testing.T) {
	s, db, userID, petID := setupSchedulerTest(t)
	logs := captureLog(t)

	now := time.Date(2024, 4, 5, 9, 0, 0, 0, time.UTC)
	if _, err := store.NewVisitStore(db).Create(userID, petID, now.Add(30*time.Minute), "Dental cleaning", "", ""); err != nil {
		t.Fatalf("create visit: %v", err)
	}

	// Make the sent log unwritable so recording the notification fails.
	if _, err := db.Exec(`CREATE TRIGGER sent_log_down BEFORE INSERT ON push_sent
		BEGIN SELECT RAISE(ABORT, 'sent log unavailable'); END`); err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	s.checkVisitsSoon(context.Background(), now)

	if !strings.Contains(logs.String(), "record sent") {
		t.Errorf("record failure should be logged, got: %s", logs.String())
	}
}
