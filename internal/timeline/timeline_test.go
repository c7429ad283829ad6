package timeline

import (
	"errors"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/hollyoak/pawtrail/internal/model"
)

type fakeReminderStore struct {
	reminders  []model.Reminder
	failWrites bool
	addedKeys  []string
	removed    []string
}

func (f *fakeReminderStore) ListByUser(userID int64) ([]model.Reminder, error) {
	var out []model.Reminder
	for _, r := range f.reminders {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReminderStore) GetByID(id int64) (*model.Reminder, error) {
	for _, r := range f.reminders {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeReminderStore) SetCompleted(id int64, completed bool) error {
	if f.failWrites {
		return errors.New("store unavailable")
	}
	for i := range f.reminders {
		if f.reminders[i].ID == id {
			f.reminders[i].Completed = completed
		}
	}
	return nil
}

func (f *fakeReminderStore) AddCompletedKey(id int64, key string) error {
	if f.failWrites {
		return errors.New("store unavailable")
	}
	f.addedKeys = append(f.addedKeys, key)
	return nil
}

func (f *fakeReminderStore) RemoveCompletedKey(id int64, key string) error {
	if f.failWrites {
		return errors.New("store unavailable")
	}
	f.removed = append(f.removed, key)
	return nil
}

type fakeVisitStore struct {
	visits []model.Visit
	err    error
}

func (f *fakeVisitStore) ListByUser(userID int64) ([]model.Visit, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.visits, nil
}

type fakePetStore struct{ pets []model.Pet }

func (f *fakePetStore) ListByUser(userID int64) ([]model.Pet, error) {
	return f.pets, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func newTestService(rems []model.Reminder, visits []model.Visit, pets []model.Pet) (*Service, *fakeReminderStore) {
	rs := &fakeReminderStore{reminders: rems}
	svc := NewService(rs, &fakeVisitStore{visits: visits}, &fakePetStore{pets: pets}, testLogger())
	return svc, rs
}

func TestWindowItemsMergeAndSort(t *testing.T) {
	rems := []model.Reminder{
		{ID: 1, UserID: 7, PetID: ptr(int64(3)), Title: "Heartworm pill", Anchor: at(2024, 4, 1, 9, 0), Frequency: "DAILY"},
	}
	visits := []model.Visit{
		{ID: 5, UserID: 7, PetID: 3, VisitTime: at(2024, 4, 1, 9, 0), Reason: "Checkup"},
		{ID: 6, UserID: 7, PetID: 3, VisitTime: at(2024, 4, 2, 15, 0), Reason: "Dental"},
	}
	pets := []model.Pet{{ID: 3, UserID: 7, Name: "Biscuit"}}

	svc, _ := newTestService(rems, visits, pets)
	items, err := svc.WindowItems(7, at(2024, 4, 1, 0, 0), at(2024, 4, 2, 23, 59))
	if err != nil {
		t.Fatalf("WindowItems error: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("got %d items, want 4", len(items))
	}

	// Same timestamp: reminder instance sorts before the visit.
	if items[0].Kind != KindReminder || items[1].Kind != KindVisit {
		t.Errorf("tie-break order = %s, %s; want reminder, visit", items[0].Kind, items[1].Kind)
	}
	for i := 1; i < len(items); i++ {
		if items[i].Time.Before(items[i-1].Time) {
			t.Errorf("items not ascending at %d", i)
		}
	}
	if items[0].Subtitle != "Biscuit" {
		t.Errorf("subtitle = %q, want pet name", items[0].Subtitle)
	}

	// Determinism: a second expansion is identical.
	again, err := svc.WindowItems(7, at(2024, 4, 1, 0, 0), at(2024, 4, 2, 23, 59))
	if err != nil {
		t.Fatalf("WindowItems error: %v", err)
	}
	if !slices.Equal(ids(items), ids(again)) {
		t.Errorf("expansion not deterministic: %v vs %v", ids(items), ids(again))
	}
}

func TestWindowItemsVisitBoundsAreDateGranular(t *testing.T) {
	visits := []model.Visit{
		{ID: 5, UserID: 7, PetID: 3, VisitTime: at(2024, 4, 1, 9, 0), Reason: "Checkup"},
		{ID: 6, UserID: 7, PetID: 3, VisitTime: at(2024, 4, 2, 23, 30), Reason: "Emergency"},
		{ID: 7, UserID: 7, PetID: 3, VisitTime: at(2024, 4, 3, 10, 0), Reason: "Follow-up"},
	}
	pets := []model.Pet{{ID: 3, UserID: 7, Name: "Biscuit"}}
	svc, _ := newTestService(nil, visits, pets)

	// Bounds carry a time-of-day; the whole first and last day still count,
	// and nothing past the last day leaks in.
	items, err := svc.WindowItems(7, at(2024, 4, 1, 12, 0), at(2024, 4, 2, 23, 59))
	if err != nil {
		t.Fatalf("WindowItems error: %v", err)
	}
	if got := ids(items); !slices.Equal(got, []string{"visit_5", "visit_6"}) {
		t.Errorf("items = %v, want [visit_5 visit_6]", got)
	}
}

func TestWindowItemsSkipsMalformedRule(t *testing.T) {
	rems := []model.Reminder{
		{ID: 1, UserID: 7, Title: "Bad", Anchor: at(2024, 4, 1, 9, 0), Frequency: "SOMETIMES"},
		{ID: 2, UserID: 7, Title: "Good", Anchor: at(2024, 4, 1, 9, 0), Frequency: "DAILY"},
	}
	svc, _ := newTestService(rems, nil, nil)

	items, err := svc.WindowItems(7, at(2024, 4, 1, 0, 0), at(2024, 4, 3, 0, 0))
	if err != nil {
		t.Fatalf("one bad rule must not abort the batch: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3 from the valid rule", len(items))
	}
	for _, item := range items {
		if item.Title != "Good" {
			t.Errorf("unexpected item %q from malformed rule", item.Title)
		}
	}
}

func TestWindowItemsInvertedWindow(t *testing.T) {
	svc, _ := newTestService([]model.Reminder{
		{ID: 1, UserID: 7, Title: "Pill", Anchor: at(2024, 4, 1, 9, 0), Frequency: "DAILY"},
	}, nil, nil)

	items, err := svc.WindowItems(7, at(2024, 4, 30, 0, 0), at(2024, 4, 1, 0, 0))
	if err != nil {
		t.Fatalf("inverted window should not error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("got %d items, want 0", len(items))
	}
}

func TestWindowItemsFetchFailure(t *testing.T) {
	rs := &fakeReminderStore{}
	svc := NewService(rs, &fakeVisitStore{err: errors.New("network down")}, &fakePetStore{}, testLogger())

	if _, err := svc.WindowItems(7, at(2024, 4, 1, 0, 0), at(2024, 4, 2, 0, 0)); err == nil {
		t.Fatal("fetch failure should surface an error")
	}
}

func TestToggleCompletionIsolation(t *testing.T) {
	rems := []model.Reminder{
		{ID: 9, UserID: 7, Title: "Insulin", Anchor: at(2024, 3, 1, 8, 0), Frequency: "EVERY_12_HOURS"},
	}
	svc, rs := newTestService(rems, nil, nil)

	// Prime the cache.
	if _, err := svc.WindowItems(7, at(2024, 4, 1, 0, 0), at(2024, 4, 2, 0, 0)); err != nil {
		t.Fatalf("WindowItems error: %v", err)
	}

	newState, err := svc.Toggle(7, "9_2024-04-01-20:00")
	if err != nil {
		t.Fatalf("Toggle error: %v", err)
	}
	if !newState {
		t.Error("first toggle should complete the instance")
	}
	if !slices.Equal(rs.addedKeys, []string{"2024-04-01-20:00"}) {
		t.Errorf("persisted keys = %v, want exactly [2024-04-01-20:00]", rs.addedKeys)
	}
	if len(rs.removed) != 0 {
		t.Errorf("no keys should be removed, got %v", rs.removed)
	}

	// A second toggle of the same instance removes exactly that key.
	newState, err = svc.Toggle(7, "9_2024-04-01-20:00")
	if err != nil {
		t.Fatalf("Toggle error: %v", err)
	}
	if newState {
		t.Error("second toggle should uncomplete the instance")
	}
	if !slices.Equal(rs.removed, []string{"2024-04-01-20:00"}) {
		t.Errorf("removed keys = %v, want exactly [2024-04-01-20:00]", rs.removed)
	}
}

func TestToggleOnlyMarksOneInstance(t *testing.T) {
	rem := model.Reminder{
		ID: 9, UserID: 7, Title: "Insulin",
		Anchor: at(2024, 3, 1, 8, 0), Frequency: "EVERY_12_HOURS",
		CompletedKeys: []string{"2024-04-01-20:00"},
	}
	svc, _ := newTestService([]model.Reminder{rem}, nil, nil)

	items, err := svc.WindowItems(7, at(2024, 4, 1, 0, 0), at(2024, 4, 2, 23, 59))
	if err != nil {
		t.Fatalf("WindowItems error: %v", err)
	}
	// Two days x two instances.
	if len(items) != 4 {
		t.Fatalf("got %d items, want 4", len(items))
	}
	for _, item := range items {
		want := item.ID == "9_2024-04-01-20:00"
		if item.Completed != want {
			t.Errorf("item %s completed = %v, want %v", item.ID, item.Completed, want)
		}
	}
}

func TestToggleOnceReminder(t *testing.T) {
	rems := []model.Reminder{
		{ID: 4, UserID: 7, Title: "Book grooming", Anchor: at(2024, 4, 5, 10, 0), Frequency: "ONCE"},
	}
	svc, rs := newTestService(rems, nil, nil)

	newState, err := svc.Toggle(7, "4_2024-04-05")
	if err != nil {
		t.Fatalf("Toggle error: %v", err)
	}
	if !newState {
		t.Error("toggle should complete the reminder")
	}
	if !rs.reminders[0].Completed {
		t.Error("scalar completed field should be persisted")
	}
	if len(rs.addedKeys) != 0 {
		t.Errorf("ONCE toggle must not touch completed keys, got %v", rs.addedKeys)
	}
}

func TestToggleRollbackOnFailure(t *testing.T) {
	rems := []model.Reminder{
		{ID: 9, UserID: 7, Title: "Insulin", Anchor: at(2024, 3, 1, 8, 0), Frequency: "EVERY_12_HOURS"},
	}
	svc, rs := newTestService(rems, nil, nil)
	rs.failWrites = true

	state, err := svc.Toggle(7, "9_2024-04-01-20:00")
	if err == nil {
		t.Fatal("failing persistence must surface an error")
	}
	if state {
		t.Error("returned state should equal the pre-toggle value")
	}

	// The in-memory value was reverted: a successful retry starts from the
	// original state again.
	rs.failWrites = false
	state, err = svc.Toggle(7, "9_2024-04-01-20:00")
	if err != nil {
		t.Fatalf("retry error: %v", err)
	}
	if !state {
		t.Error("retry after rollback should complete the instance, not uncomplete it")
	}
	if !slices.Equal(rs.addedKeys, []string{"2024-04-01-20:00"}) {
		t.Errorf("persisted keys = %v", rs.addedKeys)
	}
}

func TestToggleUnknownItem(t *testing.T) {
	svc, _ := newTestService(nil, nil, nil)

	if _, err := svc.Toggle(7, "99_2024-04-01"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Toggle(7, "not-an-id"); err == nil {
		t.Error("malformed item id should error")
	}
}

func TestToggleWrongUser(t *testing.T) {
	rems := []model.Reminder{
		{ID: 4, UserID: 7, Title: "Pill", Anchor: at(2024, 4, 5, 10, 0), Frequency: "ONCE"},
	}
	svc, _ := newTestService(rems, nil, nil)

	if _, err := svc.Toggle(8, "4_2024-04-05"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound for another user's reminder", err)
	}
}

func TestBuildCalendarIndexCap(t *testing.T) {
	day := at(2024, 4, 10, 0, 0)
	var items []Item
	for i := 0; i < 5; i++ {
		items = append(items, Item{ID: string(rune('a' + i)), Kind: KindReminder, Time: day.Add(time.Duration(i) * time.Hour)})
	}

	index := BuildCalendarIndex(items, day)
	marker := index["2024-04-10"]
	if len(marker.Dots) != maxDots {
		t.Errorf("got %d dots, want %d", len(marker.Dots), maxDots)
	}
	if !marker.Selected {
		t.Error("selected day should be marked")
	}

	// The cap is display-only: all five items survive in the day view.
	if got := DayItems(items, day); len(got) != 5 {
		t.Errorf("DayItems returned %d items, want 5", len(got))
	}
}

func TestBuildCalendarIndexEmptySelectedDay(t *testing.T) {
	index := BuildCalendarIndex(nil, at(2024, 4, 15, 0, 0))
	marker, ok := index["2024-04-15"]
	if !ok {
		t.Fatal("selected day must be present even with zero items")
	}
	if !marker.Selected || len(marker.Dots) != 0 {
		t.Errorf("marker = %+v, want selected with no dots", marker)
	}
}

func TestDayItemsPreservesOrder(t *testing.T) {
	day := at(2024, 4, 10, 0, 0)
	items := []Item{
		{ID: "a", Time: day.Add(4 * time.Hour)},
		{ID: "b", Time: day.Add(9 * time.Hour)},
		{ID: "c", Time: at(2024, 4, 11, 1, 0)},
	}

	got := DayItems(items, day)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("DayItems = %v", ids(got))
	}
}

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func ptr[T any](v T) *T { return &v }
