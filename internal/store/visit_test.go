package store

import (
	"testing"
	"time"

	"github.com/hollyoak/pawtrail/internal/database"
)

func setupVisitTestDB(t *testing.T) (*VisitStore, *UserStore, *PetStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewVisitStore(db), NewUserStore(db), NewPetStore(db)
}

func TestVisitCRUD(t *testing.T) {
	vs, us, ps := setupVisitTestDB(t)

	user, _ := us.Create("ida@example.com", "Ida", "hash")
	pet, _ := ps.Create(user.ID, "Rusty", "dog", "", nil, "", "")

	visitTime := time.Date(2024, 5, 20, 10, 30, 0, 0, time.UTC)

	// Create
	visit, err := vs.Create(user.ID, pet.ID, visitTime, "dental cleaning", "Maple Vet Clinic", "fasting required")
	if err != nil {
		t.Fatalf("create visit: %v", err)
	}
	if visit.Reason != "dental cleaning" {
		t.Errorf("reason = %q, want %q", visit.Reason, "dental cleaning")
	}
	if !visit.VisitTime.Equal(visitTime) {
		t.Errorf("visit_time = %v, want %v", visit.VisitTime, visitTime)
	}

	// Update
	newTime := visitTime.Add(2 * time.Hour)
	updated, err := vs.Update(visit.ID, pet.ID, newTime, "dental cleaning", "Maple Vet Clinic", "")
	if err != nil {
		t.Fatalf("update visit: %v", err)
	}
	if !updated.VisitTime.Equal(newTime) {
		t.Errorf("updated visit_time = %v, want %v", updated.VisitTime, newTime)
	}

	// Delete
	if err := vs.Delete(visit.ID); err != nil {
		t.Fatalf("delete visit: %v", err)
	}
	got, err := vs.GetByID(visit.ID)
	if err != nil {
		t.Fatalf("get deleted visit: %v", err)
	}
	if got != nil {
		t.Error("expected nil for deleted visit")
	}
}

func TestVisitListOrderedByTime(t *testing.T) {
	vs, us, ps := setupVisitTestDB(t)

	user, _ := us.Create("jan@example.com", "Jan", "hash")
	pet, _ := ps.Create(user.ID, "Scout", "dog", "", nil, "", "")

	later := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
	earlier := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	vs.Create(user.ID, pet.ID, later, "follow-up", "", "")
	vs.Create(user.ID, pet.ID, earlier, "checkup", "", "")

	visits, err := vs.ListByUser(user.ID)
	if err != nil {
		t.Fatalf("list visits: %v", err)
	}
	if len(visits) != 2 {
		t.Fatalf("expected 2 visits, got %d", len(visits))
	}
	if visits[0].Reason != "checkup" {
		t.Errorf("first visit = %q, want %q", visits[0].Reason, "checkup")
	}
}

func TestVisitListUpcoming(t *testing.T) {
	vs, us, ps := setupVisitTestDB(t)

	user, _ := us.Create("kay@example.com", "Kay", "hash")
	pet, _ := ps.Create(user.ID, "Juno", "cat", "", nil, "", "")

	inside := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	before := time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC)
	atEnd := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	vs.Create(user.ID, pet.ID, inside, "in window", "", "")
	vs.Create(user.ID, pet.ID, before, "before window", "", "")
	vs.Create(user.ID, pet.ID, atEnd, "at end", "", "")

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	visits, err := vs.ListUpcoming(start, end)
	if err != nil {
		t.Fatalf("list upcoming: %v", err)
	}
	if len(visits) != 1 {
		t.Fatalf("expected 1 visit in window, got %d", len(visits))
	}
	if visits[0].Reason != "in window" {
		t.Errorf("reason = %q, want %q", visits[0].Reason, "in window")
	}
}
