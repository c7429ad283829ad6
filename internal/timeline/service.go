package timeline

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/hollyoak/pawtrail/internal/model"
	"github.com/hollyoak/pawtrail/internal/recurrence"
)

// ErrNotFound is returned by Toggle for an item id that does not resolve to
// a reminder owned by the user.
var ErrNotFound = errors.New("timeline: item not found")

// ReminderStore is the slice of the reminder store the timeline needs.
// Completion writes are per-key deltas executed atomically by the store, so
// two rapid toggles on different instances can never clobber each other.
type ReminderStore interface {
	ListByUser(userID int64) ([]model.Reminder, error)
	GetByID(id int64) (*model.Reminder, error)
	SetCompleted(id int64, completed bool) error
	AddCompletedKey(id int64, key string) error
	RemoveCompletedKey(id int64, key string) error
}

type VisitStore interface {
	ListByUser(userID int64) ([]model.Visit, error)
}

type PetStore interface {
	ListByUser(userID int64) ([]model.Pet, error)
}

// Service expands reminders and merges them with visits into the timeline
// feed. It keeps the most recently fetched reminders so Toggle can apply an
// optimistic in-memory mutation and revert it if persistence fails; a later
// WindowItems call fully supersedes that state (last-fetch-wins).
type Service struct {
	mu        sync.Mutex
	reminders ReminderStore
	visits    VisitStore
	pets      PetStore
	cache     map[int64]model.Reminder
	logger    *slog.Logger
}

func NewService(reminders ReminderStore, visits VisitStore, pets PetStore, logger *slog.Logger) *Service {
	return &Service{
		reminders: reminders,
		visits:    visits,
		pets:      pets,
		cache:     make(map[int64]model.Reminder),
		logger:    logger,
	}
}

// WindowItems returns the user's merged, time-ascending timeline for
// [from, to]. A reminder with a malformed rule is skipped and logged; it
// never aborts the rest of the batch. An inverted window yields an empty
// result and no error.
func (s *Service) WindowItems(userID int64, from, to time.Time) ([]Item, error) {
	if from.After(to) {
		return []Item{}, nil
	}

	rems, err := s.reminders.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	visits, err := s.visits.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	pets, err := s.pets.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("list pets: %w", err)
	}

	s.mu.Lock()
	for _, rem := range rems {
		s.cache[rem.ID] = rem
	}
	s.mu.Unlock()

	petNames := make(map[int64]string, len(pets))
	for _, p := range pets {
		petNames[p.ID] = p.Name
	}

	var items []Item
	var skipped error
	for _, rem := range rems {
		rule := ruleOf(rem)
		dates, err := recurrence.Expand(rule, from, to)
		if err != nil {
			skipped = multierr.Append(skipped, fmt.Errorf("reminder %d: %w", rem.ID, err))
			continue
		}
		for _, d := range dates {
			for _, inst := range recurrence.Instances(rule, d) {
				items = append(items, Item{
					ID:          recurrence.ItemID(rem.ID, d, inst.Suffix),
					Kind:        KindReminder,
					Title:       rem.Title,
					Subtitle:    petName(petNames, rem.PetID),
					PetID:       rem.PetID,
					Time:        inst.Time,
					Completable: true,
					Completed:   IsCompleted(rem, d, inst.Suffix),
				})
			}
		}
	}
	if skipped != nil {
		s.logger.Warn("skipped reminders with malformed rules", "error", skipped)
	}

	// Visits go after reminder items so the stable sort keeps
	// reminder-before-visit order on identical timestamps. The window is
	// date-granular like the reminder expansion: a visit any time on the
	// first or last day belongs, and a time-of-day on the bounds is ignored.
	start := startOfDay(from)
	end := startOfDay(to).AddDate(0, 0, 1)
	for _, v := range visits {
		if v.VisitTime.Before(start) || !v.VisitTime.Before(end) {
			continue
		}
		petID := v.PetID
		items = append(items, Item{
			ID:       fmt.Sprintf("visit_%d", v.ID),
			Kind:     KindVisit,
			Title:    v.Reason,
			Subtitle: petNames[v.PetID],
			PetID:    &petID,
			Time:     v.VisitTime,
		})
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Time.Before(items[j].Time) })
	return items, nil
}

// Toggle flips completion for one timeline item. The in-memory reminder is
// mutated first, then persisted; on persistence failure the mutation is
// reverted and the error returned, leaving state exactly as before the
// attempt. Returns the new completion state.
func (s *Service) Toggle(userID int64, itemID string) (bool, error) {
	ruleID, key, err := recurrence.SplitItemID(itemID)
	if err != nil {
		// Visit ids and garbage both land here; neither is toggleable.
		return false, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rem, ok := s.cache[ruleID]
	if !ok {
		fetched, err := s.reminders.GetByID(ruleID)
		if err != nil {
			return false, fmt.Errorf("get reminder: %w", err)
		}
		if fetched == nil {
			return false, ErrNotFound
		}
		rem = *fetched
		s.cache[ruleID] = rem
	}
	if rem.UserID != userID {
		return false, ErrNotFound
	}

	if rem.Frequency == string(recurrence.Once) {
		newState := !rem.Completed
		prev := rem.Completed
		rem.Completed = newState
		s.cache[ruleID] = rem
		if err := s.reminders.SetCompleted(ruleID, newState); err != nil {
			rem.Completed = prev
			s.cache[ruleID] = rem
			return prev, fmt.Errorf("persist completion: %w", err)
		}
		return newState, nil
	}

	prevKeys := rem.CompletedKeys
	newState := !slices.Contains(prevKeys, key)
	if newState {
		rem.CompletedKeys = append(slices.Clone(prevKeys), key)
	} else {
		rem.CompletedKeys = slices.DeleteFunc(slices.Clone(prevKeys), func(k string) bool { return k == key })
	}
	s.cache[ruleID] = rem

	persist := s.reminders.RemoveCompletedKey
	if newState {
		persist = s.reminders.AddCompletedKey
	}
	if err := persist(ruleID, key); err != nil {
		rem.CompletedKeys = prevKeys
		s.cache[ruleID] = rem
		return !newState, fmt.Errorf("persist completion: %w", err)
	}
	return newState, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func ruleOf(rem model.Reminder) recurrence.Rule {
	return recurrence.Rule{
		Anchor:    rem.Anchor,
		Frequency: recurrence.Frequency(rem.Frequency),
		EndDate:   rem.EndDate,
	}
}

func petName(names map[int64]string, petID *int64) string {
	if petID == nil {
		return ""
	}
	return names[*petID]
}
