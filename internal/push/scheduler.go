package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hollyoak/pawtrail/internal/model"
	"github.com/hollyoak/pawtrail/internal/recurrence"
	"github.com/hollyoak/pawtrail/internal/store"
	"github.com/hollyoak/pawtrail/internal/timeline"
)

// visitLeadTime is how far ahead of a vet visit the heads-up goes out.
const visitLeadTime = time.Hour

// Scheduler periodically checks for reminder occurrences and upcoming vet
// visits that need a notification.
type Scheduler struct {
	mu        sync.RWMutex
	service   *Service
	push      *store.PushStore
	users     *store.UserStore
	reminders *store.ReminderStore
	visits    *store.VisitStore
	interval  time.Duration
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewScheduler creates a notification scheduler.
func NewScheduler(svc *Service, pushStore *store.PushStore, userStore *store.UserStore, reminderStore *store.ReminderStore, visitStore *store.VisitStore) *Scheduler {
	return &Scheduler{
		service:   svc,
		push:      pushStore,
		users:     userStore,
		reminders: reminderStore,
		visits:    visitStore,
		interval:  60 * time.Second,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	userIDs, err := s.users.ListIDs()
	if err != nil {
		slog.Error("push scheduler list users", "error", err)
		return
	}

	now := time.Now().UTC()
	for _, uid := range userIDs {
		s.checkRemindersDue(ctx, uid, now)
	}
	s.checkVisitsSoon(ctx, now)
}

// checkRemindersDue expands each of the user's reminders over today and
// notifies for instances whose time falls inside the current tick window.
// Already-completed occurrences stay silent.
func (s *Scheduler) checkRemindersDue(ctx context.Context, userID int64, now time.Time) {
	windowEnd := now.Add(s.interval)

	reminders, err := s.reminders.ListByUser(userID)
	if err != nil {
		slog.Error("push scheduler list reminders", "error", err)
		return
	}

	var subs []model.PushSubscription
	subsLoaded := false

	for _, rem := range reminders {
		rule := recurrence.Rule{
			Anchor:    rem.Anchor,
			Frequency: recurrence.Frequency(rem.Frequency),
			EndDate:   rem.EndDate,
		}

		dates, err := recurrence.Expand(rule, now, now)
		if err != nil {
			// Malformed rule; the timeline skips it too
			continue
		}

		for _, date := range dates {
			for _, inst := range recurrence.Instances(rule, date) {
				if inst.Time.Before(now) || !inst.Time.Before(windowEnd) {
					continue
				}
				if rem.Completed && rule.Frequency == recurrence.Once {
					continue
				}
				if timeline.IsCompleted(rem, date, inst.Suffix) {
					continue
				}

				refID := recurrence.ItemID(rem.ID, date, inst.Suffix)
				sent, err := s.push.WasSent(userID, model.NotifTypeReminderDue, refID)
				if err != nil || sent {
					continue
				}

				if !subsLoaded {
					subs, err = s.push.ListByUser(userID)
					if err != nil {
						slog.Error("push scheduler list subs", "error", err)
						return
					}
					subsLoaded = true
				}

				payload := Payload{
					Title: "Reminder",
					Body:  fmt.Sprintf("%s is due now", rem.Title),
					URL:   "/timeline",
					Tag:   refID,
				}
				s.sendAll(ctx, subs, payload)
				// An unrecorded send re-fires on every tick until the row lands.
				if err := s.push.RecordSent(userID, model.NotifTypeReminderDue, refID); err != nil {
					slog.Error("push scheduler record sent", "error", err)
				}
			}
		}
	}
}

// checkVisitsSoon sends a heads-up for vet visits starting within the lead
// window. Visits are queried globally and fanned out to each owner.
func (s *Scheduler) checkVisitsSoon(ctx context.Context, now time.Time) {
	visits, err := s.visits.ListUpcoming(now, now.Add(visitLeadTime))
	if err != nil {
		slog.Error("push scheduler upcoming visits", "error", err)
		return
	}

	for _, visit := range visits {
		refID := fmt.Sprintf("visit-%d", visit.ID)
		sent, err := s.push.WasSent(visit.UserID, model.NotifTypeVisitSoon, refID)
		if err != nil || sent {
			continue
		}

		subs, err := s.push.ListByUser(visit.UserID)
		if err != nil {
			slog.Error("push scheduler list subs", "error", err)
			continue
		}

		body := fmt.Sprintf("Vet visit at %s", visit.VisitTime.Format("15:04"))
		if visit.Clinic != "" {
			body = fmt.Sprintf("Vet visit at %s (%s)", visit.VisitTime.Format("15:04"), visit.Clinic)
		}

		payload := Payload{
			Title: "Upcoming Vet Visit",
			Body:  body,
			URL:   "/timeline",
			Tag:   refID,
		}
		s.sendAll(ctx, subs, payload)
		if err := s.push.RecordSent(visit.UserID, model.NotifTypeVisitSoon, refID); err != nil {
			slog.Error("push scheduler record sent", "error", err)
		}
	}
}

func (s *Scheduler) sendAll(ctx context.Context, subs []model.PushSubscription, payload Payload) {
	for _, sub := range subs {
		if err := s.service.Send(ctx, &sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				s.push.DeleteByEndpoint(sub.Endpoint)
			} else {
				slog.Error("push scheduler send", "error", err)
			}
		}
	}
}
