package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hollyoak/pawtrail/internal/auth"
	"github.com/hollyoak/pawtrail/internal/model"
	"github.com/hollyoak/pawtrail/internal/recurrence"
	"github.com/hollyoak/pawtrail/internal/store"
	"github.com/hollyoak/pawtrail/internal/websocket"
)

type ReminderHandler struct {
	reminderStore *store.ReminderStore
	petStore      *store.PetStore
	hub           *websocket.Hub
	logger        *slog.Logger
}

func NewReminderHandler(rs *store.ReminderStore, ps *store.PetStore, hub *websocket.Hub, logger *slog.Logger) *ReminderHandler {
	return &ReminderHandler{reminderStore: rs, petStore: ps, hub: hub, logger: logger}
}

func (h *ReminderHandler) broadcast(userID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(userID, msg)
	}
}

type reminderRequest struct {
	PetID     *int64     `json:"pet_id"`
	Title     string     `json:"title"`
	Notes     string     `json:"notes"`
	Anchor    time.Time  `json:"anchor"`
	Frequency string     `json:"frequency"`
	EndDate   *time.Time `json:"end_date"`
}

// validate checks the request fields and normalizes them. Frequency is
// validated here so malformed rules never reach the database.
func (h *ReminderHandler) validate(w http.ResponseWriter, r *http.Request, req *reminderRequest) bool {
	userID := auth.UserID(r.Context())

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return false
	}
	if req.Anchor.IsZero() {
		writeError(w, http.StatusBadRequest, "anchor is required")
		return false
	}
	if _, err := recurrence.ParseFrequency(req.Frequency); err != nil {
		writeError(w, http.StatusBadRequest, "unknown frequency")
		return false
	}

	if req.PetID != nil {
		pet, err := h.petStore.GetByID(*req.PetID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to check pet")
			return false
		}
		if pet == nil || pet.UserID != userID {
			writeError(w, http.StatusBadRequest, "pet not found")
			return false
		}
	}
	return true
}

func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req reminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !h.validate(w, r, &req) {
		return
	}

	rem, err := h.reminderStore.Create(userID, req.PetID, req.Title, req.Notes, req.Anchor, req.Frequency, req.EndDate)
	if err != nil {
		h.logger.Error("create reminder", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create reminder")
		return
	}

	h.broadcast(userID, websocket.NewMessage("reminder", "created", rem.ID, nil))

	writeJSON(w, http.StatusCreated, rem)
}

func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	reminders, err := h.reminderStore.ListByUser(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list reminders")
		return
	}
	if reminders == nil {
		reminders = []model.Reminder{}
	}
	writeJSON(w, http.StatusOK, reminders)
}

func (h *ReminderHandler) Get(w http.ResponseWriter, r *http.Request) {
	rem, ok := h.ownedReminder(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rem)
}

func (h *ReminderHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	existing, ok := h.ownedReminder(w, r)
	if !ok {
		return
	}

	var req reminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !h.validate(w, r, &req) {
		return
	}

	rem, err := h.reminderStore.Update(existing.ID, req.PetID, req.Title, req.Notes, req.Anchor, req.Frequency, req.EndDate)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update reminder")
		return
	}

	h.broadcast(userID, websocket.NewMessage("reminder", "updated", rem.ID, nil))

	writeJSON(w, http.StatusOK, rem)
}

func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	existing, ok := h.ownedReminder(w, r)
	if !ok {
		return
	}

	if err := h.reminderStore.Delete(existing.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete reminder")
		return
	}

	h.broadcast(userID, websocket.NewMessage("reminder", "deleted", existing.ID, nil))

	w.WriteHeader(http.StatusNoContent)
}

func (h *ReminderHandler) ownedReminder(w http.ResponseWriter, r *http.Request) (*model.Reminder, bool) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}

	rem, err := h.reminderStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get reminder")
		return nil, false
	}
	if rem == nil || rem.UserID != userID {
		writeError(w, http.StatusNotFound, "reminder not found")
		return nil, false
	}
	return rem, true
}
