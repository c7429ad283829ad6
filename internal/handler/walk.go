package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hollyoak/pawtrail/internal/auth"
	"github.com/hollyoak/pawtrail/internal/model"
	"github.com/hollyoak/pawtrail/internal/store"
	"github.com/hollyoak/pawtrail/internal/websocket"
)

type WalkHandler struct {
	walkStore *store.WalkStore
	petStore  *store.PetStore
	hub       *websocket.Hub
	logger    *slog.Logger
}

func NewWalkHandler(ws *store.WalkStore, ps *store.PetStore, hub *websocket.Hub, logger *slog.Logger) *WalkHandler {
	return &WalkHandler{walkStore: ws, petStore: ps, hub: hub, logger: logger}
}

type walkRequest struct {
	PetID           int64     `json:"pet_id"`
	WalkedAt        time.Time `json:"walked_at"`
	DurationMinutes int       `json:"duration_minutes"`
	DistanceMeters  int       `json:"distance_meters"`
	Notes           string    `json:"notes"`
}

func (h *WalkHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req walkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.WalkedAt.IsZero() {
		writeError(w, http.StatusBadRequest, "walked_at is required")
		return
	}
	if req.DurationMinutes < 0 || req.DistanceMeters < 0 {
		writeError(w, http.StatusBadRequest, "duration and distance must not be negative")
		return
	}
	if !petOwned(w, h.petStore, userID, req.PetID) {
		return
	}

	walk, err := h.walkStore.Create(userID, req.PetID, req.WalkedAt, req.DurationMinutes, req.DistanceMeters, req.Notes)
	if err != nil {
		h.logger.Error("create walk", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create walk")
		return
	}

	h.hub.Broadcast(userID, websocket.NewMessage("walk", "created", walk.ID, nil))

	writeJSON(w, http.StatusCreated, walk)
}

// ListByPet handles GET /api/pets/{id}/walks
func (h *WalkHandler) ListByPet(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	petID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if !petOwned(w, h.petStore, userID, petID) {
		return
	}

	walks, err := h.walkStore.ListByPet(petID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list walks")
		return
	}
	if walks == nil {
		walks = []model.Walk{}
	}
	writeJSON(w, http.StatusOK, walks)
}

func (h *WalkHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.walkStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get walk")
		return
	}
	if existing == nil || existing.UserID != userID {
		writeError(w, http.StatusNotFound, "walk not found")
		return
	}

	var req walkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	walk, err := h.walkStore.Update(id, req.WalkedAt, req.DurationMinutes, req.DistanceMeters, req.Notes)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update walk")
		return
	}

	h.hub.Broadcast(userID, websocket.NewMessage("walk", "updated", id, nil))

	writeJSON(w, http.StatusOK, walk)
}

func (h *WalkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.walkStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get walk")
		return
	}
	if existing == nil || existing.UserID != userID {
		writeError(w, http.StatusNotFound, "walk not found")
		return
	}

	if err := h.walkStore.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete walk")
		return
	}

	h.hub.Broadcast(userID, websocket.NewMessage("walk", "deleted", id, nil))

	w.WriteHeader(http.StatusNoContent)
}
