package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hollyoak/pawtrail/internal/auth"
	"github.com/hollyoak/pawtrail/internal/model"
	"github.com/hollyoak/pawtrail/internal/store"
	"github.com/hollyoak/pawtrail/internal/websocket"
)

type TrainingHandler struct {
	trainingStore *store.TrainingStore
	petStore      *store.PetStore
	hub           *websocket.Hub
	logger        *slog.Logger
}

func NewTrainingHandler(ts *store.TrainingStore, ps *store.PetStore, hub *websocket.Hub, logger *slog.Logger) *TrainingHandler {
	return &TrainingHandler{trainingStore: ts, petStore: ps, hub: hub, logger: logger}
}

type trainingRequest struct {
	PetID    int64     `json:"pet_id"`
	HeldAt   time.Time `json:"held_at"`
	Skill    string    `json:"skill"`
	Progress string    `json:"progress"`
}

func (h *TrainingHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req trainingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Skill = strings.TrimSpace(req.Skill)
	if req.Skill == "" {
		writeError(w, http.StatusBadRequest, "skill is required")
		return
	}
	if !petOwned(w, h.petStore, userID, req.PetID) {
		return
	}

	session, err := h.trainingStore.Create(userID, req.PetID, req.HeldAt, req.Skill, req.Progress)
	if err != nil {
		h.logger.Error("create training session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create training session")
		return
	}

	h.hub.Broadcast(userID, websocket.NewMessage("training_session", "created", session.ID, nil))

	writeJSON(w, http.StatusCreated, session)
}

// ListByPet handles GET /api/pets/{id}/training
func (h *TrainingHandler) ListByPet(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	petID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if !petOwned(w, h.petStore, userID, petID) {
		return
	}

	sessions, err := h.trainingStore.ListByPet(petID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list training sessions")
		return
	}
	if sessions == nil {
		sessions = []model.TrainingSession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *TrainingHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.trainingStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get training session")
		return
	}
	if existing == nil || existing.UserID != userID {
		writeError(w, http.StatusNotFound, "training session not found")
		return
	}

	var req trainingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Skill = strings.TrimSpace(req.Skill)
	if req.Skill == "" {
		writeError(w, http.StatusBadRequest, "skill is required")
		return
	}

	session, err := h.trainingStore.Update(id, req.HeldAt, req.Skill, req.Progress)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update training session")
		return
	}

	h.hub.Broadcast(userID, websocket.NewMessage("training_session", "updated", id, nil))

	writeJSON(w, http.StatusOK, session)
}

func (h *TrainingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.trainingStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get training session")
		return
	}
	if existing == nil || existing.UserID != userID {
		writeError(w, http.StatusNotFound, "training session not found")
		return
	}

	if err := h.trainingStore.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete training session")
		return
	}

	h.hub.Broadcast(userID, websocket.NewMessage("training_session", "deleted", id, nil))

	w.WriteHeader(http.StatusNoContent)
}
