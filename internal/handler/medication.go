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

type MedicationHandler struct {
	medicationStore *store.MedicationStore
	petStore        *store.PetStore
	hub             *websocket.Hub
	logger          *slog.Logger
}

func NewMedicationHandler(ms *store.MedicationStore, ps *store.PetStore, hub *websocket.Hub, logger *slog.Logger) *MedicationHandler {
	return &MedicationHandler{medicationStore: ms, petStore: ps, hub: hub, logger: logger}
}

type medicationRequest struct {
	PetID     int64      `json:"pet_id"`
	Name      string     `json:"name"`
	Dosage    string     `json:"dosage"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Notes     string     `json:"notes"`
}

func (h *MedicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req medicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !petOwned(w, h.petStore, userID, req.PetID) {
		return
	}

	med, err := h.medicationStore.Create(userID, req.PetID, req.Name, req.Dosage, req.StartDate, req.EndDate, req.Notes)
	if err != nil {
		h.logger.Error("create medication", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create medication")
		return
	}

	h.hub.Broadcast(userID, websocket.NewMessage("medication", "created", med.ID, nil))

	writeJSON(w, http.StatusCreated, med)
}

// ListByPet handles GET /api/pets/{id}/medications
func (h *MedicationHandler) ListByPet(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	petID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if !petOwned(w, h.petStore, userID, petID) {
		return
	}

	meds, err := h.medicationStore.ListByPet(petID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list medications")
		return
	}
	if meds == nil {
		meds = []model.Medication{}
	}
	writeJSON(w, http.StatusOK, meds)
}

func (h *MedicationHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.medicationStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get medication")
		return
	}
	if existing == nil || existing.UserID != userID {
		writeError(w, http.StatusNotFound, "medication not found")
		return
	}

	var req medicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	med, err := h.medicationStore.Update(id, req.Name, req.Dosage, req.StartDate, req.EndDate, req.Notes)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update medication")
		return
	}

	h.hub.Broadcast(userID, websocket.NewMessage("medication", "updated", id, nil))

	writeJSON(w, http.StatusOK, med)
}

func (h *MedicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.medicationStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get medication")
		return
	}
	if existing == nil || existing.UserID != userID {
		writeError(w, http.StatusNotFound, "medication not found")
		return
	}

	if err := h.medicationStore.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete medication")
		return
	}

	h.hub.Broadcast(userID, websocket.NewMessage("medication", "deleted", id, nil))

	w.WriteHeader(http.StatusNoContent)
}
