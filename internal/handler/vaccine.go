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

type VaccineHandler struct {
	vaccineStore *store.VaccineStore
	petStore     *store.PetStore
	hub          *websocket.Hub
	logger       *slog.Logger
}

func NewVaccineHandler(vs *store.VaccineStore, ps *store.PetStore, hub *websocket.Hub, logger *slog.Logger) *VaccineHandler {
	return &VaccineHandler{vaccineStore: vs, petStore: ps, hub: hub, logger: logger}
}

type vaccineRequest struct {
	PetID        int64      `json:"pet_id"`
	Name         string     `json:"name"`
	Administered time.Time  `json:"administered"`
	NextDue      *time.Time `json:"next_due"`
	Notes        string     `json:"notes"`
}

func (h *VaccineHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req vaccineRequest
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

	vaccine, err := h.vaccineStore.Create(userID, req.PetID, req.Name, req.Administered, req.NextDue, req.Notes)
	if err != nil {
		h.logger.Error("create vaccine", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create vaccine record")
		return
	}

	h.hub.Broadcast(userID, websocket.NewMessage("vaccine", "created", vaccine.ID, nil))

	writeJSON(w, http.StatusCreated, vaccine)
}

// ListByPet handles GET /api/pets/{id}/vaccines
func (h *VaccineHandler) ListByPet(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	petID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if !petOwned(w, h.petStore, userID, petID) {
		return
	}

	vaccines, err := h.vaccineStore.ListByPet(petID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list vaccine records")
		return
	}
	if vaccines == nil {
		vaccines = []model.Vaccine{}
	}
	writeJSON(w, http.StatusOK, vaccines)
}

func (h *VaccineHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.vaccineStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get vaccine record")
		return
	}
	if existing == nil || existing.UserID != userID {
		writeError(w, http.StatusNotFound, "vaccine record not found")
		return
	}

	var req vaccineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	vaccine, err := h.vaccineStore.Update(id, req.Name, req.Administered, req.NextDue, req.Notes)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update vaccine record")
		return
	}

	h.hub.Broadcast(userID, websocket.NewMessage("vaccine", "updated", id, nil))

	writeJSON(w, http.StatusOK, vaccine)
}

func (h *VaccineHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.vaccineStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get vaccine record")
		return
	}
	if existing == nil || existing.UserID != userID {
		writeError(w, http.StatusNotFound, "vaccine record not found")
		return
	}

	if err := h.vaccineStore.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete vaccine record")
		return
	}

	h.hub.Broadcast(userID, websocket.NewMessage("vaccine", "deleted", id, nil))

	w.WriteHeader(http.StatusNoContent)
}

// petOwned verifies the pet exists and belongs to the user, writing the
// error response itself when it does not.
func petOwned(w http.ResponseWriter, ps *store.PetStore, userID, petID int64) bool {
	pet, err := ps.GetByID(petID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check pet")
		return false
	}
	if pet == nil || pet.UserID != userID {
		writeError(w, http.StatusBadRequest, "pet not found")
		return false
	}
	return true
}
