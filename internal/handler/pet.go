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

type PetHandler struct {
	petStore *store.PetStore
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewPetHandler(ps *store.PetStore, hub *websocket.Hub, logger *slog.Logger) *PetHandler {
	return &PetHandler{petStore: ps, hub: hub, logger: logger}
}

func (h *PetHandler) broadcast(userID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(userID, msg)
	}
}

type petRequest struct {
	Name      string     `json:"name"`
	Species   string     `json:"species"`
	Breed     string     `json:"breed"`
	BirthDate *time.Time `json:"birth_date"`
	PhotoURL  string     `json:"photo_url"`
	Notes     string     `json:"notes"`
}

func (h *PetHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req petRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	pet, err := h.petStore.Create(userID, req.Name, req.Species, req.Breed, req.BirthDate, req.PhotoURL, req.Notes)
	if err != nil {
		h.logger.Error("create pet", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create pet")
		return
	}

	h.broadcast(userID, websocket.NewMessage("pet", "created", pet.ID, nil))

	writeJSON(w, http.StatusCreated, pet)
}

func (h *PetHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	pets, err := h.petStore.ListByUser(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list pets")
		return
	}
	if pets == nil {
		pets = []model.Pet{}
	}
	writeJSON(w, http.StatusOK, pets)
}

func (h *PetHandler) Get(w http.ResponseWriter, r *http.Request) {
	pet, ok := h.ownedPet(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, pet)
}

func (h *PetHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	existing, ok := h.ownedPet(w, r)
	if !ok {
		return
	}

	var req petRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	pet, err := h.petStore.Update(existing.ID, req.Name, req.Species, req.Breed, req.BirthDate, req.PhotoURL, req.Notes)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update pet")
		return
	}

	h.broadcast(userID, websocket.NewMessage("pet", "updated", pet.ID, nil))

	writeJSON(w, http.StatusOK, pet)
}

func (h *PetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	existing, ok := h.ownedPet(w, r)
	if !ok {
		return
	}

	if err := h.petStore.Delete(existing.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete pet")
		return
	}

	h.broadcast(userID, websocket.NewMessage("pet", "deleted", existing.ID, nil))

	w.WriteHeader(http.StatusNoContent)
}

// ownedPet resolves the {id} path parameter to a pet owned by the
// authenticated user, writing the error response itself when that fails.
func (h *PetHandler) ownedPet(w http.ResponseWriter, r *http.Request) (*model.Pet, bool) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}

	pet, err := h.petStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get pet")
		return nil, false
	}
	if pet == nil || pet.UserID != userID {
		writeError(w, http.StatusNotFound, "pet not found")
		return nil, false
	}
	return pet, true
}
