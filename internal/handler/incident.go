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

var incidentSeverities = map[string]bool{
	"low":    true,
	"medium": true,
	"high":   true,
}

type IncidentHandler struct {
	incidentStore *store.IncidentStore
	petStore      *store.PetStore
	hub           *websocket.Hub
	logger        *slog.Logger
}

func NewIncidentHandler(is *store.IncidentStore, ps *store.PetStore, hub *websocket.Hub, logger *slog.Logger) *IncidentHandler {
	return &IncidentHandler{incidentStore: is, petStore: ps, hub: hub, logger: logger}
}

type incidentRequest struct {
	PetID       int64     `json:"pet_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Severity    string    `json:"severity"`
	Description string    `json:"description"`
}

func (h *IncidentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req incidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}
	if !incidentSeverities[req.Severity] {
		writeError(w, http.StatusBadRequest, "severity must be low, medium, or high")
		return
	}
	if !petOwned(w, h.petStore, userID, req.PetID) {
		return
	}

	incident, err := h.incidentStore.Create(userID, req.PetID, req.OccurredAt, req.Severity, req.Description)
	if err != nil {
		h.logger.Error("create incident", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create incident")
		return
	}

	h.hub.Broadcast(userID, websocket.NewMessage("incident", "created", incident.ID, nil))

	writeJSON(w, http.StatusCreated, incident)
}

// ListByPet handles GET /api/pets/{id}/incidents
func (h *IncidentHandler) ListByPet(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	petID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if !petOwned(w, h.petStore, userID, petID) {
		return
	}

	incidents, err := h.incidentStore.ListByPet(petID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list incidents")
		return
	}
	if incidents == nil {
		incidents = []model.Incident{}
	}
	writeJSON(w, http.StatusOK, incidents)
}

func (h *IncidentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.incidentStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get incident")
		return
	}
	if existing == nil || existing.UserID != userID {
		writeError(w, http.StatusNotFound, "incident not found")
		return
	}

	var req incidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}
	if !incidentSeverities[req.Severity] {
		writeError(w, http.StatusBadRequest, "severity must be low, medium, or high")
		return
	}

	incident, err := h.incidentStore.Update(id, req.OccurredAt, req.Severity, req.Description)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update incident")
		return
	}

	h.hub.Broadcast(userID, websocket.NewMessage("incident", "updated", id, nil))

	writeJSON(w, http.StatusOK, incident)
}

func (h *IncidentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.incidentStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get incident")
		return
	}
	if existing == nil || existing.UserID != userID {
		writeError(w, http.StatusNotFound, "incident not found")
		return
	}

	if err := h.incidentStore.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete incident")
		return
	}

	h.hub.Broadcast(userID, websocket.NewMessage("incident", "deleted", id, nil))

	w.WriteHeader(http.StatusNoContent)
}
