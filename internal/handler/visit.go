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

type VisitHandler struct {
	visitStore *store.VisitStore
	petStore   *store.PetStore
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewVisitHandler(vs *store.VisitStore, ps *store.PetStore, hub *websocket.Hub, logger *slog.Logger) *VisitHandler {
	return &VisitHandler{visitStore: vs, petStore: ps, hub: hub, logger: logger}
}

func (h *VisitHandler) broadcast(userID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(userID, msg)
	}
}

type visitRequest struct {
	PetID     int64     `json:"pet_id"`
	VisitTime time.Time `json:"visit_time"`
	Reason    string    `json:"reason"`
	Clinic    string    `json:"clinic"`
	Notes     string    `json:"notes"`
}

func (h *VisitHandler) validate(w http.ResponseWriter, r *http.Request, req *visitRequest) bool {
	userID := auth.UserID(r.Context())

	if req.VisitTime.IsZero() {
		writeError(w, http.StatusBadRequest, "visit_time is required")
		return false
	}

	pet, err := h.petStore.GetByID(req.PetID)
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

func (h *VisitHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req visitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !h.validate(w, r, &req) {
		return
	}

	visit, err := h.visitStore.Create(userID, req.PetID, req.VisitTime, req.Reason, req.Clinic, req.Notes)
	if err != nil {
		h.logger.Error("create visit", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create visit")
		return
	}

	h.broadcast(userID, websocket.NewMessage("visit", "created", visit.ID, nil))

	writeJSON(w, http.StatusCreated, visit)
}

func (h *VisitHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	visits, err := h.visitStore.ListByUser(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list visits")
		return
	}
	if visits == nil {
		visits = []model.Visit{}
	}
	writeJSON(w, http.StatusOK, visits)
}

func (h *VisitHandler) Get(w http.ResponseWriter, r *http.Request) {
	visit, ok := h.ownedVisit(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, visit)
}

func (h *VisitHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	existing, ok := h.ownedVisit(w, r)
	if !ok {
		return
	}

	var req visitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !h.validate(w, r, &req) {
		return
	}

	visit, err := h.visitStore.Update(existing.ID, req.PetID, req.VisitTime, req.Reason, req.Clinic, req.Notes)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update visit")
		return
	}

	h.broadcast(userID, websocket.NewMessage("visit", "updated", visit.ID, nil))

	writeJSON(w, http.StatusOK, visit)
}

func (h *VisitHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	existing, ok := h.ownedVisit(w, r)
	if !ok {
		return
	}

	if err := h.visitStore.Delete(existing.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete visit")
		return
	}

	h.broadcast(userID, websocket.NewMessage("visit", "deleted", existing.ID, nil))

	w.WriteHeader(http.StatusNoContent)
}

func (h *VisitHandler) ownedVisit(w http.ResponseWriter, r *http.Request) (*model.Visit, bool) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}

	visit, err := h.visitStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get visit")
		return nil, false
	}
	if visit == nil || visit.UserID != userID {
		writeError(w, http.StatusNotFound, "visit not found")
		return nil, false
	}
	return visit, true
}
