package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hollyoak/pawtrail/internal/auth"
	"github.com/hollyoak/pawtrail/internal/timeline"
	"github.com/hollyoak/pawtrail/internal/websocket"
)

type TimelineHandler struct {
	service *timeline.Service
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewTimelineHandler(svc *timeline.Service, hub *websocket.Hub, logger *slog.Logger) *TimelineHandler {
	return &TimelineHandler{service: svc, hub: hub, logger: logger}
}

// Window handles GET /api/timeline?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *TimelineHandler) Window(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	from, err := parseDateParam(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
		return
	}
	to, err := parseDateParam(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
		return
	}

	items, err := h.service.WindowItems(userID, from, to)
	if err != nil {
		h.logger.Error("timeline window", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build timeline")
		return
	}
	if items == nil {
		items = []timeline.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

// Calendar handles GET /api/timeline/calendar?from=...&to=...&selected=...
// It returns the per-day dot markers for the visible range plus the full
// item list for the selected day.
func (h *TimelineHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	from, err := parseDateParam(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
		return
	}
	to, err := parseDateParam(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
		return
	}
	selected, err := parseDateParam(r, "selected")
	if err != nil {
		writeError(w, http.StatusBadRequest, "selected must be YYYY-MM-DD")
		return
	}

	items, err := h.service.WindowItems(userID, from, to)
	if err != nil {
		h.logger.Error("timeline calendar", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build calendar")
		return
	}

	dayItems := timeline.DayItems(items, selected)
	if dayItems == nil {
		dayItems = []timeline.Item{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"days":  timeline.BuildCalendarIndex(items, selected),
		"items": dayItems,
	})
}

// Toggle handles POST /api/timeline/items/{id}/toggle
func (h *TimelineHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	itemID := r.PathValue("id")
	if itemID == "" {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	completed, err := h.service.Toggle(userID, itemID)
	if err != nil {
		if errors.Is(err, timeline.ErrNotFound) {
			writeError(w, http.StatusNotFound, "item not found")
			return
		}
		h.logger.Error("timeline toggle", "error", err, "item", itemID)
		writeError(w, http.StatusInternalServerError, "failed to toggle item")
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(userID, websocket.NewMessage("timeline_item", "toggled", 0, map[string]any{
			"item_id":   itemID,
			"completed": completed,
		}))
	}

	writeJSON(w, http.StatusOK, map[string]any{"item_id": itemID, "completed": completed})
}
