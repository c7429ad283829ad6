package handler

import (
	"log/slog"
	"net/http"

	"github.com/hollyoak/pawtrail/internal/auth"
	"github.com/hollyoak/pawtrail/internal/ics"
	"github.com/hollyoak/pawtrail/internal/timeline"
)

type ExportHandler struct {
	service *timeline.Service
	logger  *slog.Logger
}

func NewExportHandler(svc *timeline.Service, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{service: svc, logger: logger}
}

// Calendar handles GET /api/export/calendar.ics?from=...&to=...
func (h *ExportHandler) Calendar(w http.ResponseWriter, r *http.Request) {
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
		h.logger.Error("export calendar", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build calendar")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="pawtrail.ics"`)
	w.Write([]byte(ics.Calendar(items)))
}
