package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parseDateParam reads a YYYY-MM-DD query parameter as a UTC midnight time.
func parseDateParam(r *http.Request, name string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", r.URL.Query().Get(name), time.UTC)
}
