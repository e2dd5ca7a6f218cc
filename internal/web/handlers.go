package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"attendance/internal/attendance"
	"attendance/internal/models"

	log "github.com/sirupsen/logrus"
)

const errInvalidRequestBody = "invalid request body"

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type AttendanceHandler struct {
	store *attendance.Store
}

func NewAttendanceHandler(store *attendance.Store) *AttendanceHandler {
	return &AttendanceHandler{store: store}
}

type ListResponse struct {
	Records []models.Record `json:"records"`
	Count   int             `json:"count"`
}

// filterFromQuery reads section, from and to (YYYY-MM-DD).
func filterFromQuery(r *http.Request) (attendance.Filter, error) {
	q := r.URL.Query()
	f := attendance.Filter{Section: q.Get("section")}

	if v := q.Get("from"); v != "" {
		t, err := attendance.ParseDate(v)
		if err != nil {
			return f, errors.New("invalid from date")
		}
		f.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := attendance.ParseDate(v)
		if err != nil {
			return f, errors.New("invalid to date")
		}
		f.To = t
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, errors.New("to date is before from date")
	}

	return f, nil
}

func (h *AttendanceHandler) filtered(w http.ResponseWriter, r *http.Request) ([]models.Record, bool) {
	f, err := filterFromQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	records, err := h.store.Load()
	if err != nil {
		log.WithError(err).Error("failed to load attendance")
		respondError(w, http.StatusInternalServerError, "failed to load attendance")
		return nil, false
	}

	return f.Apply(records), true
}

func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	records, ok := h.filtered(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, ListResponse{Records: records, Count: len(records)})
}

func (h *AttendanceHandler) Export(w http.ResponseWriter, r *http.Request) {
	records, ok := h.filtered(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="attendance.csv"`)
	if err := attendance.Export(w, records); err != nil {
		log.WithError(err).Error("failed to export attendance")
	}
}

type SectionsResponse struct {
	Sections []string `json:"sections"`
	From     string   `json:"from,omitempty"`
	To       string   `json:"to,omitempty"`
}

func (h *AttendanceHandler) Sections(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.Load()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load attendance")
		return
	}

	resp := SectionsResponse{Sections: attendance.Sections(records)}
	if resp.Sections == nil {
		resp.Sections = []string{}
	}
	if min, max, ok := attendance.DateBounds(records); ok {
		resp.From = min.Format(models.DateLayout)
		resp.To = max.Format(models.DateLayout)
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *AttendanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var entry models.Entry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	rec, err := h.store.Append(entry)
	switch {
	case errors.Is(err, attendance.ErrMissingFields),
		errors.Is(err, attendance.ErrInvalidRole),
		errors.Is(err, attendance.ErrInvalidStatus):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.WithError(err).Error("failed to save attendance")
		respondError(w, http.StatusInternalServerError, "failed to save attendance")
		return
	}

	log.WithFields(log.Fields{"roll": rec.RollNo, "status": rec.Status}).Info("attendance marked")
	respondJSON(w, http.StatusCreated, rec)
}

func (h *AttendanceHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to clear attendance")
		return
	}

	log.Warn("attendance data cleared")
	w.WriteHeader(http.StatusNoContent)
}
