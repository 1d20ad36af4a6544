package handler

import (
	"net/http"

	"github.com/sakif/bugtracker/internal/service"
)

// recentActivityLimit bounds the default activity listing, matching
// the storage layer's own cap.
const recentActivityLimit = 100

// ActivityHandler exposes the read side of the audit trail. There is no
// write endpoint on purpose: entries are only ever appended by the
// services as side effects of domain operations.
type ActivityHandler struct {
	svc *service.ActivityService
}

func NewActivityHandler(svc *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{svc: svc}
}

// HandleRecent returns the newest audit entries.
//
// HTTP: GET /api/activity?limit=50
func (h *ActivityHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Recent(r.Context(), parseLimit(r, recentActivityLimit))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleForBug returns one bug's full trail.
//
// HTTP: GET /api/bugs/{id}/activity
func (h *ActivityHandler) HandleForBug(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.ForBug(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleForUser returns one user's trail.
//
// HTTP: GET /api/users/{id}/activity?limit=50
func (h *ActivityHandler) HandleForUser(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.ForUser(r.Context(), r.PathValue("id"), parseLimit(r, recentActivityLimit))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
