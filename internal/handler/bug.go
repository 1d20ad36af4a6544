package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/bugtracker/internal/apperror"
	"github.com/sakif/bugtracker/internal/model"
	"github.com/sakif/bugtracker/internal/service"
)

// BugHandler exposes the bug lifecycle over HTTP. Every route requires
// an authenticated session; the handler rebuilds it the same way
// AuthHandler does.
type BugHandler struct {
	svc     *service.BugService
	session func(*http.Request) (*service.Session, error)
	logger  *slog.Logger
}

func NewBugHandler(svc *service.BugService, session func(*http.Request) (*service.Session, error), logger *slog.Logger) *BugHandler {
	return &BugHandler{svc: svc, session: session, logger: logger}
}

type createBugRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	Priority         string `json:"priority"`
	Severity         string `json:"severity"`
	ProjectName      string `json:"projectName"`
	StepsToReproduce string `json:"stepsToReproduce"`
}

// HandleCreate files a new bug.
//
// HTTP: POST /api/bugs
func (h *BugHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	session, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createBugRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON"))
		return
	}

	in := service.CreateInput{
		Title:            req.Title,
		Description:      req.Description,
		ProjectName:      req.ProjectName,
		StepsToReproduce: req.StepsToReproduce,
	}
	if req.Priority != "" {
		p, err := model.ParsePriority(req.Priority)
		if err != nil {
			writeError(w, err)
			return
		}
		in.Priority = p
	}
	if req.Severity != "" {
		sev, err := model.ParseSeverity(req.Severity)
		if err != nil {
			writeError(w, err)
			return
		}
		in.Severity = sev
	}

	bug, err := h.svc.Create(r.Context(), session, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bug)
}

type updateBugRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	AssignedTo  *string `json:"assignedTo"`
}

// HandleUpdate applies a partial edit.
//
// HTTP: PATCH /api/bugs/{id}
//
// Pointer fields distinguish "not sent" from "sent as empty", so a
// request that only changes the title leaves everything else intact.
func (h *BugHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	session, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateBugRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON"))
		return
	}

	in := service.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
	}
	if req.Priority != nil {
		p, err := model.ParsePriority(*req.Priority)
		if err != nil {
			writeError(w, err)
			return
		}
		in.Priority = &p
	}

	bug, err := h.svc.Update(r.Context(), session, r.PathValue("id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bug)
}

// HandleChangeStatus moves a bug to a new status.
//
// HTTP: PUT /api/bugs/{id}/status
func (h *BugHandler) HandleChangeStatus(w http.ResponseWriter, r *http.Request) {
	session, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON"))
		return
	}
	status, err := model.ParseStatus(req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	bug, err := h.svc.ChangeStatus(r.Context(), session, r.PathValue("id"), status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bug)
}

// HandleChangePriority re-prioritizes a bug.
//
// HTTP: PUT /api/bugs/{id}/priority
func (h *BugHandler) HandleChangePriority(w http.ResponseWriter, r *http.Request) {
	session, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Priority string `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON"))
		return
	}
	priority, err := model.ParsePriority(req.Priority)
	if err != nil {
		writeError(w, err)
		return
	}

	bug, err := h.svc.ChangePriority(r.Context(), session, r.PathValue("id"), priority)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bug)
}

// HandleAssign hands a bug to a user.
//
// HTTP: PUT /api/bugs/{id}/assign
func (h *BugHandler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	session, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		AssignedTo string `json:"assignedTo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON"))
		return
	}

	bug, err := h.svc.Assign(r.Context(), session, r.PathValue("id"), req.AssignedTo)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bug)
}

// HandleResolve marks a bug fixed.
//
// HTTP: PUT /api/bugs/{id}/resolve
func (h *BugHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	session, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		FixDescription string  `json:"fixDescription"`
		HoursSpent     float64 `json:"hoursSpent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON"))
		return
	}

	bug, err := h.svc.Resolve(r.Context(), session, r.PathValue("id"), req.FixDescription, req.HoursSpent)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bug)
}

// HandleAddComment attaches a comment to a bug.
//
// HTTP: POST /api/bugs/{id}/comments
func (h *BugHandler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	session, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON"))
		return
	}

	comment, err := h.svc.AddComment(r.Context(), session, r.PathValue("id"), req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// HandleDelete removes a bug.
//
// HTTP: DELETE /api/bugs/{id}
func (h *BugHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	session, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.Delete(r.Context(), session, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "bug deleted"})
}

// HandleGet returns a single bug.
//
// HTTP: GET /api/bugs/{id}
func (h *BugHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	bug, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bug)
}

// HandleList returns bugs, optionally filtered.
//
// HTTP: GET /api/bugs
// Query params (mutually exclusive, first match wins):
//   - status=OPEN        → filter by status
//   - priority=CRITICAL  → filter by priority
//   - q=timeout          → substring search on title/description
//   - assignedTo=7       → bugs assigned to a user
//   - reportedBy=7       → bugs filed by a user
func (h *BugHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var (
		bugs []model.Bug
		err  error
	)
	switch {
	case q.Get("status") != "":
		var status model.Status
		status, err = model.ParseStatus(q.Get("status"))
		if err == nil {
			bugs, err = h.svc.ByStatus(ctx, status)
		}
	case q.Get("priority") != "":
		var priority model.Priority
		priority, err = model.ParsePriority(q.Get("priority"))
		if err == nil {
			bugs, err = h.svc.ByPriority(ctx, priority)
		}
	case q.Get("q") != "":
		bugs, err = h.svc.Search(ctx, q.Get("q"))
	case q.Get("assignedTo") != "":
		bugs, err = h.svc.AssignedTo(ctx, q.Get("assignedTo"))
	case q.Get("reportedBy") != "":
		bugs, err = h.svc.ReportedBy(ctx, q.Get("reportedBy"))
	default:
		bugs, err = h.svc.List(ctx)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if bugs == nil {
		bugs = []model.Bug{} // JSON [] instead of null
	}
	writeJSON(w, http.StatusOK, bugs)
}

// HandleStatistics returns the dashboard summary.
//
// HTTP: GET /api/bugs/statistics
func (h *BugHandler) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Statistics(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// parseLimit reads a "limit" query param, falling back when absent or
// malformed.
func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
