package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/bugtracker/internal/apperror"
	"github.com/sakif/bugtracker/internal/model"
	"github.com/sakif/bugtracker/internal/repository"
)

// BugService is the bug lifecycle: creation, triage, assignment,
// resolution and deletion, each with its audit entry.
type BugService struct {
	bugs     repository.BugRepository
	activity *ActivityService
	logger   *slog.Logger
}

func NewBugService(bugs repository.BugRepository, activity *ActivityService, logger *slog.Logger) *BugService {
	return &BugService{bugs: bugs, activity: activity, logger: logger}
}

// CreateInput carries the fields of a new bug report.
type CreateInput struct {
	Title            string
	Description      string
	Priority         model.Priority
	Severity         model.Severity
	ProjectName      string
	StepsToReproduce string
}

// Create files a new bug reported by the session user.
func (s *BugService) Create(ctx context.Context, session *Session, in CreateInput) (*model.Bug, error) {
	if session == nil {
		return nil, apperror.Unauthorized("not logged in")
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, apperror.ValidationFailed("title", "must not be empty")
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, apperror.ValidationFailed("description", "must not be empty")
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}
	if in.Severity == "" {
		in.Severity = model.SeverityMinor
	}

	bug := model.NewBug(in.Title, in.Description, in.Priority, in.Severity, session.User.ID)
	bug.ProjectName = in.ProjectName
	bug.StepsToReproduce = in.StepsToReproduce
	if err := s.bugs.CreateBug(ctx, bug); err != nil {
		return nil, err
	}

	s.activity.Record(ctx, session.User.ID, session.User.Username, model.ActionBugCreated,
		"Created bug: "+bug.Title, bug.ID)
	s.logger.Info("bug created",
		slog.String("bugID", bug.ID),
		slog.String("title", bug.Title))
	return bug, nil
}

// UpdateInput carries the editable fields. Nil means "leave as is" so a
// partial edit does not wipe the rest.
type UpdateInput struct {
	Title       *string
	Description *string
	Priority    *model.Priority
	AssignedTo  *string
}

// Update applies a partial edit and records which fields changed. A
// no-change update writes nothing and logs nothing.
func (s *BugService) Update(ctx context.Context, session *Session, id string, in UpdateInput) (*model.Bug, error) {
	if session == nil {
		return nil, apperror.Unauthorized("not logged in")
	}
	bug, err := s.bugs.GetBugByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var changes []string
	if in.Title != nil && *in.Title != bug.Title {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, apperror.ValidationFailed("title", "must not be empty")
		}
		changes = append(changes, fmt.Sprintf("Title: '%s' → '%s'", bug.Title, *in.Title))
		bug.SetTitle(*in.Title)
	}
	if in.Description != nil && *in.Description != bug.Description {
		if strings.TrimSpace(*in.Description) == "" {
			return nil, apperror.ValidationFailed("description", "must not be empty")
		}
		changes = append(changes, "Description updated")
		bug.SetDescription(*in.Description)
	}
	if in.Priority != nil && *in.Priority != bug.Priority {
		changes = append(changes, fmt.Sprintf("Priority: '%s' → '%s'", bug.Priority, *in.Priority))
		bug.SetPriority(*in.Priority)
	}
	if in.AssignedTo != nil && *in.AssignedTo != bug.AssignedTo {
		changes = append(changes, fmt.Sprintf("Assignee: '%s' → '%s'", bug.AssignedTo, *in.AssignedTo))
		bug.SetAssignedTo(*in.AssignedTo)
	}
	if len(changes) == 0 {
		return bug, nil
	}

	if err := s.bugs.UpdateBug(ctx, bug); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, session.User.ID, session.User.Username, model.ActionBugUpdated,
		strings.Join(changes, "; "), bug.ID)
	return bug, nil
}

// ChangeStatus moves a bug to a new status.
func (s *BugService) ChangeStatus(ctx context.Context, session *Session, id string, status model.Status) (*model.Bug, error) {
	if session == nil {
		return nil, apperror.Unauthorized("not logged in")
	}
	bug, err := s.bugs.GetBugByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bug.Status == status {
		return bug, nil
	}

	old := bug.Status
	bug.SetStatus(status)
	if err := s.bugs.UpdateBug(ctx, bug); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, session.User.ID, session.User.Username, model.ActionStatusChanged,
		fmt.Sprintf("Status changed from %s to %s", old, status), bug.ID)
	return bug, nil
}

// ChangePriority re-prioritizes a bug.
func (s *BugService) ChangePriority(ctx context.Context, session *Session, id string, priority model.Priority) (*model.Bug, error) {
	if session == nil {
		return nil, apperror.Unauthorized("not logged in")
	}
	bug, err := s.bugs.GetBugByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bug.Priority == priority {
		return bug, nil
	}

	old := bug.Priority
	bug.SetPriority(priority)
	if err := s.bugs.UpdateBug(ctx, bug); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, session.User.ID, session.User.Username, model.ActionBugUpdated,
		fmt.Sprintf("Priority: '%s' → '%s'", old, priority), bug.ID)
	return bug, nil
}

// Assign hands a bug to a user. Assigning a brand-new bug moves it to
// Open, since someone is now looking at it; any other status stays put.
func (s *BugService) Assign(ctx context.Context, session *Session, id, assigneeID string) (*model.Bug, error) {
	if session == nil {
		return nil, apperror.Unauthorized("not logged in")
	}
	bug, err := s.bugs.GetBugByID(ctx, id)
	if err != nil {
		return nil, err
	}

	bug.SetAssignedTo(assigneeID)
	if bug.Status == model.StatusNew && assigneeID != "" {
		bug.SetStatus(model.StatusOpen)
	}
	if err := s.bugs.UpdateBug(ctx, bug); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, session.User.ID, session.User.Username, model.ActionBugUpdated,
		"Assigned to user "+assigneeID, bug.ID)
	return bug, nil
}

// Resolve marks a bug fixed, optionally logging the hours spent when
// the backend can store them.
func (s *BugService) Resolve(ctx context.Context, session *Session, id, fixDescription string, hoursSpent float64) (*model.Bug, error) {
	if session == nil {
		return nil, apperror.Unauthorized("not logged in")
	}
	bug, err := s.bugs.GetBugByID(ctx, id)
	if err != nil {
		return nil, err
	}

	old := bug.Status
	bug.SetStatus(model.StatusResolved)
	if err := s.bugs.UpdateBug(ctx, bug); err != nil {
		return nil, err
	}

	if tl, ok := s.bugs.(repository.TimeLogger); ok && hoursSpent > 0 {
		log := &model.TimeLog{
			BugID:       bug.ID,
			UserID:      session.User.ID,
			Username:    session.User.Username,
			HoursSpent:  hoursSpent,
			Description: fixDescription,
		}
		if err := tl.AddTimeLog(ctx, log); err != nil {
			s.logger.Error("failed to record time log",
				slog.String("bugID", bug.ID),
				slog.String("error", err.Error()))
		}
	}

	details := "Bug fixed: " + fixDescription
	if fixDescription == "" {
		details = "Bug fixed"
	}
	s.activity.Record(ctx, session.User.ID, session.User.Username, model.ActionBugFixed,
		details, bug.ID)
	s.activity.Record(ctx, session.User.ID, session.User.Username, model.ActionStatusChanged,
		fmt.Sprintf("Status changed from %s to %s", old, model.StatusResolved), bug.ID)
	return bug, nil
}

// AddComment attaches a remark to a bug. The comment always rides on
// the bug itself; backends with a dedicated comment table get a row
// there as well.
func (s *BugService) AddComment(ctx context.Context, session *Session, bugID, content string) (*model.Comment, error) {
	if session == nil {
		return nil, apperror.Unauthorized("not logged in")
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperror.ValidationFailed("content", "must not be empty")
	}
	bug, err := s.bugs.GetBugByID(ctx, bugID)
	if err != nil {
		return nil, err
	}

	comment := model.Comment{
		ID:        uuid.NewString(),
		BugID:     bug.ID,
		UserID:    session.User.ID,
		Username:  session.User.Username,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if cs, ok := s.bugs.(repository.CommentStore); ok {
		if err := cs.AddComment(ctx, &comment); err != nil {
			return nil, err
		}
	}
	bug.AddComment(comment)
	if err := s.bugs.UpdateBug(ctx, bug); err != nil {
		return nil, err
	}
	return &comment, nil
}

// Delete removes a bug, admin or manager only.
func (s *BugService) Delete(ctx context.Context, session *Session, id string) error {
	if session == nil {
		return apperror.Unauthorized("not logged in")
	}
	if !session.HasRole(model.RoleAdmin, model.RoleManager) {
		return apperror.Forbidden("only admins and managers may delete bugs")
	}
	bug, err := s.bugs.GetBugByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.bugs.DeleteBug(ctx, id); err != nil {
		return err
	}
	s.activity.Record(ctx, session.User.ID, session.User.Username, model.ActionBugDeleted,
		"Deleted bug: "+bug.Title, id)
	return nil
}

func (s *BugService) Get(ctx context.Context, id string) (*model.Bug, error) {
	return s.bugs.GetBugByID(ctx, id)
}

func (s *BugService) List(ctx context.Context) ([]model.Bug, error) {
	return s.bugs.ListBugs(ctx)
}

func (s *BugService) ByStatus(ctx context.Context, status model.Status) ([]model.Bug, error) {
	return s.bugs.FilterByStatus(ctx, status)
}

func (s *BugService) ByPriority(ctx context.Context, priority model.Priority) ([]model.Bug, error) {
	return s.bugs.FilterByPriority(ctx, priority)
}

// AssignedTo returns the bugs assigned to one user. Neither backend
// indexes assignee, so this filters the full listing.
func (s *BugService) AssignedTo(ctx context.Context, userID string) ([]model.Bug, error) {
	all, err := s.bugs.ListBugs(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.Bug
	for _, b := range all {
		if b.AssignedTo == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

// ReportedBy returns the bugs one user filed.
func (s *BugService) ReportedBy(ctx context.Context, userID string) ([]model.Bug, error) {
	all, err := s.bugs.ListBugs(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.Bug
	for _, b := range all {
		if b.ReportedBy == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *BugService) Search(ctx context.Context, query string) ([]model.Bug, error) {
	return s.bugs.SearchBugs(ctx, query)
}

// Statistics summarizes the bug population for dashboards.
type Statistics struct {
	Total    int                  `json:"total"`
	ByStatus map[model.Status]int `json:"byStatus"`
	Critical int                  `json:"critical"`
	High     int                  `json:"high"`
}

func (s *BugService) Statistics(ctx context.Context) (*Statistics, error) {
	all, err := s.bugs.ListBugs(ctx)
	if err != nil {
		return nil, err
	}
	stats := &Statistics{
		Total:    len(all),
		ByStatus: make(map[model.Status]int),
	}
	for _, b := range all {
		stats.ByStatus[b.Status]++
		switch b.Priority {
		case model.PriorityCritical:
			stats.Critical++
		case model.PriorityHigh:
			stats.High++
		}
	}
	return stats, nil
}
