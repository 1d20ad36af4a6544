package model

import (
	"strings"
	"time"

	"github.com/sakif/bugtracker/internal/apperror"
)

// Status is a bug's position in the workflow.
//
// The set is the union of both storage variants' vocabularies. Every
// transition is legal — the service layer performs no transition-graph
// validation, and callers may set any status from any other. The only
// special statuses are the resolving ones (Resolved, Closed), which
// stamp ResolvedAt.
type Status string

const (
	StatusNew        Status = "NEW"
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusResolved   Status = "RESOLVED"
	StatusClosed     Status = "CLOSED"
	StatusReopened   Status = "REOPENED"
)

// Priority is the urgency of a fix, Critical being the highest.
type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

// Severity measures impact, independent of priority. Only the snapshot
// backend persists it; the relational schema has no column for it.
type Severity string

const (
	SeverityBlocker  Severity = "BLOCKER"
	SeverityCritical Severity = "CRITICAL"
	SeverityMajor    Severity = "MAJOR"
	SeverityMinor    Severity = "MINOR"
	SeverityTrivial  Severity = "TRIVIAL"
)

func ParseStatus(s string) (Status, error) {
	switch v := Status(normalizeEnum(s)); v {
	case StatusNew, StatusOpen, StatusInProgress, StatusResolved, StatusClosed, StatusReopened:
		return v, nil
	}
	return "", apperror.InvalidEnum("status", s)
}

func ParsePriority(s string) (Priority, error) {
	switch v := Priority(normalizeEnum(s)); v {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return v, nil
	}
	return "", apperror.InvalidEnum("priority", s)
}

func ParseSeverity(s string) (Severity, error) {
	switch v := Severity(normalizeEnum(s)); v {
	case SeverityBlocker, SeverityCritical, SeverityMajor, SeverityMinor, SeverityTrivial:
		return v, nil
	}
	return "", apperror.InvalidEnum("severity", s)
}

// normalizeEnum maps display forms ("In Progress") onto stored forms
// ("IN_PROGRESS") so values written by the original GUI still parse.
func normalizeEnum(s string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), " ", "_")
}

// Bug represents a tracked defect.
//
// MUTATION DISCIPLINE:
// Field mutations go through the Set* methods below, which stamp
// UpdatedAt. UpdatedAt is therefore monotonically non-decreasing over a
// bug's lifetime. ResolvedAt is nil until the bug first reaches a
// resolving status (Resolved or Closed) and is never cleared afterwards
// — reopening a bug keeps the record of when it was first resolved.
//
// OWNERSHIP:
// A Bug exclusively owns its Comments (composition) in the snapshot
// model. ReportedBy and AssignedTo are non-owning references to User IDs
// — deleting a user does not cascade here.
type Bug struct {
	ID               string     `json:"id"          db:"id"`
	Title            string     `json:"title"       db:"title"`
	Description      string     `json:"description" db:"description"`
	Status           Status     `json:"status"      db:"status"`
	Priority         Priority   `json:"priority"    db:"priority"`
	Severity         Severity   `json:"severity,omitempty"`
	ProjectName      string     `json:"projectName,omitempty"`
	ReportedBy       string     `json:"reportedBy"  db:"created_by"`
	AssignedTo       string     `json:"assignedTo,omitempty" db:"assigned_to"`
	StepsToReproduce string     `json:"stepsToReproduce,omitempty"`
	Tags             []string   `json:"tags,omitempty"`
	Comments         []Comment  `json:"comments,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"   db:"created_date"`
	UpdatedAt        time.Time  `json:"updatedAt"   db:"updated_date"`
	ResolvedAt       *time.Time `json:"resolvedAt,omitempty"`
}

// NewBug constructs a bug in status New with both timestamps set.
// The ID is assigned later by whichever backend persists it.
func NewBug(title, description string, priority Priority, severity Severity, reportedBy string) *Bug {
	now := time.Now()
	return &Bug{
		Title:       title,
		Description: description,
		Status:      StatusNew,
		Priority:    priority,
		Severity:    severity,
		ReportedBy:  reportedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// SetStatus changes the workflow status and stamps UpdatedAt. Entering
// Resolved or Closed stamps ResolvedAt the first time only.
func (b *Bug) SetStatus(s Status) {
	b.Status = s
	b.UpdatedAt = time.Now()
	if (s == StatusResolved || s == StatusClosed) && b.ResolvedAt == nil {
		now := time.Now()
		b.ResolvedAt = &now
	}
}

func (b *Bug) SetPriority(p Priority) {
	b.Priority = p
	b.UpdatedAt = time.Now()
}

func (b *Bug) SetTitle(title string) {
	b.Title = title
	b.UpdatedAt = time.Now()
}

func (b *Bug) SetDescription(desc string) {
	b.Description = desc
	b.UpdatedAt = time.Now()
}

func (b *Bug) SetAssignedTo(userID string) {
	b.AssignedTo = userID
	b.UpdatedAt = time.Now()
}

// AddComment appends to the bug's owned comment list and stamps
// UpdatedAt. The caller persists the owning bug afterwards — comments
// have no independent persistence in the snapshot model.
func (b *Bug) AddComment(c Comment) {
	b.Comments = append(b.Comments, c)
	b.UpdatedAt = time.Now()
}

// AddTag adds a tag if not already present and stamps UpdatedAt. Tag
// comparison is exact; "ui" and "UI" are distinct tags.
func (b *Bug) AddTag(tag string) {
	for _, t := range b.Tags {
		if t == tag {
			return
		}
	}
	b.Tags = append(b.Tags, tag)
	b.UpdatedAt = time.Now()
}
