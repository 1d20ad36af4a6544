package model

import "time"

// Action is the kind of domain event an activity entry records.
//
// CLOSED SET:
// These eight values are the entire audit vocabulary. Reporting code
// groups and filters on them, so new event kinds must be added here —
// free-form action strings would silently fall out of every report.
type Action string

const (
	ActionUserLogin      Action = "USER_LOGIN"
	ActionUserLogout     Action = "USER_LOGOUT"
	ActionUserRegistered Action = "USER_REGISTERED"
	ActionBugCreated     Action = "BUG_CREATED"
	ActionBugUpdated     Action = "BUG_UPDATED"
	ActionBugDeleted     Action = "BUG_DELETED"
	ActionBugFixed       Action = "BUG_FIXED"
	ActionStatusChanged  Action = "STATUS_CHANGED"
)

// ActivityEntry is one immutable record in the append-only audit trail.
//
// Username is denormalized at write time on purpose: the audit trail
// must read correctly even if the user is later renamed. BugID is empty
// for events that are not about a specific bug (login, logout,
// registration). Entries are never updated or deleted.
type ActivityEntry struct {
	ID        string    `json:"id"        db:"id"`
	UserID    string    `json:"userId"    db:"user_id"`
	Username  string    `json:"username"  db:"username"`
	Action    Action    `json:"action"    db:"action"`
	Details   string    `json:"details"   db:"details"`
	BugID     string    `json:"bugId,omitempty" db:"bug_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}
