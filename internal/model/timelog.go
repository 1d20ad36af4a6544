package model

import "time"

// TimeLog records hours spent on a bug, written as part of the fix
// flow. Username is denormalized at write time, same as ActivityEntry.
type TimeLog struct {
	ID          string    `json:"id"          db:"id"`
	BugID       string    `json:"bugId"       db:"bug_id"`
	UserID      string    `json:"userId"      db:"user_id"`
	Username    string    `json:"username"    db:"username"`
	HoursSpent  float64   `json:"hoursSpent"  db:"hours_spent"`
	Description string    `json:"description" db:"description"`
	LoggedAt    time.Time `json:"loggedAt"    db:"log_date"`
}
