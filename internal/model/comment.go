package model

import "time"

// Comment is a remark attached to a bug. Username is captured at write
// time alongside UserID so the comment still reads correctly if the
// author is later renamed or removed.
type Comment struct {
	ID        string    `json:"id"        db:"id"`
	BugID     string    `json:"bugId"     db:"bug_id"`
	UserID    string    `json:"userId"    db:"user_id"`
	Username  string    `json:"username"  db:"username"`
	Content   string    `json:"content"   db:"comment_text"`
	CreatedAt time.Time `json:"createdAt" db:"created_date"`
}
