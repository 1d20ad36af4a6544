package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/sakif/bugtracker/internal/model"
)

func appendTestEntry(t *testing.T, db *DB, userID string, action model.Action, bugID string, at time.Time) {
	t.Helper()
	entry := &model.ActivityEntry{
		UserID:    userID,
		Username:  "tester",
		Action:    action,
		Details:   "details for " + string(action),
		BugID:     bugID,
		Timestamp: at,
	}
	if err := db.Append(context.Background(), entry); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
}

func TestActivityListNewestFirst(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.Local)

	appendTestEntry(t, db, "1", model.ActionUserLogin, "", base)
	appendTestEntry(t, db, "1", model.ActionBugCreated, "1", base.Add(time.Minute))
	appendTestEntry(t, db, "1", model.ActionUserLogout, "", base.Add(2*time.Minute))

	entries, err := db.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("List() = %d entries, want 3", len(entries))
	}
	if entries[0].Action != model.ActionUserLogout {
		t.Errorf("first entry = %q, want newest (USER_LOGOUT)", entries[0].Action)
	}
	if entries[2].Action != model.ActionUserLogin {
		t.Errorf("last entry = %q, want oldest (USER_LOGIN)", entries[2].Action)
	}
}

func TestActivityListHonorsLimit(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.Local)

	for i := 0; i < 5; i++ {
		appendTestEntry(t, db, "1", model.ActionBugUpdated, "1", base.Add(time.Duration(i)*time.Minute))
	}

	entries, err := db.List(context.Background(), 2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("List(limit=2) = %d entries, want 2", len(entries))
	}
}

func TestActivityListByBug(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.Local)

	appendTestEntry(t, db, "1", model.ActionBugCreated, "7", base)
	appendTestEntry(t, db, "1", model.ActionBugCreated, "8", base.Add(time.Minute))
	appendTestEntry(t, db, "2", model.ActionStatusChanged, "7", base.Add(2*time.Minute))

	entries, err := db.ListByBug(context.Background(), "7")
	if err != nil {
		t.Fatalf("ListByBug() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ListByBug(7) = %d entries, want 2", len(entries))
	}
	for _, e := range entries {
		if e.BugID != "7" {
			t.Errorf("entry BugID = %q, want 7", e.BugID)
		}
	}
}

func TestActivityListByUser(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.Local)

	appendTestEntry(t, db, "1", model.ActionUserLogin, "", base)
	appendTestEntry(t, db, "2", model.ActionUserLogin, "", base.Add(time.Minute))

	entries, err := db.ListByUser(context.Background(), "2", 10)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(entries) != 1 || entries[0].UserID != "2" {
		t.Errorf("ListByUser(2) = %v, want exactly user 2's entry", entries)
	}
}

func TestActivityNonBugEntriesHaveEmptyBugID(t *testing.T) {
	db := newTestDB(t)

	appendTestEntry(t, db, "1", model.ActionUserLogin, "", time.Now())

	entries, err := db.List(context.Background(), 1)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if entries[0].BugID != "" {
		t.Errorf("BugID = %q, want empty for a login event", entries[0].BugID)
	}
}
