package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/sakif/bugtracker/internal/model"
)

func TestActivityLogNewestFirst(t *testing.T) {
	log := NewActivityLog()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, action := range []model.Action{
		model.ActionUserLogin,
		model.ActionBugCreated,
		model.ActionUserLogout,
	} {
		entry := &model.ActivityEntry{
			UserID:    "1",
			Username:  "tester",
			Action:    action,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
		if err := log.Append(ctx, entry); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if entry.ID == "" {
			t.Error("Append() should assign an entry ID")
		}
	}

	entries, err := log.List(ctx, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("List() = %d entries, want 3", len(entries))
	}
	if entries[0].Action != model.ActionUserLogout {
		t.Errorf("first entry = %q, want newest", entries[0].Action)
	}

	limited, err := log.List(ctx, 1)
	if err != nil {
		t.Fatalf("List(limit=1) error = %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("List(limit=1) = %d entries, want 1", len(limited))
	}
}

func TestActivityLogFilters(t *testing.T) {
	log := NewActivityLog()
	ctx := context.Background()

	entries := []*model.ActivityEntry{
		{UserID: "1", Username: "a", Action: model.ActionBugCreated, BugID: "BUG-00001"},
		{UserID: "2", Username: "b", Action: model.ActionStatusChanged, BugID: "BUG-00001"},
		{UserID: "1", Username: "a", Action: model.ActionBugCreated, BugID: "BUG-00002"},
	}
	for _, e := range entries {
		if err := log.Append(ctx, e); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	byBug, err := log.ListByBug(ctx, "BUG-00001")
	if err != nil {
		t.Fatalf("ListByBug() error = %v", err)
	}
	if len(byBug) != 2 {
		t.Errorf("ListByBug() = %d entries, want 2", len(byBug))
	}

	byUser, err := log.ListByUser(ctx, "2", 10)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(byUser) != 1 || byUser[0].Username != "b" {
		t.Errorf("ListByUser(2) = %v, want b's single entry", byUser)
	}
}
