package model

import (
	"testing"
	"time"
)

func TestParseStatusNormalizes(t *testing.T) {
	cases := []struct {
		in   string
		want Status
	}{
		{"OPEN", StatusOpen},
		{"open", StatusOpen},
		{"  In Progress  ", StatusInProgress},
		{"in_progress", StatusInProgress},
	}
	for _, c := range cases {
		got, err := ParseStatus(c.in)
		if err != nil {
			t.Errorf("ParseStatus(%q) error = %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseStatus(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseStatusRejectsUnknown(t *testing.T) {
	if _, err := ParseStatus("BANANA"); err == nil {
		t.Error("ParseStatus(BANANA) should error, not default")
	}
}

func TestParseRoleRejectsUnknown(t *testing.T) {
	if _, err := ParseRole("SUPERUSER"); err == nil {
		t.Error("ParseRole(SUPERUSER) should error, not default")
	}
}

func TestNewBugStartsNew(t *testing.T) {
	b := NewBug("t", "d", PriorityHigh, SeverityMajor, "user-1")

	if b.Status != StatusNew {
		t.Errorf("Status = %q, want NEW", b.Status)
	}
	if b.ResolvedAt != nil {
		t.Error("ResolvedAt should be nil on a fresh bug")
	}
	if b.CreatedAt.IsZero() || b.UpdatedAt.IsZero() {
		t.Error("NewBug should stamp CreatedAt and UpdatedAt")
	}
}

func TestSetStatusStampsResolvedAtOnce(t *testing.T) {
	b := NewBug("t", "d", PriorityHigh, SeverityMajor, "user-1")

	b.SetStatus(StatusResolved)
	if b.ResolvedAt == nil {
		t.Fatal("ResolvedAt should be set when the bug is resolved")
	}
	if b.ResolvedAt.Before(b.CreatedAt) {
		t.Error("ResolvedAt should not precede CreatedAt")
	}
	first := *b.ResolvedAt

	// Reopening keeps the historical resolution timestamp.
	b.SetStatus(StatusReopened)
	if b.ResolvedAt == nil || !b.ResolvedAt.Equal(first) {
		t.Error("reopening must not clear or move ResolvedAt")
	}

	// Closing again does not re-stamp an already resolved bug.
	b.SetStatus(StatusClosed)
	if !b.ResolvedAt.Equal(first) {
		t.Error("ResolvedAt should stay at the first resolution")
	}
}

func TestSetStatusTouchesUpdatedAt(t *testing.T) {
	b := NewBug("t", "d", PriorityLow, SeverityTrivial, "u")
	before := b.UpdatedAt

	time.Sleep(2 * time.Millisecond)
	b.SetStatus(StatusOpen)

	if !b.UpdatedAt.After(before) {
		t.Error("SetStatus should advance UpdatedAt")
	}
}

func TestAddTagDeduplicatesExactMatch(t *testing.T) {
	b := NewBug("t", "d", PriorityLow, SeverityTrivial, "u")

	before := b.UpdatedAt
	time.Sleep(2 * time.Millisecond)

	b.AddTag("ui")
	b.AddTag("ui")
	b.AddTag("UI") // different case is a different tag, exact match only

	if len(b.Tags) != 2 {
		t.Errorf("Tags = %v, want [ui UI]", b.Tags)
	}
	if !b.UpdatedAt.After(before) {
		t.Error("AddTag should stamp UpdatedAt")
	}
}

func TestAddComment(t *testing.T) {
	b := NewBug("t", "d", PriorityLow, SeverityTrivial, "u")

	b.AddComment(Comment{ID: "c1", Content: "first"})
	b.AddComment(Comment{ID: "c2", Content: "second"})

	if len(b.Comments) != 2 {
		t.Fatalf("Comments = %d, want 2", len(b.Comments))
	}
	if b.Comments[0].Content != "first" {
		t.Error("comments should keep insertion order")
	}
}
