package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/sakif/bugtracker/internal/apperror"
	"github.com/sakif/bugtracker/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return openTestStore(t, t.TempDir())
}

// openTestStore opens a store over an explicit directory so reload
// tests can open a second store on the same files.
func openTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	s, err := Open(dir, logger)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s
}

func createTestBug(t *testing.T, s *Store, title string) *model.Bug {
	t.Helper()
	bug := model.NewBug(title, "something is broken", model.PriorityMedium, model.SeverityMinor, "user-1")
	if err := s.CreateBug(context.Background(), bug); err != nil {
		t.Fatalf("CreateBug() error = %v", err)
	}
	return bug
}

// =========================================================================
// BUG ID SEQUENCE TESTS
// =========================================================================

func TestBugIDsAreSequential(t *testing.T) {
	s := newTestStore(t)

	first := createTestBug(t, s, "first")
	second := createTestBug(t, s, "second")

	if first.ID != "BUG-00001" {
		t.Errorf("first ID = %q, want BUG-00001", first.ID)
	}
	if second.ID != "BUG-00002" {
		t.Errorf("second ID = %q, want BUG-00002", second.ID)
	}
}

func TestBugIDsNeverReusedAfterDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createTestBug(t, s, "a")
	second := createTestBug(t, s, "b")

	if err := s.DeleteBug(ctx, second.ID); err != nil {
		t.Fatalf("DeleteBug() error = %v", err)
	}

	// One bug left, but the next ID must continue from the high-water
	// mark — a collision here would silently merge two bugs' histories.
	third := createTestBug(t, s, "c")
	if third.ID != "BUG-00003" {
		t.Errorf("ID after delete = %q, want BUG-00003", third.ID)
	}
}

func TestBugIDSequenceSurvivesReload(t *testing.T) {
	dir := t.TempDir()
	s1 := openTestStore(t, dir)
	createTestBug(t, s1, "persisted")
	createTestBug(t, s1, "also persisted")

	s2 := openTestStore(t, dir)
	bug := createTestBug(t, s2, "after reload")
	if bug.ID != "BUG-00003" {
		t.Errorf("ID after reload = %q, want BUG-00003", bug.ID)
	}
}

func TestBugIDSequenceSeedsPastFiveDigits(t *testing.T) {
	dir := t.TempDir()

	// A long-lived store can outgrow the five-digit code width; the
	// sequence must still seed from the full number on reload.
	seeded := []model.Bug{{ID: "BUG-100000", Title: "old timer", Description: "aged"}}
	data, err := json.Marshal(seeded)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, bugsFile), data, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	s := openTestStore(t, dir)
	bug := createTestBug(t, s, "next in line")
	if bug.ID != "BUG-100001" {
		t.Errorf("ID = %q, want BUG-100001", bug.ID)
	}
}

// =========================================================================
// PERSISTENCE TESTS
// =========================================================================

func TestBugsSurviveReload(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s1 := openTestStore(t, dir)
	created := createTestBug(t, s1, "durable bug")
	created.AddTag("regression")
	if err := s1.UpdateBug(ctx, created); err != nil {
		t.Fatalf("UpdateBug() error = %v", err)
	}

	s2 := openTestStore(t, dir)
	loaded, err := s2.GetBugByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetBugByID() after reload error = %v", err)
	}
	if loaded.Title != "durable bug" {
		t.Errorf("Title = %q, want %q", loaded.Title, "durable bug")
	}
	if len(loaded.Tags) != 1 || loaded.Tags[0] != "regression" {
		t.Errorf("Tags = %v, want [regression]", loaded.Tags)
	}
}

func TestUsersSurviveReload(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s1 := openTestStore(t, dir)
	user := &model.User{Username: "reporter", Email: "reporter@example.com", Role: model.RoleTester, Active: true}
	if err := s1.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	s2 := openTestStore(t, dir)
	loaded, err := s2.GetUserByUsername(ctx, "REPORTER") // case-insensitive
	if err != nil {
		t.Fatalf("GetUserByUsername() after reload error = %v", err)
	}
	if loaded.ID != user.ID {
		t.Errorf("ID = %q, want %q", loaded.ID, user.ID)
	}
}

// =========================================================================
// UPDATE / DELETE SEMANTICS
// =========================================================================

func TestUpdateUnknownBugIsSilentNoOp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ghost := model.NewBug("ghost", "never created", model.PriorityLow, model.SeverityTrivial, "u")
	ghost.ID = "BUG-99999"

	// This store keeps the historical contract: updating a missing bug
	// changes nothing and reports nothing.
	if err := s.UpdateBug(ctx, ghost); err != nil {
		t.Errorf("UpdateBug() on missing bug = %v, want nil", err)
	}
	if _, err := s.GetBugByID(ctx, ghost.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Error("silent no-op update must not create the bug")
	}
}

func TestDeleteUnknownBugReturnsNotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.DeleteBug(context.Background(), "BUG-99999")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("DeleteBug() = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// ISOLATION TESTS
// =========================================================================

func TestReturnedBugsAreCopies(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := createTestBug(t, s, "original title")

	got, err := s.GetBugByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetBugByID() error = %v", err)
	}
	got.Title = "mutated by caller"
	got.Tags = append(got.Tags, "sneaky")

	again, err := s.GetBugByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetBugByID() error = %v", err)
	}
	if again.Title != "original title" {
		t.Error("mutating a returned bug leaked into the store")
	}
	if len(again.Tags) != 0 {
		t.Error("appending to a returned bug's tags leaked into the store")
	}
}

// =========================================================================
// QUERY TESTS
// =========================================================================

func TestFilterByStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	open := createTestBug(t, s, "open one")
	open.SetStatus(model.StatusOpen)
	if err := s.UpdateBug(ctx, open); err != nil {
		t.Fatalf("UpdateBug() error = %v", err)
	}
	createTestBug(t, s, "still new")

	got, err := s.FilterByStatus(ctx, model.StatusOpen)
	if err != nil {
		t.Fatalf("FilterByStatus() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != open.ID {
		t.Errorf("FilterByStatus(OPEN) = %v bugs, want exactly the open one", len(got))
	}
}

func TestSearchMatchesTitleDescriptionAndID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	bug := createTestBug(t, s, "Timeout in login flow")

	for _, query := range []string{"timeout", "BROKEN", bug.ID} {
		got, err := s.SearchBugs(ctx, query)
		if err != nil {
			t.Fatalf("SearchBugs(%q) error = %v", query, err)
		}
		if len(got) != 1 {
			t.Errorf("SearchBugs(%q) = %d results, want 1", query, len(got))
		}
	}

	got, err := s.SearchBugs(ctx, "no such thing")
	if err != nil {
		t.Fatalf("SearchBugs() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("SearchBugs(no match) = %d results, want 0", len(got))
	}
}

// =========================================================================
// USER TESTS
// =========================================================================

func TestDeleteUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := &model.User{Username: "doomed", Email: "doomed@example.com", Role: model.RoleViewer, Active: true}
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if err := s.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if _, err := s.GetUserByID(ctx, user.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() after delete = %v, want ErrNotFound", err)
	}
	if err := s.DeleteUser(ctx, user.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second DeleteUser() = %v, want ErrNotFound", err)
	}
}
