package service

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/sakif/bugtracker/internal/apperror"
	"github.com/sakif/bugtracker/internal/model"
)

// FAKES, NOT MOCKS:
// In-memory implementations of the repository interfaces keep these
// tests dependency-free and easy to read — you can see exactly what
// each fake does.

type fakeUserRepo struct {
	users  map[string]*model.User
	nextID int
	// set to a non-nil error to simulate a storage failure
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User), nextID: 1}
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	user.ID = strconv.Itoa(f.nextID)
	f.nextID++
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) UpdateUser(ctx context.Context, user *model.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return apperror.NotFound("user", user.ID)
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Username, username) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) ListUsers(ctx context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

type fakeBugRepo struct {
	bugs   map[string]*model.Bug
	nextID int
}

func newFakeBugRepo() *fakeBugRepo {
	return &fakeBugRepo{bugs: make(map[string]*model.Bug), nextID: 1}
}

func (f *fakeBugRepo) CreateBug(ctx context.Context, bug *model.Bug) error {
	bug.ID = strconv.Itoa(f.nextID)
	f.nextID++
	copied := *bug
	f.bugs[bug.ID] = &copied
	return nil
}

func (f *fakeBugRepo) UpdateBug(ctx context.Context, bug *model.Bug) error {
	if _, ok := f.bugs[bug.ID]; !ok {
		return apperror.NotFound("bug", bug.ID)
	}
	copied := *bug
	f.bugs[bug.ID] = &copied
	return nil
}

func (f *fakeBugRepo) DeleteBug(ctx context.Context, id string) error {
	if _, ok := f.bugs[id]; !ok {
		return apperror.NotFound("bug", id)
	}
	delete(f.bugs, id)
	return nil
}

func (f *fakeBugRepo) GetBugByID(ctx context.Context, id string) (*model.Bug, error) {
	b, ok := f.bugs[id]
	if !ok {
		return nil, apperror.NotFound("bug", id)
	}
	copied := *b
	return &copied, nil
}

func (f *fakeBugRepo) ListBugs(ctx context.Context) ([]model.Bug, error) {
	out := make([]model.Bug, 0, len(f.bugs))
	for _, b := range f.bugs {
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeBugRepo) FilterByStatus(ctx context.Context, status model.Status) ([]model.Bug, error) {
	var out []model.Bug
	for _, b := range f.bugs {
		if b.Status == status {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBugRepo) FilterByPriority(ctx context.Context, priority model.Priority) ([]model.Bug, error) {
	var out []model.Bug
	for _, b := range f.bugs {
		if b.Priority == priority {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBugRepo) SearchBugs(ctx context.Context, query string) ([]model.Bug, error) {
	q := strings.ToLower(query)
	var out []model.Bug
	for _, b := range f.bugs {
		if strings.Contains(strings.ToLower(b.Title), q) ||
			strings.Contains(strings.ToLower(b.Description), q) {
			out = append(out, *b)
		}
	}
	return out, nil
}

// fakeTimeLoggingRepo is a bug repo that can also store time logs, like
// the relational backend does.
type fakeTimeLoggingRepo struct {
	*fakeBugRepo
	timeLogs []model.TimeLog
}

func (f *fakeTimeLoggingRepo) AddTimeLog(ctx context.Context, log *model.TimeLog) error {
	f.timeLogs = append(f.timeLogs, *log)
	return nil
}

func (f *fakeTimeLoggingRepo) ListTimeLogsForBug(ctx context.Context, bugID string) ([]model.TimeLog, error) {
	var out []model.TimeLog
	for _, tl := range f.timeLogs {
		if tl.BugID == bugID {
			out = append(out, tl)
		}
	}
	return out, nil
}

// fakeRecorder captures every appended entry so tests can assert on the
// audit trail an operation produced.
type fakeRecorder struct {
	entries []model.ActivityEntry
}

func (f *fakeRecorder) Append(ctx context.Context, entry *model.ActivityEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeRecorder) List(ctx context.Context, limit int) ([]model.ActivityEntry, error) {
	return f.entries, nil
}

func (f *fakeRecorder) ListByBug(ctx context.Context, bugID string) ([]model.ActivityEntry, error) {
	var out []model.ActivityEntry
	for _, e := range f.entries {
		if e.BugID == bugID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRecorder) ListByUser(ctx context.Context, userID string, limit int) ([]model.ActivityEntry, error) {
	var out []model.ActivityEntry
	for _, e := range f.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

// lastAction fails the test unless the most recent entry has the given
// action.
func (f *fakeRecorder) lastAction(t *testing.T, want model.Action) model.ActivityEntry {
	t.Helper()
	if len(f.entries) == 0 {
		t.Fatalf("no activity recorded, want %s", want)
	}
	last := f.entries[len(f.entries)-1]
	if last.Action != want {
		t.Fatalf("last action = %s, want %s", last.Action, want)
	}
	return last
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
