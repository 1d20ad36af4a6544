package snapshot

import (
	"context"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/bugtracker/internal/model"
	"github.com/sakif/bugtracker/internal/repository"
)

var _ repository.ActivityRecorder = (*ActivityLog)(nil)

// ActivityLog is the audit trail that rides alongside the snapshot
// store. The original flat-file variant kept no audit at all; only the
// relational one did. We keep the invariant — every committed mutation
// is observable after the fact — uniform across backends by recording
// in memory here. Entries live for the process lifetime and are not
// snapshotted to disk.
type ActivityLog struct {
	mu      sync.Mutex
	entries []model.ActivityEntry
}

func NewActivityLog() *ActivityLog {
	return &ActivityLog{}
}

// Append records an entry. ID and Timestamp are assigned here if the
// caller left them empty; nothing is ever updated or removed.
func (a *ActivityLog) Append(ctx context.Context, entry *model.ActivityEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	a.entries = append(a.entries, *entry)
	return nil
}

// List returns the newest entries first, at most limit of them.
func (a *ActivityLog) List(ctx context.Context, limit int) ([]model.ActivityEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.filterLocked(limit, func(model.ActivityEntry) bool { return true }), nil
}

func (a *ActivityLog) ListByBug(ctx context.Context, bugID string) ([]model.ActivityEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.filterLocked(0, func(e model.ActivityEntry) bool { return e.BugID == bugID }), nil
}

func (a *ActivityLog) ListByUser(ctx context.Context, userID string, limit int) ([]model.ActivityEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.filterLocked(limit, func(e model.ActivityEntry) bool { return e.UserID == userID }), nil
}

// filterLocked walks entries newest-first. limit <= 0 means no limit.
// Caller must hold a.mu.
func (a *ActivityLog) filterLocked(limit int, keep func(model.ActivityEntry) bool) []model.ActivityEntry {
	out := make([]model.ActivityEntry, 0, len(a.entries))
	for i := len(a.entries) - 1; i >= 0; i-- {
		if keep(a.entries[i]) {
			out = append(out, a.entries[i])
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out
}
