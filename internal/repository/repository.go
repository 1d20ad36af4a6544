// Package repository declares the storage contracts both backends
// implement.
//
// TWO BACKENDS, ONE CONTRACT:
// The system ships two independently-evolved persistence strategies —
// a flat-file snapshot store and a relational SQLite store. They
// diverge on identifier spaces (BUG-00001 codes vs numeric row ids),
// on which fields they persist, and on which operations they support.
// Rather than merge them, each implements these interfaces and keeps
// its own semantics; capabilities only one backend has are expressed as
// optional interfaces the service layer probes with a type assertion.
package repository

import (
	"context"

	"github.com/sakif/bugtracker/internal/model"
)

// UserRepository is the contract shared by both backends.
//
// There is no DeleteUser here: the relational backend is append-only
// for users by design. The snapshot backend additionally implements
// UserDeleter.
type UserRepository interface {
	// CreateUser persists a new user and assigns its ID.
	CreateUser(ctx context.Context, user *model.User) error
	// UpdateUser replaces the stored user matching on ID.
	UpdateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// GetUserByUsername matches case-insensitively.
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	// GetUserByEmail matches case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
}

// UserDeleter is the optional hard-delete capability. Only the snapshot
// backend provides it.
type UserDeleter interface {
	DeleteUser(ctx context.Context, id string) error
}

// BugRepository is the bug storage contract.
//
// The two implementations keep incompatible ID spaces — the snapshot
// store's human-readable sequential codes and the relational store's
// auto-increment row ids rendered as text. IDs are opaque to callers
// and must never be assumed portable between backends.
type BugRepository interface {
	// CreateBug persists a new bug and assigns its ID.
	CreateBug(ctx context.Context, bug *model.Bug) error
	// UpdateBug replaces the stored bug matching on ID. The snapshot
	// backend treats a missing ID as a silent no-op (source-faithful);
	// the relational backend returns ErrNotFound.
	UpdateBug(ctx context.Context, bug *model.Bug) error
	DeleteBug(ctx context.Context, id string) error
	GetBugByID(ctx context.Context, id string) (*model.Bug, error)
	ListBugs(ctx context.Context) ([]model.Bug, error)
	FilterByStatus(ctx context.Context, status model.Status) ([]model.Bug, error)
	FilterByPriority(ctx context.Context, priority model.Priority) ([]model.Bug, error)
	// SearchBugs matches a case-insensitive substring of title or
	// description. Backends with human-readable bug codes may match
	// the ID as well, so "BUG-00001" finds the bug it names.
	SearchBugs(ctx context.Context, query string) ([]model.Bug, error)
}

// ActivityRecorder is the append-only audit trail. There are no update
// or delete methods on purpose — entries are immutable once written.
type ActivityRecorder interface {
	Append(ctx context.Context, entry *model.ActivityEntry) error
	// List returns the newest entries first, at most limit of them.
	List(ctx context.Context, limit int) ([]model.ActivityEntry, error)
	ListByBug(ctx context.Context, bugID string) ([]model.ActivityEntry, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]model.ActivityEntry, error)
}

// CommentStore is the optional separate-table comment storage of the
// relational backend. The snapshot backend persists comments inside the
// owning bug instead.
type CommentStore interface {
	AddComment(ctx context.Context, c *model.Comment) error
	ListCommentsForBug(ctx context.Context, bugID string) ([]model.Comment, error)
}

// TimeLogger is the optional time-tracking storage used by the fix
// flow. Only the relational backend persists time logs.
type TimeLogger interface {
	AddTimeLog(ctx context.Context, tl *model.TimeLog) error
	ListTimeLogsForBug(ctx context.Context, bugID string) ([]model.TimeLog, error)
}
