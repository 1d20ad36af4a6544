// Package service holds the business rules that sit between the HTTP
// handlers and the storage backends.
//
// WHY A SERVICE LAYER?
// Handlers only translate HTTP; repositories only move data. Everything
// in between — validation, authorization, audit, status transitions —
// lives here, so both backends get the same rules for free.
package service

import (
	"context"
	"log/slog"

	"github.com/sakif/bugtracker/internal/model"
	"github.com/sakif/bugtracker/internal/repository"
)

// systemActor labels audit entries written before any session exists,
// such as self-registration.
const systemActor = "SYSTEM"

// ActivityService wraps the append-only audit trail. Writes are
// best-effort: a failed audit append is logged but never fails the
// operation that triggered it, because losing one trail entry is
// better than rolling back a user-visible action that already
// succeeded in storage.
type ActivityService struct {
	recorder repository.ActivityRecorder
	logger   *slog.Logger
}

func NewActivityService(recorder repository.ActivityRecorder, logger *slog.Logger) *ActivityService {
	return &ActivityService{recorder: recorder, logger: logger}
}

// Record appends one entry. userID and username may be empty together
// with systemActor for pre-session events.
func (s *ActivityService) Record(ctx context.Context, userID, username string, action model.Action, details, bugID string) {
	entry := &model.ActivityEntry{
		UserID:   userID,
		Username: username,
		Action:   action,
		Details:  details,
		BugID:    bugID,
	}
	if entry.Username == "" {
		entry.Username = systemActor
	}
	if err := s.recorder.Append(ctx, entry); err != nil {
		s.logger.Error("failed to record activity",
			slog.String("action", string(action)),
			slog.String("error", err.Error()))
	}
}

// Recent returns the newest entries, at most limit of them.
func (s *ActivityService) Recent(ctx context.Context, limit int) ([]model.ActivityEntry, error) {
	return s.recorder.List(ctx, limit)
}

// ForBug returns the full trail of one bug, newest first.
func (s *ActivityService) ForBug(ctx context.Context, bugID string) ([]model.ActivityEntry, error) {
	return s.recorder.ListByBug(ctx, bugID)
}

// ForUser returns one user's trail, newest first.
func (s *ActivityService) ForUser(ctx context.Context, userID string, limit int) ([]model.ActivityEntry, error) {
	return s.recorder.ListByUser(ctx, userID, limit)
}
