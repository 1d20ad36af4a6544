package snapshot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/bugtracker/internal/apperror"
	"github.com/sakif/bugtracker/internal/model"
)

// NextBugID returns the next human-readable sequential code, e.g.
// BUG-00001. The sequence only moves forward — it is seeded from the
// highest code on disk at load and never reused, so deleting bugs
// cannot cause a later collision.
func (s *Store) NextBugID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextBugIDLocked()
}

func (s *Store) nextBugIDLocked() string {
	s.nextSeq++
	return fmt.Sprintf("BUG-%05d", s.nextSeq)
}

// CreateBug persists a new bug, assigning a sequential code when the
// caller did not bring an ID.
func (s *Store) CreateBug(ctx context.Context, bug *model.Bug) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if bug.ID == "" {
		bug.ID = s.nextBugIDLocked()
	}
	if bug.CreatedAt.IsZero() {
		now := time.Now()
		bug.CreatedAt = now
		bug.UpdatedAt = now
	}

	s.bugs = append(s.bugs, copyBug(*bug))
	s.saveBugs()
	return nil
}

// UpdateBug replaces the stored bug matching on ID; a miss is a silent
// no-op, same as UpdateUser.
func (s *Store) UpdateBug(ctx context.Context, bug *model.Bug) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.bugs {
		if s.bugs[i].ID == bug.ID {
			s.bugs[i] = copyBug(*bug)
			s.saveBugs()
			return nil
		}
	}
	return nil
}

func (s *Store) DeleteBug(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.bugs {
		if s.bugs[i].ID == id {
			s.bugs = append(s.bugs[:i], s.bugs[i+1:]...)
			s.saveBugs()
			return nil
		}
	}
	return apperror.NotFound("bug", id)
}

func (s *Store) GetBugByID(ctx context.Context, id string) (*model.Bug, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.bugs {
		if s.bugs[i].ID == id {
			b := copyBug(s.bugs[i])
			return &b, nil
		}
	}
	return nil, apperror.NotFound("bug", id)
}

func (s *Store) ListBugs(ctx context.Context) ([]model.Bug, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyAllLocked(func(model.Bug) bool { return true }), nil
}

func (s *Store) FilterByStatus(ctx context.Context, status model.Status) ([]model.Bug, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyAllLocked(func(b model.Bug) bool { return b.Status == status }), nil
}

func (s *Store) FilterByPriority(ctx context.Context, priority model.Priority) ([]model.Bug, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyAllLocked(func(b model.Bug) bool { return b.Priority == priority }), nil
}

// SearchBugs matches a case-insensitive substring of title,
// description, or the bug code itself.
func (s *Store) SearchBugs(ctx context.Context, query string) ([]model.Bug, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(query)
	return s.copyAllLocked(func(b model.Bug) bool {
		return strings.Contains(strings.ToLower(b.Title), q) ||
			strings.Contains(strings.ToLower(b.Description), q) ||
			strings.Contains(strings.ToLower(b.ID), q)
	}), nil
}

// copyAllLocked returns deep copies of every bug the predicate keeps.
// Caller must hold s.mu.
func (s *Store) copyAllLocked(keep func(model.Bug) bool) []model.Bug {
	out := make([]model.Bug, 0, len(s.bugs))
	for i := range s.bugs {
		if keep(s.bugs[i]) {
			out = append(out, copyBug(s.bugs[i]))
		}
	}
	return out
}

// copyBug deep-copies a bug: Tags and Comments are slices and
// ResolvedAt is a pointer, so a plain struct copy would alias them.
func copyBug(b model.Bug) model.Bug {
	if b.Tags != nil {
		b.Tags = append([]string(nil), b.Tags...)
	}
	if b.Comments != nil {
		b.Comments = append([]model.Comment(nil), b.Comments...)
	}
	if b.ResolvedAt != nil {
		t := *b.ResolvedAt
		b.ResolvedAt = &t
	}
	return b
}
