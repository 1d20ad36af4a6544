package snapshot

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/bugtracker/internal/apperror"
	"github.com/sakif/bugtracker/internal/model"
)

// CreateUser assigns a UUID (unless the caller brought one) and
// persists. Uniqueness of username/email is enforced one layer up by
// AuthService — this store is a dumb collection, same as the original.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	s.users = append(s.users, copyUser(*user))
	s.saveUsers()
	return nil
}

// UpdateUser replaces the stored user matching on ID.
//
// SILENT NO-OP:
// When no user matches, nothing happens and no error is returned. This
// is a documented edge case of the source, preserved deliberately —
// callers that need to distinguish should GetUserByID first.
func (s *Store) UpdateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].ID == user.ID {
			s.users[i] = copyUser(*user)
			s.saveUsers()
			return nil
		}
	}
	return nil
}

// DeleteUser removes a user by ID. Unlike UpdateUser, a miss is
// reported — the original returned a removed/not-removed boolean and
// callers acted on it.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].ID == id {
			s.users = append(s.users[:i], s.users[i+1:]...)
			s.saveUsers()
			return nil
		}
	}
	return apperror.NotFound("user", id)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].ID == id {
			u := copyUser(s.users[i])
			return &u, nil
		}
	}
	return nil, apperror.NotFound("user", id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if strings.EqualFold(s.users[i].Username, username) {
			u := copyUser(s.users[i])
			return &u, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if strings.EqualFold(s.users[i].Email, email) {
			u := copyUser(s.users[i])
			return &u, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

// ListUsers returns a defensive copy — callers mutating the returned
// slice cannot corrupt internal state without going through the
// mutating API.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.User, 0, len(s.users))
	for i := range s.users {
		out = append(out, copyUser(s.users[i]))
	}
	return out, nil
}

// copyUser deep-copies a user. LastLoginAt is a pointer, so a plain
// struct copy would alias the stored timestamp.
func copyUser(u model.User) model.User {
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		u.LastLoginAt = &t
	}
	return u
}
