package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/bugtracker/internal/apperror"
	"github.com/sakif/bugtracker/internal/auth"
	"github.com/sakif/bugtracker/internal/model"
	"github.com/sakif/bugtracker/internal/repository"
)

const minPasswordLength = 6

// Session is an authenticated user's state for the duration of a
// login.
//
// WHY AN EXPLICIT SESSION OBJECT?
// A mutable "current user" singleton makes every caller implicitly
// stateful and untestable. Carrying the session as a value means the
// authenticated identity is always visible in the signature of the
// code that needs it.
type Session struct {
	ID      string
	User    model.User
	LoginAt time.Time
}

// HasRole reports whether the session user holds any of the given
// roles.
func (s *Session) HasRole(roles ...model.Role) bool {
	for _, r := range roles {
		if s.User.Role == r {
			return true
		}
	}
	return false
}

func (s *Session) IsAdmin() bool {
	return s.User.Role == model.RoleAdmin
}

// AuthService registers users and manages login sessions.
type AuthService struct {
	users    repository.UserRepository
	hasher   auth.Hasher
	activity *ActivityService
	logger   *slog.Logger
}

func NewAuthService(users repository.UserRepository, hasher auth.Hasher, activity *ActivityService, logger *slog.Logger) *AuthService {
	return &AuthService{users: users, hasher: hasher, activity: activity, logger: logger}
}

// RegisterInput carries the fields of a self-registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
	Role     model.Role
}

// Register creates a new account. Username and email must be unused;
// both checks are case-insensitive so "Admin" cannot shadow "admin".
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)

	if in.Username == "" {
		return nil, apperror.ValidationFailed("username", "must not be empty")
	}
	if in.Email == "" {
		return nil, apperror.ValidationFailed("email", "must not be empty")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if in.Role == "" {
		in.Role = model.RoleDeveloper
	}

	if existing, err := s.users.GetUserByUsername(ctx, in.Username); err == nil && existing != nil {
		return nil, apperror.Duplicate("username", in.Username)
	} else if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}
	if existing, err := s.users.GetUserByEmail(ctx, in.Email); err == nil && existing != nil {
		return nil, apperror.Duplicate("email", in.Email)
	} else if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     in.FullName,
		Role:         in.Role,
		Active:       true,
		CreatedAt:    time.Now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.activity.Record(ctx, user.ID, systemActor, model.ActionUserRegistered,
		"New user registered: "+user.Username, "")
	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username))
	return user, nil
}

// Login verifies credentials and opens a session.
//
// Unknown username, deactivated account and wrong password all come
// back as the same ErrUnauthorized so the response does not leak which
// usernames exist.
func (s *AuthService) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid credentials")
		}
		return nil, err
	}
	if !user.Active {
		return nil, apperror.Unauthorized("invalid credentials")
	}
	if err := s.hasher.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperror.Unauthorized("invalid credentials")
		}
		return nil, err
	}

	now := time.Now()
	user.LastLoginAt = &now
	s.touchLastLogin(ctx, user, now)

	session := &Session{
		ID:      xid.New().String(),
		User:    *user,
		LoginAt: now,
	}
	s.activity.Record(ctx, user.ID, user.Username, model.ActionUserLogin,
		"User logged in", "")
	s.logger.Info("user logged in",
		slog.String("userID", user.ID),
		slog.String("username", user.Username))
	return session, nil
}

// touchLastLogin persists the login timestamp. The relational backend
// has a dedicated narrow update for it; the snapshot backend rewrites
// the whole user.
func (s *AuthService) touchLastLogin(ctx context.Context, user *model.User, at time.Time) {
	type lastLoginUpdater interface {
		UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	}
	var err error
	if upd, ok := s.users.(lastLoginUpdater); ok {
		err = upd.UpdateLastLogin(ctx, user.ID, at)
	} else {
		err = s.users.UpdateUser(ctx, user)
	}
	if err != nil {
		s.logger.Error("failed to persist last login",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()))
	}
}

// Logout closes the session. The only durable effect is the audit
// entry; token invalidation happens at the cookie layer.
func (s *AuthService) Logout(ctx context.Context, session *Session) {
	if session == nil {
		return
	}
	s.activity.Record(ctx, session.User.ID, session.User.Username, model.ActionUserLogout,
		"User logged out", "")
	s.logger.Info("user logged out", slog.String("username", session.User.Username))
}

// ChangePassword replaces the caller's own password after verifying
// the old one.
func (s *AuthService) ChangePassword(ctx context.Context, session *Session, oldPassword, newPassword string) error {
	if session == nil {
		return apperror.Unauthorized("not logged in")
	}
	if len(newPassword) < minPasswordLength {
		return apperror.ValidationFailed("password",
			fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}

	user, err := s.users.GetUserByID(ctx, session.User.ID)
	if err != nil {
		return err
	}
	if err := s.hasher.Verify(user.PasswordHash, oldPassword); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return apperror.Unauthorized("current password is incorrect")
		}
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return err
	}
	session.User.PasswordHash = hash
	return nil
}

// GetUser looks up a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.users.GetUserByID(ctx, id)
}

// ListUsers returns all accounts.
func (s *AuthService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users.ListUsers(ctx)
}

// DeleteUser removes an account, admin-only. Not every backend can; the
// relational store keeps users forever and reports ErrValidation.
func (s *AuthService) DeleteUser(ctx context.Context, session *Session, id string) error {
	if session == nil || !session.IsAdmin() {
		return apperror.Forbidden("only admins may delete users")
	}
	if session.User.ID == id {
		return apperror.ValidationFailed("id", "cannot delete your own account")
	}
	deleter, ok := s.users.(repository.UserDeleter)
	if !ok {
		return apperror.ValidationFailed("backend", "this storage backend does not support deleting users")
	}
	return deleter.DeleteUser(ctx, id)
}

// seedAccount describes one of the accounts Bootstrap creates on an
// empty store.
type seedAccount struct {
	username, password, email, fullName string
	role                                model.Role
}

var seedAccounts = []seedAccount{
	{"admin", "admin123", "admin@bugtracker.local", "System Administrator", model.RoleAdmin},
	{"manager", "manager123", "manager@bugtracker.local", "Project Manager", model.RoleManager},
	{"developer", "dev123", "developer@bugtracker.local", "Dev Eloper", model.RoleDeveloper},
	{"tester", "test123", "tester@bugtracker.local", "Quality Tester", model.RoleTester},
}

// Bootstrap seeds the default accounts, but only when the store is
// completely empty; a store with any user at all is left alone so
// deleted defaults stay deleted.
func (s *AuthService) Bootstrap(ctx context.Context) error {
	existing, err := s.users.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	for _, acct := range seedAccounts {
		hash, err := s.hasher.Hash(acct.password)
		if err != nil {
			return err
		}
		user := &model.User{
			Username:     acct.username,
			Email:        acct.email,
			PasswordHash: hash,
			FullName:     acct.fullName,
			Role:         acct.role,
			Active:       true,
			CreatedAt:    time.Now(),
		}
		if err := s.users.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("seeding account %s: %w", acct.username, err)
		}
	}
	s.logger.Info("seeded default accounts", slog.Int("count", len(seedAccounts)))
	return nil
}
