package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/bugtracker/internal/apperror"
	"github.com/sakif/bugtracker/internal/model"
)

func TestUserCreateAssignsID(t *testing.T) {
	db := newTestDB(t)

	user := createTestUser(t, db, "alice")
	if user.ID == "" {
		t.Error("CreateUser() did not set user.ID")
	}
	if !user.Active {
		t.Error("CreateUser() should mark the user active")
	}
}

func TestUserCreateDuplicateUsername(t *testing.T) {
	db := newTestDB(t)

	createTestUser(t, db, "taken")

	dup := &model.User{
		Username:     "taken",
		Email:        "other@example.com",
		PasswordHash: "h",
		Role:         model.RoleTester,
	}
	err := db.CreateUser(context.Background(), dup)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateUser() duplicate = %v, want ErrConflict", err)
	}
}

func TestUserLookupsAreCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created := createTestUser(t, db, "bob")

	byName, err := db.GetUserByUsername(ctx, "BOB")
	if err != nil {
		t.Fatalf("GetUserByUsername(BOB) error = %v", err)
	}
	if byName.ID != created.ID {
		t.Errorf("by username: ID = %q, want %q", byName.ID, created.ID)
	}

	byEmail, err := db.GetUserByEmail(ctx, "Bob@Example.COM")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if byEmail.ID != created.ID {
		t.Errorf("by email: ID = %q, want %q", byEmail.ID, created.ID)
	}
}

func TestUserGetByIDNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByID(context.Background(), "424242")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() = %v, want ErrNotFound", err)
	}
}

func TestUserRoleRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := &model.User{
		Username:     "boss",
		Email:        "boss@example.com",
		PasswordHash: "h",
		FullName:     "The Boss",
		Role:         model.RoleManager,
	}
	if err := db.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	got, err := db.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Role != model.RoleManager {
		t.Errorf("Role = %q, want %q", got.Role, model.RoleManager)
	}
}

func TestUpdateLastLogin(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, "loginner")
	if user.LastLoginAt != nil {
		t.Fatal("fresh user should have no last login")
	}

	at := time.Date(2025, 6, 1, 12, 30, 0, 0, time.Local)
	if err := db.UpdateLastLogin(ctx, user.ID, at); err != nil {
		t.Fatalf("UpdateLastLogin() error = %v", err)
	}

	got, err := db.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.LastLoginAt == nil {
		t.Fatal("LastLoginAt should be set after UpdateLastLogin")
	}
	if !got.LastLoginAt.Equal(at) {
		t.Errorf("LastLoginAt = %v, want %v", got.LastLoginAt, at)
	}
}

func TestUserUpdatePersistsFields(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, "mutable")
	user.FullName = "Renamed Person"
	user.Role = model.RoleAdmin
	if err := db.UpdateUser(ctx, user); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}

	got, err := db.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.FullName != "Renamed Person" {
		t.Errorf("FullName = %q, want %q", got.FullName, "Renamed Person")
	}
	if got.Role != model.RoleAdmin {
		t.Errorf("Role = %q, want %q", got.Role, model.RoleAdmin)
	}
}

func TestListUsers(t *testing.T) {
	db := newTestDB(t)

	createTestUser(t, db, "one")
	createTestUser(t, db, "two")

	users, err := db.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 2 {
		t.Errorf("ListUsers() = %d users, want 2", len(users))
	}
}
