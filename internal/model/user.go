// Package model defines the data structures used throughout the application.
package model

import (
	"strings"
	"time"

	"github.com/sakif/bugtracker/internal/apperror"
)

// Role is a user's role in the tracker. Authorization is flat role
// equality — there is no hierarchy where Admin implies Manager.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleManager   Role = "MANAGER"
	RoleDeveloper Role = "DEVELOPER"
	RoleTester    Role = "TESTER"
	RoleViewer    Role = "VIEWER"
)

// ParseRole converts a stored or user-supplied string into a Role.
//
// CLOSED ENUMERATION:
// Anything outside the five known roles is an error, never a silent
// default. The legacy database fell back to DEVELOPER for bad values;
// we surface ErrInvalidEnum instead so corruption is visible.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleManager:
		return RoleManager, nil
	case RoleDeveloper:
		return RoleDeveloper, nil
	case RoleTester:
		return RoleTester, nil
	case RoleViewer:
		return RoleViewer, nil
	}
	return "", apperror.InvalidEnum("role", s)
}

// User represents a registered account.
//
// WHY ID string (not int)?
// The two storage backends use incompatible identifier spaces: the
// snapshot store assigns UUIDs, the relational store uses the driver's
// auto-increment row id rendered as decimal text. A string ID is the
// only type that can carry both without unifying them.
//
// WHY LastLoginAt *time.Time?
// "Never logged in" is a real state that must round-trip through both
// backends. A nil pointer is distinguishable from the zero time after a
// JSON or SQL round trip; time.Time's zero value is not reliably so.
type User struct {
	ID           string     `json:"id"         db:"id"`
	Username     string     `json:"username"   db:"username"` // unique, case-insensitive
	Email        string     `json:"email"      db:"email"`    // unique, case-insensitive
	PasswordHash string     `json:"-"          db:"password_hash"`
	FullName     string     `json:"fullName"   db:"full_name"`
	Role         Role       `json:"role"       db:"user_type"`
	Department   string     `json:"department,omitempty" db:"department"`
	Active       bool       `json:"active"     db:"active"`
	CreatedAt    time.Time  `json:"createdAt"  db:"created_date"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty" db:"last_login_date"`
}

// DisplayName returns the full name, falling back to the username when
// the profile has no full name set.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
