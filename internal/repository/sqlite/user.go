package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/bugtracker/internal/apperror"
	"github.com/sakif/bugtracker/internal/model"
	"github.com/sakif/bugtracker/internal/repository"
)

// compile-time check: *DB implements the user contract. Note there is
// no DeleteUser — registration is append-only in this backend by
// design, so *DB deliberately does NOT implement repository.UserDeleter.
var _ repository.UserRepository = (*DB)(nil)

// CreateUser inserts and assigns the driver-generated row id (rendered
// as decimal text, this backend's identifier space).
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, full_name, user_type, created_date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FullName,
		string(user.Role),
		fmtTime(user.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Duplicate("username or email", user.Username)
		}
		return apperror.Storage("creating user", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return apperror.Storage("reading generated user id", err)
	}
	user.ID = strconv.FormatInt(id, 10)
	user.Active = true
	return nil
}

// UpdateUser replaces the mutable profile fields and the password hash.
// Username and the row id are immutable here; created_date is never
// rewritten.
func (db *DB) UpdateUser(ctx context.Context, user *model.User) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE users SET email = ?, password_hash = ?, full_name = ?, user_type = ?
		 WHERE id = ?`,
		user.Email,
		user.PasswordHash,
		user.FullName,
		string(user.Role),
		user.ID,
	)
	if err != nil {
		return apperror.Storage("updating user "+user.ID, err)
	}
	return nil
}

// UpdateLastLogin stamps last_login_date for the given user.
func (db *DB) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE users SET last_login_date = ? WHERE id = ?`,
		fmtTime(at), id,
	)
	if err != nil {
		return apperror.Storage("updating last login for user "+id, err)
	}
	return nil
}

const userColumns = `id, username, email, password_hash, full_name, user_type, created_date, last_login_date`

func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUser(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(username) = LOWER(?)`, username)
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER(?)`, email)
}

func (db *DB) getUser(ctx context.Context, query string, arg any) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx, query, arg)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("user", fmt.Sprint(arg))
	}
	if err != nil {
		return nil, apperror.Storage("getting user", err)
	}
	return u, nil
}

func (db *DB) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, apperror.Storage("listing users", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, apperror.Storage("scanning user row", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Storage("iterating users", err)
	}
	return users, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanUser builds a fully hydrated user from a row. Each call returns
// a freshly constructed entity — nothing here aliases shared state.
//
// This backend's schema has no active or department columns; users read
// from it are always active with no department, matching the original.
func scanUser(s scanner) (*model.User, error) {
	var (
		id                     int64
		roleStr, createdStr    string
		lastLogin              sql.NullString
		username, email        string
		passwordHash, fullName string
	)
	if err := s.Scan(&id, &username, &email, &passwordHash, &fullName, &roleStr, &createdStr, &lastLogin); err != nil {
		return nil, err
	}

	role, err := model.ParseRole(roleStr)
	if err != nil {
		// A bad stored role is data corruption, not a parse nicety —
		// surface it rather than defaulting like the legacy code did.
		return nil, err
	}

	created, err := parseTime(createdStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_date: %w", err)
	}

	u := &model.User{
		ID:           strconv.FormatInt(id, 10),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     fullName,
		Role:         role,
		Active:       true,
		CreatedAt:    created,
	}
	if lastLogin.Valid && lastLogin.String != "" {
		t, err := parseTime(lastLogin.String)
		if err != nil {
			return nil, fmt.Errorf("parsing last_login_date: %w", err)
		}
		u.LastLoginAt = &t
	}
	return u, nil
}
