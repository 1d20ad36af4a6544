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

var _ repository.BugRepository = (*DB)(nil)

// CreateBug inserts, reads back the generated row id, and re-selects
// the row to return a fully hydrated entity.
//
// WHY RE-READ AFTER INSERT?
// The INSERT only carries the fields this schema stores. Re-reading
// guarantees the caller's struct reflects exactly what the database
// holds — column defaults included — instead of a half-constructed
// value that happens to look right.
func (db *DB) CreateBug(ctx context.Context, bug *model.Bug) error {
	if bug.CreatedAt.IsZero() {
		now := time.Now()
		bug.CreatedAt = now
		bug.UpdatedAt = now
	}

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO bugs (title, description, priority, status, assigned_to, created_by, created_date, updated_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		bug.Title,
		bug.Description,
		string(bug.Priority),
		string(bug.Status),
		bug.AssignedTo,
		atoiOrZero(bug.ReportedBy),
		fmtTime(bug.CreatedAt),
		fmtTime(bug.UpdatedAt),
	)
	if err != nil {
		return apperror.Storage("creating bug", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return apperror.Storage("reading generated bug id", err)
	}

	stored, err := db.GetBugByID(ctx, strconv.FormatInt(id, 10))
	if err != nil {
		return err
	}
	*bug = *stored
	return nil
}

// UpdateBug replaces title, description, priority, status and assignee,
// and stamps updated_date. Returns ErrNotFound when no row matched —
// the original returned false and callers ignored it at their peril.
func (db *DB) UpdateBug(ctx context.Context, bug *model.Bug) error {
	bug.UpdatedAt = time.Now()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE bugs SET title = ?, description = ?, priority = ?, status = ?, assigned_to = ?, updated_date = ?
		 WHERE id = ?`,
		bug.Title,
		bug.Description,
		string(bug.Priority),
		string(bug.Status),
		bug.AssignedTo,
		fmtTime(bug.UpdatedAt),
		bug.ID,
	)
	if err != nil {
		return apperror.Storage("updating bug "+bug.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return apperror.Storage("checking rows affected", err)
	}
	if affected == 0 {
		return apperror.NotFound("bug", bug.ID)
	}
	return nil
}

func (db *DB) DeleteBug(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM bugs WHERE id = ?`, id)
	if err != nil {
		return apperror.Storage("deleting bug "+id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperror.Storage("checking rows affected", err)
	}
	if affected == 0 {
		return apperror.NotFound("bug", id)
	}
	return nil
}

const bugColumns = `id, title, description, priority, status, assigned_to, created_by, created_date, updated_date`

func (db *DB) GetBugByID(ctx context.Context, id string) (*model.Bug, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+bugColumns+` FROM bugs WHERE id = ?`, id)
	b, err := scanBug(row)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("bug", id)
	}
	if err != nil {
		return nil, apperror.Storage("getting bug "+id, err)
	}
	return b, nil
}

func (db *DB) ListBugs(ctx context.Context) ([]model.Bug, error) {
	return db.queryBugs(ctx,
		`SELECT `+bugColumns+` FROM bugs ORDER BY id DESC`)
}

func (db *DB) FilterByStatus(ctx context.Context, status model.Status) ([]model.Bug, error) {
	return db.queryBugs(ctx,
		`SELECT `+bugColumns+` FROM bugs WHERE status = ? ORDER BY id DESC`,
		string(status))
}

func (db *DB) FilterByPriority(ctx context.Context, priority model.Priority) ([]model.Bug, error) {
	return db.queryBugs(ctx,
		`SELECT `+bugColumns+` FROM bugs WHERE priority = ? ORDER BY id DESC`,
		string(priority))
}

// SearchBugs matches a case-insensitive substring of title or
// description.
func (db *DB) SearchBugs(ctx context.Context, query string) ([]model.Bug, error) {
	pattern := "%" + query + "%"
	return db.queryBugs(ctx,
		`SELECT `+bugColumns+` FROM bugs
		 WHERE title LIKE ? COLLATE NOCASE OR description LIKE ? COLLATE NOCASE
		 ORDER BY id DESC`,
		pattern, pattern)
}

// queryBugs runs a multi-row bug query and scans every row into a
// freshly constructed entity.
func (db *DB) queryBugs(ctx context.Context, query string, args ...any) ([]model.Bug, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperror.Storage("querying bugs", err)
	}
	defer rows.Close()

	var bugs []model.Bug
	for rows.Next() {
		b, err := scanBug(rows)
		if err != nil {
			return nil, apperror.Storage("scanning bug row", err)
		}
		bugs = append(bugs, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Storage("iterating bugs", err)
	}
	return bugs, nil
}

// scanBug hydrates a bug by scanning straight into exported struct
// fields — no constructor bypass, no reflection, unlike the original's
// private-field injection.
//
// Fields this schema does not persist (severity, tags, comments,
// resolvedAt) come back as zero values; that is this backend's
// documented field set, not data loss.
func scanBug(s scanner) (*model.Bug, error) {
	var (
		id, createdBy           int64
		priorityStr, statusStr  string
		createdStr, updatedStr  string
		title, desc, assignedTo string
	)
	if err := s.Scan(&id, &title, &desc, &priorityStr, &statusStr, &assignedTo, &createdBy, &createdStr, &updatedStr); err != nil {
		return nil, err
	}

	priority, err := model.ParsePriority(priorityStr)
	if err != nil {
		return nil, err
	}
	status, err := model.ParseStatus(statusStr)
	if err != nil {
		return nil, err
	}
	created, err := parseTime(createdStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_date: %w", err)
	}
	updated, err := parseTime(updatedStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_date: %w", err)
	}

	return &model.Bug{
		ID:          strconv.FormatInt(id, 10),
		Title:       title,
		Description: desc,
		Priority:    priority,
		Status:      status,
		AssignedTo:  assignedTo,
		ReportedBy:  strconv.FormatInt(createdBy, 10),
		CreatedAt:   created,
		UpdatedAt:   updated,
	}, nil
}

// atoiOrZero parses this backend's decimal-text IDs back to the
// integer column type; anything unparseable becomes 0, the schema's
// "no user" value.
func atoiOrZero(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
