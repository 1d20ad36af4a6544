package sqlite

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/bugtracker/internal/apperror"
	"github.com/sakif/bugtracker/internal/model"
	"github.com/sakif/bugtracker/internal/repository"
)

var _ repository.ActivityRecorder = (*DB)(nil)

// defaultActivityLimit caps unbounded listings, matching the
// original's LIMIT 100 on the all-activities view.
const defaultActivityLimit = 100

// Append inserts one audit entry. There is no update or delete path
// for activity_logs anywhere in this package — the table is
// append-only by construction.
func (db *DB) Append(ctx context.Context, entry *model.ActivityEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO activity_logs (user_id, username, action, details, bug_id, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		atoiOrZero(entry.UserID),
		entry.Username,
		string(entry.Action),
		entry.Details,
		atoiOrZero(entry.BugID),
		fmtTime(entry.Timestamp),
	)
	if err != nil {
		return apperror.Storage("appending activity entry", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return apperror.Storage("reading generated activity id", err)
	}
	entry.ID = strconv.FormatInt(id, 10)
	return nil
}

func (db *DB) List(ctx context.Context, limit int) ([]model.ActivityEntry, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	return db.queryActivities(ctx,
		`SELECT id, user_id, username, action, details, bug_id, timestamp
		 FROM activity_logs ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
}

func (db *DB) ListByBug(ctx context.Context, bugID string) ([]model.ActivityEntry, error) {
	return db.queryActivities(ctx,
		`SELECT id, user_id, username, action, details, bug_id, timestamp
		 FROM activity_logs WHERE bug_id = ? ORDER BY timestamp DESC, id DESC`,
		atoiOrZero(bugID))
}

func (db *DB) ListByUser(ctx context.Context, userID string, limit int) ([]model.ActivityEntry, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	return db.queryActivities(ctx,
		`SELECT id, user_id, username, action, details, bug_id, timestamp
		 FROM activity_logs WHERE user_id = ? ORDER BY timestamp DESC, id DESC LIMIT ?`,
		atoiOrZero(userID), limit)
}

func (db *DB) queryActivities(ctx context.Context, query string, args ...any) ([]model.ActivityEntry, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperror.Storage("querying activity log", err)
	}
	defer rows.Close()

	var entries []model.ActivityEntry
	for rows.Next() {
		var (
			id, userID, bugID int64
			username, details string
			actionStr, tsStr  string
		)
		if err := rows.Scan(&id, &userID, &username, &actionStr, &details, &bugID, &tsStr); err != nil {
			return nil, apperror.Storage("scanning activity row", err)
		}
		ts, err := parseTime(tsStr)
		if err != nil {
			return nil, apperror.Storage("parsing activity timestamp", fmt.Errorf("%q: %w", tsStr, err))
		}

		e := model.ActivityEntry{
			ID:        strconv.FormatInt(id, 10),
			UserID:    strconv.FormatInt(userID, 10),
			Username:  username,
			Action:    model.Action(actionStr),
			Details:   details,
			Timestamp: ts,
		}
		if bugID != 0 {
			e.BugID = strconv.FormatInt(bugID, 10)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Storage("iterating activity log", err)
	}
	return entries, nil
}
