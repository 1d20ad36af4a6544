package sqlite

import (
	"context"
	"strconv"
	"time"

	"github.com/sakif/bugtracker/internal/apperror"
	"github.com/sakif/bugtracker/internal/model"
	"github.com/sakif/bugtracker/internal/repository"
)

// Auxiliary tables: comments, time_logs, tags/bug_tags, attachments.
// This backend stores comments in their own table rather than inside
// the bug row, which is why the bug read path does not carry them.

var (
	_ repository.CommentStore = (*DB)(nil)
	_ repository.TimeLogger   = (*DB)(nil)
)

// AddComment inserts a comment row keyed to the bug.
func (db *DB) AddComment(ctx context.Context, c *model.Comment) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO comments (bug_id, user_id, username, comment_text, created_date)
		 VALUES (?, ?, ?, ?, ?)`,
		atoiOrZero(c.BugID),
		atoiOrZero(c.UserID),
		c.Username,
		c.Content,
		fmtTime(c.CreatedAt),
	)
	if err != nil {
		return apperror.Storage("adding comment", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return apperror.Storage("reading generated comment id", err)
	}
	c.ID = strconv.FormatInt(id, 10)
	return nil
}

func (db *DB) ListCommentsForBug(ctx context.Context, bugID string) ([]model.Comment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, bug_id, user_id, username, comment_text, created_date
		 FROM comments WHERE bug_id = ? ORDER BY id`,
		atoiOrZero(bugID))
	if err != nil {
		return nil, apperror.Storage("listing comments", err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		var (
			id, bid, uid  int64
			username, txt string
			createdStr    string
		)
		if err := rows.Scan(&id, &bid, &uid, &username, &txt, &createdStr); err != nil {
			return nil, apperror.Storage("scanning comment row", err)
		}
		created, err := parseTime(createdStr)
		if err != nil {
			return nil, apperror.Storage("parsing comment date", err)
		}
		comments = append(comments, model.Comment{
			ID:        strconv.FormatInt(id, 10),
			BugID:     strconv.FormatInt(bid, 10),
			UserID:    strconv.FormatInt(uid, 10),
			Username:  username,
			Content:   txt,
			CreatedAt: created,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Storage("iterating comments", err)
	}
	return comments, nil
}

// AddTimeLog records hours spent against a bug (the fix flow writes
// one when hours were reported).
func (db *DB) AddTimeLog(ctx context.Context, tl *model.TimeLog) error {
	if tl.LoggedAt.IsZero() {
		tl.LoggedAt = time.Now()
	}
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO time_logs (bug_id, user_id, username, hours_spent, description, log_date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		atoiOrZero(tl.BugID),
		atoiOrZero(tl.UserID),
		tl.Username,
		tl.HoursSpent,
		tl.Description,
		fmtTime(tl.LoggedAt),
	)
	if err != nil {
		return apperror.Storage("adding time log", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return apperror.Storage("reading generated time log id", err)
	}
	tl.ID = strconv.FormatInt(id, 10)
	return nil
}

func (db *DB) ListTimeLogsForBug(ctx context.Context, bugID string) ([]model.TimeLog, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, bug_id, user_id, username, hours_spent, description, log_date
		 FROM time_logs WHERE bug_id = ? ORDER BY id`,
		atoiOrZero(bugID))
	if err != nil {
		return nil, apperror.Storage("listing time logs", err)
	}
	defer rows.Close()

	var logs []model.TimeLog
	for rows.Next() {
		var (
			id, bid, uid int64
			username     string
			hours        float64
			desc         string
			loggedStr    string
		)
		if err := rows.Scan(&id, &bid, &uid, &username, &hours, &desc, &loggedStr); err != nil {
			return nil, apperror.Storage("scanning time log row", err)
		}
		logged, err := parseTime(loggedStr)
		if err != nil {
			return nil, apperror.Storage("parsing time log date", err)
		}
		logs = append(logs, model.TimeLog{
			ID:          strconv.FormatInt(id, 10),
			BugID:       strconv.FormatInt(bid, 10),
			UserID:      strconv.FormatInt(uid, 10),
			Username:    username,
			HoursSpent:  hours,
			Description: desc,
			LoggedAt:    logged,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Storage("iterating time logs", err)
	}
	return logs, nil
}

// CreateTag inserts a named label; the name is unique.
func (db *DB) CreateTag(ctx context.Context, tag *model.Tag) error {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO tags (name, color) VALUES (?, ?)`,
		tag.Name, tag.Color)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Duplicate("tag", tag.Name)
		}
		return apperror.Storage("creating tag", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return apperror.Storage("reading generated tag id", err)
	}
	tag.ID = strconv.FormatInt(id, 10)
	return nil
}

// TagBug links a tag to a bug through the bug_tags junction table.
// Re-tagging is a no-op thanks to the composite primary key.
func (db *DB) TagBug(ctx context.Context, bugID, tagID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO bug_tags (bug_id, tag_id) VALUES (?, ?)`,
		atoiOrZero(bugID), atoiOrZero(tagID))
	if err != nil {
		return apperror.Storage("tagging bug "+bugID, err)
	}
	return nil
}

func (db *DB) ListTagsForBug(ctx context.Context, bugID string) ([]model.Tag, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT t.id, t.name, t.color
		 FROM tags t JOIN bug_tags bt ON bt.tag_id = t.id
		 WHERE bt.bug_id = ? ORDER BY t.name`,
		atoiOrZero(bugID))
	if err != nil {
		return nil, apperror.Storage("listing tags for bug", err)
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		var (
			id          int64
			name, color string
		)
		if err := rows.Scan(&id, &name, &color); err != nil {
			return nil, apperror.Storage("scanning tag row", err)
		}
		tags = append(tags, model.Tag{
			ID:    strconv.FormatInt(id, 10),
			Name:  name,
			Color: color,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Storage("iterating tags", err)
	}
	return tags, nil
}

// AddAttachment records file metadata for a bug; the bytes themselves
// live on disk at FilePath.
func (db *DB) AddAttachment(ctx context.Context, a *model.Attachment) error {
	if a.UploadedAt.IsZero() {
		a.UploadedAt = time.Now()
	}
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO attachments (bug_id, file_name, file_path, file_size, uploaded_by, upload_date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		atoiOrZero(a.BugID),
		a.FileName,
		a.FilePath,
		a.FileSize,
		a.UploadedBy,
		fmtTime(a.UploadedAt),
	)
	if err != nil {
		return apperror.Storage("adding attachment", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return apperror.Storage("reading generated attachment id", err)
	}
	a.ID = strconv.FormatInt(id, 10)
	return nil
}

func (db *DB) ListAttachmentsForBug(ctx context.Context, bugID string) ([]model.Attachment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, bug_id, file_name, file_path, file_size, uploaded_by, upload_date
		 FROM attachments WHERE bug_id = ? ORDER BY id`,
		atoiOrZero(bugID))
	if err != nil {
		return nil, apperror.Storage("listing attachments", err)
	}
	defer rows.Close()

	var attachments []model.Attachment
	for rows.Next() {
		var (
			id, bid, size        int64
			name, path, uploader string
			uploadedStr          string
		)
		if err := rows.Scan(&id, &bid, &name, &path, &size, &uploader, &uploadedStr); err != nil {
			return nil, apperror.Storage("scanning attachment row", err)
		}
		uploaded, err := parseTime(uploadedStr)
		if err != nil {
			return nil, apperror.Storage("parsing attachment date", err)
		}
		attachments = append(attachments, model.Attachment{
			ID:         strconv.FormatInt(id, 10),
			BugID:      strconv.FormatInt(bid, 10),
			FileName:   name,
			FilePath:   path,
			FileSize:   size,
			UploadedBy: uploader,
			UploadedAt: uploaded,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Storage("iterating attachments", err)
	}
	return attachments, nil
}
