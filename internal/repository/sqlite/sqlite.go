// Package sqlite implements the repository interfaces on an embedded
// SQLite database.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of the SQLite C code — no CGo, no C
// compiler, cross-compiles everywhere Go does. database/sql gives us
// the pooled-handle discipline the original lacked: the legacy code
// shared one unguarded JDBC connection across the whole process, while
// sql.DB checks a connection out per call and returns it on Close.
//
// DATE COLUMNS:
// Every date column is formatted text ("2006-01-02 15:04:05"), not a
// native temporal type. That is the on-disk format the original
// application wrote, and databases it created must keep working, so we
// read and write the same layout.
package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// timeLayout matches the original's yyyy-MM-dd HH:mm:ss formatter.
const timeLayout = "2006-01-02 15:04:05"

func fmtTime(t time.Time) string {
	return t.Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.ParseInLocation(timeLayout, s, time.Local)
}

// DB wraps the connection pool and implements the repository
// interfaces declared in internal/repository.
type DB struct {
	conn   *sql.DB
	logger *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// New opens (or creates) the database at path and migrates the schema.
// Use ":memory:" in tests for a throwaway database.
func New(path string, logger *slog.Logger) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Force an immediate connection so a bad path fails here, not on
	// the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight; foreign keys
	// are off by default in SQLite and we rely on them.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn, logger: logger}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return db, nil
}

// Close releases the pool. Idempotent — safe to call twice or from
// both a defer and a shutdown path.
func (db *DB) Close() error {
	db.closeOnce.Do(func() {
		db.closeErr = db.conn.Close()
	})
	return db.closeErr
}

// migrate creates every table if absent, then applies the one additive
// migration the schema has ever needed.
//
// NO VERSION TABLE:
// There is none, so there is no record of which migrations ran. Any
// future schema change must either follow the same probe-then-alter
// pattern (check pragma_table_info, ALTER TABLE ADD COLUMN with a
// DEFAULT) or finally introduce a proper version table. CREATE TABLE IF
// NOT EXISTS makes the whole function idempotent — running it twice is
// a no-op the second time and never drops rows.
func (db *DB) migrate() error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id              INTEGER PRIMARY KEY AUTOINCREMENT,
				username        TEXT UNIQUE NOT NULL,
				email           TEXT UNIQUE NOT NULL,
				password_hash   TEXT NOT NULL,
				full_name       TEXT NOT NULL,
				user_type       TEXT NOT NULL DEFAULT 'DEVELOPER',
				created_date    TEXT NOT NULL,
				last_login_date TEXT
			)`},
		{"bugs", `
			CREATE TABLE IF NOT EXISTS bugs (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				title        TEXT NOT NULL,
				description  TEXT NOT NULL,
				priority     TEXT NOT NULL,
				status       TEXT NOT NULL,
				assigned_to  TEXT NOT NULL DEFAULT '',
				created_by   INTEGER NOT NULL,
				created_date TEXT NOT NULL,
				updated_date TEXT NOT NULL,
				FOREIGN KEY (created_by) REFERENCES users(id)
			)`},
		{"activity_logs", `
			CREATE TABLE IF NOT EXISTS activity_logs (
				id        INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id   INTEGER NOT NULL,
				username  TEXT NOT NULL,
				action    TEXT NOT NULL,
				details   TEXT NOT NULL,
				bug_id    INTEGER,
				timestamp TEXT NOT NULL
			)`},
		{"tags", `
			CREATE TABLE IF NOT EXISTS tags (
				id    INTEGER PRIMARY KEY AUTOINCREMENT,
				name  TEXT UNIQUE NOT NULL,
				color TEXT NOT NULL
			)`},
		{"bug_tags", `
			CREATE TABLE IF NOT EXISTS bug_tags (
				bug_id INTEGER NOT NULL,
				tag_id INTEGER NOT NULL,
				PRIMARY KEY (bug_id, tag_id),
				FOREIGN KEY (bug_id) REFERENCES bugs(id),
				FOREIGN KEY (tag_id) REFERENCES tags(id)
			)`},
		{"attachments", `
			CREATE TABLE IF NOT EXISTS attachments (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				bug_id      INTEGER NOT NULL,
				file_name   TEXT NOT NULL,
				file_path   TEXT NOT NULL,
				file_size   INTEGER NOT NULL,
				uploaded_by TEXT NOT NULL,
				upload_date TEXT NOT NULL,
				FOREIGN KEY (bug_id) REFERENCES bugs(id)
			)`},
		{"time_logs", `
			CREATE TABLE IF NOT EXISTS time_logs (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				bug_id      INTEGER NOT NULL,
				user_id     INTEGER NOT NULL,
				username    TEXT NOT NULL,
				hours_spent REAL NOT NULL,
				description TEXT,
				log_date    TEXT NOT NULL,
				FOREIGN KEY (bug_id) REFERENCES bugs(id)
			)`},
		{"comments", `
			CREATE TABLE IF NOT EXISTS comments (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				bug_id       INTEGER NOT NULL,
				user_id      INTEGER NOT NULL,
				username     TEXT NOT NULL,
				comment_text TEXT NOT NULL,
				created_date TEXT NOT NULL,
				FOREIGN KEY (bug_id) REFERENCES bugs(id)
			)`},
	}

	for _, s := range stmts {
		if _, err := db.conn.Exec(s.sql); err != nil {
			return fmt.Errorf("creating %s table: %w", s.name, err)
		}
	}

	// Databases created before roles existed lack users.user_type.
	// Probe and add it with the same default the original used.
	if err := db.addColumnIfNotExists("users", "user_type",
		"TEXT NOT NULL DEFAULT 'DEVELOPER'"); err != nil {
		return fmt.Errorf("adding user_type to users: %w", err)
	}

	return nil
}

// addColumnIfNotExists makes an ALTER TABLE migration idempotent:
// SQLite errors on adding an existing column, so check
// pragma_table_info first.
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil // column already exists
	}
	_, err = db.conn.Exec(fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// The driver exposes no typed error for this, so we match the message
// SQLite has printed for it since forever.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
