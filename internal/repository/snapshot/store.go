// Package snapshot implements the repository interfaces with in-memory
// collections persisted as whole-file snapshots.
//
// THE SNAPSHOT STRATEGY:
// The full User and Bug collections live in memory. Every mutating
// operation rewrites the entire file for that entity type — there is no
// append format, no batching, and no transactional grouping across the
// two files. That sounds wasteful, and it is, but for collections in
// the low thousands a full JSON rewrite is a fraction of a millisecond
// and the recovery story is trivial: the file on disk is always a
// complete, self-contained snapshot.
//
// FAILURE SEMANTICS:
//   - load: a missing or unreadable file initializes that collection
//     empty; the error is logged, never raised.
//   - save: an I/O failure is logged and swallowed. Memory stays
//     authoritative for the rest of the process; divergence from disk
//     is possible and unreported beyond the log. Callers must not
//     assume persistence succeeded.
//
// CONCURRENCY:
// One mutex guards every load-mutate-save sequence as a single critical
// section. The full-collection-rewrite pattern is a lost-update hazard
// under concurrent writers, so nothing here runs outside the lock.
package snapshot

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/sakif/bugtracker/internal/model"
	"github.com/sakif/bugtracker/internal/repository"
)

const (
	usersFile = "users.json"
	bugsFile  = "bugs.json"
)

// compile-time checks that *Store implements the repository contracts,
// including the snapshot-only delete capability.
var (
	_ repository.UserRepository = (*Store)(nil)
	_ repository.UserDeleter    = (*Store)(nil)
	_ repository.BugRepository  = (*Store)(nil)
)

// Store holds both collections and the directory they snapshot into.
type Store struct {
	mu     sync.Mutex
	dir    string
	logger *slog.Logger

	users []model.User
	bugs  []model.Bug

	// nextSeq is the monotonic bug-code sequence. The original derived
	// the next code from len(bugs)+1, which collides after a deletion;
	// we seed from the highest code ever persisted instead. Deliberate
	// behavior change, recorded in DESIGN.md.
	nextSeq int
}

// Open creates the data directory if needed and loads both snapshot
// files. Load failures degrade to empty collections — a fresh system
// and a corrupt file look the same from here, apart from the log line.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot: creating data dir %s: %w", dir, err)
	}

	s := &Store{dir: dir, logger: logger}
	s.loadUsers()
	s.loadBugs()
	s.seedSequence()
	return s, nil
}

func (s *Store) loadUsers() {
	path := filepath.Join(s.dir, usersFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("snapshot: could not read users file, starting empty",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
		}
		s.users = nil
		return
	}
	if err := json.Unmarshal(data, &s.users); err != nil {
		s.logger.Warn("snapshot: users file is corrupt, starting empty",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		s.users = nil
	}
}

func (s *Store) loadBugs() {
	path := filepath.Join(s.dir, bugsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("snapshot: could not read bugs file, starting empty",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
		}
		s.bugs = nil
		return
	}
	if err := json.Unmarshal(data, &s.bugs); err != nil {
		s.logger.Warn("snapshot: bugs file is corrupt, starting empty",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		s.bugs = nil
	}
}

// seedSequence scans loaded bugs for the highest BUG-NNNNN code so the
// sequence continues past anything ever assigned, deletions included.
func (s *Store) seedSequence() {
	for _, b := range s.bugs {
		digits := strings.TrimPrefix(b.ID, "BUG-")
		if digits == b.ID {
			continue
		}
		// Atoi rather than a width-limited scan: codes past BUG-99999
		// grow a sixth digit and must still seed the sequence.
		if seq, err := strconv.Atoi(digits); err == nil && seq > s.nextSeq {
			s.nextSeq = seq
		}
	}
}

// saveUsers rewrites the full users file. Caller must hold s.mu.
func (s *Store) saveUsers() {
	s.writeFile(usersFile, s.users)
}

// saveBugs rewrites the full bugs file. Caller must hold s.mu.
func (s *Store) saveBugs() {
	s.writeFile(bugsFile, s.bugs)
}

func (s *Store) writeFile(name string, collection any) {
	path := filepath.Join(s.dir, name)
	data, err := json.MarshalIndent(collection, "", "  ")
	if err != nil {
		s.logger.Error("snapshot: marshal failed, on-disk state is now stale",
			slog.String("file", name),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.logger.Error("snapshot: write failed, on-disk state is now stale",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
}
