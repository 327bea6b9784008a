// Package manifest records which gallery artifacts each build produced, in a
// SQLite database next to the output tree.
//
// The manifest is how consecutive builds (notably watch-mode rebuilds) know
// which pages a previous run generated, so renamed or removed examples can be
// reported as purged instead of silently disappearing. It is bookkeeping, not
// an input to generation: artifacts are always regenerated wholesale from the
// registry.
package manifest

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one recorded artifact of a build.
type Entry struct {
	BuildID     string
	RelPath     string
	Fingerprint string
	RecordedAt  time.Time
}

// Store persists artifact records across builds.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (and initializes) a manifest database. Use ":memory:" in tests.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open manifest database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize manifest schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS artifacts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		rel_path TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		recorded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_artifacts_build ON artifacts(build_id);
	CREATE TABLE IF NOT EXISTS builds (
		build_id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		source_commit TEXT
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginBuild records a build invocation.
func (s *Store) BeginBuild(ctx context.Context, buildID, sourceCommit string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO builds (build_id, started_at, source_commit) VALUES (?, ?, ?)",
		buildID, time.Now().Unix(), sourceCommit)
	if err != nil {
		return fmt.Errorf("record build: %w", err)
	}
	return nil
}

// RecordArtifacts stores the artifact set of a build in one transaction.
func (s *Store) RecordArtifacts(ctx context.Context, buildID string, relPaths []string, fingerprints []string) error {
	if len(relPaths) != len(fingerprints) {
		return fmt.Errorf("artifact paths and fingerprints differ in length")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin manifest transaction: %w", err)
	}
	now := time.Now().Unix()
	for i, rel := range relPaths {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO artifacts (build_id, rel_path, fingerprint, recorded_at) VALUES (?, ?, ?, ?)",
			buildID, rel, fingerprints[i], now); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record artifact %s: %w", rel, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit manifest transaction: %w", err)
	}
	return nil
}

// LatestArtifacts returns the artifact paths of the most recent build, or nil
// when no build has been recorded yet.
func (s *Store) LatestArtifacts(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buildID string
	err := s.db.QueryRowContext(ctx,
		"SELECT build_id FROM builds ORDER BY started_at DESC, build_id DESC LIMIT 1").Scan(&buildID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest build: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT build_id, rel_path, fingerprint, recorded_at FROM artifacts WHERE build_id = ? ORDER BY rel_path",
		buildID)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		if err := rows.Scan(&e.BuildID, &e.RelPath, &e.Fingerprint, &ts); err != nil {
			return nil, fmt.Errorf("scan artifact row: %w", err)
		}
		e.RecordedAt = time.Unix(ts, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
