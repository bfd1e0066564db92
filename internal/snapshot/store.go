// Package snapshot persists dated captures of scored build output.
//
// A snapshot moves Pending -> Committed inside a single transaction: a
// failed build never leaves a partial snapshot visible, and readers only
// ever see committed rows. Snapshots are append-only; once committed they
// are never edited or deleted, which is what makes history queries stable.
package snapshot

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/driftwatch/radar/internal/audit"
	"github.com/driftwatch/radar/internal/build"
	"github.com/driftwatch/radar/internal/logging"
)

// Snapshot states
const (
	StatePending   = "pending"
	StateCommitted = "committed"
)

// IncompleteBuildError rejects a build result at the snapshot boundary.
// A snapshot with missing score or audit data must never be committed.
type IncompleteBuildError struct {
	BuildID string
	Reason  string
}

func (e *IncompleteBuildError) Error() string {
	return fmt.Sprintf("incomplete build %s: %s", e.BuildID, e.Reason)
}

// HistoryPoint is one (label, score) observation for a theme
type HistoryPoint struct {
	Label     string
	Score     int
	CreatedAt time.Time
}

// Meta describes one committed snapshot
type Meta struct {
	ID                int64
	Label             string
	BuildID           string
	ScoringVersion    string
	DistanceThreshold float64
	CreatedAt         time.Time
}

// Store handles snapshot persistence. NOT an interface - concrete type.
// Thread-safety: all methods are safe for concurrent use via internal
// mutex; commits serialize on the write lock so snapshot ordering holds
// even with concurrent builds against the same store.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates a Store at the given database path.
// Creates tables if they don't exist; uses WAL mode for file-based DBs.
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees the same database
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		label TEXT NOT NULL,
		state TEXT NOT NULL DEFAULT 'pending',
		build_id TEXT NOT NULL,
		scoring_version TEXT NOT NULL,
		distance_threshold REAL NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_label ON snapshots(label);
	CREATE INDEX IF NOT EXISTS idx_snapshots_state ON snapshots(state);

	CREATE TABLE IF NOT EXISTS snapshot_movements (
		snapshot_id INTEGER NOT NULL,
		movement_uid TEXT NOT NULL,
		title TEXT NOT NULL,
		theme TEXT NOT NULL,
		score INTEGER NOT NULL,
		member_uids TEXT NOT NULL,
		first_seen DATETIME NOT NULL,
		last_seen DATETIME NOT NULL,
		PRIMARY KEY (snapshot_id, movement_uid)
	);
	CREATE INDEX IF NOT EXISTS idx_snapmov_theme ON snapshot_movements(theme);

	CREATE TABLE IF NOT EXISTS snapshot_themes (
		snapshot_id INTEGER NOT NULL,
		theme TEXT NOT NULL,
		score INTEGER NOT NULL,
		arrow TEXT NOT NULL,
		confidence TEXT NOT NULL,
		movement_uids TEXT NOT NULL,
		PRIMARY KEY (snapshot_id, theme)
	);

	CREATE TABLE IF NOT EXISTS snapshot_audit (
		snapshot_id INTEGER NOT NULL,
		target_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		factor TEXT NOT NULL,
		raw REAL NOT NULL,
		weight REAL NOT NULL,
		contribution REAL NOT NULL,
		build_id TEXT NOT NULL,
		PRIMARY KEY (snapshot_id, target_id, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_snapaudit_build ON snapshot_audit(build_id, target_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// QuarterLabel returns the default snapshot label for a time, e.g. "2026Q3"
func QuarterLabel(t time.Time) string {
	q := (int(t.UTC().Month())-1)/3 + 1
	return fmt.Sprintf("%dQ%d", t.UTC().Year(), q)
}

// CreateSnapshot validates and persists a build result under the given
// label. The whole write happens in one transaction: on any failure the
// transaction rolls back and no partial snapshot is visible.
//
// Re-snapshotting an existing label appends a new snapshot rather than
// replacing the old one; history keeps both points, so previously
// returned history never changes.
func (s *Store) CreateSnapshot(label string, res *build.Result) (int64, error) {
	if err := validate(res); err != nil {
		return 0, err
	}
	if label == "" {
		label = QuarterLabel(res.AsOf)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO snapshots (label, state, build_id, scoring_version, distance_threshold, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, label, StatePending, res.BuildID, res.ScoringVersion, res.DistanceThreshold, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	snapID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("snapshot id: %w", err)
	}

	movStmt, err := tx.Prepare(`
		INSERT INTO snapshot_movements (snapshot_id, movement_uid, title, theme, score, member_uids, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer movStmt.Close()
	for _, m := range res.Movements {
		_, err := movStmt.Exec(snapID, m.UID, m.Title, m.Theme,
			res.MovementScores[m.UID], strings.Join(m.Members, ","), m.FirstSeen, m.LastSeen)
		if err != nil {
			return 0, fmt.Errorf("insert movement %s: %w", m.UID, err)
		}
	}

	themeStmt, err := tx.Prepare(`
		INSERT INTO snapshot_themes (snapshot_id, theme, score, arrow, confidence, movement_uids)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer themeStmt.Close()
	for _, t := range res.Themes {
		_, err := themeStmt.Exec(snapID, t.Name, t.Score, string(t.Arrow), t.Confidence,
			strings.Join(t.MovementUIDs, ","))
		if err != nil {
			return 0, fmt.Errorf("insert theme %s: %w", t.Name, err)
		}
	}

	auditStmt, err := tx.Prepare(`
		INSERT INTO snapshot_audit (snapshot_id, target_id, seq, factor, raw, weight, contribution, build_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer auditStmt.Close()
	for _, target := range res.Trail.Targets() {
		for seq, e := range res.Trail.Entries(target) {
			_, err := auditStmt.Exec(snapID, e.TargetID, seq, e.Factor, e.Raw, e.Weight, e.Contribution, e.BuildID)
			if err != nil {
				return 0, fmt.Errorf("insert audit entry %s/%s: %w", e.TargetID, e.Factor, err)
			}
		}
	}

	// Pending -> Committed: the only state transition a snapshot ever makes
	if _, err := tx.Exec(`UPDATE snapshots SET state = ? WHERE id = ?`, StateCommitted, snapID); err != nil {
		return 0, fmt.Errorf("commit snapshot state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit snapshot transaction: %w", err)
	}

	logging.Info("snapshot: committed",
		"snapshot_id", snapID,
		"label", label,
		"build_id", res.BuildID,
		"movements", len(res.Movements),
		"themes", len(res.Themes))
	return snapID, nil
}

// validate enforces snapshot completeness: every theme and every scored
// movement must carry a score reproducible from its audit entries.
func validate(res *build.Result) error {
	if res == nil || res.Trail == nil {
		return &IncompleteBuildError{Reason: "missing audit trail"}
	}
	if len(res.Movements) == 0 {
		return &IncompleteBuildError{BuildID: res.BuildID, Reason: "no movements"}
	}
	if len(res.Themes) == 0 {
		return &IncompleteBuildError{BuildID: res.BuildID, Reason: "no themes"}
	}
	for _, m := range res.Movements {
		score, ok := res.MovementScores[m.UID]
		if !ok {
			return &IncompleteBuildError{BuildID: res.BuildID, Reason: fmt.Sprintf("movement %s has no score", m.UID)}
		}
		if err := res.Trail.Verify(m.UID, score); err != nil {
			return &IncompleteBuildError{BuildID: res.BuildID, Reason: err.Error()}
		}
	}
	for _, t := range res.Themes {
		if err := res.Trail.Verify(t.Name, t.Score); err != nil {
			return &IncompleteBuildError{BuildID: res.BuildID, Reason: err.Error()}
		}
	}
	return nil
}

// GetHistory returns the ordered (label, score) sequence for a theme
// across all committed snapshots. Empty if the theme never appeared.
func (s *Store) GetHistory(theme string) ([]HistoryPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT sn.label, st.score, sn.created_at
		FROM snapshot_themes st
		JOIN snapshots sn ON sn.id = st.snapshot_id
		WHERE sn.state = ? AND st.theme = ?
		ORDER BY sn.created_at, sn.id
	`, StateCommitted, theme)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []HistoryPoint
	for rows.Next() {
		var p HistoryPoint
		if err := rows.Scan(&p.Label, &p.Score, &p.CreatedAt); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// LatestThemeScores returns the most recent committed snapshot's theme
// scores, for trend arrows. Nil map if no snapshot exists yet.
func (s *Store) LatestThemeScores() (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snapID int64
	err := s.db.QueryRow(`
		SELECT id FROM snapshots WHERE state = ? ORDER BY created_at DESC, id DESC LIMIT 1
	`, StateCommitted).Scan(&snapID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT theme, score FROM snapshot_themes WHERE snapshot_id = ?`, snapID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := make(map[string]int)
	for rows.Next() {
		var theme string
		var score int
		if err := rows.Scan(&theme, &score); err != nil {
			return nil, err
		}
		scores[theme] = score
	}
	return scores, rows.Err()
}

// AuditEntries returns the ordered audit entries justifying a movement or
// theme score within a build. This is the explainability contract the
// presentation layer depends on.
//
// A build can be snapshotted more than once (re-snapshot appends) and every
// commit carries the same entries, so the read is scoped to the latest
// committed snapshot for the build: each justification appears exactly once.
func (s *Store) AuditEntries(targetID, buildID string) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snapID int64
	err := s.db.QueryRow(`
		SELECT id FROM snapshots WHERE state = ? AND build_id = ?
		ORDER BY created_at DESC, id DESC LIMIT 1
	`, StateCommitted, buildID).Scan(&snapID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT target_id, factor, raw, weight, contribution, build_id
		FROM snapshot_audit
		WHERE snapshot_id = ? AND target_id = ?
		ORDER BY seq
	`, snapID, targetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var e audit.Entry
		if err := rows.Scan(&e.TargetID, &e.Factor, &e.Raw, &e.Weight, &e.Contribution, &e.BuildID); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Snapshots lists committed snapshots in creation order
func (s *Store) Snapshots() ([]Meta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, label, build_id, scoring_version, distance_threshold, created_at
		FROM snapshots WHERE state = ? ORDER BY created_at, id
	`, StateCommitted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metas []Meta
	for rows.Next() {
		var m Meta
		if err := rows.Scan(&m.ID, &m.Label, &m.BuildID, &m.ScoringVersion, &m.DistanceThreshold, &m.CreatedAt); err != nil {
			return nil, err
		}
		metas = append(metas, m)
	}
	return metas, rows.Err()
}
