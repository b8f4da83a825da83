package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Kinds of generated artifacts.
const (
	KindTag = "tag"
	KindQR  = "qr"
)

// Run is one invocation of a batch generator.
type Run struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Params     string `json:"params"`
	StartedAt  int64  `json:"started_at"`
	FinishedAt int64  `json:"finished_at,omitempty"`
	Artifacts  int    `json:"artifacts"`
	Error      string `json:"error,omitempty"`
}

// Artifact is a single marker image written by a run.
type Artifact struct {
	RunID     string `json:"run_id"`
	Kind      string `json:"kind"`
	MarkerID  int    `json:"marker_id"`
	Path      string `json:"path"`
	Format    string `json:"format"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Bytes     int    `json:"bytes"`
	SHA256    string `json:"sha256"`
	Payload   string `json:"payload,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// ManifestStore records generation runs and their artifacts in SQLite.
type ManifestStore struct {
	db *sql.DB
}

const createRunsTable = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    params TEXT NOT NULL DEFAULT '',
    started_at INTEGER NOT NULL,
    finished_at INTEGER NOT NULL DEFAULT 0,
    error TEXT NOT NULL DEFAULT ''
);
`

const createArtifactsTable = `
CREATE TABLE IF NOT EXISTS artifacts (
    run_id TEXT NOT NULL REFERENCES runs(id),
    kind TEXT NOT NULL,
    marker_id INTEGER NOT NULL,
    path TEXT NOT NULL,
    format TEXT NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    bytes INTEGER NOT NULL,
    sha256 TEXT NOT NULL,
    payload TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    PRIMARY KEY (run_id, kind, marker_id)
);
`

const createIndexes = `
CREATE INDEX IF NOT EXISTS idx_artifacts_kind ON artifacts(kind);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// NewManifestStore opens (or creates) the SQLite database at dbPath,
// initialises the schema and returns a ready-to-use ManifestStore.
func NewManifestStore(dbPath string) (*ManifestStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	for _, stmt := range []string{
		createRunsTable,
		createArtifactsTable,
		createIndexes,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec schema statement: %w", err)
		}
	}

	return &ManifestStore{db: db}, nil
}

// StartRun inserts a new, unfinished run.
func (s *ManifestStore) StartRun(run *Run) error {
	if run.StartedAt == 0 {
		run.StartedAt = time.Now().Unix()
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (id, kind, params, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Kind, run.Params, run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	return nil
}

// FinishRun marks a run finished. A non-nil runErr is recorded with it.
func (s *ManifestStore) FinishRun(id string, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	res, err := s.db.Exec(
		`UPDATE runs SET finished_at = ?, error = ? WHERE id = ?`,
		time.Now().Unix(), msg, id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run %s: no such run", id)
	}
	return nil
}

// SaveArtifact records a written file. Saving the same run, kind and
// marker twice replaces the earlier row.
func (s *ManifestStore) SaveArtifact(a *Artifact) error {
	if a.CreatedAt == 0 {
		a.CreatedAt = time.Now().Unix()
	}
	const query = `
		INSERT OR REPLACE INTO artifacts
			(run_id, kind, marker_id, path, format, width, height, bytes, sha256, payload, created_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		a.RunID,
		a.Kind,
		a.MarkerID,
		a.Path,
		a.Format,
		a.Width,
		a.Height,
		a.Bytes,
		a.SHA256,
		a.Payload,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	return nil
}

// ListArtifacts returns artifacts newest first. An empty kind matches
// every kind.
func (s *ManifestStore) ListArtifacts(kind string, limit int) ([]Artifact, error) {
	const query = `
		SELECT a.run_id, a.kind, a.marker_id, a.path, a.format, a.width, a.height,
		       a.bytes, a.sha256, a.payload, a.created_at
		FROM artifacts a
		JOIN runs r ON r.id = a.run_id
		WHERE ? = '' OR a.kind = ?
		ORDER BY r.started_at DESC, a.created_at DESC, a.kind, a.marker_id
		LIMIT ?
	`

	rows, err := s.db.Query(query, kind, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(
			&a.RunID, &a.Kind, &a.MarkerID, &a.Path, &a.Format,
			&a.Width, &a.Height, &a.Bytes, &a.SHA256, &a.Payload, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan artifact row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifact rows: %w", err)
	}
	return out, nil
}

// LatestRun returns the most recently started run of kind, or nil if
// there is none. An empty kind matches every kind.
func (s *ManifestStore) LatestRun(kind string) (*Run, error) {
	const query = `
		SELECT r.id, r.kind, r.params, r.started_at, r.finished_at, r.error,
		       (SELECT COUNT(*) FROM artifacts a WHERE a.run_id = r.id)
		FROM runs r
		WHERE ? = '' OR r.kind = ?
		ORDER BY r.started_at DESC, r.rowid DESC
		LIMIT 1
	`

	var r Run
	err := s.db.QueryRow(query, kind, kind).Scan(
		&r.ID, &r.Kind, &r.Params, &r.StartedAt, &r.FinishedAt, &r.Error, &r.Artifacts,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return &r, nil
}

// Close closes the underlying database connection.
func (s *ManifestStore) Close() error {
	return s.db.Close()
}
