// Package store persists registry status snapshots to SQLite so the host
// can report history across restarts.
package store

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/powerautomation/domainmcp/errors"
)

// Snapshot is one persisted registry status / statistics pair.
type Snapshot struct {
	ID      int64           `json:"id"`
	TakenAt time.Time       `json:"taken_at"`
	Status  json.RawMessage `json:"status"`
	Stats   json.RawMessage `json:"stats"`
}

// Open opens a SQLite database at the specified path with the settings the
// host needs. If logger is provided, logs database operations; otherwise
// operates silently.
func Open(path string, logger *zap.SugaredLogger) (*sql.DB, error) {
	if logger != nil {
		logger.Debugw("Opening snapshot database", "path", path)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	// Enable WAL mode for concurrent reads during writes
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to enable WAL mode")
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to enable foreign keys")
	}

	// Set busy timeout to 5 seconds
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to set busy timeout")
	}

	if logger != nil {
		logger.Infow("Snapshot database opened",
			"path", path,
			"wal_mode", true)
	}

	return db, nil
}

// SnapshotStore reads and writes registry snapshots.
type SnapshotStore struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// New wraps an open database. A nil logger disables store logging.
func New(db *sql.DB, logger *zap.SugaredLogger) *SnapshotStore {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SnapshotStore{db: db, logger: logger}
}

// Init creates the snapshot schema if it does not exist.
func (s *SnapshotStore) Init() error {
	query := `
	CREATE TABLE IF NOT EXISTS registry_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		taken_at DATETIME NOT NULL,
		status_json TEXT NOT NULL,
		stats_json TEXT NOT NULL
	)`

	if _, err := s.db.Exec(query); err != nil {
		return errors.Wrap(err, "failed to create registry_snapshots table")
	}

	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_registry_snapshots_taken_at
		ON registry_snapshots(taken_at)`); err != nil {
		return errors.Wrap(err, "failed to create snapshot index")
	}
	return nil
}

// Save stores one snapshot. status and stats are marshalled to JSON.
func (s *SnapshotStore) Save(status any, stats any) (int64, error) {
	statusJSON, err := json.Marshal(status)
	if err != nil {
		return 0, errors.Wrap(err, "failed to marshal status")
	}
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return 0, errors.Wrap(err, "failed to marshal stats")
	}

	res, err := s.db.Exec(`
		INSERT INTO registry_snapshots (taken_at, status_json, stats_json)
		VALUES (?, ?, ?)`,
		time.Now().UTC(), string(statusJSON), string(statsJSON))
	if err != nil {
		return 0, errors.Wrap(err, "failed to insert snapshot")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read snapshot id")
	}

	s.logger.Debugw("Registry snapshot saved", "id", id)
	return id, nil
}

// Latest returns the most recent snapshot, or ErrNoSnapshot when the store
// is empty.
func (s *SnapshotStore) Latest() (*Snapshot, error) {
	row := s.db.QueryRow(`
		SELECT id, taken_at, status_json, stats_json
		FROM registry_snapshots
		ORDER BY id DESC
		LIMIT 1`)

	snap, err := scanSnapshot(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrNoSnapshot
		}
		return nil, errors.Wrap(err, "failed to read latest snapshot")
	}
	return snap, nil
}

// List returns up to limit snapshots, newest first.
func (s *SnapshotStore) List(limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT id, taken_at, status_json, stats_json
		FROM registry_snapshots
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list snapshots")
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows.Scan)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan snapshot row")
		}
		snapshots = append(snapshots, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate snapshots")
	}
	return snapshots, nil
}

// Prune deletes everything but the newest keep snapshots and returns how
// many rows were removed.
func (s *SnapshotStore) Prune(keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	res, err := s.db.Exec(`
		DELETE FROM registry_snapshots
		WHERE id NOT IN (
			SELECT id FROM registry_snapshots ORDER BY id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, errors.Wrap(err, "failed to prune snapshots")
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to count pruned snapshots")
	}
	if removed > 0 {
		s.logger.Debugw("Pruned old snapshots", "removed", removed, "keep", keep)
	}
	return removed, nil
}

func scanSnapshot(scan func(dest ...any) error) (*Snapshot, error) {
	var (
		snap   Snapshot
		status string
		stats  string
	)
	if err := scan(&snap.ID, &snap.TakenAt, &status, &stats); err != nil {
		return nil, err
	}
	snap.Status = json.RawMessage(status)
	snap.Stats = json.RawMessage(stats)
	return &snap, nil
}
