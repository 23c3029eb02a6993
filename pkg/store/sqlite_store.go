// Package store persists inference runs and their accepted populations in
// SQLite, so long runs can be inspected and resumed analysis-side.
package store

import (
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/inferlab/abc-go/pkg/errors"
	"github.com/inferlab/abc-go/pkg/samplers"
)

// SQLiteStore is a SQLite-backed run store.
// The path ":memory:" keeps the database in-memory.
type SQLiteStore struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string

	initialized sync.Once
}

// RunRecord describes one stored inference run.
type RunRecord struct {
	ID        string
	Sampler   string
	CreatedAt time.Time
	Config    string
}

// NewSQLiteStore opens (and initializes if necessary) a run store at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.StorageFailed, "failed to open SQLite database"),
			errors.Fields{"path": path},
		)
	}

	store := &SQLiteStore{
		db:   db,
		path: path,
	}
	if err := store.ensureInitialized(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) ensureInitialized() error {
	var initErr error
	s.initialized.Do(func() {
		// Enable WAL mode for better concurrency
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			initErr = errors.Wrap(err, errors.StorageFailed, "failed to enable WAL mode")
			return
		}

		query := `
        CREATE TABLE IF NOT EXISTS runs (
            id TEXT PRIMARY KEY,
            sampler TEXT NOT NULL,
            config TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );

        CREATE TABLE IF NOT EXISTS samples (
            run_id TEXT NOT NULL,
            generation INTEGER NOT NULL,
            idx INTEGER NOT NULL,
            theta TEXT NOT NULL,
            weight REAL NOT NULL,
            PRIMARY KEY (run_id, generation, idx),
            FOREIGN KEY (run_id) REFERENCES runs(id)
        );

        CREATE INDEX IF NOT EXISTS idx_samples_run_generation
        ON samples(run_id, generation);
        `

		if _, err := s.db.Exec(query); err != nil {
			initErr = errors.Wrap(err, errors.StorageFailed, "failed to initialize database")
			return
		}
	})
	return initErr
}

// CreateRun records a new run and returns its identifier.
func (s *SQLiteStore) CreateRun(sampler string, cfg interface{}) (string, error) {
	if err := s.ensureInitialized(); err != nil {
		return "", err
	}

	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return "", errors.Wrap(err, errors.InvalidInput, "failed to marshal run configuration")
	}

	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		"INSERT INTO runs (id, sampler, config) VALUES (?, ?, ?)",
		id, sampler, string(cfgJSON),
	)
	if err != nil {
		return "", errors.WithFields(
			errors.Wrap(err, errors.StorageFailed, "failed to create run"),
			errors.Fields{"sampler": sampler},
		)
	}
	return id, nil
}

// SaveGeneration persists a completed population under its generation index.
func (s *SQLiteStore) SaveGeneration(runID string, generation int, pop *samplers.Population) error {
	if err := s.ensureInitialized(); err != nil {
		return err
	}
	if pop == nil || pop.Len() == 0 {
		return errors.New(errors.InvalidInput, "cannot save an empty population")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, errors.StorageFailed, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.Prepare(
		"INSERT OR REPLACE INTO samples (run_id, generation, idx, theta, weight) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return errors.Wrap(err, errors.StorageFailed, "failed to prepare insert")
	}
	defer stmt.Close()

	for i := 0; i < pop.Len(); i++ {
		p := pop.Particle(i)
		thetaJSON, err := json.Marshal(p.Theta)
		if err != nil {
			return errors.Wrap(err, errors.InvalidInput, "failed to marshal particle")
		}
		if _, err := stmt.Exec(runID, generation, i, string(thetaJSON), p.Weight); err != nil {
			return errors.WithFields(
				errors.Wrap(err, errors.StorageFailed, "failed to insert particle"),
				errors.Fields{"run_id": runID, "generation": generation, "idx": i},
			)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.StorageFailed, "failed to commit generation")
	}
	return nil
}

// LoadGeneration returns the stored particles of one generation, in
// acceptance order.
func (s *SQLiteStore) LoadGeneration(runID string, generation int) ([]samplers.Particle, error) {
	if err := s.ensureInitialized(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT theta, weight FROM samples WHERE run_id = ? AND generation = ? ORDER BY idx",
		runID, generation,
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.StorageFailed, "failed to query samples")
	}
	defer rows.Close()

	var particles []samplers.Particle
	for rows.Next() {
		var thetaJSON string
		var weight float64
		if err := rows.Scan(&thetaJSON, &weight); err != nil {
			return nil, errors.Wrap(err, errors.StorageFailed, "failed to scan particle")
		}
		var theta []float64
		if err := json.Unmarshal([]byte(thetaJSON), &theta); err != nil {
			return nil, errors.Wrap(err, errors.StorageFailed, "corrupt particle encoding")
		}
		particles = append(particles, samplers.Particle{Theta: theta, Weight: weight})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.StorageFailed, "failed to iterate samples")
	}
	if particles == nil {
		return nil, errors.WithFields(
			errors.New(errors.ResourceNotFound, "no samples stored for generation"),
			errors.Fields{"run_id": runID, "generation": generation},
		)
	}
	return particles, nil
}

// ListRuns returns all stored runs, newest first.
func (s *SQLiteStore) ListRuns() ([]RunRecord, error) {
	if err := s.ensureInitialized(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT id, sampler, config, created_at FROM runs ORDER BY created_at DESC")
	if err != nil {
		return nil, errors.Wrap(err, errors.StorageFailed, "failed to query runs")
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.Sampler, &r.Config, &r.CreatedAt); err != nil {
			return nil, errors.Wrap(err, errors.StorageFailed, "failed to scan run")
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.StorageFailed, "failed to iterate runs")
	}
	return runs, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
