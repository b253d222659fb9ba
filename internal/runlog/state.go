// Package runlog tracks which planner inputs have already been fitted so
// repeated CLI runs over an unchanged blueprint can be skipped.
package runlog

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// StateDB records fitted blueprint hashes in a local SQLite database.
type StateDB struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite state database at dir/state.db.
func Open(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS fitted_runs (
		hash      TEXT PRIMARY KEY,
		outcome   TEXT NOT NULL,
		fitted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state table: %w", err)
	}

	return &StateDB{db: db}, nil
}

// Outcome returns the recorded outcome for a blueprint hash, or "" if the
// hash has never been fitted.
func (s *StateDB) Outcome(hash string) (string, error) {
	var outcome string
	err := s.db.QueryRow(`SELECT outcome FROM fitted_runs WHERE hash = ?`, hash).Scan(&outcome)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return outcome, nil
}

// Record stores the outcome for a blueprint hash, replacing any prior entry.
func (s *StateDB) Record(hash, outcome string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO fitted_runs (hash, outcome) VALUES (?, ?)`,
		hash, outcome,
	)
	return err
}

// Close closes the state database.
func (s *StateDB) Close() error {
	return s.db.Close()
}

// HashFile computes the SHA-256 hash of a file.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
