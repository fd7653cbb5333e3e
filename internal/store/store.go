// Package store persists scenarios in SQLite. Damping entries are stored as
// flat rows, one per record, so reloading a scenario reconstructs the
// container through the same repeated-Add path as any other source.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/epiforge/epidamp/internal/scenario"
)

// ErrNotFound is returned when a scenario id is unknown
var ErrNotFound = errors.New("scenario not found")

// Store wraps the database connection
type Store struct {
	db *sql.DB
}

// ScenarioInfo is a listing row
type ScenarioInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Rows      int       `json:"rows"`
	Cols      int       `json:"cols"`
	CreatedAt time.Time `json:"created_at"`
}

// NewStore opens (and if needed creates) the scenario database in dataDir
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "epidamp.db")
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scenarios (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		rows INTEGER NOT NULL,
		cols INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS damping_records (
		scenario_id TEXT NOT NULL REFERENCES scenarios(id) ON DELETE CASCADE,
		level INTEGER NOT NULL,
		type INTEGER NOT NULL,
		time REAL NOT NULL,
		payload TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_damping_scenario ON damping_records(scenario_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// SaveScenario stores a scenario under the given id
func (s *Store) SaveScenario(id string, sc *scenario.Scenario) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO scenarios (id, name, rows, cols, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, sc.Name, sc.Rows, sc.Cols, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert scenario: %w", err)
	}

	for _, r := range sc.Dampings {
		if err := insertRecord(tx, id, r); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// AddRecord appends one damping record to an existing scenario
func (s *Store) AddRecord(id string, r scenario.Record) error {
	var exists int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM scenarios WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to query scenario: %w", err)
	}
	if exists == 0 {
		return ErrNotFound
	}
	return insertRecord(s.db, id, r)
}

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func insertRecord(db execer, id string, r scenario.Record) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode damping record: %w", err)
	}
	_, err = db.Exec(`
		INSERT INTO damping_records (scenario_id, level, type, time, payload)
		VALUES (?, ?, ?, ?, ?)
	`, id, r.Level, r.Type, r.Time, string(payload))
	if err != nil {
		return fmt.Errorf("failed to insert damping record: %w", err)
	}
	return nil
}

// GetScenario loads a scenario by id
func (s *Store) GetScenario(id string) (*scenario.Scenario, error) {
	sc := &scenario.Scenario{}
	err := s.db.QueryRow(`
		SELECT name, rows, cols FROM scenarios WHERE id = ?
	`, id).Scan(&sc.Name, &sc.Rows, &sc.Cols)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query scenario: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT payload FROM damping_records WHERE scenario_id = ? ORDER BY rowid
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query damping records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan damping record: %w", err)
		}
		var r scenario.Record
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, fmt.Errorf("failed to decode damping record: %w", err)
		}
		sc.Dampings = append(sc.Dampings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate damping records: %w", err)
	}
	return sc, nil
}

// ListScenarios returns all stored scenarios, newest first
func (s *Store) ListScenarios() ([]ScenarioInfo, error) {
	rows, err := s.db.Query(`
		SELECT id, name, rows, cols, created_at FROM scenarios ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	defer rows.Close()

	infos := make([]ScenarioInfo, 0)
	for rows.Next() {
		var info ScenarioInfo
		if err := rows.Scan(&info.ID, &info.Name, &info.Rows, &info.Cols, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan scenario: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// DeleteScenario removes a scenario and its records
func (s *Store) DeleteScenario(id string) error {
	res, err := s.db.Exec(`DELETE FROM scenarios WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete scenario: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
