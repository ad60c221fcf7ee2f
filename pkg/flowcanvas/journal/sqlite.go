package journal

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore writes journal steps to SQLite.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (or creates) a journal database at path.
// ":memory:" gives a private in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS journal_steps (
			run_id TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			node_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			ok INTEGER NOT NULL,
			msg TEXT NOT NULL,
			data BLOB,
			timestamp TEXT NOT NULL,
			PRIMARY KEY (run_id, sequence)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append implements Store.
func (s *SQLiteStore) Append(step Step) error {
	if err := validate(step); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	var exists int
	if err := s.db.QueryRow(`
		SELECT COUNT(*) FROM journal_steps WHERE run_id = ? AND sequence = ?
	`, step.RunID, step.Sequence).Scan(&exists); err != nil {
		return fmt.Errorf("check journal step: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("run %s step %d: %w", step.RunID, step.Sequence, ErrDuplicateStep)
	}

	var data any
	if len(step.Data) > 0 {
		data = []byte(step.Data)
	}
	ok := 0
	if step.OK {
		ok = 1
	}

	if _, err := s.db.Exec(`
		INSERT INTO journal_steps (run_id, sequence, node_id, kind, ok, msg, data, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, step.RunID, step.Sequence, step.NodeID, step.Kind, ok, step.Msg, data,
		step.Timestamp.UTC().Format(timeLayout)); err != nil {
		return fmt.Errorf("append journal step: %w", err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(runID string) ([]Step, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT sequence, node_id, kind, ok, msg, data, timestamp
		FROM journal_steps
		WHERE run_id = ?
		ORDER BY sequence
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list journal steps: %w", err)
	}
	defer rows.Close()

	steps := []Step{}
	for rows.Next() {
		step := Step{RunID: runID}
		var ok int
		var data []byte
		var ts string
		if err := rows.Scan(&step.Sequence, &step.NodeID, &step.Kind, &ok, &step.Msg, &data, &ts); err != nil {
			return nil, fmt.Errorf("scan journal step: %w", err)
		}
		step.OK = ok != 0
		if len(data) > 0 {
			step.Data = data
		}
		step.Timestamp, _ = time.Parse(timeLayout, ts)
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal steps: %w", err)
	}
	return steps, nil
}

// Runs implements Store.
func (s *SQLiteStore) Runs() ([]RunInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT run_id, COUNT(*), MIN(timestamp) AS started
		FROM journal_steps
		GROUP BY run_id
		ORDER BY started, run_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list journal runs: %w", err)
	}
	defer rows.Close()

	runs := []RunInfo{}
	for rows.Next() {
		var info RunInfo
		var ts string
		if err := rows.Scan(&info.RunID, &info.Steps, &ts); err != nil {
			return nil, fmt.Errorf("scan journal run: %w", err)
		}
		info.StartedAt, _ = time.Parse(timeLayout, ts)
		runs = append(runs, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal runs: %w", err)
	}
	return runs, nil
}

// DeleteRun implements Store.
func (s *SQLiteStore) DeleteRun(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.Exec(`DELETE FROM journal_steps WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("delete journal run: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
