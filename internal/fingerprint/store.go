package fingerprint

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"jabi/internal/logging"
)

// Run is one recorded extraction: which archive was produced, where, and
// from how many classes.
type Run struct {
	ID         string
	CreatedAt  time.Time
	Output     string
	ArchiveKey string
	ClassCount int
}

// Store persists extraction runs in a SQLite database under the work
// directory.
type Store struct {
	conn   *sql.DB
	logger *logging.Logger
	dbPath string
}

// OpenStore opens or creates the run database at <dir>/jabi.db.
func OpenStore(dir string, logger *logging.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}

	dbPath := filepath.Join(dir, "jabi.db")
	dbExists := fileExists(dbPath)

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open run database: %w", err)
	}

	// Set pragmas for performance
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	store := &Store{
		conn:   conn,
		logger: logger,
		dbPath: dbPath,
	}

	if !dbExists {
		logger.Info("Creating run database", map[string]interface{}{
			"path": dbPath,
		})
	}
	if err := store.initializeSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize run schema: %w", err)
	}

	return store, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// initializeSchema creates the run tables.
func (s *Store) initializeSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			output TEXT NOT NULL,
			archive_key TEXT NOT NULL,
			class_count INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_runs_output ON runs(output);

		CREATE TABLE IF NOT EXISTS run_entries (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			entry_key TEXT NOT NULL,
			size INTEGER NOT NULL,
			PRIMARY KEY (run_id, name)
		);

		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);
		INSERT OR REPLACE INTO schema_version (version) VALUES (1);
	`

	_, err := s.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// RecordRun inserts a run and its entry keys in one transaction. A missing
// ID or timestamp is filled in before the insert.
func (s *Store) RecordRun(run *Run, entries []Entry) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	err := s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO runs (id, created_at, output, archive_key, class_count)
			VALUES (?, ?, ?, ?, ?)
		`, run.ID, run.CreatedAt.Format(time.RFC3339), run.Output, run.ArchiveKey, run.ClassCount)
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		for _, e := range entries {
			_, err := tx.Exec(`
				INSERT INTO run_entries (run_id, name, entry_key, size)
				VALUES (?, ?, ?, ?)
			`, run.ID, e.Name, e.Key, e.Size)
			if err != nil {
				return fmt.Errorf("failed to insert run entry %s: %w", e.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("Recorded extraction run", map[string]interface{}{
		"runId":   run.ID,
		"output":  run.Output,
		"classes": run.ClassCount,
	})

	return nil
}

// History retrieves the most recent runs, newest first.
func (s *Store) History(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := s.conn.Query(`
		SELECT id, created_at, output, archive_key, class_count
		FROM runs
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// HistoryFor retrieves the most recent runs that wrote the given output
// path, newest first.
func (s *Store) HistoryFor(output string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := s.conn.Query(`
		SELECT id, created_at, output, archive_key, class_count
		FROM runs WHERE output = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, output, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// LastRunFor retrieves the most recent run that wrote the given output
// path, or nil when none is recorded.
func (s *Store) LastRunFor(output string) (*Run, error) {
	row := s.conn.QueryRow(`
		SELECT id, created_at, output, archive_key, class_count
		FROM runs WHERE output = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, output)

	var run Run
	var createdAt string
	err := row.Scan(&run.ID, &createdAt, &run.Output, &run.ArchiveKey, &run.ClassCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		run.CreatedAt = t
	}
	return &run, nil
}

// Entries retrieves the entry keys recorded for a run, sorted by name.
func (s *Store) Entries(runID string) ([]Entry, error) {
	rows, err := s.conn.Query(`
		SELECT name, entry_key, size
		FROM run_entries WHERE run_id = ?
		ORDER BY name ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list run entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.Key, &e.Size); err != nil {
			return nil, fmt.Errorf("failed to scan run entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func scanRun(rows *sql.Rows) (Run, error) {
	var run Run
	var createdAt string

	if err := rows.Scan(&run.ID, &createdAt, &run.Output, &run.ArchiveKey, &run.ClassCount); err != nil {
		return Run{}, fmt.Errorf("failed to scan run row: %w", err)
	}

	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		run.CreatedAt = t
	}
	return run, nil
}

func (s *Store) withTx(fn func(*sql.Tx) error) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p) // Re-throw panic after rollback
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("failed to rollback transaction", map[string]interface{}{
				"error":          err.Error(),
				"rollback_error": rbErr.Error(),
			})
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
