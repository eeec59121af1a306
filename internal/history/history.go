// Package history persists a record of past duplicate checks so operators
// can see when another instance of a script was last detected. The scan
// itself never reads this store; it only answers "what happened before".
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/runguard/runguard/internal/domain"
)

// Record represents a single duplicate check
type Record struct {
	ID             int64
	Token          string
	CheckedAt      time.Time
	Running        bool
	MatchedPID     int64  // 0 when no match or pid not captured
	MatchedCmdline string // empty when no match
}

// Store handles check-history persistence
type Store struct {
	db     *sql.DB
	closed bool
}

// Open opens (creating if needed) the history database in dataDir
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "runguard.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Limit connection pool to prevent "database is locked" errors
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// Enable WAL mode for better concurrency and set busy timeout
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode and busy timeout: %w", err)
	}

	store := &Store{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the database schema
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS checks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		token TEXT NOT NULL,
		checked_at TIMESTAMP NOT NULL,
		running INTEGER NOT NULL,
		matched_pid INTEGER DEFAULT 0,
		matched_cmdline TEXT DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_checks_token_time ON checks(token, checked_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveCheck records one duplicate check
func (s *Store) SaveCheck(record Record) error {
	if s.closed {
		return domain.ErrHistoryClosed
	}

	if record.CheckedAt.IsZero() {
		record.CheckedAt = time.Now()
	}

	query := `
		INSERT INTO checks (token, checked_at, running, matched_pid, matched_cmdline)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		record.Token,
		record.CheckedAt,
		record.Running,
		record.MatchedPID,
		record.MatchedCmdline,
	)
	if err != nil {
		return fmt.Errorf("failed to save check record: %w", err)
	}

	return nil
}

// Recent retrieves the most recent checks for a token
func (s *Store) Recent(token string, limit int) ([]Record, error) {
	if s.closed {
		return nil, domain.ErrHistoryClosed
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	query := `
		SELECT id, token, checked_at, running, matched_pid, matched_cmdline
		FROM checks
		WHERE token = ?
		ORDER BY checked_at DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, token, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// RecentAll retrieves the most recent checks across all tokens
func (s *Store) RecentAll(limit int) ([]Record, error) {
	if s.closed {
		return nil, domain.ErrHistoryClosed
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	query := `
		SELECT id, token, checked_at, running, matched_pid, matched_cmdline
		FROM checks
		ORDER BY checked_at DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// LastDetection returns the most recent check for a token that found a
// running duplicate, or nil if none was ever recorded
func (s *Store) LastDetection(token string) (*Record, error) {
	if s.closed {
		return nil, domain.ErrHistoryClosed
	}

	query := `
		SELECT id, token, checked_at, running, matched_pid, matched_cmdline
		FROM checks
		WHERE token = ? AND running = 1
		ORDER BY checked_at DESC
		LIMIT 1
	`

	var record Record
	err := s.db.QueryRow(query, token).Scan(
		&record.ID,
		&record.Token,
		&record.CheckedAt,
		&record.Running,
		&record.MatchedPID,
		&record.MatchedCmdline,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last detection: %w", err)
	}

	return &record, nil
}

// Prune deletes records older than the given age and returns how many
// were removed
func (s *Store) Prune(olderThan time.Duration) (int64, error) {
	if s.closed {
		return 0, domain.ErrHistoryClosed
	}
	if olderThan <= 0 {
		return 0, fmt.Errorf("prune age must be positive, got %v", olderThan)
	}

	cutoff := time.Now().Add(-olderThan)
	res, err := s.db.Exec(`DELETE FROM checks WHERE checked_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned rows: %w", err)
	}
	return n, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// scanRecords reads all rows into records
func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var record Record
		err := rows.Scan(
			&record.ID,
			&record.Token,
			&record.CheckedAt,
			&record.Running,
			&record.MatchedPID,
			&record.MatchedCmdline,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return records, nil
}
