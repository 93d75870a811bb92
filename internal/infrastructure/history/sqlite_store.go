package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/doeshing/promptcraft/internal/domain"
	"github.com/doeshing/promptcraft/internal/pkg/filesystem"
	"github.com/doeshing/promptcraft/internal/ports"
)

const entryColumns = "id, timestamp, input, output, negative_prompt, service, model, target_model, creativity"

// SQLiteStore persists history in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	clock  ports.Clock
	logger ports.Logger
	mu     sync.Mutex
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string, clock ports.Clock, logger ports.Logger) (*SQLiteStore, error) {
	path = filesystem.ExpandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return nil, &domain.HistoryIOError{Op: "open", Path: path, Err: err}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &domain.HistoryIOError{Op: "open", Path: path, Err: err}
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if clock == nil {
		clock = ports.SystemClock{}
	}
	store := &SQLiteStore{db: db, path: path, clock: clock, logger: logger}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, &domain.HistoryIOError{Op: "migrate", Path: path, Err: err}
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS history (
		id INTEGER PRIMARY KEY,
		timestamp TEXT NOT NULL,
		input TEXT NOT NULL,
		output TEXT NOT NULL,
		negative_prompt TEXT NOT NULL DEFAULT '',
		service TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		target_model TEXT NOT NULL DEFAULT '',
		creativity TEXT NOT NULL DEFAULT ''
	);`)
	return err
}

// Append inserts entry at the head and trims rows beyond the cap.
func (s *SQLiteStore) Append(entry domain.HistoryEntry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var head sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(id) FROM history`).Scan(&head); err != nil {
		return 0, s.ioError("write", err)
	}
	entry = stamp(entry, s.clock.Now(), head.Int64)

	tx, err := s.db.Begin()
	if err != nil {
		return 0, s.ioError("write", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT INTO history (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Timestamp,
		entry.Input,
		entry.Output,
		entry.NegativePrompt,
		entry.Service,
		entry.Model,
		entry.TargetModel,
		entry.Creativity,
	); err != nil {
		return 0, s.ioError("write", err)
	}
	if _, err := tx.Exec(`DELETE FROM history WHERE id NOT IN (SELECT id FROM history ORDER BY id DESC LIMIT ?)`, domain.MaxHistoryEntries); err != nil {
		return 0, s.ioError("write", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, s.ioError("write", err)
	}
	return entry.ID, nil
}

// List returns every entry, most recent first. A failed query is logged and
// yields an empty history.
func (s *SQLiteStore) List() ([]domain.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.query()
	if err != nil {
		s.logger.Warn("history read failed, starting empty", map[string]interface{}{
			"error": s.ioError("read", err).Error(),
		})
		return nil, nil
	}
	return entries, nil
}

func (s *SQLiteStore) query() ([]domain.HistoryEntry, error) {
	rows, err := s.db.Query(`SELECT ` + entryColumns + ` FROM history ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Input, &e.Output, &e.NegativePrompt, &e.Service, &e.Model, &e.TargetModel, &e.Creativity); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteAt removes the entry at a position of List.
func (s *SQLiteStore) DeleteAt(index int) error {
	if index < 0 {
		return domain.ErrHistoryNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var id int64
	err := s.db.QueryRow(`SELECT id FROM history ORDER BY id DESC LIMIT 1 OFFSET ?`, index).Scan(&id)
	if err == sql.ErrNoRows {
		return domain.ErrHistoryNotFound
	}
	if err != nil {
		return s.ioError("write", err)
	}
	if _, err := s.db.Exec(`DELETE FROM history WHERE id = ?`, id); err != nil {
		return s.ioError("write", err)
	}
	return nil
}

// Clear deletes all history entries.
func (s *SQLiteStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM history`); err != nil {
		return s.ioError("write", err)
	}
	return nil
}

// Search returns the entries whose input or output contains query.
func (s *SQLiteStore) Search(query string) ([]domain.HistoryEntry, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}
	return domain.SearchHistory(entries, query), nil
}

// Export writes the whole history into dir and returns the file path.
func (s *SQLiteStore) Export(format, dir string) (string, error) {
	entries, err := s.List()
	if err != nil {
		return "", err
	}
	return writeExport(entries, format, dir, s.clock.Now())
}

// Path returns the sqlite database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ioError(op string, err error) error {
	ioErr := &domain.HistoryIOError{Op: op, Path: s.path, Err: fmt.Errorf("sqlite: %w", err)}
	if op != "read" {
		s.logger.Error("history write failed", ioErr, nil)
	}
	return ioErr
}

var _ ports.HistoryRepository = (*SQLiteStore)(nil)
