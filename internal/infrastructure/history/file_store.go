// Package history persists generated prompts, most recent first, capped at
// domain.MaxHistoryEntries. Two backends share one contract: an indented JSON
// array file and a SQLite table.
package history

import (
	"errors"
	"os"
	"sync"

	"github.com/doeshing/promptcraft/internal/domain"
	"github.com/doeshing/promptcraft/internal/pkg/filesystem"
	"github.com/doeshing/promptcraft/internal/ports"
)

// FileStore keeps history as a JSON array rewritten atomically on every change.
type FileStore struct {
	path   string
	clock  ports.Clock
	logger ports.Logger
	mu     sync.Mutex
}

// NewFileStore creates a store backed by path. The file is created on first write.
func NewFileStore(path string, clock ports.Clock, logger ports.Logger) *FileStore {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &FileStore{
		path:   filesystem.ExpandPath(path),
		clock:  clock,
		logger: logger,
	}
}

// Append stamps entry with an id and timestamp and stores it at the head.
func (f *FileStore) Append(entry domain.HistoryEntry) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries := f.load()
	var head int64
	if len(entries) > 0 {
		head = entries[0].ID
	}
	entry = stamp(entry, f.clock.Now(), head)

	entries = append([]domain.HistoryEntry{entry}, entries...)
	if len(entries) > domain.MaxHistoryEntries {
		entries = entries[:domain.MaxHistoryEntries]
	}
	if err := f.save(entries); err != nil {
		return 0, err
	}
	return entry.ID, nil
}

// List returns every entry, most recent first. A missing or unreadable file is
// an empty history.
func (f *FileStore) List() ([]domain.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load(), nil
}

// DeleteAt removes the entry at a position of List.
func (f *FileStore) DeleteAt(index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries := f.load()
	if index < 0 || index >= len(entries) {
		return domain.ErrHistoryNotFound
	}
	entries = append(entries[:index], entries[index+1:]...)
	return f.save(entries)
}

// Clear empties the history.
func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.save([]domain.HistoryEntry{})
}

// Search returns the entries whose input or output contains query.
func (f *FileStore) Search(query string) ([]domain.HistoryEntry, error) {
	entries, err := f.List()
	if err != nil {
		return nil, err
	}
	return domain.SearchHistory(entries, query), nil
}

// Export writes the whole history into dir and returns the file path.
func (f *FileStore) Export(format, dir string) (string, error) {
	entries, err := f.List()
	if err != nil {
		return "", err
	}
	return writeExport(entries, format, dir, f.clock.Now())
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) load() []domain.HistoryEntry {
	entries, err := ReadJSON(f.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			f.logger.Warn("history read failed, starting empty", map[string]interface{}{
				"error": (&domain.HistoryIOError{Op: "read", Path: f.path, Err: err}).Error(),
			})
		}
		return nil
	}
	return entries
}

func (f *FileStore) save(entries []domain.HistoryEntry) error {
	data, err := encodeJSON(entries)
	if err == nil {
		err = filesystem.WriteFileAtomic(f.path, data, domain.SecureFilePermissions)
	}
	if err != nil {
		ioErr := &domain.HistoryIOError{Op: "write", Path: f.path, Err: err}
		f.logger.Error("history write failed", ioErr, nil)
		return ioErr
	}
	return nil
}

var _ ports.HistoryRepository = (*FileStore)(nil)
