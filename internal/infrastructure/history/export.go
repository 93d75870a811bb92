package history

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/doeshing/promptcraft/internal/domain"
	"github.com/doeshing/promptcraft/internal/pkg/filesystem"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

const exportPrefix = "promptcraft_history_"

// ExportFileName names an export written at now.
func ExportFileName(format string, now time.Time) string {
	return exportPrefix + now.Format(domain.ExportTimestampFormat) + "." + format
}

// writeExport renders entries in format and writes them into dir.
func writeExport(entries []domain.HistoryEntry, format, dir string, now time.Time) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = encodeJSON(entries)
	case FormatCSV:
		data, err = encodeCSV(entries)
	default:
		return "", fmt.Errorf("%w: unknown export format %q (expected json|csv)", domain.ErrInvalidOption, format)
	}
	if err != nil {
		return "", err
	}

	if dir == "" {
		dir = "."
	}
	path := filepath.Join(filesystem.ExpandPath(dir), ExportFileName(format, now))
	if err := filesystem.WriteFileAtomic(path, data, domain.SecureFilePermissions); err != nil {
		return "", &domain.HistoryIOError{Op: "export", Path: path, Err: err}
	}
	return path, nil
}

func encodeJSON(entries []domain.HistoryEntry) ([]byte, error) {
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}
	return append(data, '\n'), nil
}

func encodeCSV(entries []domain.HistoryEntry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(domain.HistoryFields); err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if err := w.Write(entry.Values()); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode history csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadJSON loads a history array written by a JSON store or export.
func ReadJSON(path string) ([]domain.HistoryEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []domain.HistoryEntry
	if len(bytes.TrimSpace(data)) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return entries, nil
}

// nextID derives a millisecond id that stays strictly above head.
func nextID(now time.Time, head int64) int64 {
	id := now.UnixMilli()
	if id <= head {
		id = head + 1
	}
	return id
}

func stamp(entry domain.HistoryEntry, now time.Time, head int64) domain.HistoryEntry {
	entry.ID = nextID(now, head)
	entry.Timestamp = now.Format(domain.TimestampFormat)
	return entry
}
