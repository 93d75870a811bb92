package domain

import (
	"strconv"
	"strings"
	"time"
)

// HistoryEntry records one successful prompt generation. Entries are never mutated.
type HistoryEntry struct {
	ID             int64  `json:"id"`
	Timestamp      string `json:"timestamp"`
	Input          string `json:"input"`
	Output         string `json:"output"`
	NegativePrompt string `json:"negative_prompt"`
	Service        string `json:"service"`
	Model          string `json:"model"`
	TargetModel    string `json:"target_model"`
	Creativity     string `json:"creativity"`
}

// HistoryFields is the column order used by tabular exports.
var HistoryFields = []string{"id", "timestamp", "input", "output", "negative_prompt", "service", "model", "target_model", "creativity"}

// Values returns the entry in HistoryFields order.
func (e HistoryEntry) Values() []string {
	return []string{
		formatID(e.ID),
		e.Timestamp,
		e.Input,
		e.Output,
		e.NegativePrompt,
		e.Service,
		e.Model,
		e.TargetModel,
		e.Creativity,
	}
}

// Time parses the entry timestamp, returning zero on malformed values.
func (e HistoryEntry) Time() time.Time {
	if t, err := time.Parse(time.RFC3339Nano, e.Timestamp); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02T15:04:05.999999", e.Timestamp); err == nil {
		return t
	}
	return time.Time{}
}

// Matches reports whether query occurs in the input or output, case-insensitively.
func (e HistoryEntry) Matches(query string) bool {
	haystack := strings.ToLower(e.Input + " " + e.Output)
	return strings.Contains(haystack, strings.ToLower(query))
}

// HistoryMetadata is the summary shown when an entry is loaded.
type HistoryMetadata struct {
	Timestamp   string `json:"timestamp"`
	Service     string `json:"service"`
	Model       string `json:"model"`
	TargetModel string `json:"target_model"`
}

// Metadata extracts the summary fields.
func (e HistoryEntry) Metadata() HistoryMetadata {
	return HistoryMetadata{
		Timestamp:   e.Timestamp,
		Service:     e.Service,
		Model:       e.Model,
		TargetModel: e.TargetModel,
	}
}

// SearchHistory keeps the entries matching query. A blank query returns entries unchanged.
func SearchHistory(entries []HistoryEntry, query string) []HistoryEntry {
	if strings.TrimSpace(query) == "" {
		return entries
	}
	filtered := make([]HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Matches(query) {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

// HistoryFilter narrows a listing by metadata and date. Zero fields are ignored.
type HistoryFilter struct {
	Service    string
	Model      string
	Creativity string
	From       time.Time
	To         time.Time
}

// IsZero reports whether the filter would keep everything.
func (f HistoryFilter) IsZero() bool {
	return f.Service == "" && f.Model == "" && f.Creativity == "" && f.From.IsZero() && f.To.IsZero()
}

// FilterHistory applies f to entries, preserving order. Date bounds are inclusive
// and compare calendar days.
func FilterHistory(entries []HistoryEntry, f HistoryFilter) []HistoryEntry {
	if f.IsZero() {
		return entries
	}
	filtered := make([]HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		if f.Service != "" && entry.Service != f.Service {
			continue
		}
		if f.Model != "" && entry.Model != f.Model {
			continue
		}
		if f.Creativity != "" && entry.Creativity != f.Creativity {
			continue
		}
		if !f.From.IsZero() || !f.To.IsZero() {
			day := truncateDay(entry.Time())
			if !f.From.IsZero() && day.Before(truncateDay(f.From)) {
				continue
			}
			if !f.To.IsZero() && day.After(truncateDay(f.To)) {
				continue
			}
		}
		filtered = append(filtered, entry)
	}
	return filtered
}

// HistorySelectMode picks how load-history chooses an entry.
type HistorySelectMode string

const (
	SelectLatest HistorySelectMode = "latest"
	SelectIndex  HistorySelectMode = "index"
	SelectSearch HistorySelectMode = "search"
)

// HistorySelector identifies one entry to load.
type HistorySelector struct {
	By    HistorySelectMode `json:"load_by"`
	Index int               `json:"index"`
	Term  string            `json:"search_term"`
}

// SelectHistory resolves sel against entries (most recent first). An empty list
// yields ErrHistoryEmpty and a miss yields ErrHistoryNotFound.
func SelectHistory(entries []HistoryEntry, sel HistorySelector) (HistoryEntry, error) {
	if len(entries) == 0 {
		return HistoryEntry{}, ErrHistoryEmpty
	}
	switch sel.By {
	case SelectLatest, "":
		return entries[0], nil
	case SelectIndex:
		if sel.Index >= 0 && sel.Index < len(entries) {
			return entries[sel.Index], nil
		}
	case SelectSearch:
		for _, entry := range entries {
			if entry.Matches(sel.Term) {
				return entry, nil
			}
		}
	}
	return HistoryEntry{}, ErrHistoryNotFound
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
