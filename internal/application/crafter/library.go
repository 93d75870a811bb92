package crafter

import (
	"context"
	"strings"

	"github.com/doeshing/promptcraft/internal/domain"
	"github.com/doeshing/promptcraft/internal/pkg/metrics"
)

// LoadHistory picks one stored entry. An empty or disabled history yields
// ErrHistoryEmpty and a miss yields ErrHistoryNotFound.
func (s *Service) LoadHistory(_ context.Context, sel domain.HistorySelector) (domain.HistoryEntry, error) {
	entries, err := s.historyEntries()
	if err != nil {
		return domain.HistoryEntry{}, err
	}
	return domain.SelectHistory(entries, sel)
}

// ListHistory returns stored entries matching query and filter, most recent first.
func (s *Service) ListHistory(query string, filter domain.HistoryFilter) ([]domain.HistoryEntry, error) {
	entries, err := s.historyEntries()
	if err != nil {
		return nil, err
	}
	return domain.FilterHistory(domain.SearchHistory(entries, query), filter), nil
}

// DeleteHistory removes the entry at index of the unfiltered listing.
func (s *Service) DeleteHistory(index int) error {
	if s.History == nil {
		return domain.ErrHistoryNotFound
	}
	if err := s.History.DeleteAt(index); err != nil {
		return err
	}
	s.observeHistory()
	return nil
}

// ClearHistory empties the store.
func (s *Service) ClearHistory() error {
	if s.History == nil {
		return nil
	}
	if err := s.History.Clear(); err != nil {
		return err
	}
	s.observeHistory()
	return nil
}

// ExportHistory writes the store to dir in format and returns the file path.
func (s *Service) ExportHistory(format, dir string) (string, error) {
	if s.History == nil {
		return "", domain.ErrHistoryEmpty
	}
	return s.History.Export(format, dir)
}

// HistoryPath reports where the store lives, or "" when history is disabled.
func (s *Service) HistoryPath() string {
	if s.History == nil {
		return ""
	}
	return s.History.Path()
}

func (s *Service) historyEntries() ([]domain.HistoryEntry, error) {
	if s.History == nil {
		return nil, nil
	}
	return s.History.List()
}

func (s *Service) observeHistory() {
	if s.History == nil || s.HistoryLabel == "" {
		return
	}
	if entries, err := s.History.List(); err == nil {
		metrics.HistoryEntries.WithLabelValues(s.HistoryLabel).Set(float64(len(entries)))
	}
}

// ListModels returns the tagged model selectors, re-querying backends when refresh is set.
func (s *Service) ListModels(ctx context.Context, refresh bool) []string {
	if s.Catalog == nil {
		return []string{domain.NoModelsSentinel}
	}
	return s.Catalog.Discover(ctx, refresh)
}

// PullModel downloads a model through Ollama and drops the cached model list.
func (s *Service) PullModel(ctx context.Context, name string, progress func(domain.PullProgress)) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrEmptyInput
	}
	if s.Puller == nil {
		return domain.ErrPullUnsupported
	}
	s.Logger.Info("pulling model", map[string]interface{}{"model": name})
	if err := s.Puller.Pull(ctx, name, progress); err != nil {
		return err
	}
	if s.Catalog != nil {
		s.Catalog.Invalidate()
	}
	return nil
}

// Style wraps text with a named style preset.
func (s *Service) Style(text, preset string) (string, error) {
	if err := domain.ValidateChoice("style", preset, domain.StylePresets); err != nil {
		return "", err
	}
	return domain.ApplyStyle(text, preset), nil
}

// Negative builds a negative prompt from a preset plus extra terms.
func (s *Service) Negative(preset, additional string) (string, error) {
	if err := domain.ValidateChoice("negative preset", preset, domain.NegativePresets); err != nil {
		return "", err
	}
	return domain.BuildNegative(preset, additional), nil
}

// Combine joins non-blank texts with a named separator.
func (s *Service) Combine(separator string, texts ...string) (string, error) {
	if separator == "" {
		separator = "comma"
	}
	if err := domain.ValidateChoice("separator", separator, domain.Separators); err != nil {
		return "", err
	}
	return domain.CombineTexts(separator, texts...), nil
}
