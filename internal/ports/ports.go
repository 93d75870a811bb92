// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and external
// adapters (infrastructure). The application services depend only on these
// interfaces, so backends, stores and the logger can be swapped or stubbed in tests.
//
// Key architectural concepts:
//   - Ports: Interfaces defined here (e.g., Backend, HistoryRepository)
//   - Adapters: Concrete implementations in the infrastructure layer
//   - Dependency inversion: Application depends on abstractions, not implementations
package ports

import (
	"context"
	"time"

	"github.com/doeshing/promptcraft/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.promptcraft/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// ModelLister reports the models a backend currently offers.
type ModelLister interface {
	Service() domain.Service
	ListModels(ctx context.Context) ([]string, error)
}

// ChatCompleter issues one synchronous, non-streaming completion.
// Failures are *domain.LLMUnavailableError or *domain.LLMProtocolError.
type ChatCompleter interface {
	Complete(ctx context.Context, req domain.GenerationRequest) (string, error)
}

// Backend is a local LLM server that can both list and complete.
type Backend interface {
	ModelLister
	ChatCompleter
}

// ModelPuller downloads a model, reporting each streamed progress line.
type ModelPuller interface {
	Pull(ctx context.Context, name string, progress func(domain.PullProgress)) error
}

// ModelCatalog lists tagged model selectors across backends.
type ModelCatalog interface {
	Discover(ctx context.Context, forceRefresh bool) []string
	Invalidate()
}

// ModelRouter resolves a selector to its backend.
type ModelRouter interface {
	Resolve(display string) domain.ModelRoute
}

// BackendFactory hands out the client for a service.
type BackendFactory interface {
	ForService(service domain.Service) (Backend, error)
}

// HistoryRepository persists a capped, most-recent-first list of generations.
type HistoryRepository interface {
	Append(entry domain.HistoryEntry) (int64, error)
	List() ([]domain.HistoryEntry, error)
	DeleteAt(index int) error
	Clear() error
	Search(query string) ([]domain.HistoryEntry, error)
	Export(format, dir string) (string, error)
	Path() string
}

// ModelCache memoizes the last discovery result.
type ModelCache interface {
	// Get returns the cached list and true when it is fresh and non-empty.
	Get() ([]string, bool)
	Set(models []string)
	Invalidate()
}

// Clock abstracts time for TTL checks and history stamps.
type Clock interface {
	Now() time.Time
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (terminal, files, JSON).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }
