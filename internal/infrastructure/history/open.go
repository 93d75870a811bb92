package history

import (
	"fmt"

	"github.com/doeshing/promptcraft/internal/domain"
	"github.com/doeshing/promptcraft/internal/ports"
)

// Open builds the store for backend at path. The returned func releases it.
func Open(backend, path string, clock ports.Clock, logger ports.Logger) (ports.HistoryRepository, func(), error) {
	switch backend {
	case "", domain.HistoryBackendJSON:
		return NewFileStore(path, clock, logger), func() {}, nil
	case domain.HistoryBackendSQLite:
		store, err := NewSQLiteStore(path, clock, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown history backend %q", domain.ErrInvalidOption, backend)
	}
}
