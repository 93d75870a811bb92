// Package cache persists the discovered model list between CLI invocations so
// the discovery TTL holds across short-lived processes.
package cache

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/doeshing/promptcraft/internal/domain"
	"github.com/doeshing/promptcraft/internal/pkg/filesystem"
	"github.com/doeshing/promptcraft/internal/ports"
)

// snapshot is the on-disk form of one discovery result.
type snapshot struct {
	Entries   []string  `json:"entries"`
	FetchedAt time.Time `json:"fetched_at"`
}

// FileModelCache stores the last model list as a JSON file.
type FileModelCache struct {
	path   string
	ttl    time.Duration
	clock  ports.Clock
	logger ports.Logger
	mu     sync.Mutex
}

// NewFileModelCache returns a cache rooted at path (~/.promptcraft/cache/models.json by default).
func NewFileModelCache(path string, ttl time.Duration, clock ports.Clock, logger ports.Logger) *FileModelCache {
	if ttl <= 0 {
		ttl = domain.DefaultModelCacheTTL
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &FileModelCache{
		path:   filesystem.ExpandPath(path),
		ttl:    ttl,
		clock:  clock,
		logger: logger,
	}
}

// Get returns the cached list while it is fresh and non-empty.
func (c *FileModelCache) Get() ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.logger.Debug("model cache unreadable", map[string]interface{}{"path": c.path, "error": err.Error()})
		}
		return nil, false
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		c.logger.Debug("model cache corrupt, ignoring", map[string]interface{}{"path": c.path, "error": err.Error()})
		return nil, false
	}
	if len(snap.Entries) == 0 || !fresh(c.clock.Now().Sub(snap.FetchedAt), c.ttl) {
		return nil, false
	}
	return snap.Entries, true
}

// fresh rejects negative ages too: a snapshot stamped in the future means the
// clock moved backwards.
func fresh(age, ttl time.Duration) bool {
	return age >= 0 && age < ttl
}

// Set replaces the cached list. Write failures are logged and ignored.
func (c *FileModelCache) Set(models []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(snapshot{Entries: models, FetchedAt: c.clock.Now()})
	if err == nil {
		err = filesystem.WriteFileAtomic(c.path, data, domain.SecureFilePermissions)
	}
	if err != nil {
		c.logger.Warn("failed to persist model cache", map[string]interface{}{"path": c.path, "error": err.Error()})
	}
}

// Invalidate removes the cache file.
func (c *FileModelCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		c.logger.Warn("failed to clear model cache", map[string]interface{}{"path": c.path, "error": err.Error()})
	}
}

// Path exposes the cache file path.
func (c *FileModelCache) Path() string {
	return c.path
}

var _ ports.ModelCache = (*FileModelCache)(nil)
