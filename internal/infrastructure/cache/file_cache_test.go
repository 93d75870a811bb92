package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/promptcraft/internal/pkg/logger"
)

type stepClock struct{ now time.Time }

func (c *stepClock) Now() time.Time { return c.now }

func TestFileModelCache_SurvivesNewInstance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "models.json")
	clock := &stepClock{now: time.Unix(1_700_000_000, 0)}

	first := NewFileModelCache(path, 30*time.Second, clock, logger.NewNop())
	first.Set([]string{"[Ollama] llama3"})

	second := NewFileModelCache(path, 30*time.Second, clock, logger.NewNop())
	got, ok := second.Get()
	require.True(t, ok)
	assert.Equal(t, []string{"[Ollama] llama3"}, got)

	clock.now = clock.now.Add(31 * time.Second)
	_, ok = second.Get()
	assert.False(t, ok)
}

func TestFileModelCache_InvalidateAndCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.json")
	cache := NewFileModelCache(path, time.Minute, nil, logger.NewNop())

	_, ok := cache.Get()
	assert.False(t, ok)

	cache.Set([]string{"a"})
	_, ok = cache.Get()
	assert.True(t, ok)

	cache.Invalidate()
	_, ok = cache.Get()
	assert.False(t, ok)
	cache.Invalidate()

	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))
	_, ok = cache.Get()
	assert.False(t, ok)
}

func TestFileModelCache_EmptyListIsNeverFresh(t *testing.T) {
	cache := NewFileModelCache(filepath.Join(t.TempDir(), "models.json"), time.Minute, nil, logger.NewNop())
	cache.Set(nil)
	_, ok := cache.Get()
	assert.False(t, ok)
}

func TestFileModelCache_FutureTimestampIsStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.json")
	clock := &stepClock{now: time.Unix(1_700_000_000, 0)}
	cache := NewFileModelCache(path, 30*time.Second, clock, logger.NewNop())
	cache.Set([]string{"[Ollama] llama3"})

	clock.now = clock.now.Add(-time.Hour)
	_, ok := cache.Get()
	assert.False(t, ok)
}
