package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/promptcraft/internal/domain"
	"github.com/doeshing/promptcraft/internal/pkg/logger"
	"github.com/doeshing/promptcraft/internal/ports"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type stubLister struct {
	service domain.Service
	models  []string
	err     error
	delay   time.Duration
	calls   int32
}

func (s *stubLister) Service() domain.Service { return s.service }

func (s *stubLister) ListModels(ctx context.Context) ([]string, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.models, s.err
}

func (s *stubLister) Calls() int {
	return int(atomic.LoadInt32(&s.calls))
}

func newTestRegistry(clock ports.Clock, listers ...ports.ModelLister) *Registry {
	return NewRegistry(listers, NewMemoryCache(30*time.Second, clock), time.Second, logger.NewNop())
}

func TestRegistryDiscover_MergesAndTags(t *testing.T) {
	lm := &stubLister{service: domain.ServiceLMStudio, models: []string{"qwen2.5-7b", "gemma-2"}}
	ol := &stubLister{service: domain.ServiceOllama, models: []string{"llama3:8b", "llama3:8b", "mistral"}}

	got := newTestRegistry(nil, lm, ol).Discover(context.Background(), false)

	assert.Equal(t, []string{
		"[LM Studio] gemma-2",
		"[LM Studio] qwen2.5-7b",
		"[Ollama] llama3:8b",
		"[Ollama] mistral",
	}, got)
}

func TestRegistryDiscover_BothDownYieldsSentinel(t *testing.T) {
	lm := &stubLister{service: domain.ServiceLMStudio, err: errors.New("connection refused")}
	ol := &stubLister{service: domain.ServiceOllama, err: errors.New("connection refused")}

	got := newTestRegistry(nil, lm, ol).Discover(context.Background(), false)

	require.Len(t, got, 1)
	assert.Equal(t, domain.NoModelsSentinel, got[0])
	assert.False(t, domain.IsSelectableModel(got[0]))
}

func TestRegistryDiscover_OneBackendDown(t *testing.T) {
	lm := &stubLister{service: domain.ServiceLMStudio, err: errors.New("timeout")}
	ol := &stubLister{service: domain.ServiceOllama, models: []string{"phi3"}}

	got := newTestRegistry(nil, lm, ol).Discover(context.Background(), false)
	assert.Equal(t, []string{"[Ollama] phi3"}, got)
}

func TestRegistryDiscover_CacheTTL(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	ol := &stubLister{service: domain.ServiceOllama, models: []string{"phi3"}}
	registry := newTestRegistry(clock, ol)

	registry.Discover(context.Background(), false)
	clock.Advance(10 * time.Second)
	registry.Discover(context.Background(), false)
	assert.Equal(t, 1, ol.Calls(), "second call within TTL must be served from cache")

	clock.Advance(25 * time.Second)
	registry.Discover(context.Background(), false)
	assert.Equal(t, 2, ol.Calls(), "expired cache must re-query")

	registry.Discover(context.Background(), true)
	assert.Equal(t, 3, ol.Calls(), "forced refresh must re-query")

	registry.Invalidate()
	registry.Discover(context.Background(), false)
	assert.Equal(t, 4, ol.Calls(), "invalidated cache must re-query")
}

func TestRegistryDiscover_SlowBackendIsBounded(t *testing.T) {
	slow := &stubLister{service: domain.ServiceLMStudio, models: []string{"never"}, delay: time.Minute}
	ol := &stubLister{service: domain.ServiceOllama, models: []string{"phi3"}}
	registry := NewRegistry([]ports.ModelLister{slow, ol}, NewMemoryCache(0, nil), 50*time.Millisecond, logger.NewNop())

	start := time.Now()
	got := registry.Discover(context.Background(), true)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, []string{"[Ollama] phi3"}, got)
}

// gatedLister blocks every call until release is closed.
type gatedLister struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
	calls   int32
}

func (g *gatedLister) Service() domain.Service { return domain.ServiceOllama }

func (g *gatedLister) ListModels(ctx context.Context) ([]string, error) {
	atomic.AddInt32(&g.calls, 1)
	g.once.Do(func() { close(g.entered) })
	select {
	case <-g.release:
		return []string{"phi3"}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestRegistryDiscover_ConcurrentRefreshes(t *testing.T) {
	gate := &gatedLister{entered: make(chan struct{}), release: make(chan struct{})}
	registry := NewRegistry([]ports.ModelLister{gate}, NewMemoryCache(30*time.Second, nil), 5*time.Second, logger.NewNop())

	const callers = 8
	var ready, done sync.WaitGroup
	start := make(chan struct{})
	results := make([][]string, callers)
	for i := 0; i < callers; i++ {
		ready.Add(1)
		done.Add(1)
		go func(i int) {
			defer done.Done()
			ready.Done()
			<-start
			results[i] = registry.Discover(context.Background(), true)
		}(i)
	}
	ready.Wait()
	close(start)

	<-gate.entered
	// Let the remaining callers join the in-flight refresh before it completes.
	time.Sleep(100 * time.Millisecond)
	close(gate.release)
	done.Wait()

	for _, got := range results {
		assert.Equal(t, []string{"[Ollama] phi3"}, got)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&gate.calls))
}

func TestRegistryDiscover_CallerCancelDoesNotPoisonCache(t *testing.T) {
	ol := &stubLister{service: domain.ServiceOllama, models: []string{"phi3"}, delay: 50 * time.Millisecond}
	registry := newTestRegistry(nil, ol)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Equal(t, []string{"[Ollama] phi3"}, registry.Discover(ctx, true))

	assert.Equal(t, []string{"[Ollama] phi3"}, registry.Discover(context.Background(), false))
	assert.Equal(t, 1, ol.Calls(), "second call must be served from the cache")
}

func TestMemoryCache(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	cache := NewMemoryCache(30*time.Second, clock)

	_, ok := cache.Get()
	assert.False(t, ok)

	cache.Set(nil)
	_, ok = cache.Get()
	assert.False(t, ok, "empty list is never fresh")

	cache.Set([]string{"a"})
	got, ok := cache.Get()
	require.True(t, ok)
	got[0] = "mutated"
	again, _ := cache.Get()
	assert.Equal(t, []string{"a"}, again)

	clock.Advance(30 * time.Second)
	_, ok = cache.Get()
	assert.False(t, ok)

	cache.Set([]string{"a"})
	clock.Advance(-time.Minute)
	_, ok = cache.Get()
	assert.False(t, ok, "entry stamped in the future is stale")
}

func TestRouterResolve(t *testing.T) {
	router := NewRouter(domain.Config{Backends: domain.BackendSettings{
		Ollama:   domain.OllamaSettings{BaseURL: "http://localhost:11434"},
		LMStudio: domain.LMStudioSettings{BaseURL: "http://localhost:1234"},
	}})

	tests := []struct {
		display string
		want    domain.ModelRoute
	}{
		{
			display: "[Ollama] llama3:8b",
			want:    domain.ModelRoute{Service: domain.ServiceOllama, Model: "llama3:8b", BaseURL: "http://localhost:11434"},
		},
		{
			display: "[LM Studio] qwen2.5-7b-instruct",
			want:    domain.ModelRoute{Service: domain.ServiceLMStudio, Model: "qwen2.5-7b-instruct", BaseURL: "http://localhost:1234"},
		},
		{
			display: "mystery-model",
			want:    domain.ModelRoute{Service: domain.ServiceLMStudio, Model: "mystery-model", BaseURL: "http://localhost:1234"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.display, func(t *testing.T) {
			assert.Equal(t, tt.want, router.Resolve(tt.display))
		})
	}
}
