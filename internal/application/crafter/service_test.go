package crafter

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/promptcraft/internal/application/catalog"
	"github.com/doeshing/promptcraft/internal/domain"
	"github.com/doeshing/promptcraft/internal/infrastructure/history"
	"github.com/doeshing/promptcraft/internal/pkg/logger"
	"github.com/doeshing/promptcraft/internal/ports"
)

type stubBackend struct {
	service  domain.Service
	reply    string
	err      error
	requests []domain.GenerationRequest
}

func (b *stubBackend) Service() domain.Service { return b.service }

func (b *stubBackend) ListModels(context.Context) ([]string, error) { return nil, nil }

func (b *stubBackend) Complete(_ context.Context, req domain.GenerationRequest) (string, error) {
	b.requests = append(b.requests, req)
	return b.reply, b.err
}

type stubFactory struct {
	backends map[domain.Service]*stubBackend
}

func (f stubFactory) ForService(service domain.Service) (ports.Backend, error) {
	backend, ok := f.backends[service]
	if !ok {
		return nil, errors.New("no backend")
	}
	return backend, nil
}

type stubCatalog struct {
	models      []string
	invalidated int
}

func (c *stubCatalog) Discover(context.Context, bool) []string { return c.models }

func (c *stubCatalog) Invalidate() { c.invalidated++ }

type stubPuller struct {
	lines []domain.PullProgress
	err   error
}

func (p stubPuller) Pull(_ context.Context, _ string, progress func(domain.PullProgress)) error {
	for _, line := range p.lines {
		progress(line)
	}
	return p.err
}

type fixture struct {
	svc      *Service
	ollama   *stubBackend
	lmstudio *stubBackend
	store    ports.HistoryRepository
	catalog  *stubCatalog
}

func newFixture(t *testing.T, reply string) *fixture {
	t.Helper()
	ollama := &stubBackend{service: domain.ServiceOllama, reply: reply}
	lmstudio := &stubBackend{service: domain.ServiceLMStudio, reply: reply}
	store := history.NewFileStore(filepath.Join(t.TempDir(), "history.json"), nil, logger.NewNop())
	cat := &stubCatalog{models: []string{"[Ollama] llama3"}}
	cfg := domain.Config{Backends: domain.BackendSettings{
		Ollama:   domain.OllamaSettings{BaseURL: "http://localhost:11434"},
		LMStudio: domain.LMStudioSettings{BaseURL: "http://localhost:1234"},
	}}
	return &fixture{
		svc: &Service{
			Catalog:      cat,
			Router:       catalog.NewRouter(cfg),
			Backends:     stubFactory{backends: map[domain.Service]*stubBackend{domain.ServiceOllama: ollama, domain.ServiceLMStudio: lmstudio}},
			History:      store,
			HistoryLabel: "test",
			Logger:       logger.NewNop(),
		},
		ollama:   ollama,
		lmstudio: lmstudio,
		store:    store,
		catalog:  cat,
	}
}

func TestGeneratePrompt_RoutesBuildsAndRecords(t *testing.T) {
	fx := newFixture(t, "A lone astronaut on a red dune at dusk.")

	res, err := fx.svc.GeneratePrompt(context.Background(), domain.PromptRequest{
		Model:          "[Ollama] llama3",
		Target:         "video",
		Creativity:     domain.CreativityCreative,
		Input:          "astronaut on mars",
		NegativePrompt: "blurry",
		UnloadAfter:    true,
		SaveToHistory:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "A lone astronaut on a red dune at dusk.", res.Positive)
	assert.Equal(t, "blurry", res.Negative)
	assert.NotZero(t, res.HistoryID)

	require.Len(t, fx.ollama.requests, 1)
	sent := fx.ollama.requests[0]
	assert.Equal(t, "llama3", sent.Model)
	assert.Equal(t, "http://localhost:11434", sent.BaseURL)
	assert.Equal(t, 0.7, sent.Temperature)
	assert.Equal(t, domain.DefaultMaxTokens, sent.MaxTokens)
	assert.True(t, sent.UnloadAfter)
	assert.Contains(t, sent.SystemPrompt, "Wan 2.2")
	assert.Equal(t, "astronaut on mars", sent.UserPrompt)

	var debug map[string]string
	require.NoError(t, json.Unmarshal([]byte(res.DebugContext), &debug))
	assert.Equal(t, "wan2.2", debug["target_model"])
	assert.Equal(t, "creative", debug["creativity_mode"])
	assert.Equal(t, "ollama", debug["llm_service"])
	assert.Equal(t, "llama3", debug["llm_model"])
	assert.NotEmpty(t, debug["request_id"])

	entries, err := fx.store.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "astronaut on mars", entries[0].Input)
	assert.Equal(t, "blurry", entries[0].NegativePrompt)
	assert.Equal(t, "wan2.2", entries[0].TargetModel)
	assert.Equal(t, res.HistoryID, entries[0].ID)
}

func TestGeneratePrompt_UnknownPrefixGoesToLMStudio(t *testing.T) {
	fx := newFixture(t, "ok")
	_, err := fx.svc.GeneratePrompt(context.Background(), domain.PromptRequest{Model: "qwen2.5-7b", Input: "x"})
	require.NoError(t, err)
	assert.Empty(t, fx.ollama.requests)
	require.Len(t, fx.lmstudio.requests, 1)
	assert.Equal(t, "qwen2.5-7b", fx.lmstudio.requests[0].Model)
}

func TestGeneratePrompt_ValidationBeforeNetwork(t *testing.T) {
	tests := []struct {
		name string
		req  domain.PromptRequest
		want error
	}{
		{name: "empty input", req: domain.PromptRequest{Model: "[Ollama] llama3", Input: "  "}, want: domain.ErrEmptyInput},
		{name: "empty model", req: domain.PromptRequest{Input: "x"}, want: domain.ErrNoModelSelected},
		{name: "sentinel model", req: domain.PromptRequest{Model: domain.NoModelsSentinel, Input: "x"}, want: domain.ErrNoModelSelected},
		{name: "tag without name", req: domain.PromptRequest{Model: "[Ollama] ", Input: "x"}, want: domain.ErrNoModelSelected},
		{name: "max tokens too big", req: domain.PromptRequest{Model: "[Ollama] llama3", Input: "x", MaxTokens: 9000}, want: domain.ErrInvalidOption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t, "unused")
			_, err := fx.svc.GeneratePrompt(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, domain.IsValidationError(err))
			assert.Empty(t, fx.ollama.requests)
			assert.Empty(t, fx.lmstudio.requests)
		})
	}
}

func TestGeneratePrompt_BackendFailureSkipsHistory(t *testing.T) {
	fx := newFixture(t, "")
	fx.ollama.err = &domain.LLMUnavailableError{Service: domain.ServiceOllama, URL: "http://localhost:11434/api/chat", Err: errors.New("refused")}

	_, err := fx.svc.GeneratePrompt(context.Background(), domain.PromptRequest{Model: "[Ollama] llama3", Input: "x", SaveToHistory: true})
	var unavailable *domain.LLMUnavailableError
	require.True(t, errors.As(err, &unavailable))

	entries, err := fx.store.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGeneratePrompt_TimeoutSetsDeadline(t *testing.T) {
	fx := newFixture(t, "ok")
	fx.svc.Timeout = time.Minute
	var deadline bool
	fx.svc.Backends = deadlineFactory{seen: &deadline}

	_, err := fx.svc.GeneratePrompt(context.Background(), domain.PromptRequest{Model: "[Ollama] llama3", Input: "x"})
	require.NoError(t, err)
	assert.True(t, deadline)
}

type deadlineFactory struct{ seen *bool }

func (f deadlineFactory) ForService(domain.Service) (ports.Backend, error) {
	return deadlineBackend(f), nil
}

type deadlineBackend struct{ seen *bool }

func (deadlineBackend) Service() domain.Service                        { return domain.ServiceOllama }
func (deadlineBackend) ListModels(context.Context) ([]string, error) { return nil, nil }
func (b deadlineBackend) Complete(ctx context.Context, _ domain.GenerationRequest) (string, error) {
	_, *b.seen = ctx.Deadline()
	return "ok", nil
}

func TestGenerateIdeas(t *testing.T) {
	fx := newFixture(t, "1. A cat.\n2. A dog.\n3. A bird.")

	res, err := fx.svc.GenerateIdeas(context.Background(), domain.IdeasRequest{
		Model:     "[Ollama] llama3",
		Keywords:  "pets",
		Target:    domain.TargetFlux,
		StyleHint: "anime",
	})
	require.NoError(t, err)
	assert.Equal(t, "1. A cat.\n2. A dog.\n3. A bird.", res.All)
	assert.Equal(t, []string{"A cat.", "A dog.", "A bird.", "", "", ""}, res.Ideas)

	sent := fx.ollama.requests[0]
	assert.Equal(t, 0.85, sent.Temperature)
	assert.Equal(t, 500, sent.MaxTokens)
	assert.Contains(t, sent.UserPrompt, "Generate 3 SHORT image scene ideas. Each idea should have a anime feel.")
}

func TestGenerateIdeas_Validation(t *testing.T) {
	fx := newFixture(t, "")
	_, err := fx.svc.GenerateIdeas(context.Background(), domain.IdeasRequest{Model: "[Ollama] llama3", Keywords: "x", NumIdeas: 7})
	assert.ErrorIs(t, err, domain.ErrInvalidOption)
	_, err = fx.svc.GenerateIdeas(context.Background(), domain.IdeasRequest{Model: "[Ollama] llama3", Keywords: "x", StyleHint: "gothic"})
	assert.ErrorIs(t, err, domain.ErrInvalidOption)
	_, err = fx.svc.GenerateIdeas(context.Background(), domain.IdeasRequest{Model: "[Ollama] llama3"})
	assert.ErrorIs(t, err, domain.ErrEmptyInput)
	assert.Empty(t, fx.ollama.requests)
}

func TestGenerateSequence(t *testing.T) {
	fx := newFixture(t, "SEGMENT 1: dawn scene SEGMENT 2: noon scene SEGMENT 3: dusk scene")

	res, err := fx.svc.GenerateSequence(context.Background(), domain.SequenceRequest{
		Model:       "[LM Studio] qwen",
		Concept:     "a day at the beach",
		NumSegments: 3,
		Creativity:  domain.CreativityPrecise,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"dawn scene", "noon scene", "dusk scene"}, res.Segments)

	sent := fx.lmstudio.requests[0]
	assert.Equal(t, 0.3, sent.Temperature)
	assert.Equal(t, 1500, sent.MaxTokens)
	assert.Contains(t, sent.UserPrompt, "Segments: 3 x 5 seconds")
	assert.Contains(t, sent.UserPrompt, "Camera: Vary movements per segment.")
}

func TestGenerateSequence_Validation(t *testing.T) {
	tests := []domain.SequenceRequest{
		{NumSegments: 1},
		{NumSegments: 7},
		{Duration: "4sec"},
		{Transition: "wipe"},
		{Camera: "handheld"},
	}
	for _, req := range tests {
		fx := newFixture(t, "")
		req.Model = "[Ollama] llama3"
		req.Concept = "x"
		_, err := fx.svc.GenerateSequence(context.Background(), req)
		assert.ErrorIs(t, err, domain.ErrInvalidOption, "%+v", req)
		assert.Empty(t, fx.ollama.requests)
	}
}

func TestLoadHistory(t *testing.T) {
	fx := newFixture(t, "")

	_, err := fx.svc.LoadHistory(context.Background(), domain.HistorySelector{By: domain.SelectLatest})
	assert.ErrorIs(t, err, domain.ErrHistoryEmpty)

	for _, in := range []string{"sunset over sea", "forest at night"} {
		_, err := fx.store.Append(domain.HistoryEntry{Input: in, Output: "out " + in})
		require.NoError(t, err)
	}

	latest, err := fx.svc.LoadHistory(context.Background(), domain.HistorySelector{By: domain.SelectLatest})
	require.NoError(t, err)
	assert.Equal(t, "forest at night", latest.Input)

	byIndex, err := fx.svc.LoadHistory(context.Background(), domain.HistorySelector{By: domain.SelectIndex, Index: 1})
	require.NoError(t, err)
	assert.Equal(t, "sunset over sea", byIndex.Input)

	bySearch, err := fx.svc.LoadHistory(context.Background(), domain.HistorySelector{By: domain.SelectSearch, Term: "SUNSET"})
	require.NoError(t, err)
	assert.Equal(t, "sunset over sea", bySearch.Input)

	_, err = fx.svc.LoadHistory(context.Background(), domain.HistorySelector{By: domain.SelectIndex, Index: 5})
	assert.ErrorIs(t, err, domain.ErrHistoryNotFound)
	_, err = fx.svc.LoadHistory(context.Background(), domain.HistorySelector{By: domain.SelectSearch, Term: "desert"})
	assert.ErrorIs(t, err, domain.ErrHistoryNotFound)
}

func TestHistoryDisabled(t *testing.T) {
	fx := newFixture(t, "ok")
	fx.svc.History = nil

	res, err := fx.svc.GeneratePrompt(context.Background(), domain.PromptRequest{Model: "[Ollama] llama3", Input: "x", SaveToHistory: true})
	require.NoError(t, err)
	assert.Zero(t, res.HistoryID)

	entries, err := fx.svc.ListHistory("", domain.HistoryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, fx.svc.HistoryPath())
}

func TestPullModel(t *testing.T) {
	fx := newFixture(t, "")
	total, done := int64(100), int64(100)
	fx.svc.Puller = stubPuller{lines: []domain.PullProgress{{Status: "pulling"}, {Status: "done", Completed: &done, Total: &total}}}

	var seen []string
	require.NoError(t, fx.svc.PullModel(context.Background(), "llama3", func(p domain.PullProgress) {
		seen = append(seen, p.Status)
	}))
	assert.Equal(t, []string{"pulling", "done"}, seen)
	assert.Equal(t, 1, fx.catalog.invalidated)

	fx.svc.Puller = stubPuller{err: errors.New("boom")}
	assert.Error(t, fx.svc.PullModel(context.Background(), "llama3", nil))
	assert.Equal(t, 1, fx.catalog.invalidated)

	assert.ErrorIs(t, fx.svc.PullModel(context.Background(), " ", nil), domain.ErrEmptyInput)
	fx.svc.Puller = nil
	assert.ErrorIs(t, fx.svc.PullModel(context.Background(), "llama3", nil), domain.ErrPullUnsupported)
}

func TestStyleNegativeCombine(t *testing.T) {
	svc := &Service{}

	styled, err := svc.Style("a fox", "cinematic")
	require.NoError(t, err)
	assert.Equal(t, "Cinematic shot, a fox, dramatic lighting, film grain", styled)
	_, err = svc.Style("a fox", "baroque")
	assert.ErrorIs(t, err, domain.ErrInvalidOption)

	negative, err := svc.Negative("video", "text, logo")
	require.NoError(t, err)
	assert.Equal(t, "static, still image, frozen, no motion, choppy, low fps, artifacts, text, logo", negative)

	combined, err := svc.Combine("", "a", " ", "b")
	require.NoError(t, err)
	assert.Equal(t, "a, b", combined)
	combined, err = svc.Combine("newline", "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "a\nb", combined)
	_, err = svc.Combine("tab", "a")
	assert.ErrorIs(t, err, domain.ErrInvalidOption)
}

func TestListModels(t *testing.T) {
	fx := newFixture(t, "")
	assert.Equal(t, []string{"[Ollama] llama3"}, fx.svc.ListModels(context.Background(), false))

	fx.svc.Catalog = nil
	assert.Equal(t, []string{domain.NoModelsSentinel}, fx.svc.ListModels(context.Background(), false))
}
