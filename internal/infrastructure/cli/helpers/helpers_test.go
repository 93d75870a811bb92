package helpers

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/promptcraft/internal/domain"
)

func init() {
	DisableStyling()
}

type stubCatalog struct {
	models []string
	calls  int
}

func (s *stubCatalog) Discover(context.Context, bool) []string {
	s.calls++
	return s.models
}

func (s *stubCatalog) Invalidate() {}

func sampleConfig() domain.Config {
	return domain.Config{
		Backends: domain.BackendSettings{
			Ollama:   domain.OllamaSettings{Enabled: true, BaseURL: "http://localhost:11434"},
			LMStudio: domain.LMStudioSettings{Enabled: true, BaseURL: "http://localhost:1234", Mode: "auto"},
		},
		Discovery: domain.DiscoverySettings{Timeout: 5 * time.Second, CacheTTL: time.Minute},
		Server:    domain.ServerSettings{Address: "127.0.0.1:8188", CORSOrigins: []string{"*"}},
	}
}

func TestReadInput(t *testing.T) {
	got, err := ReadInput([]string{"a", "quiet", "lake"}, strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "a quiet lake", got)

	got, err = ReadInput([]string{"-"}, strings.NewReader("  piped text\n"))
	require.NoError(t, err)
	assert.Equal(t, "piped text", got)

	got, err = ReadInput(nil, strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolveModel(t *testing.T) {
	catalog := &stubCatalog{models: []string{domain.NoModelsSentinel}}
	assert.Equal(t, "[Ollama] llama3", ResolveModel(context.Background(), catalog, "[Ollama] llama3", "[LM Studio] qwen"))
	assert.Equal(t, "[LM Studio] qwen", ResolveModel(context.Background(), catalog, "", "[LM Studio] qwen"))
	assert.Zero(t, catalog.calls)

	assert.Empty(t, ResolveModel(context.Background(), catalog, "", ""))

	catalog.models = []string{"[LM Studio] qwen", "[Ollama] llama3"}
	assert.Equal(t, "[LM Studio] qwen", ResolveModel(context.Background(), catalog, " ", ""))
	assert.Empty(t, ResolveModel(context.Background(), nil, "", ""))
}

func TestPromptForConfirmation(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, PromptForConfirmation(&out, strings.NewReader("Yes\n"), "Clear?"))
	assert.Contains(t, out.String(), "Clear? [y/N]")
	assert.False(t, PromptForConfirmation(&out, strings.NewReader("\n"), "Clear?"))
	assert.False(t, PromptForConfirmation(&out, strings.NewReader(""), "Clear?"))
}

func TestLookupConfigKey(t *testing.T) {
	cfg := sampleConfig()

	value, err := LookupConfigKey(cfg, "backends.ollama.base_url")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", value)

	value, err = LookupConfigKey(cfg, "discovery.timeout")
	require.NoError(t, err)
	assert.Equal(t, "5s", value)

	_, err = LookupConfigKey(cfg, "backends.vllm.base_url")
	assert.Error(t, err)
}

func TestApplyConfigKey(t *testing.T) {
	cfg := sampleConfig()

	updated, err := ApplyConfigKey(cfg, "backends.lmstudio.enabled", "false")
	require.NoError(t, err)
	assert.False(t, updated.Backends.LMStudio.Enabled)
	assert.True(t, cfg.Backends.LMStudio.Enabled, "input config must not change")

	updated, err = ApplyConfigKey(cfg, "discovery.cache_ttl", "10m")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, updated.Discovery.CacheTTL)

	updated, err = ApplyConfigKey(cfg, "server.cors_origins", "[http://localhost:8188]")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:8188"}, updated.Server.CORSOrigins)

	_, err = ApplyConfigKey(cfg, "server.port", "8080")
	assert.Error(t, err)

	_, err = ApplyConfigKey(cfg, "discovery.timeout", "soon")
	assert.Error(t, err)
}

func TestParseYAMLValue(t *testing.T) {
	assert.Equal(t, true, ParseYAMLValue("true"))
	assert.Equal(t, 42, ParseYAMLValue("42"))
	assert.Equal(t, "plain text", ParseYAMLValue("plain text"))
	assert.Equal(t, "", ParseYAMLValue(""))
}

func TestNestedMapHelpers(t *testing.T) {
	root := map[string]interface{}{}
	require.True(t, SetNestedMapValue(root, []string{"a", "b", "c"}, 1))
	value, ok := TraverseNestedMap(root, []string{"a", "b", "c"})
	require.True(t, ok)
	assert.Equal(t, 1, value)

	_, ok = TraverseNestedMap(root, []string{"a", "x"})
	assert.False(t, ok)
	assert.False(t, SetNestedMapValue(root, nil, 1))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "one two", Truncate("one\n  two", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "日本語の...", Truncate("日本語のプロンプトです", 7))
}

func TestRenderHistory(t *testing.T) {
	entries := []domain.HistoryEntry{
		{Timestamp: "2025-03-03T10:00:00Z", Service: "ollama", Model: "llama3", TargetModel: "flux", Input: "neon city"},
		{Timestamp: "2025-03-02T10:00:00Z", Service: "lmstudio", Model: "qwen", TargetModel: "wan2.2", Input: "forest"},
	}
	var out bytes.Buffer
	require.NoError(t, RenderHistory(&out, entries, 1))

	text := out.String()
	assert.Contains(t, text, "SERVICE")
	assert.Contains(t, text, "neon city")
	assert.NotContains(t, text, "forest")
}

func TestRenderPromptResult(t *testing.T) {
	res := domain.PromptResult{Positive: "a neon city", Negative: "blurry", DebugContext: `{"model":"x"}`}

	var out bytes.Buffer
	RenderPromptResult(&out, res, false)
	assert.Contains(t, out.String(), "a neon city")
	assert.Contains(t, out.String(), "blurry")
	assert.NotContains(t, out.String(), `"model"`)

	out.Reset()
	RenderPromptResult(&out, res, true)
	assert.Contains(t, out.String(), `"model"`)
}

func TestRenderHealthReport(t *testing.T) {
	var out bytes.Buffer
	RenderHealthReport(&out, domain.HealthReport{Checks: []domain.HealthCheck{
		{Name: "Ollama", Status: domain.HealthWarn, Details: "unreachable"},
	}})
	assert.Contains(t, out.String(), "[WARN] Ollama - unreachable")
}

func TestWriteJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, WriteJSON(&out, domain.IdeasResult{All: "raw", Ideas: []string{"one"}}))
	assert.Contains(t, out.String(), `"all_ideas": "raw"`)
}

func TestPullReporterPlainOutput(t *testing.T) {
	var out bytes.Buffer
	completed, total := int64(50), int64(100)
	reporter := NewPullReporter(&out)
	reporter.Report(domain.PullProgress{Status: "pulling manifest"})
	reporter.Report(domain.PullProgress{Status: "downloading", Completed: &completed, Total: &total})
	reporter.Report(domain.PullProgress{Status: "success"})
	reporter.Close()

	assert.Contains(t, out.String(), "pulling manifest")
	assert.Contains(t, out.String(), "success")
}

func TestRunWithSpinnerNonTerminal(t *testing.T) {
	var out bytes.Buffer
	got, err := RunWithSpinner(&out, "Generating", func() (string, error) { return "done", nil })
	require.NoError(t, err)
	assert.Equal(t, "done", got)
	assert.Empty(t, out.String())
}
