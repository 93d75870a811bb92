package doctor

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/promptcraft/internal/domain"
	"github.com/doeshing/promptcraft/internal/ports"
)

type staticConfig struct {
	cfg domain.Config
	err error
}

func (s staticConfig) Load(context.Context) (domain.Config, error) { return s.cfg, s.err }

type fakeBackend struct {
	service domain.Service
	models  []string
	err     error
}

func (f fakeBackend) Service() domain.Service { return f.service }

func (f fakeBackend) ListModels(context.Context) ([]string, error) { return f.models, f.err }

func (f fakeBackend) Complete(context.Context, domain.GenerationRequest) (string, error) {
	return "", nil
}

type fakeFactory map[domain.Service]fakeBackend

func (f fakeFactory) ForService(service domain.Service) (ports.Backend, error) {
	backend, ok := f[service]
	if !ok {
		return nil, errors.New("disabled")
	}
	return backend, nil
}

func baseConfig(dir string) domain.Config {
	return domain.Config{
		ConfigFormatVersion: "1",
		Backends: domain.BackendSettings{
			Ollama:   domain.OllamaSettings{Enabled: true, BaseURL: "http://localhost:11434"},
			LMStudio: domain.LMStudioSettings{Enabled: true, BaseURL: "http://localhost:1234"},
		},
		History: domain.HistorySettings{Enabled: true, Backend: "json", Path: filepath.Join(dir, "history.json")},
		Server:  domain.ServerSettings{HistoryPath: filepath.Join(dir, "api", "history.json")},
	}
}

func statuses(report domain.HealthReport) map[string]domain.HealthStatus {
	out := map[string]domain.HealthStatus{}
	for _, check := range report.Checks {
		out[check.Name] = check.Status
	}
	return out
}

func TestRun_AllHealthy(t *testing.T) {
	svc := &Service{
		ConfigProvider: staticConfig{cfg: baseConfig(t.TempDir())},
		Backends: fakeFactory{
			domain.ServiceOllama:   {service: domain.ServiceOllama, models: []string{"llama3"}},
			domain.ServiceLMStudio: {service: domain.ServiceLMStudio, models: []string{"qwen"}},
		},
	}
	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Healthy())
	assert.Equal(t, map[string]domain.HealthStatus{
		"Config file":       domain.HealthOK,
		"LM Studio":         domain.HealthOK,
		"Ollama":            domain.HealthOK,
		"History store":     domain.HealthOK,
		"API history store": domain.HealthOK,
	}, statuses(report))
}

func TestRun_UnreachableBackendWarns(t *testing.T) {
	cfg := baseConfig(t.TempDir())
	cfg.Backends.LMStudio.Enabled = false
	svc := &Service{
		ConfigProvider: staticConfig{cfg: cfg},
		Backends: fakeFactory{
			domain.ServiceOllama: {service: domain.ServiceOllama, err: errors.New("connection refused")},
		},
	}
	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	got := statuses(report)
	assert.Equal(t, domain.HealthWarn, got["Ollama"])
	assert.Equal(t, domain.HealthWarn, got["LM Studio"])
	assert.True(t, report.Healthy())
}

func TestRun_InvalidConfigFails(t *testing.T) {
	cfg := baseConfig(t.TempDir())
	cfg.History.Backend = "postgres"
	svc := &Service{ConfigProvider: staticConfig{cfg: cfg}, Backends: fakeFactory{}}

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Healthy())
	assert.Equal(t, domain.HealthError, statuses(report)["Config file"])
}

func TestRun_LoadErrorStops(t *testing.T) {
	svc := &Service{ConfigProvider: staticConfig{err: errors.New("bad yaml")}}
	report, err := svc.Run(context.Background())
	require.Error(t, err)
	require.Len(t, report.Checks, 1)
	assert.Equal(t, domain.HealthError, report.Checks[0].Status)
}

func TestPathCheck_Directory(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, domain.HealthError, pathCheck("x", dir).Status)
	assert.Equal(t, domain.HealthError, pathCheck("x", "").Status)
}
