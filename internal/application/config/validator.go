package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/doeshing/promptcraft/internal/domain"
)

// Validate ensures config structure is consistent.
func Validate(cfg domain.Config) error {
	if !cfg.Backends.Ollama.Enabled && !cfg.Backends.LMStudio.Enabled {
		return errors.New("at least one backend must be enabled")
	}
	if err := validateBackends(cfg.Backends); err != nil {
		return err
	}
	if err := validateDiscovery(cfg.Discovery); err != nil {
		return err
	}
	if err := validateGeneration(cfg.Generation); err != nil {
		return err
	}
	if err := validateHistory(cfg.History); err != nil {
		return err
	}
	if err := validateServer(cfg.Server, cfg.History); err != nil {
		return err
	}
	return nil
}

func validateBackends(b domain.BackendSettings) error {
	if b.Ollama.Enabled {
		if err := validateURL("backends.ollama.base_url", b.Ollama.BaseURL); err != nil {
			return err
		}
	}
	if b.LMStudio.Enabled {
		if err := validateURL("backends.lmstudio.base_url", b.LMStudio.BaseURL); err != nil {
			return err
		}
	}
	switch strings.ToLower(b.LMStudio.Mode) {
	case "", domain.LMStudioModeAuto, domain.LMStudioModeNative, domain.LMStudioModeOpenAI:
	default:
		return fmt.Errorf("backends.lmstudio.mode must be auto|native|openai, got %s", b.LMStudio.Mode)
	}
	return nil
}

func validateDiscovery(d domain.DiscoverySettings) error {
	if d.Timeout < 0 {
		return fmt.Errorf("discovery.timeout must be >= 0")
	}
	if d.CacheTTL < 0 {
		return fmt.Errorf("discovery.cache_ttl must be >= 0")
	}
	return nil
}

func validateGeneration(g domain.GenerationSettings) error {
	if g.Timeout < 0 {
		return fmt.Errorf("generation.timeout must be >= 0")
	}
	if g.MaxTokens != 0 && (g.MaxTokens < domain.MinMaxTokens || g.MaxTokens > domain.MaxMaxTokens) {
		return fmt.Errorf("generation.max_tokens must be between %d and %d", domain.MinMaxTokens, domain.MaxMaxTokens)
	}
	if g.DefaultTarget != "" && domain.ParseTargetDomain(g.DefaultTarget) != domain.TargetDomain(normalizeTarget(g.DefaultTarget)) {
		return fmt.Errorf("generation.default_target must be wan2.2|flux|qwen, got %s", g.DefaultTarget)
	}
	if g.DefaultCreativity != "" && string(domain.ParseCreativityMode(g.DefaultCreativity)) != strings.ToLower(g.DefaultCreativity) {
		return fmt.Errorf("generation.default_creativity must be precise|balanced|creative, got %s", g.DefaultCreativity)
	}
	return nil
}

func validateHistory(h domain.HistorySettings) error {
	switch h.Backend {
	case "", domain.HistoryBackendJSON, domain.HistoryBackendSQLite:
	default:
		return fmt.Errorf("history.backend must be json|sqlite, got %s", h.Backend)
	}
	if h.Enabled && h.Path == "" {
		return fmt.Errorf("history.path must be set when history is enabled")
	}
	return nil
}

func validateServer(s domain.ServerSettings, h domain.HistorySettings) error {
	if s.GenerationTimeout < 0 {
		return fmt.Errorf("server.generation_timeout must be >= 0")
	}
	if s.HistoryPath != "" && s.HistoryPath == h.Path {
		return fmt.Errorf("server.history_path must differ from history.path")
	}
	return nil
}

func validateURL(key, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s must be set", key)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s invalid: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", key, raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s has no host: %q", key, raw)
	}
	return nil
}

// normalizeTarget maps accepted aliases onto canonical target names.
func normalizeTarget(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "wan2.2", "wan", "video":
		return string(domain.TargetWan)
	case "flux", "flux-image":
		return string(domain.TargetFlux)
	case "qwen", "qwen-image":
		return string(domain.TargetQwen)
	default:
		return value
	}
}
