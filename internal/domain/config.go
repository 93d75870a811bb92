package domain

import "time"

// Config mirrors ~/.promptcraft/config.yaml.
type Config struct {
	ConfigFormatVersion string             `yaml:"config_format_version" mapstructure:"config_format_version" json:"config_format_version"`
	Backends            BackendSettings    `yaml:"backends" mapstructure:"backends" json:"backends"`
	Discovery           DiscoverySettings  `yaml:"discovery" mapstructure:"discovery" json:"discovery"`
	Generation          GenerationSettings `yaml:"generation" mapstructure:"generation" json:"generation"`
	History             HistorySettings    `yaml:"history" mapstructure:"history" json:"history"`
	Server              ServerSettings     `yaml:"server" mapstructure:"server" json:"server"`
	Logging             LoggingSettings    `yaml:"logging" mapstructure:"logging" json:"logging"`
}

// BackendSettings locates the two local LLM servers.
type BackendSettings struct {
	Ollama   OllamaSettings   `yaml:"ollama" mapstructure:"ollama" json:"ollama"`
	LMStudio LMStudioSettings `yaml:"lmstudio" mapstructure:"lmstudio" json:"lmstudio"`
}

// OllamaSettings configures the chat-style backend.
type OllamaSettings struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url" json:"base_url"`
	KeepAlive string `yaml:"keep_alive" mapstructure:"keep_alive" json:"keep_alive"`
}

// LMStudio client modes.
const (
	LMStudioModeAuto   = "auto"
	LMStudioModeNative = "native"
	LMStudioModeOpenAI = "openai"
)

// LMStudioSettings configures the LM Studio backend.
type LMStudioSettings struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url" json:"base_url"`
	// Mode is auto|native|openai; auto probes the native REST API first.
	Mode string `yaml:"mode" mapstructure:"mode" json:"mode"`
}

// DiscoverySettings tunes model listing.
type DiscoverySettings struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout" json:"timeout"`
	CacheTTL     time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl" json:"cache_ttl"`
	PersistCache bool          `yaml:"persist_cache" mapstructure:"persist_cache" json:"persist_cache"`
	CachePath    string        `yaml:"cache_path" mapstructure:"cache_path" json:"cache_path"`
}

// GenerationSettings holds CLI generation defaults.
type GenerationSettings struct {
	// Timeout of zero means no deadline.
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout" json:"timeout"`
	MaxTokens         int           `yaml:"max_tokens" mapstructure:"max_tokens" json:"max_tokens"`
	DefaultModel      string        `yaml:"default_model" mapstructure:"default_model" json:"default_model"`
	DefaultTarget     string        `yaml:"default_target" mapstructure:"default_target" json:"default_target"`
	DefaultCreativity string        `yaml:"default_creativity" mapstructure:"default_creativity" json:"default_creativity"`
	UnloadAfter       bool          `yaml:"unload_after" mapstructure:"unload_after" json:"unload_after"`
}

// History backends.
const (
	HistoryBackendJSON   = "json"
	HistoryBackendSQLite = "sqlite"
)

// HistorySettings configures the interactive history store.
type HistorySettings struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
	Backend   string `yaml:"backend" mapstructure:"backend" json:"backend"`
	Path      string `yaml:"path" mapstructure:"path" json:"path"`
	ExportDir string `yaml:"export_dir" mapstructure:"export_dir" json:"export_dir"`
}

// ServerSettings configures `promptcraft serve`.
type ServerSettings struct {
	Address           string        `yaml:"address" mapstructure:"address" json:"address"`
	GenerationTimeout time.Duration `yaml:"generation_timeout" mapstructure:"generation_timeout" json:"generation_timeout"`
	// HistoryPath is a store independent from history.path.
	HistoryPath    string   `yaml:"history_path" mapstructure:"history_path" json:"history_path"`
	CORSOrigins    []string `yaml:"cors_origins" mapstructure:"cors_origins" json:"cors_origins"`
	MetricsEnabled bool     `yaml:"metrics_enabled" mapstructure:"metrics_enabled" json:"metrics_enabled"`
	ReleaseMode    bool     `yaml:"release_mode" mapstructure:"release_mode" json:"release_mode"`
}

// LoggingSettings configures the slog pipeline.
type LoggingSettings struct {
	Level      string `yaml:"level" mapstructure:"level" json:"level"`
	FileOutput bool   `yaml:"file_output" mapstructure:"file_output" json:"file_output"`
	Dir        string `yaml:"dir" mapstructure:"dir" json:"dir"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age" json:"max_age"`
}

// BaseURL returns the configured endpoint for a service.
func (c *Config) BaseURL(service Service) string {
	switch service {
	case ServiceOllama:
		return c.Backends.Ollama.BaseURL
	default:
		return c.Backends.LMStudio.BaseURL
	}
}

// ServiceEnabled reports whether discovery should query a service.
func (c *Config) ServiceEnabled(service Service) bool {
	switch service {
	case ServiceOllama:
		return c.Backends.Ollama.Enabled
	case ServiceLMStudio:
		return c.Backends.LMStudio.Enabled
	default:
		return false
	}
}
