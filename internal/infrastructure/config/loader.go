package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/promptcraft/assets"
	"github.com/doeshing/promptcraft/internal/domain"
	"github.com/doeshing/promptcraft/internal/pkg/filesystem"
	"github.com/doeshing/promptcraft/internal/ports"
)

const (
	// EnvConfigPath overrides the config file location.
	EnvConfigPath = "PROMPTCRAFT_CONFIG"
	// EnvPrefix prefixes per-key environment overrides.
	EnvPrefix = "PROMPTCRAFT"
)

// FileLoader loads YAML configuration from ~/.promptcraft/config.yaml (overridable via PROMPTCRAFT_CONFIG).
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider. Defaults come first, the user file is merged
// over them and PROMPTCRAFT_* environment variables win last.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.Path()
	if err := ensureConfigDir(path); err != nil {
		return domain.Config{}, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(assets.DefaultConfigYAML)); err != nil {
		return domain.Config{}, fmt.Errorf("read embedded defaults: %w", err)
	}

	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := writeDefault(path); err != nil {
			return domain.Config{}, err
		}
	case err != nil:
		return domain.Config{}, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := v.MergeConfig(strings.NewReader(expandEnv(string(content)))); err != nil {
			return domain.Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg domain.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return domain.Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return hydrateDefaults(cfg), nil
}

// Path returns the resolved config file location.
func (l *FileLoader) Path() string {
	if l.overridePath != "" {
		return filesystem.ExpandPath(l.overridePath)
	}
	if custom := os.Getenv(EnvConfigPath); custom != "" {
		return filesystem.ExpandPath(custom)
	}
	return filepath.Join(filesystem.AppDir(), "config.yaml")
}

// Save writes cfg to disk.
func (l *FileLoader) Save(cfg domain.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return filesystem.WriteFileAtomic(l.Path(), raw, domain.SecureFilePermissions)
}

// Backup copies the current config file next to itself and returns the copy's path.
func (l *FileLoader) Backup() (string, error) {
	data, err := os.ReadFile(l.Path())
	if err != nil {
		return "", fmt.Errorf("read config for backup: %w", err)
	}
	dest := fmt.Sprintf("%s.bak.%s", l.Path(), time.Now().Format(domain.ExportTimestampFormat))
	if err := os.WriteFile(dest, data, domain.SecureFilePermissions); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return dest, nil
}

// Reset replaces the config file with the embedded defaults.
func (l *FileLoader) Reset() (domain.Config, error) {
	if err := writeDefault(l.Path()); err != nil {
		return domain.Config{}, err
	}
	return DefaultConfig()
}

// DefaultConfig returns the embedded defaults with paths expanded.
func DefaultConfig() (domain.Config, error) {
	var cfg domain.Config
	if err := yaml.Unmarshal(assets.DefaultConfigYAML, &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("parse embedded defaults: %w", err)
	}
	return hydrateDefaults(cfg), nil
}

func ensureConfigDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions)
}

func writeDefault(path string) error {
	if err := ensureConfigDir(path); err != nil {
		return err
	}
	return filesystem.WriteFileAtomic(path, assets.DefaultConfigYAML, domain.SecureFilePermissions)
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.ConfigFormatVersion == "" {
		cfg.ConfigFormatVersion = "1"
	}
	cfg.Backends.Ollama.BaseURL = strings.TrimRight(cfg.Backends.Ollama.BaseURL, "/")
	cfg.Backends.LMStudio.BaseURL = trimLMStudioBase(cfg.Backends.LMStudio.BaseURL)
	if cfg.Backends.Ollama.KeepAlive == "" {
		cfg.Backends.Ollama.KeepAlive = domain.DefaultOllamaKeepAlive
	}
	if cfg.Backends.LMStudio.Mode == "" {
		cfg.Backends.LMStudio.Mode = domain.LMStudioModeAuto
	}
	if cfg.Discovery.Timeout <= 0 {
		cfg.Discovery.Timeout = domain.DefaultDiscoveryTimeout
	}
	if cfg.Discovery.CacheTTL <= 0 {
		cfg.Discovery.CacheTTL = domain.DefaultModelCacheTTL
	}
	if cfg.Generation.MaxTokens == 0 {
		cfg.Generation.MaxTokens = domain.DefaultMaxTokens
	}
	if cfg.History.Backend == "" {
		cfg.History.Backend = domain.HistoryBackendJSON
	}
	if cfg.Server.GenerationTimeout <= 0 {
		cfg.Server.GenerationTimeout = domain.DefaultServerGenerationTimeout
	}
	cfg.Discovery.CachePath = filesystem.ExpandPath(cfg.Discovery.CachePath)
	cfg.History.Path = filesystem.ExpandPath(cfg.History.Path)
	cfg.History.ExportDir = filesystem.ExpandPath(cfg.History.ExportDir)
	cfg.Server.HistoryPath = filesystem.ExpandPath(cfg.Server.HistoryPath)
	cfg.Logging.Dir = filesystem.ExpandPath(cfg.Logging.Dir)
	return cfg
}

// trimLMStudioBase accepts both "http://host:1234" and "http://host:1234/v1".
func trimLMStudioBase(base string) string {
	base = strings.TrimRight(base, "/")
	return strings.TrimSuffix(base, "/v1")
}

var envPattern = regexp.MustCompile(`\${(\w+)(:([^}]*))?}`)

// expandEnv replaces ${VAR} and ${VAR:default} placeholders.
func expandEnv(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		submatch := envPattern.FindStringSubmatch(match)
		if value, ok := os.LookupEnv(submatch[1]); ok {
			return value
		}
		if submatch[2] != "" {
			return submatch[3]
		}
		return ""
	})
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
