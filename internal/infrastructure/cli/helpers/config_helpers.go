package helpers

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/promptcraft/internal/app"
	configapp "github.com/doeshing/promptcraft/internal/application/config"
	"github.com/doeshing/promptcraft/internal/domain"
	configinfra "github.com/doeshing/promptcraft/internal/infrastructure/config"
)

// GetConfigLoader returns the file-backed loader, or an error when the container has none.
func GetConfigLoader(container *app.Container) (*configinfra.FileLoader, error) {
	if container == nil || container.ConfigLoader == nil {
		return nil, fmt.Errorf("config loader unavailable")
	}
	return container.ConfigLoader, nil
}

// SaveConfigWithValidation validates cfg, backs up the current file and writes cfg.
func SaveConfigWithValidation(container *app.Container, cfg domain.Config) error {
	loader, err := GetConfigLoader(container)
	if err != nil {
		return err
	}
	if err := configapp.Validate(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if _, err := os.Stat(loader.Path()); err == nil {
		if _, err := loader.Backup(); err != nil {
			return fmt.Errorf("backup config: %w", err)
		}
	}
	if err := loader.Save(cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// LookupConfigKey returns the value at a dotted key such as "backends.ollama.base_url".
func LookupConfigKey(cfg domain.Config, key string) (interface{}, error) {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	var generic interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	value, found := TraverseNestedMap(generic, splitKey(key))
	if !found {
		return nil, fmt.Errorf("key %s not found in configuration", key)
	}
	return value, nil
}

// ApplyConfigKey returns a copy of cfg with key set to the YAML-parsed value.
// Unknown keys are rejected so typos do not silently vanish on save.
func ApplyConfigKey(cfg domain.Config, key, value string) (domain.Config, error) {
	if _, err := LookupConfigKey(cfg, key); err != nil {
		return domain.Config{}, err
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return domain.Config{}, fmt.Errorf("failed to marshal config: %w", err)
	}
	cfgMap := map[string]interface{}{}
	if err := yaml.Unmarshal(raw, &cfgMap); err != nil {
		return domain.Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if !SetNestedMapValue(cfgMap, splitKey(key), ParseYAMLValue(value)) {
		return domain.Config{}, fmt.Errorf("unable to set key %s", key)
	}

	updatedRaw, err := yaml.Marshal(cfgMap)
	if err != nil {
		return domain.Config{}, fmt.Errorf("failed to marshal updated config: %w", err)
	}
	var updated domain.Config
	if err := yaml.Unmarshal(updatedRaw, &updated); err != nil {
		return domain.Config{}, fmt.Errorf("value %q does not fit %s: %w", value, key, err)
	}
	return updated, nil
}

// ParseYAMLValue parses a string value as YAML, falling back to the literal string.
func ParseYAMLValue(input string) interface{} {
	var parsed interface{}
	if err := yaml.Unmarshal([]byte(input), &parsed); err != nil || parsed == nil {
		return input
	}
	return parsed
}

// SetNestedMapValue creates intermediate maps as needed. It reports false for an empty path.
func SetNestedMapValue(root map[string]interface{}, keyPath []string, value interface{}) bool {
	if len(keyPath) == 0 {
		return false
	}
	current := root
	for _, key := range keyPath[:len(keyPath)-1] {
		child, isMap := current[key].(map[string]interface{})
		if !isMap {
			child = map[string]interface{}{}
			current[key] = child
		}
		current = child
	}
	current[keyPath[len(keyPath)-1]] = value
	return true
}

// TraverseNestedMap walks keyPath through nested maps.
func TraverseNestedMap(data interface{}, keyPath []string) (interface{}, bool) {
	if len(keyPath) == 0 {
		return data, true
	}
	node, ok := data.(map[string]interface{})
	if !ok {
		return nil, false
	}
	next, exists := node[keyPath[0]]
	if !exists {
		return nil, false
	}
	return TraverseNestedMap(next, keyPath[1:])
}

func splitKey(key string) []string {
	return strings.Split(strings.TrimSpace(key), ".")
}
